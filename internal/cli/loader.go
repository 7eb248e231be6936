package cli

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/lnconform/lnconform/internal/dummy"
	"github.com/lnconform/lnconform/internal/event"
	"github.com/lnconform/lnconform/internal/harness"
)

// loadCompiled loads and compiles a scenario file, resolving relative
// paths (the namespace file) against the scenario's directory.
func loadCompiled(path string) (*harness.Compiled, error) {
	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return nil, err
	}
	compiled, err := harness.Compile(scenario, filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	return compiled, nil
}

// runnerFactories maps --runner selector names to constructors. The
// in-process dummy runner is the only built-in; node-backed runners
// register here.
var runnerFactories = map[string]func() event.Runner{
	"dummy": func() event.Runner { return dummy.New() },
}

// newRunner builds the runner selected by name.
func newRunner(name string) (event.Runner, error) {
	factory, ok := runnerFactories[name]
	if !ok {
		names := make([]string, 0, len(runnerFactories))
		for n := range runnerFactories {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown runner %q: available runners are %v", name, names)
	}
	return factory(), nil
}
