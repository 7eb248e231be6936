package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/lnconform/lnconform/internal/engine"
	"github.com/lnconform/lnconform/internal/event"
)

// PathsSnapshot captures a scenario's enumerated paths for golden
// comparison: each path as the ordered list of its event names.
type PathsSnapshot struct {
	Scenario string     `json:"scenario"`
	Paths    [][]string `json:"paths"`
}

// AssertPathsGolden enumerates the events and compares the resulting
// path set against testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Enumeration is pure and ordered, so the snapshot is byte-identical
// across runs; a diff means the branch structure or its ordering
// changed.
func AssertPathsGolden(t *testing.T, name string, events []event.Event) {
	t.Helper()

	paths := engine.Enumerate(events)
	snapshot := PathsSnapshot{Scenario: name, Paths: make([][]string, 0, len(paths))}
	for _, p := range paths {
		snapshot.Paths = append(snapshot.Paths, p.Names())
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	data = append(data, '\n')

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
