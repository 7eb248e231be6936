package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "feerate-variants.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "feerate-variants", s.Name)
	assert.NotEmpty(t, s.Description)
	assert.Len(t, s.Steps, 5)
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenarioUnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "unknown top-level key"
step:
  - connect: { privkey: "03" }
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step")
}

func TestLoadScenarioMissingName(t *testing.T) {
	path := writeScenario(t, `
description: "no name"
steps:
  - connect: { privkey: "03" }
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestLoadScenarioEmptySteps(t *testing.T) {
	path := writeScenario(t, `
name: empty
description: "no steps"
steps: []
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps list is required")
}

func TestLoadScenarioMultiKeyStep(t *testing.T) {
	path := writeScenario(t, `
name: multi
description: "two kinds in one step"
steps:
  - connect: { privkey: "03" }
    disconnect: {}
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
}
