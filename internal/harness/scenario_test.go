package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mine/internal/item"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
steps:
  - op: create
    item: {id: a1, name: Sword, value: 3}
    expect: true
  - op: read
    id: a1
    expect_item: {id: a1, name: Sword, value: 3}
  - op: index
    force_refresh: true
    expect_count: 1
assertions:
  - type: trace_count
    op: create
    ok: true
    count: 1
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	require.Len(t, scenario.Steps, 3)
	assert.Equal(t, &item.Item{ID: "a1", Name: "Sword", Value: 3}, scenario.Steps[0].Item)
	require.NotNil(t, scenario.Steps[0].Expect)
	assert.True(t, *scenario.Steps[0].Expect)
	assert.True(t, scenario.Steps[2].ForceRefresh)
	require.NotNil(t, scenario.Steps[2].ExpectCount)
	assert.Equal(t, 1, *scenario.Steps[2].ExpectCount)
	require.Len(t, scenario.Assertions, 1)
	require.NotNil(t, scenario.Assertions[0].OK)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "misspelled key"
steps:
  - op: create
    expcet: true
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"no name", "description: d\nsteps: [{op: index}]\n", "name is required"},
		{"no description", "name: n\nsteps: [{op: index}]\n", "description is required"},
		{"no steps", "name: n\ndescription: d\n", "steps list is required"},
		{"unknown op", "name: n\ndescription: d\nsteps: [{op: upsert}]\n", `unknown op "upsert"`},
		{"read with expect", "name: n\ndescription: d\nsteps: [{op: read, id: a, expect: true}]\n", "read only supports"},
		{"read exclusive", "name: n\ndescription: d\nsteps: [{op: read, id: a, expect_absent: true, expect_item: {id: a}}]\n", "exclusive"},
		{"index with expect", "name: n\ndescription: d\nsteps: [{op: index, expect: true}]\n", "index only supports"},
		{"create with count", "name: n\ndescription: d\nsteps: [{op: create, expect_count: 1}]\n", "create only supports"},
		{"delete with item", "name: n\ndescription: d\nsteps: [{op: delete, id: a, expect_absent: true}]\n", "delete only supports"},
		{"trace_count without op", "name: n\ndescription: d\nsteps: [{op: index}]\nassertions: [{type: trace_count}]\n", "requires op"},
		{"unknown assertion", "name: n\ndescription: d\nsteps: [{op: index}]\nassertions: [{type: bogus}]\n", `unknown type "bogus"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenarios_Sorted(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "crud_lifecycle", scenarios[0].Name)
	assert.Equal(t, "index_order", scenarios[1].Name)
}

func TestLoadScenarios_EmptyDir(t *testing.T) {
	scenarios, err := LoadScenarios(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, scenarios)
}
