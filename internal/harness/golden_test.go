package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Regenerate with:
//
//	go test ./internal/harness -run TestScenarios_Golden -update
func TestScenarios_Golden(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, scenario := range scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestMarshalSnapshot_Deterministic(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)

	var outputs [][]byte
	for i := 0; i < 3; i++ {
		result, err := Run(t.Context(), scenarios[0])
		require.NoError(t, err)
		data, err := MarshalSnapshot(TraceSnapshot{
			ScenarioName: scenarios[0].Name,
			Trace:        result.Trace,
			Final:        result.Final,
		})
		require.NoError(t, err)
		outputs = append(outputs, data)
	}

	assert.Equal(t, outputs[0], outputs[1])
	assert.Equal(t, outputs[1], outputs[2])
	assert.Equal(t, byte('\n'), outputs[0][len(outputs[0])-1])
}

func TestGoldenPath(t *testing.T) {
	assert.Equal(t, filepath.Join("scenarios", "golden", "crud.golden"), GoldenPath(filepath.Join("scenarios", "crud.yaml")))
}

func TestWriteGolden_ThenMatch(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	scenario := scenarios[0]

	result, err := Run(t.Context(), scenario)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "golden", "crud.golden")
	require.NoError(t, WriteGolden(path, scenario, result))

	match, err := MatchGolden(path, scenario, result)
	require.NoError(t, err)
	assert.True(t, match)

	// The file written is the same snapshot the package golden test checks.
	want, err := os.ReadFile(filepath.Join("testdata", "golden", scenario.Name+".golden"))
	require.NoError(t, err)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0644))
	match, err = MatchGolden(path, scenario, result)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestMatchGolden_MissingFile(t *testing.T) {
	_, err := MatchGolden(filepath.Join(t.TempDir(), "none.golden"), &Scenario{Name: "x"}, NewResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read golden file")
}
