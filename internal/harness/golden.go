package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/featcodec/internal/record"
)

// Snapshot captures what a scenario produced. Field order is fixed so the
// JSON form is deterministic.
type Snapshot struct {
	ScenarioName string          `json:"scenario_name"`
	Width        int             `json:"width"`
	Matrix       [][]float64     `json:"matrix,omitempty"`
	Decoded      []record.Record `json:"decoded,omitempty"`
	Error        string          `json:"error,omitempty"`
}

func newSnapshot(name string, result *Result) Snapshot {
	snap := Snapshot{
		ScenarioName: name,
		Width:        result.Width,
		Matrix:       result.Matrix,
		Decoded:      result.Decoded,
	}
	if result.Err != nil {
		snap.Error = result.Err.Error()
	}
	return snap
}

// SnapshotJSON returns the golden file form of a result.
func SnapshotJSON(scenarioName string, result *Result) ([]byte, error) {
	return json.Marshal(newSnapshot(scenarioName, result))
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario cannot run.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := SnapshotJSON(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
