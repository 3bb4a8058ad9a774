package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadScenario_ResolvesCUEFile(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/output_roundtrip.yaml")
	require.NoError(t, err)

	assert.Equal(t, "output-roundtrip", s.Name)
	assert.Equal(t, "Output", s.Schema)
	assert.Equal(t, filepath.Join("testdata", "scenarios", "schemas", "output.cue"), s.CUEFile)
	require.Len(t, s.Records, 2)
	assert.Equal(t, "a", s.Records[0]["e"])
	require.Len(t, s.Assertions, 3)
	assert.Equal(t, AssertRoundTrip, s.Assertions[2].Type)
}

func TestLoadScenario_InlineCUE(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/vector_decode.yaml")
	require.NoError(t, err)

	assert.Contains(t, s.CUE, "schema: Pred")
	assert.Empty(t, s.CUEFile)
	assert.Equal(t, [][]float64{{2.5, 0.2, 0.7, 1}, {3.5, 0.5, 0.5, -2}}, s.Matrix)
}

func TestLoadScenario_RejectsUnknownFields(t *testing.T) {
	path := writeScenario(t, t.TempDir(), `
name: typo
description: misspelled key
cue: 'schema: A: {x: "number"}'
schema: A
assertion:
  - type: width
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestValidateScenario(t *testing.T) {
	valid := func() *Scenario {
		return &Scenario{
			Name:        "s",
			Description: "d",
			CUE:         `schema: A: {x: "number"}`,
			Schema:      "A",
			Records:     []map[string]any{{"x": 1}},
			Assertions:  []Assertion{{Type: AssertRoundTrip}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Scenario)
		want   string
	}{
		{"missing name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"missing description", func(s *Scenario) { s.Description = "" }, "description is required"},
		{"missing schema", func(s *Scenario) { s.Schema = "" }, "schema is required"},
		{"no source", func(s *Scenario) { s.CUE = "" }, "one of cue or cue_file is required"},
		{"both sources", func(s *Scenario) { s.CUEFile = "x.cue" }, "cue and cue_file are mutually exclusive"},
		{"missing cue file", func(s *Scenario) { s.CUE = ""; s.CUEFile = "/does/not/exist.cue" }, "cue file not found"},
		{"records and matrix", func(s *Scenario) { s.Matrix = [][]float64{{1}} }, "records and matrix are mutually exclusive"},
		{"ragged matrix", func(s *Scenario) {
			s.Records = nil
			s.Matrix = [][]float64{{1, 2}, {3}}
			s.Assertions = []Assertion{{Type: AssertWidth, Width: 1}}
		}, "matrix[1]: expected 2 values, got 1"},
		{"no assertions", func(s *Scenario) { s.Assertions = nil }, "assertions list is required"},
		{"empty type", func(s *Scenario) { s.Assertions = []Assertion{{}} }, "assertions[0]: type is required"},
		{"unknown type", func(s *Scenario) { s.Assertions = []Assertion{{Type: "trace"}} }, `unknown assertion type "trace"`},
		{"matrix without records", func(s *Scenario) {
			s.Records = nil
			s.Assertions = []Assertion{{Type: AssertMatrix}}
		}, "matrix requires records"},
		{"decoded without records", func(s *Scenario) { s.Assertions = []Assertion{{Type: AssertDecoded}} }, "records is required for decoded"},
		{"bare error", func(s *Scenario) { s.Assertions = []Assertion{{Type: AssertError}} }, "code or message is required"},
	}

	require.NoError(t, validateScenario(valid()))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := validateScenario(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
