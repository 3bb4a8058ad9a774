package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValidSchemas(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{schemasDir})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ 2 schema(s), 1 model(s) valid")
}

func TestValidateValidSchemasJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{schemasDir})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 2, resp.Data.Schemas)
	assert.Equal(t, 1, resp.Data.Models)
}

func TestValidateNonExistentDirectory(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/directory/path"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E005")
}

func TestValidateLintFindings(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "lint.cue"), []byte(`package lint

schema: In: {
	x: "number"
}

schema: Out: {
	id: "tag"
	x:  "number"
}

model: M: {
	input:  "In"
	output: "Out"
}
`), 0o644))

	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{tmpDir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed with 2 finding(s)")

	output := buf.String()
	assert.Contains(t, output, "✗ Validation failed")
	assert.Contains(t, output, "Out.id")
	assert.Contains(t, output, "M.x")
}

func TestValidateRecords(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{schemasDir, "--schema", "Input", "--input", filepath.Join("testdata", "records", "input.jsonl")})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "2 record(s) valid")
}

func TestValidateRecordsCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{schemasDir, "-s", "Input", "-i", filepath.Join("testdata", "records", "input.csv")})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "2 record(s) valid")
}

func TestValidateRecordsReportsEveryBadRow(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{schemasDir, "-s", "Input", "-i", filepath.Join("testdata", "records", "invalid.jsonl")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Data ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.False(t, resp.Data.Valid)
	assert.Equal(t, 3, resp.Data.Records)
	require.Len(t, resp.Data.Rows, 2)
	assert.Equal(t, 2, resp.Data.Rows[0].Line)
	assert.Contains(t, resp.Data.Rows[0].Message, "TYPE_ERROR")
	assert.Equal(t, 3, resp.Data.Rows[1].Line)
	assert.Contains(t, resp.Data.Rows[1].Message, "fog")
}

func TestValidateRecordsText(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{schemasDir, "-s", "Input", "-i", filepath.Join("testdata", "records", "invalid.jsonl")})

	require.Error(t, cmd.Execute())
	output := buf.String()
	assert.Contains(t, output, "line 2:")
	assert.Contains(t, output, "line 3:")
	assert.Contains(t, output, "2 of 3 record(s) invalid")
}

func TestValidateRecordsRequiresSchemaName(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{schemasDir, "-i", filepath.Join("testdata", "records", "input.jsonl")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeUnknownSchema)
	assert.Contains(t, buf.String(), "--schema is required")
}

func TestValidateUnknownSchema(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{schemasDir, "-s", "Nope", "-i", filepath.Join("testdata", "records", "input.jsonl")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), `schema "Nope" is not declared`)
}

func TestValidateMissingInputFile(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{schemasDir, "-s", "Input", "-i", "/nonexistent/rows.jsonl"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeInputFailed)
}

func TestValidateModelPairs(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{schemasDir, "--model", "Weather", "-i", filepath.Join("testdata", "records", "pairs.csv")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Data ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, 2, resp.Data.Records)
	require.Len(t, resp.Data.Rows, 1)
	assert.Equal(t, 3, resp.Data.Rows[0].Line)
	assert.Contains(t, resp.Data.Rows[0].Message, "non-existent label c")
}

func TestValidateUnknownModel(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewValidateCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{schemasDir, "-m", "Nope", "-i", filepath.Join("testdata", "records", "pairs.csv")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, buf.String(), `model "Nope" is not declared`)
}
