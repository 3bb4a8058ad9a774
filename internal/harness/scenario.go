package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario.
// A scenario compiles a CUE schema, encodes records with it, decodes the
// resulting matrix and asserts on what came out.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// CUE is inline CUE source declaring the schemas.
	CUE string `yaml:"cue,omitempty"`

	// CUEFile is a path to a CUE file, relative to the scenario file.
	// Exactly one of CUE and CUEFile must be set.
	CUEFile string `yaml:"cue_file,omitempty"`

	// Schema names the compiled schema to run against.
	Schema string `yaml:"schema"`

	// Records are encoded when present. Missing keys stay unset.
	Records []map[string]any `yaml:"records,omitempty"`

	// Matrix is decoded directly when Records is empty.
	Matrix [][]float64 `yaml:"matrix,omitempty"`

	// Assertions validate the encoded matrix, the decoded records and any
	// error raised along the way.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one aspect of a run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "width": the schema width equals Width
	// - "matrix": the encoded matrix equals Rows
	// - "roundtrip": decoding the encoded matrix gives back the input records
	// - "decoded": the decoded records equal Records
	// - "error": the run failed with Code and a message containing Message
	Type string `yaml:"type"`

	Width   int              `yaml:"width,omitempty"`
	Rows    [][]float64      `yaml:"rows,omitempty"`
	Records []map[string]any `yaml:"records,omitempty"`
	Code    string           `yaml:"code,omitempty"`
	Message string           `yaml:"message,omitempty"`
}

// Assertion type constants.
const (
	AssertWidth     = "width"
	AssertMatrix    = "matrix"
	AssertRoundTrip = "roundtrip"
	AssertDecoded   = "decoded"
	AssertError     = "error"
)

// LoadScenario reads and parses a scenario YAML file. A cue_file path is
// resolved relative to the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving cue_file relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.CUEFile != "" && !filepath.IsAbs(scenario.CUEFile) && basePath != "" {
		scenario.CUEFile = filepath.Join(basePath, scenario.CUEFile)
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML without touching the filesystem.
// Unknown keys are rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches typos like "assertion:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}

	switch {
	case s.CUE == "" && s.CUEFile == "":
		return fmt.Errorf("one of cue or cue_file is required")
	case s.CUE != "" && s.CUEFile != "":
		return fmt.Errorf("cue and cue_file are mutually exclusive")
	}
	if s.CUEFile != "" {
		if _, err := os.Stat(s.CUEFile); os.IsNotExist(err) {
			return fmt.Errorf("cue file not found: %s", s.CUEFile)
		}
	}

	if len(s.Records) > 0 && len(s.Matrix) > 0 {
		return fmt.Errorf("records and matrix are mutually exclusive")
	}
	for i, row := range s.Matrix {
		if len(row) != len(s.Matrix[0]) {
			return fmt.Errorf("matrix[%d]: expected %d values, got %d", i, len(s.Matrix[0]), len(row))
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], s); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, s *Scenario) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertWidth:
		if a.Width < 0 {
			return fmt.Errorf("assertions[%d]: width must be non-negative", index)
		}
	case AssertMatrix:
		if len(s.Records) == 0 {
			return fmt.Errorf("assertions[%d]: matrix requires records", index)
		}
	case AssertRoundTrip:
		if len(s.Records) == 0 {
			return fmt.Errorf("assertions[%d]: roundtrip requires records", index)
		}
	case AssertDecoded:
		if a.Records == nil {
			return fmt.Errorf("assertions[%d]: records is required for decoded", index)
		}
	case AssertError:
		if a.Code == "" && a.Message == "" {
			return fmt.Errorf("assertions[%d]: code or message is required for error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
