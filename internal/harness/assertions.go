package harness

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/roach88/featcodec/internal/feature"
	"github.com/roach88/featcodec/internal/record"
	"github.com/roach88/featcodec/internal/schema"
)

// AssertionContext provides what assertions need beyond the result.
type AssertionContext struct {
	// Schema is the schema the scenario ran against. Expected records in
	// "decoded" assertions are validated with it.
	Schema *schema.Schema
}

// EvaluateAssertions checks every assertion against the result.
// Returns a slice of error messages (empty if all pass).
//
// A run that failed with an error must be covered by an "error" assertion;
// otherwise the error itself is reported.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	expectsError := false

	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertWidth:
			err = assertWidth(result, a)
		case AssertMatrix:
			err = assertMatrix(result, a)
		case AssertRoundTrip:
			err = assertRoundTrip(result)
		case AssertDecoded:
			err = assertDecoded(result, a, actx)
		case AssertError:
			expectsError = true
			err = assertError(result, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}

	if result.Err != nil && !expectsError {
		errs = append(errs, fmt.Sprintf("unexpected error: %v", result.Err))
	}
	return errs
}

func assertWidth(result *Result, a Assertion) error {
	if result.Width != a.Width {
		return fmt.Errorf("expected width %d, got %d", a.Width, result.Width)
	}
	return nil
}

func assertMatrix(result *Result, a Assertion) error {
	if result.Err != nil {
		return fmt.Errorf("no matrix: %v", result.Err)
	}
	if len(result.Matrix) != len(a.Rows) {
		return fmt.Errorf("expected %d row(s), got %d", len(a.Rows), len(result.Matrix))
	}
	for i := range a.Rows {
		if len(result.Matrix[i]) != len(a.Rows[i]) || !floats.Equal(result.Matrix[i], a.Rows[i]) {
			return fmt.Errorf("row %d: expected %v, got %v", i, a.Rows[i], result.Matrix[i])
		}
	}
	return nil
}

func assertRoundTrip(result *Result) error {
	if result.Err != nil {
		return fmt.Errorf("no decoded records: %v", result.Err)
	}
	return compareRecords(result.inputs, result.Decoded)
}

func assertDecoded(result *Result, a Assertion, actx *AssertionContext) error {
	if result.Err != nil {
		return fmt.Errorf("no decoded records: %v", result.Err)
	}
	expected := make([]record.Record, len(a.Records))
	for i, fields := range a.Records {
		r, err := record.FromMap(actx.Schema, fields).Validate()
		if err != nil {
			return fmt.Errorf("expected record %d: %w", i, err)
		}
		expected[i] = r
	}
	return compareRecords(expected, result.Decoded)
}

func compareRecords(expected, actual []record.Record) error {
	if len(expected) != len(actual) {
		return fmt.Errorf("expected %d record(s), got %d", len(expected), len(actual))
	}
	for i := range expected {
		if !expected[i].Equal(actual[i]) {
			return fmt.Errorf("record %d: expected %s, got %s", i, expected[i], actual[i])
		}
	}
	return nil
}

func assertError(result *Result, a Assertion) error {
	if result.Err == nil {
		return fmt.Errorf("expected an error, run succeeded")
	}
	if a.Code != "" && !feature.HasCode(result.Err, feature.ErrorCode(a.Code)) {
		return fmt.Errorf("expected code %s, got %v", a.Code, result.Err)
	}
	if a.Message != "" && !strings.Contains(result.Err.Error(), a.Message) {
		return fmt.Errorf("expected message containing %q, got %q", a.Message, result.Err.Error())
	}
	return nil
}
