package harness

import (
	"github.com/roach88/featcodec/internal/record"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion held.
	Pass bool `json:"pass"`

	// Width is the width of the scenario's schema.
	Width int `json:"width"`

	// Matrix holds the encoded rows, or the scenario's matrix when only
	// decoding was exercised.
	Matrix [][]float64 `json:"matrix,omitempty"`

	// Decoded holds the records decoded from Matrix.
	Decoded []record.Record `json:"decoded,omitempty"`

	// Err is the first encode or decode failure, if any.
	Err error `json:"-"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// inputs are the validated records that were encoded.
	inputs []record.Record
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
