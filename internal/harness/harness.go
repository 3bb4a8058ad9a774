package harness

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/roach88/featcodec/internal/codec"
	"github.com/roach88/featcodec/internal/compiler"
	"github.com/roach88/featcodec/internal/ingest"
	"github.com/roach88/featcodec/internal/logger"
	"github.com/roach88/featcodec/internal/schema"
	"github.com/roach88/featcodec/internal/store"
)

// Harness is the scenario execution engine.
type Harness struct {
	store  *store.Store
	schema *schema.Schema
	logger *zap.Logger
}

// Run executes a scenario with a no-op logger.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory store: encoded matrices are
// saved and loaded back before decoding, so the stored form is what gets
// decoded.
//
// Execution flow:
// 1. Compile the CUE source and select the named schema
// 2. Validate and encode records (or take the scenario matrix as is)
// 3. Persist and reload the matrix
// 4. Decode it
// 5. Evaluate assertions
//
// Encode and decode failures are part of the result and are checked by
// "error" assertions. The returned error covers only problems that stop the
// scenario from running at all.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	sc, err := compileScenario(scenario)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:", store.WithLogger(logger.FromContext(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		schema: sc,
		logger: logger.FromContext(ctx).With(zap.String("scenario", scenario.Name)),
	}

	result := NewResult()
	result.Width = sc.Width()

	m, err := h.matrix(ctx, scenario, result)
	if err != nil {
		return nil, err
	}
	if m != nil && result.Err == nil {
		h.decode(m, result)
	}

	actx := &AssertionContext{Schema: sc}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario finished",
		zap.Bool("pass", result.Pass),
		zap.Int("rows", len(result.Matrix)),
		zap.Error(result.Err),
	)
	return result, nil
}

// compileScenario compiles the scenario's CUE and returns the selected schema.
func compileScenario(s *Scenario) (*schema.Schema, error) {
	src, filename := s.CUE, s.Name+".cue"
	if s.CUEFile != "" {
		data, err := os.ReadFile(s.CUEFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read cue file: %w", err)
		}
		src, filename = string(data), s.CUEFile
	}

	compiled, err := compiler.CompileString(src, filename)
	if err != nil {
		return nil, err
	}
	sc, ok := compiled.Schema(s.Schema)
	if !ok {
		return nil, fmt.Errorf("schema %q is not declared in %s", s.Schema, filename)
	}
	return sc, nil
}

// matrix produces the matrix to decode: either the stored encoding of the
// scenario records or the scenario's own matrix.
func (h *Harness) matrix(ctx context.Context, s *Scenario, result *Result) (*mat.Dense, error) {
	if len(s.Records) == 0 {
		if len(s.Matrix) == 0 || len(s.Matrix[0]) == 0 {
			return nil, nil
		}
		m := denseFromRows(s.Matrix)
		result.Matrix = s.Matrix
		return m, nil
	}

	rows := make([]ingest.Row, len(s.Records))
	for i, fields := range s.Records {
		if fields == nil {
			fields = map[string]any{}
		}
		rows[i] = ingest.Row{Line: i + 1, Fields: fields}
	}

	records, err := ingest.Records(h.schema, rows)
	if err != nil {
		result.Err = firstError(err)
		return nil, nil
	}
	m, err := codec.Encode(h.schema, records)
	if err != nil {
		result.Err = err
		return nil, nil
	}
	result.inputs = records

	r, c := m.Dims()
	if r == 0 || c == 0 {
		return nil, nil
	}

	ds, err := h.store.SaveDataset(ctx, s.Name, h.schema, m)
	if err != nil {
		return nil, err
	}
	_, stored, err := h.store.LoadDataset(ctx, ds.ID)
	if err != nil {
		return nil, err
	}
	h.logger.Debug("matrix stored", zap.String("dataset", ds.ID), zap.Int("rows", ds.Rows), zap.Int("cols", ds.Cols))

	result.Matrix = denseRows(stored)
	return stored, nil
}

func (h *Harness) decode(m *mat.Dense, result *Result) {
	decoded, err := codec.Decode(h.schema, m)
	if err != nil {
		result.Err = err
		return
	}
	result.Decoded = decoded
}

// firstError unwraps a multierror to its first entry so that assertions see
// a single row failure.
func firstError(err error) error {
	var merr *multierror.Error
	if errors.As(err, &merr) && len(merr.Errors) > 0 {
		return merr.Errors[0]
	}
	return err
}

func denseFromRows(rows [][]float64) *mat.Dense {
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for _, row := range rows {
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data)
}

func denseRows(m mat.Matrix) [][]float64 {
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range r {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}
