package codec

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/roach88/featcodec/internal/feature"
	"github.com/roach88/featcodec/internal/record"
	"github.com/roach88/featcodec/internal/schema"
)

var (
	// ErrNotValidated is returned when encoding a record that has not passed
	// Validate.
	ErrNotValidated = errors.New("record has not been validated")

	// ErrSchemaMismatch is returned when a record was built for a different
	// schema than the one being encoded.
	ErrSchemaMismatch = errors.New("record schema does not match")
)

// Encode converts validated records into an R×W row-major matrix, where R is
// the record count and W is s.Width(). Column order follows field declaration
// order and, within vectors, child declaration order.
//
// An empty input (no records or a zero-width schema) yields an empty matrix.
func Encode(s *schema.Schema, records []record.Record) (*mat.Dense, error) {
	if len(records) == 0 || s.Width() == 0 {
		return &mat.Dense{}, nil
	}
	hash := s.Hash()
	data := make([]float64, len(records)*s.Width())
	for i, r := range records {
		if err := checkRecord(s, hash, r); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if err := encodeInto(data[i*s.Width():(i+1)*s.Width()], s, r); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return mat.NewDense(len(records), s.Width(), data), nil
}

// EncodeRow converts one validated record into a row of s.Width() numbers.
func EncodeRow(s *schema.Schema, r record.Record) ([]float64, error) {
	if err := checkRecord(s, s.Hash(), r); err != nil {
		return nil, err
	}
	row := make([]float64, s.Width())
	if err := encodeInto(row, s, r); err != nil {
		return nil, err
	}
	return row, nil
}

// Decode converts every row of m back into a record of s using the chunking
// protocol. m must have exactly s.Width() columns. The first field that fails
// to decode aborts the whole call; no partial result is returned.
func Decode(s *schema.Schema, m mat.Matrix) ([]record.Record, error) {
	rows, cols := m.Dims()
	if rows == 0 && cols == 0 {
		return nil, nil
	}
	if cols != s.Width() {
		return nil, feature.NewError(feature.ErrCodeWidth, "matrix has %d column(s), schema %s has width %d", cols, s.Name(), s.Width())
	}
	if rows == 0 {
		return nil, nil
	}
	types := s.Types()
	out := make([]record.Record, rows)
	buf := make([]float64, cols)
	for i := range rows {
		mat.Row(buf, i, m)
		r, err := decodeRow(s, types, buf)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = r
	}
	return out, nil
}

// DecodeRow converts one row of s.Width() numbers into a record.
func DecodeRow(s *schema.Schema, row []float64) (record.Record, error) {
	if len(row) != s.Width() {
		return record.Record{}, feature.NewError(feature.ErrCodeWidth, "row has %d value(s), schema %s has width %d", len(row), s.Name(), s.Width())
	}
	return decodeRow(s, s.Types(), row)
}

func checkRecord(s *schema.Schema, hash string, r record.Record) error {
	if r.Schema() != s && (r.Schema() == nil || r.Schema().Hash() != hash) {
		return ErrSchemaMismatch
	}
	if !r.Validated() {
		return ErrNotValidated
	}
	return nil
}

func encodeInto(dst []float64, s *schema.Schema, r record.Record) error {
	for f := range s.Offsets() {
		enc, err := f.Type.Encode(r.At(f.Index))
		if err != nil {
			return feature.WithPath(err, f.Name)
		}
		if len(enc) != f.Width() {
			return feature.NewError(feature.ErrCodeWidth, "%s: encoded %d value(s), width is %d", f.Name, len(enc), f.Width())
		}
		copy(dst[f.Offset:f.End()], enc)
	}
	return nil
}

func decodeRow(s *schema.Schema, types []feature.FeatureType, row []float64) (record.Record, error) {
	values := make([]any, len(types))
	for i, chunk := range feature.Chunks(types, row) {
		v, err := types[i].Decode(chunk)
		if err != nil {
			return record.Record{}, feature.WithPath(err, s.At(i).Name)
		}
		values[i] = v
	}
	r, err := record.New(s, values...)
	if err != nil {
		return record.Record{}, err
	}
	return r.Validate()
}
