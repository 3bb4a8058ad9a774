package record

import (
	"fmt"
	"iter"
	"reflect"
	"strings"

	"github.com/roach88/featcodec/internal/feature"
	"github.com/roach88/featcodec/internal/schema"
)

// Record is an immutable tuple of field values conforming to a Schema.
//
// Values are raw until Validate returns a validated copy. Only validated
// records may be encoded. Unset slots (from FromMap) hold nil.
type Record struct {
	schema    *schema.Schema
	values    []any
	validated bool
}

// New builds a record from positional values in schema field order.
func New(s *schema.Schema, values ...any) (Record, error) {
	if len(values) < s.Len() {
		return Record{}, feature.NewError(feature.ErrCodeArity, "too few values for %s (expected %d, got %d)", s.Name(), s.Len(), len(values))
	}
	if len(values) > s.Len() {
		return Record{}, feature.NewError(feature.ErrCodeArity, "too many values for %s (expected %d, got %d)", s.Name(), s.Len(), len(values))
	}
	cp := make([]any, len(values))
	copy(cp, values)
	return Record{schema: s, values: cp}, nil
}

// MustNew is like New but panics on error.
func MustNew(s *schema.Schema, values ...any) Record {
	r, err := New(s, values...)
	if err != nil {
		panic(err)
	}
	return r
}

// FromMap builds a record from a string-keyed mapping.
// Keys that are not schema fields are ignored; missing fields are left unset.
func FromMap(s *schema.Schema, m map[string]any) Record {
	values := make([]any, s.Len())
	for k, v := range m {
		if f, ok := s.Field(k); ok {
			values[f.Index] = v
		}
	}
	return Record{schema: s, values: values}
}

// Validate passes every field through its feature type in declared order and
// returns a validated copy. The first failing field's error is returned, with
// the field name prefixed to its path; later fields are not evaluated.
func (r Record) Validate() (Record, error) {
	if r.schema == nil {
		return Record{}, feature.NewError(feature.ErrCodeArity, "record has no schema")
	}
	out := make([]any, len(r.values))
	for f := range r.schema.Offsets() {
		v, err := f.Type.Validate(r.values[f.Index])
		if err != nil {
			return Record{}, feature.WithPath(err, f.Name)
		}
		out[f.Index] = v
	}
	return Record{schema: r.schema, values: out, validated: true}, nil
}

// Validated reports whether the record was produced by Validate.
func (r Record) Validated() bool { return r.validated }

// Schema returns the record's schema.
func (r Record) Schema() *schema.Schema { return r.schema }

// Len returns the number of fields.
func (r Record) Len() int { return len(r.values) }

// At returns the value at position i.
func (r Record) At(i int) any { return r.values[i] }

// Get returns the value of the named field.
func (r Record) Get(name string) (any, bool) {
	if r.schema == nil {
		return nil, false
	}
	f, ok := r.schema.Field(name)
	if !ok {
		return nil, false
	}
	return r.values[f.Index], true
}

// Values returns a copy of the values in schema order.
func (r Record) Values() []any {
	cp := make([]any, len(r.values))
	copy(cp, r.values)
	return cp
}

// All yields (field name, value) pairs in schema order.
func (r Record) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if r.schema == nil {
			return
		}
		for f := range r.schema.Offsets() {
			if !yield(f.Name, r.values[f.Index]) {
				return
			}
		}
	}
}

// Export returns the field name to value mapping, restricted to schema fields.
// Values are returned as held, validated or not.
func (r Record) Export() map[string]any {
	m := make(map[string]any, len(r.values))
	for name, v := range r.All() {
		m[name] = v
	}
	return m
}

// Equal reports positional equality of values under equal schemas.
// Validation state is not compared.
func (r Record) Equal(other Record) bool {
	if len(r.values) != len(other.values) {
		return false
	}
	if !r.schema.Equal(other.schema) {
		return false
	}
	for i := range r.values {
		if !reflect.DeepEqual(r.values[i], other.values[i]) {
			return false
		}
	}
	return true
}

// String renders the record as Name(field=value, ...).
func (r Record) String() string {
	var sb strings.Builder
	if r.schema != nil {
		sb.WriteString(r.schema.Name())
	}
	sb.WriteByte('(')
	first := true
	for name, v := range r.All() {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&sb, "%s=%v", name, v)
	}
	sb.WriteByte(')')
	return sb.String()
}
