package schema

import (
	"iter"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/featcodec/internal/feature"
)

// Field is one named slot of a Schema with its position and column range
// fixed at build time.
type Field struct {
	Name   string
	Index  int
	Offset int
	Type   feature.FeatureType
}

// Width returns the number of matrix columns the field occupies.
func (f Field) Width() int {
	return f.Type.Width()
}

// End returns the column offset one past the field's last column.
func (f Field) End() int {
	return f.Offset + f.Type.Width()
}

// Schema is an immutable ordered collection of named feature types.
// Field order is authoritative for record construction and matrix layout.
type Schema struct {
	name   string
	fields []Field
	byName map[string]int
	width  int
}

// Builder accumulates fields and freezes their offsets in Build.
type Builder struct {
	name   string
	fields []Field
	err    error
}

// NewBuilder starts a schema with the given name ("Input", "Output", ...).
func NewBuilder(name string) *Builder {
	return &Builder{name: norm.NFC.String(name)}
}

// Add appends a field. Errors are deferred to Build so calls can be chained.
func (b *Builder) Add(name string, t feature.FeatureType) *Builder {
	if b.err != nil {
		return b
	}
	name = norm.NFC.String(name)
	if name == "" {
		b.err = feature.NewError(feature.ErrCodeInvalidType, "field %d has an empty name", len(b.fields))
		return b
	}
	if t == nil {
		b.err = feature.NewError(feature.ErrCodeInvalidType, "field %q has no type", name)
		return b
	}
	for _, f := range b.fields {
		if f.Name == name {
			b.err = feature.NewError(feature.ErrCodeDuplicate, "duplicate field name %q", name)
			return b
		}
	}
	b.fields = append(b.fields, Field{Name: name, Type: t})
	return b
}

// Build assigns indices and offsets and returns the frozen Schema.
func (b *Builder) Build() (*Schema, error) {
	if b.err != nil {
		return nil, b.err
	}
	s := &Schema{
		name:   b.name,
		fields: make([]Field, len(b.fields)),
		byName: make(map[string]int, len(b.fields)),
	}
	offset := 0
	for i, f := range b.fields {
		f.Index = i
		f.Offset = offset
		offset += f.Type.Width()
		s.fields[i] = f
		s.byName[f.Name] = i
	}
	s.width = offset
	return s, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Width returns the total column count, the sum of all field widths.
func (s *Schema) Width() int { return s.width }

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// Offsets yields every field in declared order with its start offset and width.
func (s *Schema) Offsets() iter.Seq[Field] {
	return func(yield func(Field) bool) {
		for _, f := range s.fields {
			if !yield(f) {
				return
			}
		}
	}
}

// Fields returns a copy of the fields in declared order.
func (s *Schema) Fields() []Field {
	cp := make([]Field, len(s.fields))
	copy(cp, s.fields)
	return cp
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.byName[norm.NFC.String(name)]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// At returns the field at position i.
func (s *Schema) At(i int) Field {
	return s.fields[i]
}

// Types returns the field types in declared order, suitable for feature.Chunks.
func (s *Schema) Types() []feature.FeatureType {
	types := make([]feature.FeatureType, len(s.fields))
	for i, f := range s.fields {
		types[i] = f.Type
	}
	return types
}

// Names returns the field names in declared order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Equal reports whether two schemas declare the same fields with the same
// types in the same order.
func (s *Schema) Equal(other *Schema) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil {
		return false
	}
	return s.Hash() == other.Hash()
}
