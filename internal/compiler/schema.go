package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/featcodec/internal/feature"
	"github.com/roach88/featcodec/internal/schema"
)

// Type names accepted as plain string field values.
const (
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeComplex = "complex"
	TypeTag     = "tag"
)

// CompileSchema builds a Schema from a CUE struct whose fields are the
// schema's fields in declaration order. The schema is named after the last
// selector of the value's path.
//
// Field values are either a type name string or a single-key struct:
//
//	schema: Output: {
//		b: "number"
//		e: label: ["a", "b"]
//		f: "complex"
//		v: vector: ["number", {label: [1, 2, 3]}]
//	}
func CompileSchema(v cue.Value) (*schema.Schema, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	name := ""
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		name = labels[len(labels)-1].String()
	}

	if v.IncompleteKind() != cue.StructKind {
		return nil, &CompileError{
			Field:   "schema",
			Path:    name,
			Message: "schema must be a struct of fields",
			Pos:     v.Pos(),
		}
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	b := schema.NewBuilder(name)
	for iter.Next() {
		fieldName := iter.Label()
		ft, err := compileType(iter.Value(), fieldName)
		if err != nil {
			return nil, err
		}
		b.Add(fieldName, ft)
	}

	s, err := b.Build()
	if err != nil {
		return nil, &CompileError{
			Field:   "field",
			Path:    name,
			Message: err.Error(),
			Pos:     v.Pos(),
		}
	}
	if s.Len() == 0 {
		return nil, &CompileError{
			Field:   "field",
			Path:    name,
			Message: "at least one field is required",
			Pos:     v.Pos(),
		}
	}
	return s, nil
}

// compileType converts one CUE field value into a feature type.
func compileType(v cue.Value, path string) (feature.FeatureType, error) {
	switch v.IncompleteKind() {
	case cue.StringKind:
		typeName, err := v.String()
		if err != nil {
			return nil, &CompileError{
				Field:   "type",
				Path:    path,
				Message: "type name must be a concrete string",
				Pos:     v.Pos(),
			}
		}
		switch typeName {
		case TypeNumber:
			return feature.Number{}, nil
		case TypeInteger:
			return feature.Integer{}, nil
		case TypeComplex:
			return feature.Complex{}, nil
		case TypeTag:
			return feature.Tag{}, nil
		default:
			return nil, &CompileError{
				Field:   "type",
				Path:    path,
				Message: fmt.Sprintf("unknown type %q (expected number, integer, complex, tag, label or vector)", typeName),
				Pos:     v.Pos(),
			}
		}
	case cue.StructKind:
		labelVal := v.LookupPath(cue.ParsePath("label"))
		vectorVal := v.LookupPath(cue.ParsePath("vector"))
		switch {
		case labelVal.Exists() && vectorVal.Exists():
			return nil, &CompileError{
				Field:   "type",
				Path:    path,
				Message: "a field declares either label or vector, not both",
				Pos:     v.Pos(),
			}
		case labelVal.Exists():
			return compileLabel(labelVal, path)
		case vectorVal.Exists():
			return compileVector(vectorVal, path)
		}
		return nil, &CompileError{
			Field:   "type",
			Path:    path,
			Message: "struct type must have a label or vector key",
			Pos:     v.Pos(),
		}
	default:
		return nil, &CompileError{
			Field:   "type",
			Path:    path,
			Message: fmt.Sprintf("unsupported type kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// compileLabel reads an ordered category list. Strings, integers, floats and
// booleans are accepted; integers become int64.
func compileLabel(v cue.Value, path string) (feature.FeatureType, error) {
	list, err := v.List()
	if err != nil {
		return nil, &CompileError{
			Field:   "label",
			Path:    path,
			Message: "label must be a list of categories",
			Pos:     v.Pos(),
		}
	}

	var categories []any
	for i := 0; list.Next(); i++ {
		elem := list.Value()
		cat, err := categoryValue(elem)
		if err != nil {
			return nil, &CompileError{
				Field:   "label",
				Path:    fmt.Sprintf("%s.label[%d]", path, i),
				Message: err.Error(),
				Pos:     elem.Pos(),
			}
		}
		categories = append(categories, cat)
	}

	l, err := feature.NewLabel(categories...)
	if err != nil {
		return nil, &CompileError{
			Field:   "label",
			Path:    path,
			Message: err.Error(),
			Pos:     v.Pos(),
		}
	}
	return l, nil
}

func categoryValue(v cue.Value) (any, error) {
	switch v.Kind() {
	case cue.StringKind:
		return v.String()
	case cue.IntKind:
		return v.Int64()
	case cue.FloatKind:
		return v.Float64()
	case cue.BoolKind:
		return v.Bool()
	default:
		return nil, fmt.Errorf("category must be a concrete string, number or bool, got %v", v.IncompleteKind())
	}
}

func compileVector(v cue.Value, path string) (feature.FeatureType, error) {
	list, err := v.List()
	if err != nil {
		return nil, &CompileError{
			Field:   "vector",
			Path:    path,
			Message: "vector must be a list of child types",
			Pos:     v.Pos(),
		}
	}

	var children []feature.FeatureType
	for i := 0; list.Next(); i++ {
		child, err := compileType(list.Value(), fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	vec, err := feature.NewVector(children...)
	if err != nil {
		return nil, &CompileError{
			Field:   "vector",
			Path:    path,
			Message: err.Error(),
			Pos:     v.Pos(),
		}
	}
	return vec, nil
}

// CompileError represents a compilation error with source position.
// Field names the offending construct (type, label, vector, field, cue);
// Path locates it within the schema.
type CompileError struct {
	Field   string
	Path    string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	where := e.Field
	if e.Path != "" {
		where = e.Path
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			where, e.Message)
	}
	return fmt.Sprintf("%s: %s", where, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
