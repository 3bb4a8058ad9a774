package compiler

import (
	"fmt"

	"github.com/roach88/featcodec/internal/feature"
	"github.com/roach88/featcodec/internal/schema"
)

// Validation error codes (E200-E299)
const (
	ErrUndecodableField  = "E201" // tag inside a schema that will be decoded
	ErrSingletonLabel    = "E202" // label with one category always decodes the same
	ErrSharedFieldName   = "E203" // input and output schema declare the same field
	ErrEmptyModelOutputs = "E204" // output schema has zero width
)

// ValidationError represents a schema lint finding.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidateDecodable reports every field of s whose decode can never succeed
// or never carries information. Returns all findings (does not fail-fast).
func ValidateDecodable(s *schema.Schema) []ValidationError {
	var errs []ValidationError
	for f := range s.Offsets() {
		errs = append(errs, walkDecodable(f.Type, s.Name()+"."+f.Name)...)
	}
	return errs
}

func walkDecodable(t feature.FeatureType, path string) []ValidationError {
	switch ft := t.(type) {
	case feature.Tag:
		return []ValidationError{{
			Field:   path,
			Message: "may not predict a Tag; tags are input-only",
			Code:    ErrUndecodableField,
		}}
	case *feature.Label:
		if ft.Width() == 1 {
			return []ValidationError{{
				Field:   path,
				Message: fmt.Sprintf("label over a single category %v always decodes the same", ft.Categories()[0]),
				Code:    ErrSingletonLabel,
			}}
		}
	case *feature.Vector:
		var errs []ValidationError
		for i, child := range ft.Children() {
			errs = append(errs, walkDecodable(child, fmt.Sprintf("%s[%d]", path, i))...)
		}
		return errs
	}
	return nil
}

// ValidateModel checks a model's output schema for decodability and the pair
// for name clashes, which would make paired mapping rows ambiguous.
func ValidateModel(m *Model) []ValidationError {
	errs := ValidateDecodable(m.Output)
	if m.Output.Width() == 0 {
		errs = append(errs, ValidationError{
			Field:   m.Name + ".output",
			Message: "output schema has no columns",
			Code:    ErrEmptyModelOutputs,
		})
	}
	for f := range m.Input.Offsets() {
		if _, ok := m.Output.Field(f.Name); ok {
			errs = append(errs, ValidationError{
				Field:   m.Name + "." + f.Name,
				Message: fmt.Sprintf("field %q is declared by both %s and %s", f.Name, m.Input.Name(), m.Output.Name()),
				Code:    ErrSharedFieldName,
			})
		}
	}
	return errs
}
