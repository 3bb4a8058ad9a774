package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/featcodec/internal/schema"
)

// Model pairs the input schema a backend consumes with the output schema it
// predicts.
type Model struct {
	Name   string
	Input  *schema.Schema
	Output *schema.Schema
}

// CompileModel resolves a model declaration against already compiled schemas:
//
//	model: Weather: {
//		input:  "Input"
//		output: "Output"
//	}
func CompileModel(v cue.Value, schemas map[string]*schema.Schema) (*Model, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	m := &Model{}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		m.Name = labels[len(labels)-1].String()
	}

	var err error
	if m.Input, err = lookupSchemaRef(v, "input", m.Name, schemas); err != nil {
		return nil, err
	}
	if m.Output, err = lookupSchemaRef(v, "output", m.Name, schemas); err != nil {
		return nil, err
	}
	return m, nil
}

func lookupSchemaRef(v cue.Value, key, model string, schemas map[string]*schema.Schema) (*schema.Schema, error) {
	ref := v.LookupPath(cue.ParsePath(key))
	if !ref.Exists() {
		return nil, &CompileError{
			Field:   "model",
			Path:    model + "." + key,
			Message: key + " schema is required",
			Pos:     v.Pos(),
		}
	}
	name, err := ref.String()
	if err != nil {
		return nil, &CompileError{
			Field:   "model",
			Path:    model + "." + key,
			Message: "must be a schema name",
			Pos:     ref.Pos(),
		}
	}
	s, ok := schemas[name]
	if !ok {
		return nil, &CompileError{
			Field:   "model",
			Path:    model + "." + key,
			Message: fmt.Sprintf("unknown schema %q", name),
			Pos:     ref.Pos(),
		}
	}
	return s, nil
}
