package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/featcodec/internal/schema"
)

// Result holds everything compiled from one CUE value, in declaration order.
type Result struct {
	Schemas []*schema.Schema
	Models  []*Model
}

// Schema looks up a compiled schema by name.
func (r *Result) Schema(name string) (*schema.Schema, bool) {
	for _, s := range r.Schemas {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// Model looks up a compiled model by name.
func (r *Result) Model(name string) (*Model, bool) {
	for _, m := range r.Models {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// CompileAll compiles every struct under the top-level "schema" key, then
// every model under "model". With failFast set it stops at the first error;
// otherwise it returns all errors along with whatever compiled.
func CompileAll(v cue.Value, failFast bool) (*Result, []error) {
	if err := v.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}

	result := &Result{}
	var errs []error
	byName := make(map[string]*schema.Schema)

	schemasVal := v.LookupPath(cue.ParsePath("schema"))
	if schemasVal.Exists() {
		iter, err := schemasVal.Fields()
		if err != nil {
			return result, []error{formatCUEError(err)}
		}
		for iter.Next() {
			s, err := CompileSchema(iter.Value())
			if err != nil {
				errs = append(errs, err)
				if failFast {
					return result, errs
				}
				continue
			}
			result.Schemas = append(result.Schemas, s)
			byName[s.Name()] = s
		}
	}

	modelsVal := v.LookupPath(cue.ParsePath("model"))
	if modelsVal.Exists() {
		iter, err := modelsVal.Fields()
		if err != nil {
			return result, append(errs, formatCUEError(err))
		}
		for iter.Next() {
			m, err := CompileModel(iter.Value(), byName)
			if err != nil {
				errs = append(errs, err)
				if failFast {
					return result, errs
				}
				continue
			}
			result.Models = append(result.Models, m)
		}
	}

	if len(result.Schemas) == 0 && len(errs) == 0 {
		errs = append(errs, &CompileError{Field: "schema", Message: "no schemas declared"})
	}
	return result, errs
}

// CompileString compiles CUE source text with a fresh context.
func CompileString(src, filename string) (*Result, error) {
	v := cuecontext.New().CompileString(src, cue.Filename(filename))
	result, errs := CompileAll(v, true)
	if len(errs) > 0 {
		return nil, fmt.Errorf("compile %s: %w", filename, errs[0])
	}
	return result, nil
}
