package ingest

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Row is one source row, either keyed by column name or positional.
// Line is the 1-based line (or array element) it came from.
type Row struct {
	Line   int
	Fields map[string]any
	Values []any
}

// Keyed reports whether the row carries named fields.
func (r Row) Keyed() bool { return r.Fields != nil }

// RowError attaches a source line to a row-level failure.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// rowFromResult converts a parsed JSON object or array into a Row.
func rowFromResult(line int, res gjson.Result) (Row, error) {
	switch {
	case res.IsObject():
		fields := make(map[string]any)
		res.ForEach(func(key, value gjson.Result) bool {
			fields[key.String()] = value.Value()
			return true
		})
		return Row{Line: line, Fields: fields}, nil
	case res.IsArray():
		var values []any
		for _, v := range res.Array() {
			values = append(values, v.Value())
		}
		if values == nil {
			values = []any{}
		}
		return Row{Line: line, Values: values}, nil
	default:
		return Row{}, &RowError{Line: line, Err: fmt.Errorf("expected a JSON object or array, got %s", res.Type)}
	}
}
