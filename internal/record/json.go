package record

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/roach88/featcodec/internal/feature"
	"github.com/roach88/featcodec/internal/schema"
)

// FromJSON builds a record from a JSON object. Like FromMap, keys that are
// not schema fields are ignored and missing fields are left unset.
// JSON numbers become float64.
func FromJSON(s *schema.Schema, data []byte) (Record, error) {
	if !gjson.ValidBytes(data) {
		return Record{}, feature.NewError(feature.ErrCodeType, "invalid JSON")
	}
	return FromResult(s, gjson.ParseBytes(data))
}

// FromResult builds a record from an already parsed JSON object.
func FromResult(s *schema.Schema, obj gjson.Result) (Record, error) {
	if !obj.IsObject() {
		return Record{}, feature.NewError(feature.ErrCodeType, "expected a JSON object, got %s", obj.Type)
	}
	values := make([]any, s.Len())
	obj.ForEach(func(key, value gjson.Result) bool {
		if f, ok := s.Field(key.String()); ok {
			values[f.Index] = value.Value()
		}
		return true
	})
	return Record{schema: s, values: values}, nil
}

// MarshalJSON writes the record as a JSON object with keys in schema order.
// Complex values are written as [real, imag] and tuples as arrays.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	i := 0
	for name, v := range r.All() {
		if i > 0 {
			buf.WriteByte(',')
		}
		i++
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(jsonValue(v))
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func jsonValue(v any) any {
	switch t := v.(type) {
	case complex128:
		return [2]float64{real(t), imag(t)}
	case complex64:
		return [2]float64{float64(real(t)), float64(imag(t))}
	case feature.Tuple:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = jsonValue(e)
		}
		return out
	default:
		return v
	}
}
