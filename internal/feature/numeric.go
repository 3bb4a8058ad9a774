package feature

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Number is a continuous real-valued field. Canonical values are float64.
type Number struct{}

// Kind returns KindNumber.
func (Number) Kind() Kind { return KindNumber }

// Width is always 1.
func (Number) Width() int { return 1 }

// Validate coerces raw to a finite float64.
func (Number) Validate(raw any) (any, error) {
	return validateFinite(KindNumber, raw)
}

// Encode returns [value].
func (Number) Encode(value any) ([]float64, error) {
	f, err := toFloat(KindNumber, value)
	if err != nil {
		return nil, err
	}
	return []float64{f}, nil
}

// Decode returns chunk[0]. NaN and ±Inf fail with RANGE_ERROR, as in Validate.
func (n Number) Decode(chunk []float64) (any, error) {
	if err := checkChunk(n, chunk); err != nil {
		return nil, err
	}
	if err := checkFinite(KindNumber, chunk[0]); err != nil {
		return nil, err
	}
	return chunk[0], nil
}

// Integer is a whole-number field. Canonical values are int64.
//
// Both validation and decoding round half to even, so 2.5 becomes 2 and 3.5
// becomes 4.
type Integer struct{}

// Kind returns KindInteger.
func (Integer) Kind() Kind { return KindInteger }

// Width is always 1.
func (Integer) Width() int { return 1 }

// Validate coerces raw to a finite number and rounds it to an int64.
func (Integer) Validate(raw any) (any, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	}
	f, err := validateFinite(KindInteger, raw)
	if err != nil {
		return nil, err
	}
	return roundInteger(f.(float64))
}

// Encode returns [value] as a float.
func (Integer) Encode(value any) ([]float64, error) {
	if n, ok := value.(int64); ok {
		return []float64{float64(n)}, nil
	}
	f, err := toFloat(KindInteger, value)
	if err != nil {
		return nil, err
	}
	return []float64{f}, nil
}

// Decode rounds chunk[0] to the nearest int64.
func (i Integer) Decode(chunk []float64) (any, error) {
	if err := checkChunk(i, chunk); err != nil {
		return nil, err
	}
	if err := checkFinite(KindInteger, chunk[0]); err != nil {
		return nil, err
	}
	return roundInteger(chunk[0])
}

// int64 bounds as exactly representable floats.
const (
	minInt64Float = -(1 << 63)
	maxInt64Float = 1 << 63
)

func roundInteger(f float64) (any, error) {
	r := math.RoundToEven(f)
	if r < minInt64Float || r >= maxInt64Float {
		return nil, newError(ErrCodeRange, KindInteger, "value %v overflows a 64-bit integer", f)
	}
	return int64(r), nil
}

// Complex is a real+imaginary pair. Canonical values are complex128.
type Complex struct{}

// Kind returns KindComplex.
func (Complex) Kind() Kind { return KindComplex }

// Width is always 2.
func (Complex) Width() int { return 2 }

// Validate coerces raw to a complex128 with finite parts.
//
// Accepted forms: complex numbers, real numbers, strings such as "1+2i", and
// two-element sequences [real, imag].
func (Complex) Validate(raw any) (any, error) {
	c, err := toComplex(raw)
	if err != nil {
		return nil, err
	}
	if err := checkFinite(KindComplex, real(c)); err != nil {
		return nil, err
	}
	if err := checkFinite(KindComplex, imag(c)); err != nil {
		return nil, err
	}
	return c, nil
}

// Encode returns [real, imag].
func (Complex) Encode(value any) ([]float64, error) {
	c, err := toComplex(value)
	if err != nil {
		return nil, err
	}
	return []float64{real(c), imag(c)}, nil
}

// Decode returns complex(chunk[0], chunk[1]). Both parts must be finite.
func (c Complex) Decode(chunk []float64) (any, error) {
	if err := checkChunk(c, chunk); err != nil {
		return nil, err
	}
	for _, part := range chunk {
		if err := checkFinite(KindComplex, part); err != nil {
			return nil, err
		}
	}
	return complex(chunk[0], chunk[1]), nil
}

// Tag is an opaque input-only field. It occupies one column holding a
// constant 0 and can never be decoded.
type Tag struct{}

// Kind returns KindTag.
func (Tag) Kind() Kind { return KindTag }

// Width is always 1.
func (Tag) Width() int { return 1 }

// Validate accepts any value unchanged.
func (Tag) Validate(raw any) (any, error) { return raw, nil }

// Encode returns the placeholder [0].
func (Tag) Encode(any) ([]float64, error) { return []float64{0}, nil }

// Decode always fails: tags carry no predictive signal.
func (Tag) Decode([]float64) (any, error) {
	return nil, newError(ErrCodeUndecodable, KindTag, "may not predict a Tag")
}

func validateFinite(kind Kind, raw any) (any, error) {
	f, err := toFloat(kind, raw)
	if err != nil {
		return nil, err
	}
	if err := checkFinite(kind, f); err != nil {
		return nil, err
	}
	return f, nil
}

func checkFinite(kind Kind, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return newError(ErrCodeRange, kind, "may not assign non-finite value %v to a %s", f, kind)
	}
	return nil
}

// toFloat converts any Go numeric value, json.Number or numeric string.
func toFloat(kind Kind, raw any) (float64, error) {
	switch v := raw.(type) {
	case nil:
		return 0, newError(ErrCodeType, kind, "a value is required")
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, newError(ErrCodeType, kind, "cannot interpret %q as a number", string(v))
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil && !isRangeErr(err) {
			return 0, newError(ErrCodeType, kind, "cannot interpret %q as a number", v)
		}
		return f, nil
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return 0, newError(ErrCodeType, kind, "cannot interpret %T as a number", raw)
}

// isRangeErr reports a ParseFloat overflow, which still yields ±Inf.
func isRangeErr(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

func toComplex(raw any) (complex128, error) {
	switch v := raw.(type) {
	case nil:
		return 0, newError(ErrCodeType, KindComplex, "a value is required")
	case complex128:
		return v, nil
	case complex64:
		return complex128(v), nil
	case string:
		c, err := strconv.ParseComplex(strings.TrimSpace(v), 128)
		if err != nil && !isRangeErr(err) {
			return 0, newError(ErrCodeType, KindComplex, "cannot interpret %q as a complex number", v)
		}
		return c, nil
	case []float64:
		if len(v) != 2 {
			return 0, newError(ErrCodeType, KindComplex, "expected [real, imag] pair, got %d value(s)", len(v))
		}
		return complex(v[0], v[1]), nil
	case [2]float64:
		return complex(v[0], v[1]), nil
	case []any:
		if len(v) != 2 {
			return 0, newError(ErrCodeType, KindComplex, "expected [real, imag] pair, got %d value(s)", len(v))
		}
		re, err := toFloat(KindComplex, v[0])
		if err != nil {
			return 0, err
		}
		im, err := toFloat(KindComplex, v[1])
		if err != nil {
			return 0, err
		}
		return complex(re, im), nil
	}
	f, err := toFloat(KindComplex, raw)
	if err != nil {
		return 0, newError(ErrCodeType, KindComplex, "cannot interpret %T as a complex number", raw)
	}
	return complex(f, 0), nil
}
