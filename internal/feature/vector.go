package feature

import (
	"reflect"
	"strconv"
)

// Vector is a composite field made of an ordered list of child types.
// Its canonical value is a Tuple with one validated value per child.
type Vector struct {
	children []FeatureType
	width    int
}

// NewVector creates a Vector over children. At least one child is required.
func NewVector(children ...FeatureType) (*Vector, error) {
	if len(children) == 0 {
		return nil, newError(ErrCodeInvalidType, KindVector, "at least one child type is required")
	}
	for i, c := range children {
		if c == nil {
			return nil, newError(ErrCodeInvalidType, KindVector, "child %d is nil", i)
		}
	}
	cp := make([]FeatureType, len(children))
	copy(cp, children)
	return &Vector{children: cp, width: TotalWidth(cp)}, nil
}

// MustVector is like NewVector but panics on error.
func MustVector(children ...FeatureType) *Vector {
	v, err := NewVector(children...)
	if err != nil {
		panic(err)
	}
	return v
}

// Kind returns KindVector.
func (v *Vector) Kind() Kind { return KindVector }

// Width is the sum of child widths.
func (v *Vector) Width() int { return v.width }

// Children returns the child types in declared order.
func (v *Vector) Children() []FeatureType {
	cp := make([]FeatureType, len(v.children))
	copy(cp, v.children)
	return cp
}

// Validate checks the length of raw against the child count, then validates
// each element against its child left to right, stopping at the first failure.
func (v *Vector) Validate(raw any) (any, error) {
	elems, err := v.elements(raw)
	if err != nil {
		return nil, err
	}
	out := make(Tuple, len(elems))
	for i, child := range v.children {
		val, err := child.Validate(elems[i])
		if err != nil {
			return nil, WithPath(err, indexSegment(i))
		}
		out[i] = val
	}
	return out, nil
}

// Encode concatenates the child encodings in order.
func (v *Vector) Encode(value any) ([]float64, error) {
	elems, err := v.elements(value)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, v.width)
	for i, child := range v.children {
		enc, err := child.Encode(elems[i])
		if err != nil {
			return nil, WithPath(err, indexSegment(i))
		}
		out = append(out, enc...)
	}
	return out, nil
}

// Decode splits chunk by child widths and decodes each part into a Tuple.
func (v *Vector) Decode(chunk []float64) (any, error) {
	if err := checkChunk(v, chunk); err != nil {
		return nil, err
	}
	vals, err := DecodeAll(v.children, chunk)
	if err != nil {
		return nil, err
	}
	return Tuple(vals), nil
}

// elements unpacks any slice or array into its elements.
func (v *Vector) elements(raw any) ([]any, error) {
	var elems []any
	switch t := raw.(type) {
	case Tuple:
		elems = t
	case []any:
		elems = t
	case nil:
		return nil, newError(ErrCodeType, KindVector, "a value is required")
	default:
		rv := reflect.ValueOf(raw)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, newError(ErrCodeType, KindVector, "expected a sequence, got %T", raw)
		}
		elems = make([]any, rv.Len())
		for i := range elems {
			elems[i] = rv.Index(i).Interface()
		}
	}
	if len(elems) != len(v.children) {
		return nil, newError(ErrCodeArity, KindVector, "incorrect length vector (expected %d, got %d)", len(v.children), len(elems))
	}
	return elems, nil
}

func indexSegment(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}
