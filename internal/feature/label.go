package feature

import (
	"fmt"
	"reflect"
)

// Label is a categorical field, one-hot encoded over an ordered category set.
//
// Categories may be of any comparable type. A validated value is always the
// declared category itself, so a Label over int64 categories returns int64
// even when validating the float64 that a JSON decoder produced.
type Label struct {
	categories []any
}

// NewLabel creates a Label over the given categories.
// Categories must be non-empty, comparable and pairwise distinct.
func NewLabel(categories ...any) (*Label, error) {
	if len(categories) == 0 {
		return nil, newError(ErrCodeInvalidType, KindLabel, "at least one category is required")
	}
	for i, c := range categories {
		if c == nil || !reflect.ValueOf(c).Comparable() {
			return nil, newError(ErrCodeInvalidType, KindLabel, "category %d (%T) is not comparable", i, c)
		}
		for j := 0; j < i; j++ {
			if categoryEqual(categories[j], c) {
				return nil, newError(ErrCodeDuplicate, KindLabel, "duplicate category %v at positions %d and %d", c, j, i)
			}
		}
	}
	cp := make([]any, len(categories))
	copy(cp, categories)
	return &Label{categories: cp}, nil
}

// MustLabel is like NewLabel but panics on error.
// Use only for statically known category sets.
func MustLabel(categories ...any) *Label {
	l, err := NewLabel(categories...)
	if err != nil {
		panic(err)
	}
	return l
}

// Kind returns KindLabel.
func (l *Label) Kind() Kind { return KindLabel }

// Width is the number of categories.
func (l *Label) Width() int { return len(l.categories) }

// Categories returns a copy of the category set in declared order.
func (l *Label) Categories() []any {
	cp := make([]any, len(l.categories))
	copy(cp, l.categories)
	return cp
}

// Index returns the position of value in the category set, or -1.
func (l *Label) Index(value any) int {
	for i, c := range l.categories {
		if categoryEqual(c, value) {
			return i
		}
	}
	// CSV cells arrive as text; match against the category's textual form.
	if s, ok := value.(string); ok {
		for i, c := range l.categories {
			if _, isString := c.(string); !isString && fmt.Sprint(c) == s {
				return i
			}
		}
	}
	return -1
}

// Validate returns the declared category equal to raw.
func (l *Label) Validate(raw any) (any, error) {
	i := l.Index(raw)
	if i < 0 {
		return nil, newError(ErrCodeType, KindLabel, "may not use non-existent label %v in a label over %v", raw, l.categories)
	}
	return l.categories[i], nil
}

// Encode returns a one-hot vector with 1 at the value's category index.
func (l *Label) Encode(value any) ([]float64, error) {
	i := l.Index(value)
	if i < 0 {
		return nil, newError(ErrCodeType, KindLabel, "may not encode non-existent label %v", value)
	}
	out := make([]float64, len(l.categories))
	out[i] = 1
	return out, nil
}

// Decode returns the category at the arg-max of chunk.
// On equal maxima the lowest index wins. NaN scores never win.
func (l *Label) Decode(chunk []float64) (any, error) {
	if err := checkChunk(l, chunk); err != nil {
		return nil, err
	}
	best := -1
	for i, score := range chunk {
		if score != score {
			continue
		}
		if best < 0 || score > chunk[best] {
			best = i
		}
	}
	if best < 0 {
		return nil, newError(ErrCodeRange, KindLabel, "cannot decode a label from all-NaN scores")
	}
	return l.categories[best], nil
}

// categoryEqual compares two values, treating numbers of different Go types
// as equal when they denote the same real value.
func categoryEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() == vb.Type() {
		// Comparable checks dynamic values too, so [1]any{[]int{}} is
		// rejected instead of panicking in Equal.
		return va.Comparable() && vb.Comparable() && va.Equal(vb)
	}
	fa, okA := numericValue(a)
	fb, okB := numericValue(b)
	return okA && okB && fa == fb
}

func numericValue(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
