package feature

import "iter"

// TotalWidth returns the sum of the widths of types.
func TotalWidth(types []FeatureType) int {
	w := 0
	for _, t := range types {
		w += t.Width()
	}
	return w
}

// Chunks walks data with a running offset, yielding for each type in order
// its index and the next Width() values. It is the single slicing mechanism
// shared by schema rows and vector children.
//
// The caller must ensure len(data) == TotalWidth(types); use Split or
// DecodeAll for a checked walk.
func Chunks(types []FeatureType, data []float64) iter.Seq2[int, []float64] {
	return func(yield func(int, []float64) bool) {
		start := 0
		for i, t := range types {
			end := start + t.Width()
			if !yield(i, data[start:end:end]) {
				return
			}
			start = end
		}
	}
}

// Split slices data into one chunk per type.
func Split(types []FeatureType, data []float64) ([][]float64, error) {
	if err := checkTotal(types, data); err != nil {
		return nil, err
	}
	out := make([][]float64, 0, len(types))
	for _, chunk := range Chunks(types, data) {
		out = append(out, chunk)
	}
	return out, nil
}

// DecodeAll decodes data chunk by chunk, failing on the first chunk whose
// decode fails. The failing position is attached to the error path as "[i]".
func DecodeAll(types []FeatureType, data []float64) ([]any, error) {
	if err := checkTotal(types, data); err != nil {
		return nil, err
	}
	out := make([]any, 0, len(types))
	for i, chunk := range Chunks(types, data) {
		v, err := types[i].Decode(chunk)
		if err != nil {
			return nil, WithPath(err, indexSegment(i))
		}
		out = append(out, v)
	}
	return out, nil
}

func checkTotal(types []FeatureType, data []float64) error {
	if w := TotalWidth(types); w != len(data) {
		return NewError(ErrCodeWidth, "expected %d value(s), got %d", w, len(data))
	}
	return nil
}
