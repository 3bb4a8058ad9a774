package feature

// Kind names a feature type variant.
type Kind string

// Feature type variants.
const (
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindComplex Kind = "complex"
	KindLabel   Kind = "label"
	KindTag     Kind = "tag"
	KindVector  Kind = "vector"
)

// FeatureType describes how one field validates and (de)serializes.
//
// Implementations are immutable after construction and safe for concurrent
// use. Encode expects a value already returned by Validate; Decode expects a
// chunk of exactly Width() numbers.
type FeatureType interface {
	Kind() Kind
	Width() int
	Validate(raw any) (any, error)
	Encode(value any) ([]float64, error)
	Decode(chunk []float64) (any, error)
}

// Tuple is the canonical value of a Vector field: one validated value per child.
type Tuple []any

// Descriptor is a serializable description of a feature type.
type Descriptor struct {
	Kind       Kind         `json:"kind"`
	Width      int          `json:"width"`
	Categories []any        `json:"categories,omitempty"`
	Children   []Descriptor `json:"children,omitempty"`
}

// Describe returns the descriptor of t.
func Describe(t FeatureType) Descriptor {
	d := Descriptor{Kind: t.Kind(), Width: t.Width()}
	switch ft := t.(type) {
	case *Label:
		d.Categories = ft.Categories()
	case *Vector:
		for _, child := range ft.children {
			d.Children = append(d.Children, Describe(child))
		}
	}
	return d
}

func checkChunk(t FeatureType, chunk []float64) error {
	if len(chunk) != t.Width() {
		return newError(ErrCodeWidth, t.Kind(), "expected chunk of %d value(s), got %d", t.Width(), len(chunk))
	}
	return nil
}
