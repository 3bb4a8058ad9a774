package feature

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureTypesImplementInterface(t *testing.T) {
	var _ FeatureType = Number{}
	var _ FeatureType = Integer{}
	var _ FeatureType = Complex{}
	var _ FeatureType = Tag{}
	var _ FeatureType = &Label{}
	var _ FeatureType = &Vector{}
}

func TestNumberValidate(t *testing.T) {
	for _, raw := range []any{1, int64(1), 1.0, float32(1), "1", " 1 ", json.Number("1"), uint8(1)} {
		v, err := Number{}.Validate(raw)
		require.NoError(t, err, "raw=%#v", raw)
		assert.Equal(t, 1.0, v)
	}
}

func TestNumberValidateNonFinite(t *testing.T) {
	for _, raw := range []any{math.NaN(), math.Inf(1), math.Inf(-1), "nan", "inf", "1e400"} {
		_, err := Number{}.Validate(raw)
		require.Error(t, err, "raw=%#v", raw)
		assert.True(t, IsRangeError(err))
		assert.True(t, IsValueError(err))
		assert.False(t, IsTypeError(err))
	}
}

func TestNumberValidateNotCoercible(t *testing.T) {
	for _, raw := range []any{"a", nil, []int{1}, struct{}{}, true} {
		_, err := Number{}.Validate(raw)
		require.Error(t, err, "raw=%#v", raw)
		assert.True(t, IsTypeError(err))
	}
}

func TestNumberRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 1, -3.25, 1e300, math.SmallestNonzeroFloat64} {
		enc, err := Number{}.Encode(v)
		require.NoError(t, err)
		assert.Equal(t, []float64{v}, enc)

		dec, err := Number{}.Decode(enc)
		require.NoError(t, err)
		assert.Equal(t, v, dec)
	}
}

func TestIntegerValidateRounds(t *testing.T) {
	cases := []struct {
		raw  any
		want int64
	}{
		{3.9, 4},
		{3.1, 3},
		{-3.9, -4},
		{2.5, 2},
		{3.5, 4},
		{-2.5, -2},
		{"7", 7},
		{int64(12), 12},
		{5, 5},
	}
	for _, tc := range cases {
		v, err := Integer{}.Validate(tc.raw)
		require.NoError(t, err, "raw=%#v", tc.raw)
		assert.Equal(t, tc.want, v, "raw=%#v", tc.raw)
	}
}

func TestIntegerValidateNaN(t *testing.T) {
	_, err := Integer{}.Validate(math.NaN())
	require.Error(t, err)
	assert.True(t, IsRangeError(err))
}

func TestIntegerValidateOverflow(t *testing.T) {
	_, err := Integer{}.Validate(1e19)
	require.Error(t, err)
	assert.True(t, IsRangeError(err))
}

func TestIntegerDecodeRounds(t *testing.T) {
	for _, tc := range []struct {
		in   float64
		want int64
	}{{0.01, 0}, {9.99, 10}, {10, 10}, {0.5, 0}, {1.5, 2}} {
		v, err := Integer{}.Decode([]float64{tc.in})
		require.NoError(t, err)
		assert.Equal(t, tc.want, v)
	}

	_, err := Integer{}.Decode([]float64{math.Inf(1)})
	assert.True(t, IsRangeError(err))
}

func TestNumericDecodeRejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Number{}.Decode([]float64{f})
		assert.True(t, IsRangeError(err), "Number.Decode(%v)", f)

		_, err = Complex{}.Decode([]float64{1, f})
		assert.True(t, IsRangeError(err), "Complex.Decode(1, %v)", f)

		_, err = Complex{}.Decode([]float64{f, 1})
		assert.True(t, IsRangeError(err), "Complex.Decode(%v, 1)", f)
	}
}

func TestIntegerRoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, -42, 1 << 40} {
		enc, err := Integer{}.Encode(n)
		require.NoError(t, err)
		dec, err := Integer{}.Decode(enc)
		require.NoError(t, err)
		assert.Equal(t, n, dec)
	}
}

func TestComplexValidate(t *testing.T) {
	cases := []struct {
		raw  any
		want complex128
	}{
		{complex(1, 2), complex(1, 2)},
		{complex64(complex(1, 2)), complex(1, 2)},
		{1, complex(1, 0)},
		{2.5, complex(2.5, 0)},
		{"1+2i", complex(1, 2)},
		{[]any{1.0, 2.0}, complex(1, 2)},
		{[]float64{3, 4}, complex(3, 4)},
	}
	for _, tc := range cases {
		v, err := Complex{}.Validate(tc.raw)
		require.NoError(t, err, "raw=%#v", tc.raw)
		assert.Equal(t, tc.want, v)
	}
}

func TestComplexValidateErrors(t *testing.T) {
	_, err := Complex{}.Validate(complex(math.NaN(), 0))
	assert.True(t, IsRangeError(err))

	_, err = Complex{}.Validate(complex(0, math.Inf(1)))
	assert.True(t, IsRangeError(err))

	_, err = Complex{}.Validate("not complex")
	assert.True(t, IsTypeError(err))

	_, err = Complex{}.Validate([]any{1.0})
	assert.True(t, IsTypeError(err))
}

func TestComplexRoundTrip(t *testing.T) {
	c := complex(1.5, -2.25)
	enc, err := Complex{}.Encode(c)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -2.25}, enc)

	dec, err := Complex{}.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, c, dec)
}

func TestTag(t *testing.T) {
	raw := map[string]int{"opaque": 1}
	v, err := Tag{}.Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, v)

	enc, err := Tag{}.Encode(v)
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, enc)

	_, err = Tag{}.Decode([]float64{0})
	require.Error(t, err)
	assert.True(t, IsTypeError(err))
	assert.True(t, HasCode(err, ErrCodeUndecodable))
	assert.Contains(t, err.Error(), "may not predict a Tag")
}

func TestDecodeWrongChunkWidth(t *testing.T) {
	_, err := Number{}.Decode([]float64{1, 2})
	assert.True(t, HasCode(err, ErrCodeWidth))

	_, err = Complex{}.Decode([]float64{1})
	assert.True(t, HasCode(err, ErrCodeWidth))

	_, err = MustLabel("a", "b").Decode([]float64{1, 0, 0})
	assert.True(t, HasCode(err, ErrCodeWidth))
}

func TestDescribe(t *testing.T) {
	v := MustVector(Number{}, MustLabel("x", "y"), Complex{})
	d := Describe(v)

	assert.Equal(t, KindVector, d.Kind)
	assert.Equal(t, 5, d.Width)
	require.Len(t, d.Children, 3)
	assert.Equal(t, []any{"x", "y"}, d.Children[1].Categories)
	assert.Equal(t, 2, d.Children[2].Width)
}

func TestWithPath(t *testing.T) {
	base := NewError(ErrCodeType, "bad")

	err := WithPath(WithPath(WithPath(base, "[0]"), "[1]"), "b")
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "b[1][0]", fe.Path)
	assert.Equal(t, "", base.Path, "original error must not be mutated")

	err = WithPath(WithPath(base, "inner"), "outer")
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "outer.inner", fe.Path)
}
