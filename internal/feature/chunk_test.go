package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunksWalksDeclaredWidths(t *testing.T) {
	types := []FeatureType{Number{}, MustLabel("a", "b", "c"), Complex{}}
	data := []float64{1, 0, 1, 0, 2, 3}

	var got [][]float64
	var idx []int
	for i, chunk := range Chunks(types, data) {
		idx = append(idx, i)
		got = append(got, chunk)
	}

	assert.Equal(t, []int{0, 1, 2}, idx)
	assert.Equal(t, [][]float64{{1}, {0, 1, 0}, {2, 3}}, got)
}

func TestChunksStopsEarly(t *testing.T) {
	types := []FeatureType{Number{}, Number{}, Number{}}
	n := 0
	for range Chunks(types, []float64{1, 2, 3}) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestChunkCannotGrowIntoNeighbour(t *testing.T) {
	types := []FeatureType{Number{}, Number{}}
	data := []float64{1, 2}
	chunks, err := Split(types, data)
	require.NoError(t, err)

	_ = append(chunks[0], 99)
	assert.Equal(t, []float64{1, 2}, data)
}

func TestSplitWidthMismatch(t *testing.T) {
	_, err := Split([]FeatureType{Number{}, Complex{}}, []float64{1, 2})
	require.Error(t, err)
	assert.True(t, HasCode(err, ErrCodeWidth))
	assert.True(t, IsValueError(err))
}

// Chunk boundaries must match cumulative offsets regardless of nesting.
func TestChunkingConsistentAcrossNesting(t *testing.T) {
	inner := MustVector(Number{}, MustLabel("a", "b"))
	outer := MustVector(Complex{}, inner, Integer{})
	types := []FeatureType{Number{}, outer, MustLabel("x", "y", "z")}

	data := make([]float64, TotalWidth(types))
	for i := range data {
		data[i] = float64(i)
	}

	// Direct slicing at precomputed cumulative offsets.
	offsets := []int{0}
	for _, ft := range types {
		offsets = append(offsets, offsets[len(offsets)-1]+ft.Width())
	}
	chunks, err := Split(types, data)
	require.NoError(t, err)
	for i := range types {
		assert.Equal(t, data[offsets[i]:offsets[i+1]], chunks[i])
	}

	// Recursive slicing of the vector chunk by its own children.
	outerChunks, err := Split(outer.Children(), chunks[1])
	require.NoError(t, err)
	assert.Equal(t, data[1:3], outerChunks[0])
	assert.Equal(t, data[3:6], outerChunks[1])
	assert.Equal(t, data[6:7], outerChunks[2])

	innerChunks, err := Split(inner.Children(), outerChunks[1])
	require.NoError(t, err)
	assert.Equal(t, data[3:4], innerChunks[0])
	assert.Equal(t, data[4:6], innerChunks[1])
}

func TestDecodeAll(t *testing.T) {
	vals, err := DecodeAll([]FeatureType{Number{}, MustLabel("a", "b"), Complex{}}, []float64{3, 1, 0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, []any{3.0, "a", complex(1, 2)}, vals)

	_, err = DecodeAll([]FeatureType{Number{}, Tag{}}, []float64{1, 0})
	var fe *Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, ErrCodeUndecodable, fe.Code)
	assert.Equal(t, "[1]", fe.Path)
}
