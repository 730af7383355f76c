package array

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rangeArray(t *testing.T, n int, shape Shape) *Array {
	t.Helper()
	data := make([]float64, n)
	for i := range data {
		data[i] = float64(i)
	}
	a, err := New(data, shape)
	require.NoError(t, err)
	return a
}

func TestStrides(t *testing.T) {
	assert.Equal(t, Strides{21, 7, 1}, Shape{6, 3, 7}.Strides())
	assert.Equal(t, Strides{1}, Shape{4}.Strides())
}

func TestIndexFromFlat(t *testing.T) {
	shape := Shape{3, 3, 4}

	assert.Equal(t, []int{0, 0, 0}, shape.IndexFromFlat(0))
	assert.Equal(t, []int{0, 0, 1}, shape.IndexFromFlat(1))
	assert.Equal(t, []int{0, 0, 3}, shape.IndexFromFlat(3))
	assert.Equal(t, []int{0, 1, 0}, shape.IndexFromFlat(4))
	assert.Equal(t, []int{2, 2, 3}, shape.IndexFromFlat(35))
}

func TestFlatIndexRoundTrip(t *testing.T) {
	for _, shape := range []Shape{{4}, {2, 3}, {3, 3, 4}, {2, 1, 3, 2}} {
		strides := shape.Strides()
		for flat := 0; flat < shape.Elements(); flat++ {
			index := shape.IndexFromFlat(flat)
			got, ok := strides.FlatIndex(shape, index)
			require.True(t, ok)
			assert.Equal(t, flat, got, "shape %v flat %d", shape, flat)
		}
	}
}

func TestNewRejectsMismatchedData(t *testing.T) {
	_, err := New(make([]float64, 5), Shape{2, 3})
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestNewRejectsNonPositiveDimension(t *testing.T) {
	_, err := New(nil, Shape{2, 0})
	assert.ErrorIs(t, err, ErrNonPositiveDimension)
}

func TestGetBounds(t *testing.T) {
	a := rangeArray(t, 6, Shape{2, 3})

	v, ok := a.Get([]int{1, 2})
	require.True(t, ok)
	assert.Equal(t, 5.0, v)

	_, ok = a.Get([]int{1, 3})
	assert.False(t, ok)

	_, ok = a.Get([]int{1})
	assert.False(t, ok, "wrong dimensionality must not resolve")

	_, ok = a.Get([]int{0, 1, 0})
	assert.False(t, ok)
}

func TestIterIndices(t *testing.T) {
	a := NewZeros(Shape{2, 3})
	iter := a.IterIndices()

	assert.Equal(t, 6, iter.Len())

	want := [][]int{{0, 0}, {0, 1}, {0, 2}, {1, 0}, {1, 1}, {1, 2}}
	for _, expected := range want {
		index, ok := iter.Next()
		require.True(t, ok)
		assert.Equal(t, expected, index)
	}

	assert.Equal(t, 0, iter.Len())
	_, ok := iter.Next()
	assert.False(t, ok)

	// A second call produces a fresh iterator.
	assert.Equal(t, 6, a.IterIndices().Len())
}

func TestSumAxis2D(t *testing.T) {
	a := rangeArray(t, 9, Shape{3, 3})

	sum0 := a.Sum(0)
	assert.Equal(t, 1, sum0.Dimensions())
	assert.Equal(t, []float64{9, 12, 15}, sum0.Data())

	sum1 := a.Sum(1)
	assert.Equal(t, []float64{3, 12, 21}, sum1.Data())
}

func TestSumAxis3D(t *testing.T) {
	a := rangeArray(t, 27, Shape{3, 3, 3})

	assert.Equal(t, []float64{27, 30, 33, 36, 39, 42, 45, 48, 51}, a.Sum(0).Data())
	assert.Equal(t, []float64{9, 12, 15, 36, 39, 42, 63, 66, 69}, a.Sum(1).Data())
	assert.Equal(t, []float64{3, 12, 21, 30, 39, 48, 57, 66, 75}, a.Sum(2).Data())
}

func TestGetAxisView(t *testing.T) {
	a := rangeArray(t, 6, Shape{2, 3})

	view, ok := a.GetAxis(0, 1)
	require.True(t, ok)
	assert.Equal(t, Shape{3}, view.Shape())
	assert.Equal(t, []float64{3, 4, 5}, view.ToArray().Data())

	view, ok = a.GetAxis(1, 0)
	require.True(t, ok)
	assert.Equal(t, []float64{0, 3}, view.ToArray().Data())

	_, ok = a.GetAxis(2, 0)
	assert.False(t, ok)
	_, ok = a.GetAxis(0, 2)
	assert.False(t, ok)
}

func TestViewIterExhaustionIsFused(t *testing.T) {
	a := rangeArray(t, 2, Shape{2, 1})
	view, ok := a.GetAxis(0, 0)
	require.True(t, ok)

	iter := view.Iter()
	v, ok := iter.Next()
	require.True(t, ok)
	assert.Equal(t, 0.0, v)

	_, ok = iter.Next()
	assert.False(t, ok)
	_, ok = iter.Next()
	assert.False(t, ok)
}

func TestIterAxisLen(t *testing.T) {
	a := rangeArray(t, 27, Shape{3, 3, 3})
	iter := a.IterAxis(1)

	assert.Equal(t, 3, iter.Len())
	for i := 0; i < 3; i++ {
		_, ok := iter.Next()
		require.True(t, ok)
	}
	_, ok := iter.Next()
	assert.False(t, ok)
}
