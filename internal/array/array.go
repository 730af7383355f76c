package array

import "slices"

// Array is an N-dimensional strided array of float64 values in row-major
// order. It owns its backing buffer exclusively; Views borrow from it.
type Array struct {
	data    []float64
	shape   Shape
	strides Strides
}

// New creates an array from data in row-major order and a shape. The array
// takes ownership of the data slice.
func New(data []float64, shape Shape) (*Array, error) {
	if err := shape.validate(); err != nil {
		return nil, err
	}
	if len(data) != shape.Elements() {
		return nil, ErrShapeMismatch
	}
	return newUnchecked(data, shape), nil
}

// NewZeros creates a zero-filled array of the given shape.
func NewZeros(shape Shape) *Array {
	return NewFull(0, shape)
}

// NewFull creates an array of the given shape with every element set to v.
//
// The shape must be valid; this is an internal consistency requirement
// since shapes reaching this constructor have been validated upstream.
func NewFull(v float64, shape Shape) *Array {
	if err := shape.validate(); err != nil {
		panic(err)
	}
	data := make([]float64, shape.Elements())
	if v != 0 {
		for i := range data {
			data[i] = v
		}
	}
	return newUnchecked(data, shape)
}

func newUnchecked(data []float64, shape Shape) *Array {
	return &Array{data: data, shape: shape, strides: shape.Strides()}
}

// Clone returns a deep copy of the array.
func (a *Array) Clone() *Array {
	return newUnchecked(slices.Clone(a.data), a.shape.Clone())
}

// Data returns the backing buffer in row-major order.
func (a *Array) Data() []float64 {
	return a.data
}

// Dimensions returns the number of dimensions of the array.
func (a *Array) Dimensions() int {
	return a.shape.Dimensions()
}

// Elements returns the number of elements in the array.
func (a *Array) Elements() int {
	return len(a.data)
}

// Shape returns the shape of the array. The caller must not modify it.
func (a *Array) Shape() Shape {
	return a.shape
}

// FlatIndex converts a multi-index to a flat offset into Data, returning
// false if the index dimensionality or any coordinate is out of bounds.
func (a *Array) FlatIndex(index []int) (int, bool) {
	return a.strides.FlatIndex(a.shape, index)
}

// Get returns the element at the given multi-index, or false if the index
// is invalid.
func (a *Array) Get(index []int) (float64, bool) {
	flat, ok := a.FlatIndex(index)
	if !ok {
		return 0, false
	}
	return a.data[flat], true
}

// Set assigns v at the given multi-index, returning false if the index is
// invalid.
func (a *Array) Set(index []int, v float64) bool {
	flat, ok := a.FlatIndex(index)
	if !ok {
		return false
	}
	a.data[flat] = v
	return true
}

// GetAxis returns a view of the array with the given axis fixed at index.
// The view borrows the array's buffer; no data is copied.
func (a *Array) GetAxis(axis Axis, index int) (View, bool) {
	if axis < 0 || int(axis) >= a.Dimensions() || index < 0 || index >= a.shape[axis] {
		return View{}, false
	}
	offset := index * a.strides[axis]
	return View{
		data:    a.data[offset:],
		shape:   a.shape.removeAxis(axis),
		strides: a.strides.removeAxis(axis),
	}, true
}

// IndexAxis is like GetAxis but panics on an invalid axis or index.
func (a *Array) IndexAxis(axis Axis, index int) View {
	view, ok := a.GetAxis(axis, index)
	if !ok {
		panic("array: axis or index out of bounds")
	}
	return view
}

// IterIndices returns a fresh iterator over every valid multi-index of the
// array in row-major order, the canonical enumeration order of the system.
func (a *Array) IterIndices() *IndicesIter {
	return newIndicesIter(a.shape)
}

// IterAxis returns an iterator over views along the given axis, one per
// position.
func (a *Array) IterAxis(axis Axis) *AxisIter {
	return &AxisIter{array: a, axis: axis}
}

// Sum reduces one axis by addition, producing an array of one lower
// dimensionality.
func (a *Array) Sum(axis Axis) *Array {
	out := NewZeros(a.shape.removeAxis(axis))
	iter := a.IterAxis(axis)
	for {
		view, ok := iter.Next()
		if !ok {
			break
		}
		j := 0
		values := view.Iter()
		for {
			v, ok := values.Next()
			if !ok {
				break
			}
			out.data[j] += v
			j++
		}
	}
	return out
}
