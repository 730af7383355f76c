// Package array provides the N-dimensional row-major strided array that
// backs site frequency spectra.
package array

import (
	"errors"
	"slices"
	"strconv"
	"strings"
)

// ErrNonPositiveDimension indicates a shape with a dimension of size zero or less.
var ErrNonPositiveDimension = errors.New("array: shape dimensions must be positive")

// ErrShapeMismatch indicates that a data buffer does not fit a shape.
var ErrShapeMismatch = errors.New("array: data length does not match shape")

// Axis identifies a dimension of an array.
type Axis int

// Shape is the extent of an array, one entry per dimension.
//
// For a population of m diploid individuals the conventional dimension size
// is 2m+1, covering derived allele counts 0..2m inclusive.
type Shape []int

// Dimensions returns the number of dimensions.
func (s Shape) Dimensions() int {
	return len(s)
}

// Elements returns the number of elements an array of this shape holds.
func (s Shape) Elements() int {
	n := 1
	for _, v := range s {
		n *= v
	}
	return n
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	return slices.Clone(s)
}

func (s Shape) validate() error {
	for _, v := range s {
		if v <= 0 {
			return ErrNonPositiveDimension
		}
	}
	return nil
}

// Strides returns the row-major strides of the shape: strides[i] is the
// product of all dimension sizes after i.
func (s Shape) Strides() Strides {
	strides := make(Strides, len(s))
	stride := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= s[i]
	}
	return strides
}

// IndexFromFlat converts a flat row-major offset to a multi-index.
// The offset must be in [0, s.Elements()).
func (s Shape) IndexFromFlat(flat int) []int {
	index := make([]int, len(s))
	n := s.Elements()
	for i, v := range s {
		n /= v
		index[i] = flat / n
		flat %= n
	}
	return index
}

// IndexSumFromFlat returns the sum of the multi-index coordinates of a flat
// row-major offset without materializing the index.
func (s Shape) IndexSumFromFlat(flat int) int {
	sum := 0
	n := s.Elements()
	for _, v := range s {
		n /= v
		sum += flat / n
		flat %= n
	}
	return sum
}

// removeAxis returns the shape with the given axis removed.
func (s Shape) removeAxis(axis Axis) Shape {
	out := make(Shape, 0, len(s)-1)
	out = append(out, s[:axis]...)
	return append(out, s[axis+1:]...)
}

// String formats the shape as slash-separated dimension sizes, e.g. "3/3/4".
func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, "/")
}

// Strides are the row-major offset multipliers derived from a Shape.
type Strides []int

// FlatIndex converts a multi-index to a flat offset, bounds-checking each
// coordinate against the shape. Returns false if the index has the wrong
// number of dimensions or any coordinate is out of bounds.
func (st Strides) FlatIndex(shape Shape, index []int) (int, bool) {
	if len(index) != len(shape) {
		return 0, false
	}
	flat := 0
	for i, v := range index {
		if v < 0 || v >= shape[i] {
			return 0, false
		}
		flat += v * st[i]
	}
	return flat, true
}

func (st Strides) removeAxis(axis Axis) Strides {
	out := make(Strides, 0, len(st)-1)
	out = append(out, st[:axis]...)
	return append(out, st[axis+1:]...)
}
