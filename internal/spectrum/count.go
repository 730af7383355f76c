package spectrum

import "github.com/popgen-tools/sfs/internal/array"

// Count holds per-population derived allele counts for a single site.
type Count []int

// CountFromShape returns the maximum count representable in a spectrum of the
// given shape, i.e. each dimension size minus one.
func CountFromShape(shape array.Shape) Count {
	count := make(Count, len(shape))
	for d, size := range shape {
		count[d] = size - 1
	}
	return count
}

// ZeroCount returns an all-zero count with the given number of dimensions.
func ZeroCount(dimensions int) Count {
	return make(Count, dimensions)
}

// Dimensions returns the number of populations in the count.
func (c Count) Dimensions() int {
	return len(c)
}

// ToShape returns the spectrum shape required to hold the count, i.e. each
// count plus one.
func (c Count) ToShape() array.Shape {
	shape := make(array.Shape, len(c))
	for d, n := range c {
		shape[d] = n + 1
	}
	return shape
}

// SetZero resets all counts to zero in place.
func (c Count) SetZero() {
	for d := range c {
		c[d] = 0
	}
}
