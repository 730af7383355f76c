// Package spectrum implements multi-dimensional site frequency spectra over
// counts and normalized frequencies.
package spectrum

import (
	"errors"
	"fmt"

	"github.com/popgen-tools/sfs/internal/array"
)

var (
	// ErrDuplicateAxis is returned when marginalizing the same axis twice.
	ErrDuplicateAxis = errors.New("spectrum: duplicate marginalization axis")
	// ErrAxisOutOfBounds is returned when marginalizing an axis not in the spectrum.
	ErrAxisOutOfBounds = errors.New("spectrum: marginalization axis out of bounds")
	// ErrTooManyAxes is returned when marginalizing all axes of a spectrum.
	ErrTooManyAxes = errors.New("spectrum: too many marginalization axes")
	// ErrDimensions is returned when a statistic is taken on a spectrum with
	// the wrong number of dimensions.
	ErrDimensions = errors.New("spectrum: wrong dimensions for statistic")
	// ErrShape is returned when a statistic is taken on a spectrum with the
	// wrong shape.
	ErrShape = errors.New("spectrum: wrong shape for statistic")
)

// spectrum is the representation shared by count and frequency spectra.
type spectrum struct {
	arr *array.Array
}

// Dimensions returns the number of populations in the spectrum.
func (s *spectrum) Dimensions() int {
	return s.arr.Dimensions()
}

// Elements returns the number of cells in the spectrum.
func (s *spectrum) Elements() int {
	return s.arr.Elements()
}

// Shape returns the shape of the spectrum.
func (s *spectrum) Shape() array.Shape {
	return s.arr.Shape()
}

// Array returns the underlying array.
func (s *spectrum) Array() *array.Array {
	return s.arr
}

// Data returns the underlying cells in row-major order.
func (s *spectrum) Data() []float64 {
	return s.arr.Data()
}

// Get returns the cell at the given index. The second return value is false
// if the index is out of bounds.
func (s *spectrum) Get(index []int) (float64, bool) {
	return s.arr.Get(index)
}

// Set sets the cell at the given index, reporting whether the index was in
// bounds.
func (s *spectrum) Set(index []int, v float64) bool {
	return s.arr.Set(index, v)
}

// Sum returns the sum of all cells in the spectrum.
func (s *spectrum) Sum() float64 {
	var sum float64
	for _, v := range s.arr.Data() {
		sum += v
	}
	return sum
}

func (s *spectrum) marginalize(axes []array.Axis) (*array.Array, error) {
	dimensions := s.Dimensions()

	for i, axis := range axes {
		for _, other := range axes[i+1:] {
			if axis == other {
				return nil, fmt.Errorf("%w: axis %d", ErrDuplicateAxis, axis)
			}
		}
	}

	for _, axis := range axes {
		if axis < 0 || int(axis) >= dimensions {
			return nil, fmt.Errorf(
				"%w: axis %d in spectrum with %d dimensions",
				ErrAxisOutOfBounds, axis, dimensions,
			)
		}
	}

	if len(axes) >= dimensions {
		return nil, fmt.Errorf(
			"%w: %d axes in spectrum with %d dimensions",
			ErrTooManyAxes, len(axes), dimensions,
		)
	}

	sorted := make([]array.Axis, len(axes))
	copy(sorted, axes)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	// Marginalizing an axis shifts the later axes down by one, so walk the
	// sorted axes and correct each by the number already removed.
	arr := s.arr
	for removed, axis := range sorted {
		arr = arr.Sum(axis - array.Axis(removed))
	}

	return arr, nil
}

// CountSpectrum is a site count spectrum, counting the number of sites
// observed at each joint derived allele count.
type CountSpectrum struct {
	spectrum
}

// NewCounts creates a count spectrum from cells in row-major order and a
// shape.
func NewCounts(data []float64, shape array.Shape) (*CountSpectrum, error) {
	arr, err := array.New(data, shape)
	if err != nil {
		return nil, err
	}
	return countsFromArray(arr), nil
}

// ZeroCounts creates a count spectrum filled with zeros to a shape.
func ZeroCounts(shape array.Shape) *CountSpectrum {
	return countsFromArray(array.NewZeros(shape))
}

// CountsFromVec creates a one-dimensional count spectrum from a vector.
func CountsFromVec(vec []float64) *CountSpectrum {
	spectrum, err := NewCounts(vec, array.Shape{len(vec)})
	if err != nil {
		panic(err)
	}
	return spectrum
}

// RangeCounts creates a count spectrum with cells 0, 1, 2, ... in row-major
// order. This is mainly intended for testing and illustration.
func RangeCounts(shape array.Shape) *CountSpectrum {
	data := make([]float64, shape.Elements())
	for i := range data {
		data[i] = float64(i)
	}
	spectrum, err := NewCounts(data, shape)
	if err != nil {
		panic(err)
	}
	return spectrum
}

func countsFromArray(arr *array.Array) *CountSpectrum {
	return &CountSpectrum{spectrum{arr: arr}}
}

// Clone returns a deep copy of the spectrum.
func (s *CountSpectrum) Clone() *CountSpectrum {
	return countsFromArray(s.arr.Clone())
}

// Add increments the cell at the given count by one, reporting whether the
// count was in bounds.
func (s *CountSpectrum) Add(count Count) bool {
	index := []int(count)
	v, ok := s.arr.Get(index)
	if !ok {
		return false
	}
	return s.arr.Set(index, v+1)
}

// AddWeighted adds a weight to the cell at the given index, reporting whether
// the index was in bounds.
func (s *CountSpectrum) AddWeighted(index []int, weight float64) bool {
	v, ok := s.arr.Get(index)
	if !ok {
		return false
	}
	return s.arr.Set(index, v+weight)
}

// Normalize returns the spectrum normalized to frequencies summing to one.
func (s *CountSpectrum) Normalize() *FreqSpectrum {
	arr := s.arr.Clone()
	sum := s.Sum()
	data := arr.Data()
	for i := range data {
		data[i] /= sum
	}
	return freqsFromArray(arr)
}

// Marginalize returns a spectrum with the provided axes summed out.
func (s *CountSpectrum) Marginalize(axes []array.Axis) (*CountSpectrum, error) {
	arr, err := s.marginalize(axes)
	if err != nil {
		return nil, err
	}
	return countsFromArray(arr), nil
}

// Fold returns a folded spectrum, filling cells folded away with fill.
func (s *CountSpectrum) Fold(fill float64) *CountSpectrum {
	return countsFromArray(fold(s.arr, fill))
}

// Project returns the spectrum projected down to a shape by hypergeometric
// down-sampling. Prefer projecting site-wise during creation where possible.
func (s *CountSpectrum) Project(to array.Shape) (*CountSpectrum, error) {
	arr, err := project(s.arr, to)
	if err != nil {
		return nil, err
	}
	return countsFromArray(arr), nil
}

// SegregatingSites returns the number of sites segregating in any population,
// i.e. the sum of all cells except the first and last.
func (s *CountSpectrum) SegregatingSites() float64 {
	data := s.arr.Data()
	var sum float64
	for _, v := range data[1 : len(data)-1] {
		sum += v
	}
	return sum
}

// FreqSpectrum is a site frequency spectrum normalized to frequencies.
type FreqSpectrum struct {
	spectrum
}

// NewFreqs creates a frequency spectrum from cells in row-major order and a
// shape. The cells are taken as already normalized.
func NewFreqs(data []float64, shape array.Shape) (*FreqSpectrum, error) {
	arr, err := array.New(data, shape)
	if err != nil {
		return nil, err
	}
	return freqsFromArray(arr), nil
}

func freqsFromArray(arr *array.Array) *FreqSpectrum {
	return &FreqSpectrum{spectrum{arr: arr}}
}

// Clone returns a deep copy of the spectrum.
func (s *FreqSpectrum) Clone() *FreqSpectrum {
	return freqsFromArray(s.arr.Clone())
}

// Marginalize returns a spectrum with the provided axes summed out.
func (s *FreqSpectrum) Marginalize(axes []array.Axis) (*FreqSpectrum, error) {
	arr, err := s.marginalize(axes)
	if err != nil {
		return nil, err
	}
	return freqsFromArray(arr), nil
}

// Fold returns a folded spectrum, filling cells folded away with fill.
func (s *FreqSpectrum) Fold(fill float64) *FreqSpectrum {
	return freqsFromArray(fold(s.arr, fill))
}

// Project returns the spectrum projected down to a shape by hypergeometric
// down-sampling.
func (s *FreqSpectrum) Project(to array.Shape) (*FreqSpectrum, error) {
	arr, err := project(s.arr, to)
	if err != nil {
		return nil, err
	}
	return freqsFromArray(arr), nil
}
