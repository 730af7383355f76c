package array

// IndicesIter is a finite, exact-length iterator over every valid
// multi-index of a shape in row-major order. Each call to Array.IterIndices
// produces a fresh iterator.
type IndicesIter struct {
	shape Shape
	index int
	total int
}

func newIndicesIter(shape Shape) *IndicesIter {
	return &IndicesIter{shape: shape, total: shape.Elements()}
}

// Len returns the number of indices remaining.
func (it *IndicesIter) Len() int {
	return it.total - it.index
}

// Shape returns the shape being enumerated.
func (it *IndicesIter) Shape() Shape {
	return it.shape
}

// Next returns the next multi-index, or false when exhausted. Each returned
// slice is freshly allocated and may be retained by the caller.
func (it *IndicesIter) Next() ([]int, bool) {
	if it.index >= it.total {
		return nil, false
	}
	index := it.shape.IndexFromFlat(it.index)
	it.index++
	return index, true
}

// AxisIter is a finite, exact-length iterator over the views of an array
// along a fixed axis, one per position.
type AxisIter struct {
	array *Array
	axis  Axis
	index int
}

// Len returns the number of views remaining.
func (it *AxisIter) Len() int {
	return it.array.Shape()[it.axis] - it.index
}

// Next returns the next view along the axis, or false when exhausted.
func (it *AxisIter) Next() (View, bool) {
	view, ok := it.array.GetAxis(it.axis, it.index)
	if !ok {
		return View{}, false
	}
	it.index++
	return view, true
}
