package array

// View is a read-only, axis-reduced window into an Array's buffer. It owns
// nothing: the data slice borrows from the array it was produced from and
// must not be retained past mutation or destruction of that array.
type View struct {
	data    []float64 // first element of the view is data[0]
	shape   Shape
	strides Strides
}

// Dimensions returns the number of dimensions of the view.
func (v View) Dimensions() int {
	return v.shape.Dimensions()
}

// Shape returns the shape of the view. The caller must not modify it.
func (v View) Shape() Shape {
	return v.shape
}

// Elements returns the number of elements in the view.
func (v View) Elements() int {
	return v.shape.Elements()
}

// Iter returns an iterator over the elements of the view in row-major order.
func (v View) Iter() *ViewIter {
	return &ViewIter{
		view:   v,
		coords: make([]int, v.Dimensions()),
		total:  v.Elements(),
	}
}

// ToArray materializes an owned copy of the view.
func (v View) ToArray() *Array {
	data := make([]float64, 0, v.Elements())
	iter := v.Iter()
	for {
		x, ok := iter.Next()
		if !ok {
			break
		}
		data = append(data, x)
	}
	return newUnchecked(data, v.shape.Clone())
}

// ViewIter iterates the elements of a View in row-major order. It walks the
// borrowed buffer with an explicit coordinate vector and a carry loop from
// the innermost axis outward, so high-dimensional views cannot overflow the
// stack.
type ViewIter struct {
	view    View
	coords  []int
	pos     int
	yielded int
	total   int
	started bool
}

// Len returns the number of elements remaining.
func (it *ViewIter) Len() int {
	return it.total - it.yielded
}

// Next returns the next element, or false when the view is exhausted.
func (it *ViewIter) Next() (float64, bool) {
	if it.yielded >= it.total {
		return 0, false
	}
	if !it.started {
		it.started = true
		if it.total == 0 {
			return 0, false
		}
		it.yielded++
		return it.view.data[0], true
	}

	for dim := len(it.coords) - 1; dim >= 0; dim-- {
		it.coords[dim]++
		if it.coords[dim] < it.view.shape[dim] {
			it.pos += it.view.strides[dim]
			it.yielded++
			return it.view.data[it.pos], true
		}
		it.coords[dim] = 0
		it.pos -= it.view.strides[dim] * (it.view.shape[dim] - 1)
	}
	return 0, false
}
