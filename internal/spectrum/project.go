package spectrum

import (
	"errors"
	"fmt"

	"github.com/popgen-tools/sfs/internal/array"
	"github.com/popgen-tools/sfs/internal/hypergeo"
)

var (
	// ErrProjectionDimensions is returned when projecting to a shape with a
	// different number of dimensions.
	ErrProjectionDimensions = errors.New("spectrum: projection dimensions do not match")
	// ErrInvalidProjection is returned when projecting to a shape that is
	// larger than the source shape, or empty, in some dimension.
	ErrInvalidProjection = errors.New("spectrum: invalid projection shape")
)

// project projects an array down to a smaller shape. Each source cell
// distributes its mass over all target cells, weighted by the joint
// hypergeometric probability of drawing the target allele counts when
// down-sampling from the source allele counts. See Marth (2004) and
// Gutenkunst (2009).
func project(arr *array.Array, to array.Shape) (*array.Array, error) {
	from := arr.Shape()

	if len(to) != len(from) {
		return nil, fmt.Errorf(
			"%w: cannot project %v to %v", ErrProjectionDimensions, from, to,
		)
	}
	for d := range to {
		if to[d] < 1 || to[d] > from[d] {
			return nil, fmt.Errorf(
				"%w: cannot project %v to %v", ErrInvalidProjection, from, to,
			)
		}
	}

	projected := array.NewZeros(to)
	dst := projected.Data()

	indices := arr.IterIndices()
	for {
		index, ok := indices.Next()
		if !ok {
			break
		}

		weight, _ := arr.Get(index)
		if weight == 0 {
			continue
		}

		target := make([]int, len(to))
		for j := 0; ; j++ {
			pmf := 1.0
			for d := range to {
				pmf *= hypergeo.PMF(from[d]-1, index[d], to[d]-1, target[d])
			}
			dst[j] += weight * pmf

			// Advance the target index in row-major order.
			d := len(target) - 1
			for d >= 0 {
				target[d]++
				if target[d] < to[d] {
					break
				}
				target[d] = 0
				d--
			}
			if d < 0 {
				break
			}
		}
	}

	return projected, nil
}
