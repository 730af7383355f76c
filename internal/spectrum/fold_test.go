package spectrum

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/popgen-tools/sfs/internal/array"
)

func TestFold(t *testing.T) {
	cases := []struct {
		name     string
		shape    array.Shape
		fill     float64
		expected []float64
	}{
		{
			name:     "4 without diagonal",
			shape:    array.Shape{4},
			fill:     0,
			expected: []float64{3, 3, 0, 0},
		},
		{
			name:     "5 with diagonal",
			shape:    array.Shape{5},
			fill:     -1,
			expected: []float64{4, 4, 2, -1, -1},
		},
		{
			name:  "3x3 with diagonal",
			shape: array.Shape{3, 3},
			fill:  0,
			expected: []float64{
				8, 8, 4,
				8, 4, 0,
				4, 0, 0,
			},
		},
		{
			name:  "2x4 with diagonal",
			shape: array.Shape{2, 4},
			fill:  math.Inf(1),
			expected: []float64{
				7, 7, 3.5, math.Inf(1),
				7, 3.5, math.Inf(1), math.Inf(1),
			},
		},
		{
			name:  "3x4 without diagonal",
			shape: array.Shape{3, 4},
			fill:  0,
			expected: []float64{
				11, 11, 11, 0,
				11, 11, 0, 0,
				11, 0, 0, 0,
			},
		},
		{
			name:  "3x7 with diagonal",
			shape: array.Shape{3, 7},
			fill:  0,
			expected: []float64{
				20, 20, 20, 20, 10, 0, 0,
				20, 20, 20, 10, 0, 0, 0,
				20, 20, 10, 0, 0, 0, 0,
			},
		},
		{
			name:  "2x2x2 without diagonal",
			shape: array.Shape{2, 2, 2},
			fill:  -1,
			expected: []float64{
				7, 7,
				7, -1,

				7, -1,
				-1, -1,
			},
		},
		{
			name:  "2x3x2 with diagonal",
			shape: array.Shape{2, 3, 2},
			fill:  0,
			expected: []float64{
				11, 11,
				11, 5.5,
				5.5, 0,

				11, 5.5,
				5.5, 0,
				0, 0,
			},
		},
		{
			name:  "3x3x3 with diagonal",
			shape: array.Shape{3, 3, 3},
			fill:  0,
			expected: []float64{
				26, 26, 26,
				26, 26, 13,
				26, 13, 0,

				26, 26, 13,
				26, 13, 0,
				13, 0, 0,

				26, 13, 0,
				13, 0, 0,
				0, 0, 0,
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			scs := RangeCounts(c.shape)
			folded := scs.Fold(c.fill)

			assert.Equal(t, c.expected, folded.Data())
			assert.Equal(t, c.shape, folded.Shape())
		})
	}
}

func TestFoldLeavesSourceUntouched(t *testing.T) {
	scs := RangeCounts(array.Shape{5})
	scs.Fold(0)
	assert.Equal(t, []float64{0, 1, 2, 3, 4}, scs.Data())
}
