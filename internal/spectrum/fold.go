package spectrum

import "github.com/popgen-tools/sfs/internal/array"

// fold folds an array onto its upper half, mapping each cell onto the cell
// with the mirrored allele counts.
//
// The folding line sits at half the total allele count. Cells below it fold
// onto cells above it, and are filled with fill in the result. When the total
// count is even a diagonal falls exactly on the line; its cells pair up with
// other diagonal cells, and each pair member keeps half of the folded mass,
// matching what e.g. dadi does.
//
// The reverse iteration may reach cells that have already been folded, so the
// fold is computed into a fresh array rather than in place.
func fold(arr *array.Array, fill float64) *array.Array {
	shape := arr.Shape()

	totalCount := 0
	for _, size := range shape {
		totalCount += size - 1
	}
	midCount := totalCount / 2
	hasDiagonal := totalCount%2 == 0

	src := arr.Data()
	folded := array.NewZeros(shape)
	dst := folded.Data()

	n := len(src)
	for i := 0; i < n; i++ {
		rev := n - 1 - i
		count := shape.IndexSumFromFlat(i)

		switch {
		case count < midCount, count == midCount && !hasDiagonal:
			dst[i] = src[i] + src[rev]
		case count == midCount:
			dst[i] = 0.5*src[i] + 0.5*src[rev]
		default:
			dst[i] = fill
		}
	}

	return folded
}
