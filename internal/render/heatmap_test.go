package render

import (
	"bytes"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popgen-tools/sfs/internal/array"
	"github.com/popgen-tools/sfs/internal/spectrum"
)

func testRenderer() *HeatmapRenderer {
	return NewHeatmapRenderer(Config{CellSize: 8, DefaultColormap: "viridis"})
}

func TestRenderOneDimensional(t *testing.T) {
	scs := spectrum.CountsFromVec([]float64{1, 10, 100})

	data, err := testRenderer().Render(scs, "")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	bounds := img.Bounds()
	assert.Equal(t, 24, bounds.Dx())
	assert.Equal(t, 8, bounds.Dy())
}

func TestRenderTwoDimensional(t *testing.T) {
	scs := spectrum.RangeCounts(array.Shape{2, 3})

	data, err := testRenderer().Render(scs, "magma")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	bounds := img.Bounds()
	assert.Equal(t, 24, bounds.Dx())
	assert.Equal(t, 16, bounds.Dy())
}

func TestRenderRejectsHigherDimensions(t *testing.T) {
	scs := spectrum.ZeroCounts(array.Shape{2, 2, 2})

	_, err := testRenderer().Render(scs, "")
	assert.ErrorIs(t, err, ErrDimensions)
}

func TestRenderMaskedCellsStayWhite(t *testing.T) {
	scs := spectrum.ZeroCounts(array.Shape{3})
	scs.Data()[0] = math.NaN()
	scs.Data()[1] = 5

	data, err := testRenderer().Render(scs, "")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	r, g, b, _ := img.At(2, 2).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), b)
}

func TestLogScale(t *testing.T) {
	scale := logScale([]float64{0, 9, math.NaN()})

	assert.Equal(t, 0.0, scale(0))
	assert.InDelta(t, 1.0, scale(9), 1e-12)
	assert.InDelta(t, math.Log1p(3)/math.Log1p(9), scale(3), 1e-12)
}
