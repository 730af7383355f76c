// Package render produces spectrum heatmap images using fogleman/gg.
package render

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"github.com/popgen-tools/sfs/internal/array"
	"github.com/popgen-tools/sfs/pkg/colormap"
)

// ErrDimensions is returned when a spectrum cannot be drawn as a heatmap.
var ErrDimensions = errors.New("heatmaps require a one- or two-dimensional spectrum")

// Config contains renderer configuration.
type Config struct {
	CellSize        int
	DefaultColormap string
}

// Spectrum is the minimal view of a spectrum needed for rendering.
type Spectrum interface {
	Shape() array.Shape
	Data() []float64
}

// HeatmapRenderer renders spectra as PNG heatmaps. One-dimensional
// spectra become a horizontal strip of cells, two-dimensional spectra
// a grid with the first axis running down the image.
type HeatmapRenderer struct {
	config     Config
	bufferPool sync.Pool
}

// NewHeatmapRenderer creates a new heatmap renderer.
func NewHeatmapRenderer(cfg Config) *HeatmapRenderer {
	if cfg.CellSize <= 0 {
		cfg.CellSize = 32
	}
	return &HeatmapRenderer{
		config: cfg,
		bufferPool: sync.Pool{
			New: func() interface{} {
				return bytes.NewBuffer(make([]byte, 0, 32*1024))
			},
		},
	}
}

// Render draws the spectrum as a PNG heatmap using the named colormap,
// falling back to the configured default for unknown names.
func (r *HeatmapRenderer) Render(s Spectrum, colormapName string) ([]byte, error) {
	shape := s.Shape()
	if shape.Dimensions() < 1 || shape.Dimensions() > 2 {
		return nil, ErrDimensions
	}

	rows, cols := 1, shape[0]
	if shape.Dimensions() == 2 {
		rows, cols = shape[0], shape[1]
	}

	cellSize := float64(r.config.CellSize)
	dc := gg.NewContext(cols*r.config.CellSize, rows*r.config.CellSize)
	dc.SetColor(color.White)
	dc.Clear()

	if colormapName == "" {
		colormapName = r.config.DefaultColormap
	}
	cmap := colormap.ByName(colormapName)

	data := s.Data()
	scale := logScale(data)

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			v := data[row*cols+col]
			// Masked cells (NaN or infinite fill values) stay white.
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				continue
			}

			dc.SetColor(cmap.At(scale(v)))
			dc.DrawRectangle(float64(col)*cellSize, float64(row)*cellSize, cellSize, cellSize)
			dc.Fill()
		}
	}

	return r.encodeContext(dc)
}

// logScale returns a function mapping cell values to [0, 1]. Spectrum
// cells span orders of magnitude, so intensities are compressed with
// log1p before normalizing against the largest finite cell.
func logScale(data []float64) func(float64) float64 {
	max := 0.0
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v > max {
			max = v
		}
	}
	if max == 0 {
		return func(float64) float64 { return 0 }
	}

	denom := math.Log1p(max)
	return func(v float64) float64 {
		return math.Log1p(v) / denom
	}
}

func (r *HeatmapRenderer) encodeContext(dc *gg.Context) ([]byte, error) {
	buf := r.bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		r.bufferPool.Put(buf)
	}()

	// Use fast PNG encoder
	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(buf, dc.Image()); err != nil {
		return nil, err
	}

	// Copy buffer contents (buffer will be reused)
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result, nil
}
