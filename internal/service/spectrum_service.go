// Package service provides business logic for the spectrum server.
package service

import (
	"math"
	"sync"

	"github.com/popgen-tools/sfs/internal/array"
	"github.com/popgen-tools/sfs/internal/cache"
	"github.com/popgen-tools/sfs/internal/render"
	"github.com/popgen-tools/sfs/internal/spectrum"
)

// Config contains spectrum service configuration.
type Config struct {
	Name     string
	Spectrum *spectrum.CountSpectrum
	Cache    *cache.Manager
	Renderer *render.HeatmapRenderer
}

// SpectrumService serves a loaded spectrum: summary, cells, the statistics
// catalogue, marginals, and rendered heatmaps.
type SpectrumService struct {
	name     string
	scs      *spectrum.CountSpectrum
	cache    *cache.Manager
	renderer *render.HeatmapRenderer

	foldedOnce sync.Once
	folded     *spectrum.CountSpectrum

	statsOnce sync.Once
	stats     map[string]float64
}

// NewSpectrumService creates a new spectrum service.
func NewSpectrumService(cfg Config) *SpectrumService {
	name := cfg.Name
	if name == "" {
		name = "spectrum"
	}
	return &SpectrumService{
		name:     name,
		scs:      cfg.Spectrum,
		cache:    cfg.Cache,
		renderer: cfg.Renderer,
	}
}

// Summary describes the loaded spectrum.
type Summary struct {
	Name             string  `json:"name"`
	Shape            []int   `json:"shape"`
	Dimensions       int     `json:"dimensions"`
	Elements         int     `json:"elements"`
	Sum              float64 `json:"sum"`
	SegregatingSites float64 `json:"segregating_sites"`
}

// Cells holds the raw spectrum data in row-major order.
type Cells struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// Name returns the display name of the loaded spectrum.
func (s *SpectrumService) Name() string {
	return s.name
}

// Summary returns shape and totals for the loaded spectrum.
func (s *SpectrumService) Summary() Summary {
	return Summary{
		Name:             s.name,
		Shape:            s.scs.Shape(),
		Dimensions:       s.scs.Dimensions(),
		Elements:         s.scs.Elements(),
		Sum:              s.scs.Sum(),
		SegregatingSites: s.scs.SegregatingSites(),
	}
}

// Cells returns the spectrum contents in row-major order.
func (s *SpectrumService) Cells() Cells {
	return Cells{
		Shape: s.scs.Shape(),
		Data:  s.scs.Data(),
	}
}

// Statistics returns every statistic applicable to the loaded spectrum's
// shape. Statistics whose shape requirements are not met are omitted, as
// are undefined results (NaN or infinite).
func (s *SpectrumService) Statistics() map[string]float64 {
	s.statsOnce.Do(func() {
		stats := map[string]float64{
			"segregating_sites": s.scs.SegregatingSites(),
		}

		put := func(name string, v float64, err error) {
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return
			}
			stats[name] = v
		}

		v, err := s.scs.ThetaWatterson()
		put("theta_watterson", v, err)
		v, err = s.scs.Pi()
		put("pi", v, err)
		v, err = s.scs.DTajima()
		put("tajima_d", v, err)
		v, err = s.scs.DFuLi()
		put("fu_li_d", v, err)
		v, err = s.scs.PiXY()
		put("pi_xy", v, err)
		v, err = s.scs.King()
		put("king", v, err)
		v, err = s.scs.R0()
		put("r0", v, err)
		v, err = s.scs.R1()
		put("r1", v, err)

		fcs := s.scs.Normalize()
		v, err = fcs.F2()
		put("f2", v, err)
		v, err = fcs.F3()
		put("f3", v, err)
		v, err = fcs.F4()
		put("f4", v, err)
		v, err = fcs.Fst()
		put("fst", v, err)
		v, err = fcs.Heterozygosity()
		put("heterozygosity", v, err)

		s.stats = stats
	})
	return s.stats
}

// Marginal sums out the given axes and returns the remaining cells.
func (s *SpectrumService) Marginal(axes []int) (Cells, error) {
	converted := make([]array.Axis, len(axes))
	for i, a := range axes {
		converted[i] = array.Axis(a)
	}

	marginal, err := s.scs.Marginalize(converted)
	if err != nil {
		return Cells{}, err
	}
	return Cells{Shape: marginal.Shape(), Data: marginal.Data()}, nil
}

// Heatmap renders the spectrum (optionally folded) as a PNG, caching the
// encoded bytes.
func (s *SpectrumService) Heatmap(colormapName string, folded bool) ([]byte, error) {
	key := cache.HeatmapKey(colormapName, folded)
	if s.cache != nil {
		if data, ok := s.cache.GetHeatmap(key); ok {
			return data, nil
		}
	}

	target := s.scs
	if folded {
		target = s.foldedSpectrum()
	}

	data, err := s.renderer.Render(target, colormapName)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetHeatmap(key, data); err != nil {
			return data, nil
		}
	}
	return data, nil
}

// foldedSpectrum lazily folds the spectrum. Below-diagonal cells are filled
// with NaN so the renderer leaves them blank.
func (s *SpectrumService) foldedSpectrum() *spectrum.CountSpectrum {
	s.foldedOnce.Do(func() {
		s.folded = s.scs.Fold(math.NaN())
	})
	return s.folded
}

// CacheStats reports cache occupancy, or nil when caching is disabled.
func (s *SpectrumService) CacheStats() map[string]interface{} {
	if s.cache == nil {
		return nil
	}
	return s.cache.Stats()
}
