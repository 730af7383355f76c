package sites

import (
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/popgen-tools/sfs/internal/array"
	"github.com/popgen-tools/sfs/internal/hypergeo"
	"github.com/popgen-tools/sfs/internal/spectrum"
)

// Sites at the same totals and counts produce identical weight vectors, and
// real data hits the same handful of combinations over and over, so computed
// vectors are kept in a bounded LRU cache.
const projectionCacheSize = 4096

var (
	// ErrInvalidTarget is returned when a projection target is empty or
	// negative in some dimension.
	ErrInvalidTarget = errors.New("sites: invalid projection target")
	// ErrNotProjectable is returned when a site's totals cannot be projected
	// down to the target.
	ErrNotProjectable = errors.New("sites: site not projectable to target")
)

// PartialProjection projects single sites down to a target allele count per
// population, using the site's own observed totals as the source.
type PartialProjection struct {
	to    spectrum.Count
	cache *lru.Cache[string, []float64]
}

// NewPartialProjection creates a projection down to the given target allele
// counts.
func NewPartialProjection(to spectrum.Count) (*PartialProjection, error) {
	if len(to) == 0 {
		return nil, fmt.Errorf("%w: no dimensions", ErrInvalidTarget)
	}
	for d, n := range to {
		if n < 1 {
			return nil, fmt.Errorf("%w: allele count %d in dimension %d", ErrInvalidTarget, n, d)
		}
	}

	cache, err := lru.New[string, []float64](projectionCacheSize)
	if err != nil {
		return nil, err
	}

	return &PartialProjection{to: append(spectrum.Count(nil), to...), cache: cache}, nil
}

// ProjectTo returns the target allele counts of the projection.
func (p *PartialProjection) ProjectTo() spectrum.Count {
	return p.to
}

// Shape returns the spectrum shape of the projection target.
func (p *PartialProjection) Shape() array.Shape {
	return p.to.ToShape()
}

// Weights returns the projected weight for every cell of the target shape in
// row-major order, downsampling a site with the observed totals and derived
// allele counts. The returned slice is shared with the cache and must not be
// modified.
func (p *PartialProjection) Weights(totals, counts spectrum.Count) ([]float64, error) {
	if len(totals) != len(p.to) || len(counts) != len(p.to) {
		return nil, fmt.Errorf(
			"%w: site has %d dimensions, target has %d",
			ErrNotProjectable, len(totals), len(p.to),
		)
	}
	for d := range p.to {
		if totals[d] < p.to[d] {
			return nil, fmt.Errorf(
				"%w: total %d below target %d in dimension %d",
				ErrNotProjectable, totals[d], p.to[d], d,
			)
		}
	}

	key := fmt.Sprintf("%v|%v", []int(totals), []int(counts))
	if weights, ok := p.cache.Get(key); ok {
		return weights, nil
	}

	elements := 1
	for _, n := range p.to {
		elements *= n + 1
	}

	weights := make([]float64, elements)
	target := make([]int, len(p.to))
	for flat := range weights {
		pmf := 1.0
		for d := range p.to {
			pmf *= hypergeo.PMF(totals[d], counts[d], p.to[d], target[d])
		}
		weights[flat] = pmf

		// Advance the target in row-major order, carrying outward.
		for d := len(target) - 1; d >= 0; d-- {
			target[d]++
			if target[d] <= p.to[d] {
				break
			}
			target[d] = 0
		}
	}

	p.cache.Add(key, weights)
	return weights, nil
}
