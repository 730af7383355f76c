package sites

import (
	"errors"
	"fmt"

	"github.com/popgen-tools/sfs/internal/genotype"
	"github.com/popgen-tools/sfs/internal/spectrum"
)

// ErrProjectionShape is returned when a projection target does not fit the
// sample map.
var ErrProjectionShape = errors.New("sites: projection target does not fit sample map")

// SiteClass classifies a site after reading its genotypes.
type SiteClass int

const (
	// SiteExact is a site whose counts can be added to the spectrum as-is.
	SiteExact SiteClass = iota
	// SiteProjected is a site whose counts were downsampled to the
	// projection target.
	SiteProjected
	// SiteInsufficient is a site with too little data to use.
	SiteInsufficient
)

// Site is the outcome of reading one site.
//
// Count is valid for exact sites, Weights for projected sites. Both alias
// buffers owned by the reader and are only valid until the next read.
type Site struct {
	Class   SiteClass
	Count   spectrum.Count
	Weights []float64
}

// SkippedSample records a sample skipped at the current site.
type SkippedSample struct {
	Sample string
	Reason genotype.SkipReason
}

// Reader accumulates per-population allele counts one site at a time from a
// genotype stream.
type Reader struct {
	genotypes     genotype.Reader
	sampleMap     *SampleMap
	projection    *PartialProjection
	populationIDs []int
	counts        spectrum.Count
	totals        spectrum.Count
	skipped       []SkippedSample
}

// NewReader creates a site reader over a genotype stream. The projection is
// optional; when set it must match the sample map in dimensionality and must
// not exceed its allele counts. Stream samples not in the map are ignored.
func NewReader(r genotype.Reader, m *SampleMap, projection *PartialProjection) (*Reader, error) {
	dimensions := m.Populations()

	if projection != nil {
		to := projection.ProjectTo()
		if len(to) != dimensions {
			return nil, fmt.Errorf(
				"%w: target has %d dimensions, map has %d populations",
				ErrProjectionShape, len(to), dimensions,
			)
		}
		for d, limit := range m.AlleleCounts() {
			if to[d] > limit {
				return nil, fmt.Errorf(
					"%w: target allele count %d exceeds %d in dimension %d",
					ErrProjectionShape, to[d], limit, d,
				)
			}
		}
	}

	names := r.SampleNames()
	populationIDs := make([]int, len(names))
	for i, name := range names {
		if id, ok := m.PopulationID(name); ok {
			populationIDs[i] = id
		} else {
			populationIDs[i] = -1
		}
	}

	return &Reader{
		genotypes:     r,
		sampleMap:     m,
		projection:    projection,
		populationIDs: populationIDs,
		counts:        spectrum.ZeroCount(dimensions),
		totals:        spectrum.ZeroCount(dimensions),
	}, nil
}

// MissingSamples returns the samples in the map that are absent from the
// stream.
func (r *Reader) MissingSamples() []string {
	present := make(map[string]bool, len(r.genotypes.SampleNames()))
	for _, name := range r.genotypes.SampleNames() {
		present[name] = true
	}

	var missing []string
	for _, sample := range r.sampleMap.Samples() {
		if !present[sample] {
			missing = append(missing, sample)
		}
	}
	return missing
}

// ZeroSpectrum returns a zero spectrum with the shape implied by the reader
// configuration: the projection target shape when projecting, otherwise the
// sample map shape.
func (r *Reader) ZeroSpectrum() *spectrum.CountSpectrum {
	if r.projection != nil {
		return spectrum.ZeroCounts(r.projection.Shape())
	}
	return spectrum.ZeroCounts(r.sampleMap.Shape())
}

// CurrentContig returns the contig of the most recently read site.
func (r *Reader) CurrentContig() string {
	return r.genotypes.CurrentContig()
}

// CurrentPosition returns the position of the most recently read site.
func (r *Reader) CurrentPosition() int {
	return r.genotypes.CurrentPosition()
}

// SkippedSamples returns the samples skipped at the most recently read site.
// The slice is reused between reads.
func (r *Reader) SkippedSamples() []SkippedSample {
	return r.skipped
}

// Next reads and classifies the next site. It returns io.EOF when the stream
// is exhausted; any other error is fatal.
func (r *Reader) Next() (Site, error) {
	r.counts.SetZero()
	r.totals.SetZero()
	r.skipped = r.skipped[:0]

	calls, err := r.genotypes.ReadGenotypes()
	if err != nil {
		return Site{}, err
	}

	names := r.genotypes.SampleNames()
	for i, call := range calls {
		id := r.populationIDs[i]
		if id < 0 {
			continue
		}

		if call.Skipped {
			r.skipped = append(r.skipped, SkippedSample{
				Sample: names[i],
				Reason: call.Reason,
			})
			continue
		}

		r.counts[id] += int(call.Genotype)
		r.totals[id] += 2
	}

	if r.projection == nil {
		if len(r.skipped) > 0 {
			return Site{Class: SiteInsufficient}, nil
		}
		return Site{Class: SiteExact, Count: r.counts}, nil
	}

	exact, projectable := true, true
	for d, to := range r.projection.ProjectTo() {
		exact = exact && r.totals[d] == to
		projectable = projectable && r.totals[d] >= to
	}

	switch {
	case exact:
		return Site{Class: SiteExact, Count: r.counts}, nil
	case projectable:
		weights, err := r.projection.Weights(r.totals, r.counts)
		if err != nil {
			return Site{}, err
		}
		return Site{Class: SiteProjected, Weights: weights}, nil
	default:
		return Site{Class: SiteInsufficient}, nil
	}
}
