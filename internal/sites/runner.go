package sites

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/popgen-tools/sfs/internal/genotype"
	"github.com/popgen-tools/sfs/internal/spectrum"
)

// ErrStrict is returned when strict mode promotes a warning to an error.
var ErrStrict = errors.New("sites: skipped site in strict mode")

// Runner drives a site reader over a whole genotype stream, accumulating a
// count spectrum. By default degraded sites are warned about and tallied,
// and only sites with insufficient data are left out of the spectrum; in
// strict mode the first degraded site fails the run.
type Runner struct {
	reader   *Reader
	warnings *Warnings
	logger   *log.Logger
	strict   bool
}

// NewRunner creates a runner over a genotype stream. Samples in the map but
// absent from the stream are warned about, or fail immediately when strict.
func NewRunner(
	r genotype.Reader,
	m *SampleMap,
	projection *PartialProjection,
	strict bool,
	logger *log.Logger,
) (*Runner, error) {
	reader, err := NewReader(r, m, projection)
	if err != nil {
		return nil, err
	}

	for _, sample := range reader.MissingSamples() {
		if strict {
			return nil, fmt.Errorf("sites: sample %q was not found in input", sample)
		}
		logger.Printf("sample %q was not found in input", sample)
	}

	return &Runner{
		reader:   reader,
		warnings: NewWarnings(logger),
		logger:   logger,
		strict:   strict,
	}, nil
}

// Run reads the stream to the end and returns the accumulated spectrum.
func (r *Runner) Run() (*spectrum.CountSpectrum, error) {
	scs := r.reader.ZeroSpectrum()
	data := scs.Data()

	for {
		site, err := r.reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if err := r.reportSkips(); err != nil {
			return nil, err
		}

		switch site.Class {
		case SiteExact:
			scs.Add(site.Count)
		case SiteProjected:
			for i, w := range site.Weights {
				data[i] += w
			}
		case SiteInsufficient:
			if r.strict {
				return nil, fmt.Errorf(
					"%w: insufficient data at '%s:%d'",
					ErrStrict, r.reader.CurrentContig(), r.reader.CurrentPosition(),
				)
			}
			r.warnings.WarnOnce(r.reader.CurrentContig(), r.reader.CurrentPosition(), warnInsufficient)
		}
	}

	r.warnings.Summarize()

	return scs, nil
}

// reportSkips records the per-sample skips at the current site, one tally
// per reason present.
func (r *Runner) reportSkips() error {
	var missing, multiallelic, ploidy bool
	for _, skip := range r.reader.SkippedSamples() {
		switch skip.Reason {
		case genotype.SkipMissing:
			missing = true
		case genotype.SkipMultiallelic:
			multiallelic = true
		case genotype.SkipPloidy:
			ploidy = true
		}
	}

	contig := r.reader.CurrentContig()
	position := r.reader.CurrentPosition()

	if missing {
		if r.strict {
			return fmt.Errorf("%w: missing genotypes at '%s:%d'", ErrStrict, contig, position)
		}
		r.warnings.WarnOnce(contig, position, warnMissing)
	}
	if multiallelic {
		if r.strict {
			return fmt.Errorf("%w: multiallelic genotypes at '%s:%d'", ErrStrict, contig, position)
		}
		r.warnings.WarnOnce(contig, position, warnMultiallelic)
	}
	if ploidy {
		if r.strict {
			return fmt.Errorf("%w: non-diploid genotypes at '%s:%d'", ErrStrict, contig, position)
		}
		r.warnings.WarnOnce(contig, position, warnPloidy)
	}

	return nil
}
