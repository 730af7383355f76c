// Package genotype defines diploid, diallelic genotype calls and the reader
// capability used to stream them site by site.
package genotype

// Genotype is a diploid, diallelic genotype, coded as the number of derived
// alleles.
type Genotype int8

const (
	// Zero derived alleles.
	Zero Genotype = 0
	// One derived allele.
	One Genotype = 1
	// Two derived alleles.
	Two Genotype = 2
)

// FromRaw converts a raw allele dosage to a genotype. The second return
// value is false if the dosage is out of range.
func FromRaw(raw int) (Genotype, bool) {
	if raw < 0 || raw > 2 {
		return 0, false
	}
	return Genotype(raw), true
}

// SkipReason is a reason for skipping a genotype at a site.
type SkipReason uint8

const (
	// SkipMissing marks a missing genotype.
	SkipMissing SkipReason = iota
	// SkipMultiallelic marks a genotype involving more than two alleles.
	SkipMultiallelic
	// SkipPloidy marks a genotype that is not diploid.
	SkipPloidy
)

func (r SkipReason) String() string {
	switch r {
	case SkipMissing:
		return "missing"
	case SkipMultiallelic:
		return "multiallelic"
	case SkipPloidy:
		return "non-diploid"
	default:
		return "unknown"
	}
}

// Call is the outcome of reading a single sample's genotype at a site:
// either a realized genotype, or a skip with a reason.
type Call struct {
	Genotype Genotype
	Reason   SkipReason
	Skipped  bool
}

// Called returns a call holding a realized genotype.
func Called(g Genotype) Call {
	return Call{Genotype: g}
}

// Skip returns a skipped call with the given reason.
func Skip(reason SkipReason) Call {
	return Call{Reason: reason, Skipped: true}
}

// Reader streams genotypes for all samples, one site at a time. ReadGenotypes
// returns io.EOF when the stream is exhausted; any other error is fatal.
// Implementations must keep the call order aligned with SampleNames.
type Reader interface {
	CurrentContig() string
	CurrentPosition() int
	ReadGenotypes() ([]Call, error)
	SampleNames() []string
	Close() error
}
