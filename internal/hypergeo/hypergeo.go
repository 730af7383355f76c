// Package hypergeo implements the hypergeometric distribution used for
// down-projecting allele counts, with a joint form over independent
// population dimensions.
package hypergeo

import (
	"errors"
	"math"
	"sync"
)

var (
	// ErrDrawsGreaterThanSize indicates a distribution drawing more than the population holds.
	ErrDrawsGreaterThanSize = errors.New("hypergeo: draws greater than population size")
	// ErrSuccessesGreaterThanSize indicates more successes than the population holds.
	ErrSuccessesGreaterThanSize = errors.New("hypergeo: successes greater than population size")
	// ErrMissingSuccesses indicates that the PMF was evaluated before successes were set.
	ErrMissingSuccesses = errors.New("hypergeo: successes not set")
	// ErrEmptyJoint indicates a joint distribution over zero dimensions.
	ErrEmptyJoint = errors.New("hypergeo: joint distribution must have at least one dimension")
	// ErrDimensionMismatch indicates an observation or success vector of the wrong length.
	ErrDimensionMismatch = errors.New("hypergeo: dimension mismatch")
)

// PMF is the probability of seeing exactly observed successes in draws
// draws without replacement from a population of the given size containing
// the given number of successes. Arguments are assumed consistent
// (successes <= size, draws <= size); observed > draws yields zero.
func PMF(size, successes, draws, observed int) float64 {
	if observed > draws {
		return 0
	}
	return binomial(successes, observed) *
		binomial(size-successes, draws-observed) /
		binomial(size, draws)
}

// binomial computes C(n, k) by exponentiating log-factorials and rounding,
// which stays exact for all n covered by the factorial table.
func binomial(n, k int) float64 {
	if k > n {
		return 0
	}
	return math.Floor(0.5 + math.Exp(lnFactorial(n)-lnFactorial(k)-lnFactorial(n-k)))
}

// maxExactFactorial is the largest n for which n! is representable in a
// float64; beyond it the log-gamma fallback takes over.
const maxExactFactorial = 170

var factorialTable = sync.OnceValue(func() []float64 {
	table := make([]float64, maxExactFactorial+1)
	table[0] = 1
	for i := 1; i < len(table); i++ {
		table[i] = table[i-1] * float64(i)
	}
	return table
})

func lnFactorial(n int) float64 {
	if n <= maxExactFactorial {
		return math.Log(factorialTable()[n])
	}
	return lnGamma(float64(n) + 1)
}

// Lanczos approximation of the log-gamma function.
const (
	ln2SqrtEOverPi = 0.6207822376352452223455184457816472122518527279025978
	lnPi           = 1.1447298858494001741434273513530587116472948129153
	lanczosR       = 10.900511
)

var lanczosDK = [...]float64{
	2.48574089138753565546e-5,
	1.05142378581721974210,
	-3.45687097222016235469,
	4.51227709466894823700,
	-2.98285225323576655721,
	1.05639711577126713077,
	-1.95428773191645869583e-1,
	1.70970543404441224307e-2,
	-5.71926117404305781283e-4,
	4.63399473359905636708e-6,
	-2.71994908488607703910e-9,
}

func lnGamma(x float64) float64 {
	if x < 0.5 {
		s := lanczosDK[0]
		for i := 1; i < len(lanczosDK); i++ {
			s += lanczosDK[i] / (float64(i) - x)
		}
		return lnPi -
			math.Log(math.Sin(math.Pi*x)) -
			math.Log(s) -
			ln2SqrtEOverPi -
			(0.5-x)*math.Log((0.5-x+lanczosR)/math.E)
	}

	s := lanczosDK[0]
	for i := 1; i < len(lanczosDK); i++ {
		s += lanczosDK[i] / (x + float64(i) - 1)
	}
	return math.Log(s) + ln2SqrtEOverPi + (x-0.5)*math.Log((x-0.5+lanczosR)/math.E)
}

// Distribution is a hypergeometric distribution over one population
// dimension. Size and Draws are fixed at construction; the observed
// successes vary per site and are set via SetSuccesses.
type Distribution struct {
	Size      int
	Draws     int
	successes int
	hasSet    bool
}

// NewDistribution creates a distribution drawing draws alleles from a
// population carrying size alleles in total.
func NewDistribution(size, draws int) (*Distribution, error) {
	if draws > size {
		return nil, ErrDrawsGreaterThanSize
	}
	return &Distribution{Size: size, Draws: draws}, nil
}

// SetSuccesses fixes the number of derived alleles observed in the source
// population for subsequent PMF evaluations.
func (d *Distribution) SetSuccesses(successes int) error {
	if successes > d.Size {
		return ErrSuccessesGreaterThanSize
	}
	d.successes = successes
	d.hasSet = true
	return nil
}

// PMF evaluates the distribution at the observed count.
func (d *Distribution) PMF(observed int) (float64, error) {
	if !d.hasSet {
		return 0, ErrMissingSuccesses
	}
	return PMF(d.Size, d.successes, d.Draws, observed), nil
}

// Joint is a joint distribution over independent per-population
// hypergeometric distributions; its PMF is the product of the per-dimension
// PMFs.
type Joint struct {
	Distributions []*Distribution
}

// NewJoint creates a joint distribution from per-dimension distributions.
func NewJoint(distributions []*Distribution) (*Joint, error) {
	if len(distributions) == 0 {
		return nil, ErrEmptyJoint
	}
	return &Joint{Distributions: distributions}, nil
}

// Dimensions returns the number of dimensions of the joint distribution.
func (j *Joint) Dimensions() int {
	return len(j.Distributions)
}

// SetSuccesses fixes the per-dimension observed derived allele counts.
func (j *Joint) SetSuccesses(successes []int) error {
	if len(successes) != len(j.Distributions) {
		return ErrDimensionMismatch
	}
	for i, d := range j.Distributions {
		if err := d.SetSuccesses(successes[i]); err != nil {
			return err
		}
	}
	return nil
}

// PMF evaluates the joint distribution at the observed counts.
func (j *Joint) PMF(observed []int) (float64, error) {
	if len(observed) != len(j.Distributions) {
		return 0, ErrDimensionMismatch
	}
	joint := 1.0
	for i, d := range j.Distributions {
		pmf, err := d.PMF(observed[i])
		if err != nil {
			return 0, err
		}
		joint *= pmf
	}
	return joint, nil
}
