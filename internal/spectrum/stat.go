package spectrum

import (
	"fmt"
	"math"
)

// harmonic returns the sum of the first n - 1 terms of the harmonic series.
func harmonic(n int) float64 {
	return pHarmonic(n, 1)
}

// pHarmonic returns the sum of the first n - 1 terms of the p-harmonic
// series.
func pHarmonic(n, p int) float64 {
	var sum float64
	for i := 1; i < n; i++ {
		sum += 1.0 / math.Pow(float64(i), float64(p))
	}
	return sum
}

func (s *spectrum) requireDimensions(expected int) error {
	if s.Dimensions() != expected {
		return fmt.Errorf(
			"%w: expected %d dimensions, found %d",
			ErrDimensions, expected, s.Dimensions(),
		)
	}
	return nil
}

func (s *spectrum) requireShape(expected ...int) error {
	shape := s.Shape()
	ok := len(shape) == len(expected)
	for d := range expected {
		ok = ok && shape[d] == expected[d]
	}
	if !ok {
		return fmt.Errorf(
			"%w: expected shape %v, found %v", ErrShape, expected, shape,
		)
	}
	return nil
}

// theta estimates θ from a one-dimensional spectrum using the provided
// per-cell weight. The zero cell carries no information and is skipped.
func (s *spectrum) theta(weight func(i, n int) float64) float64 {
	data := s.arr.Data()
	n := len(data)

	var sum float64
	for i := 1; i < n; i++ {
		sum += weight(i, n) * data[i]
	}
	return sum
}

func wattersonWeight(_, n int) float64 {
	return 1.0 / harmonic(n)
}

func tajimaWeight(i, n int) float64 {
	pairs := float64(n) * float64(n-1) / 2.0
	return float64(i*(n-i)) / pairs
}

// ThetaWatterson returns Watterson's estimator of the mutation-scaled
// effective population size θ.
func (s *spectrum) ThetaWatterson() (float64, error) {
	if err := s.requireDimensions(1); err != nil {
		return 0, err
	}
	return s.theta(wattersonWeight), nil
}

// ThetaTajima returns Tajima's estimator of θ, i.e. the average number of
// pairwise differences.
func (s *spectrum) ThetaTajima() (float64, error) {
	if err := s.requireDimensions(1); err != nil {
		return 0, err
	}
	return s.theta(tajimaWeight), nil
}

// Pi returns the average number of pairwise differences, also known as π.
func (s *spectrum) Pi() (float64, error) {
	return s.ThetaTajima()
}

// PiXY returns the average number of pairwise differences between two
// populations, also known as πₓᵧ or dₓᵧ. See Nei and Li (1987).
func (s *spectrum) PiXY() (float64, error) {
	if err := s.requireDimensions(2); err != nil {
		return 0, err
	}

	shape := s.Shape()
	data := s.arr.Data()
	nx := float64(shape[0] - 1)
	ny := float64(shape[1] - 1)

	var sum float64
	for flat, v := range data {
		i := flat / shape[1]
		j := flat % shape[1]

		fx := float64(i) / nx
		fy := float64(j) / ny
		sum += v * (fx*(1-fy) + fy*(1-fx))
	}
	return sum, nil
}

// King returns the King robust kinship statistic for a 3x3 spectrum of two
// individuals. See Manichaikul (2010) and Waples (2019).
func (s *spectrum) King() (float64, error) {
	if err := s.requireShape(3, 3); err != nil {
		return 0, err
	}

	d := s.arr.Data()
	numer := d[4] - 2.0*(d[2]+d[6])
	denom := d[1] + d[3] + 2.0*d[4] + d[5] + d[7]
	return numer / denom, nil
}

// R0 returns the R0 kinship statistic for a 3x3 spectrum of two individuals.
// See Waples (2019).
func (s *spectrum) R0() (float64, error) {
	if err := s.requireShape(3, 3); err != nil {
		return 0, err
	}

	d := s.arr.Data()
	return (d[2] + d[6]) / d[4], nil
}

// R1 returns the R1 kinship statistic for a 3x3 spectrum of two individuals.
// See Waples (2019).
func (s *spectrum) R1() (float64, error) {
	if err := s.requireShape(3, 3); err != nil {
		return 0, err
	}

	d := s.arr.Data()
	denom := d[1] + d[2] + d[3] + d[5] + d[6] + d[7]
	return d[4] / denom, nil
}

// DTajima returns Tajima's D difference statistic. See Tajima (1989) and
// Durrett (2008), pp. 65-66 for the notation.
func (s *CountSpectrum) DTajima() (float64, error) {
	if err := s.requireDimensions(1); err != nil {
		return 0, err
	}

	n := s.Elements()
	segregating := s.SegregatingSites()

	a1 := harmonic(n)
	a2 := pHarmonic(n, 2)

	b1 := float64(n+1) / float64(3*(n-1))
	b2 := float64(2*(n*n+n+3)) / float64(9*n*(n-1))

	c1 := b1 - 1.0/a1
	c2 := b2 - float64(n+2)/(a1*float64(n)) + a2/(a1*a1)

	e1 := c1 / a1
	e2 := c2 / (a1*a1 + a2)

	variance := math.Sqrt(e1*segregating + e2*segregating*(segregating-1))
	return (s.theta(tajimaWeight) - s.theta(wattersonWeight)) / variance, nil
}

// DFuLi returns Fu and Li's D difference statistic. See Fu and Li (1993) and
// Durrett (2008), p. 67 for the notation; since the numerator here uses
// thetas, the denominator carries an extra factor 1/a.
func (s *CountSpectrum) DFuLi() (float64, error) {
	if err := s.requireDimensions(1); err != nil {
		return 0, err
	}

	n := s.Elements()
	segregating := s.SegregatingSites()

	a := harmonic(n)
	g := pHarmonic(n, 2)

	c := (2.0*float64(n)*a - float64(4*(n-1))) / float64((n-1)*(n-2))

	v := 1.0 + a*a/(g+a*a)*(c-float64(n+1)/float64(n-1))
	u := a - 1.0 - v

	variance := math.Sqrt(u*segregating+v*segregating*segregating) / a

	// Fu and Li's estimator of θ is the number of singletons.
	singletons := s.arr.Data()[1]

	return (s.theta(wattersonWeight) - singletons) / variance, nil
}

// frequencies returns the allele frequencies corresponding to a flat index,
// i.e. each index coordinate scaled by the maximum count on its axis.
func (s *spectrum) frequencies(flat int) []float64 {
	shape := s.Shape()
	index := shape.IndexFromFlat(flat)

	freqs := make([]float64, len(index))
	for d := range index {
		freqs[d] = float64(index[d]) / float64(shape[d]-1)
	}
	return freqs
}

// F2 returns the f₂ statistic. See Reich (2009) and Peter (2016).
func (s *FreqSpectrum) F2() (float64, error) {
	if err := s.requireDimensions(2); err != nil {
		return 0, err
	}

	var sum float64
	for flat, v := range s.arr.Data() {
		f := s.frequencies(flat)
		sum += v * (f[0] - f[1]) * (f[0] - f[1])
	}
	return sum, nil
}

// F3 returns the f₃(A; B, C) statistic, where A, B, C is the order of the
// populations in the spectrum. See Reich (2009) and Peter (2016).
func (s *FreqSpectrum) F3() (float64, error) {
	if err := s.requireDimensions(3); err != nil {
		return 0, err
	}

	var sum float64
	for flat, v := range s.arr.Data() {
		f := s.frequencies(flat)
		sum += v * (f[0] - f[1]) * (f[0] - f[2])
	}
	return sum, nil
}

// F4 returns the f₄(A, B; C, D) statistic, where A, B, C, D is the order of
// the populations in the spectrum. See Reich (2009) and Peter (2016).
func (s *FreqSpectrum) F4() (float64, error) {
	if err := s.requireDimensions(4); err != nil {
		return 0, err
	}

	var sum float64
	for flat, v := range s.arr.Data() {
		f := s.frequencies(flat)
		sum += v * (f[0] - f[1]) * (f[2] - f[3])
	}
	return sum, nil
}

// Fst returns Hudson's estimator of Fst as a ratio of estimates, as
// recommended by Bhatia (2013).
func (s *FreqSpectrum) Fst() (float64, error) {
	if err := s.requireDimensions(2); err != nil {
		return 0, err
	}

	shape := s.Shape()
	data := s.arr.Data()

	// Only the polymorphic cells carry information, so the first and last
	// cells are dropped.
	nxSub := float64(shape[0] - 2)
	nySub := float64(shape[1] - 2)

	var num, denom float64
	for flat := 1; flat < len(data)-1; flat++ {
		v := data[flat]
		f := s.frequencies(flat)

		fx, fy := f[0], f[1]
		gx, gy := 1.0-fx, 1.0-fy

		num += v * ((fx-fy)*(fx-fy) - fx*gx/nxSub - fy*gy/nySub)
		denom += v * (fx*gy + fy*gx)
	}
	return num / denom, nil
}

// Heterozygosity returns the expected heterozygosity of a single individual
// from a 1-dimensional spectrum of three cells.
func (s *FreqSpectrum) Heterozygosity() (float64, error) {
	if err := s.requireShape(3); err != nil {
		return 0, err
	}
	return s.arr.Data()[1], nil
}
