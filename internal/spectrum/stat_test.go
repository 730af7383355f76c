package spectrum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popgen-tools/sfs/internal/array"
)

// scsWard recreates the spectrum based on the data from Ward et al. (1991) in
// Durrett (2008) p. 30.
func scsWard() *CountSpectrum {
	counts := map[int]float64{
		1: 6, 2: 2, 3: 3, 4: 1, 6: 4, 7: 1, 10: 1,
		12: 2, 13: 1, 23: 1, 24: 1, 25: 1, 28: 2,
	}
	const sites = 360

	scs := ZeroCounts(array.Shape{63})
	for i, v := range counts {
		scs.Set([]int{i}, v)
	}
	scs.Set([]int{0}, sites-scs.Sum())

	return scs
}

// scsAquadro recreates the spectrum based on the data from Aquadro and
// Greenberg (1983) in Durrett (2008) p. 44.
func scsAquadro() *CountSpectrum {
	return CountsFromVec([]float64{0, 34, 6, 4, 0, 0, 0})
}

// scsHamblin recreates the spectrum based on the data from Hamblin and
// Aquadro (1996) in Durrett (2008) p. 68, without multiallelics.
func scsHamblin() *CountSpectrum {
	return CountsFromVec([]float64{0, 1, 11, 4, 7, 2, 0, 0, 0, 0, 0})
}

func scsHamblinMod() *CountSpectrum {
	scs := scsHamblin()
	scs.Set([]int{8}, 1)
	scs.Set([]int{3}, 5)
	return scs
}

func TestThetaWatterson(t *testing.T) {
	theta, err := scsWard().ThetaWatterson()
	require.NoError(t, err)
	assert.InDelta(t, 5.517367, theta, 1e-6)

	theta, err = scsAquadro().ThetaWatterson()
	require.NoError(t, err)
	assert.InDelta(t, 17.959184, theta, 1e-6)
}

func TestThetaTajima(t *testing.T) {
	theta, err := scsWard().ThetaTajima()
	require.NoError(t, err)
	assert.InDelta(t, 5.285202, theta, 1e-6)

	theta, err = scsAquadro().ThetaTajima()
	require.NoError(t, err)
	assert.InDelta(t, 14.857143, theta, 1e-6)
}

func TestDTajima(t *testing.T) {
	d, err := scsAquadro().DTajima()
	require.NoError(t, err)
	assert.InDelta(t, -0.995875, d, 1e-6)

	d, err = scsHamblin().DTajima()
	require.NoError(t, err)
	assert.InDelta(t, 0.885737, d, 1e-6)
}

func TestDFuLi(t *testing.T) {
	// Durrett gives 1.68, the difference is due to rounding in the text.
	d, err := scsHamblinMod().DFuLi()
	require.NoError(t, err)
	assert.InDelta(t, 1.693537, d, 1e-6)
}

func TestThetaRequiresOneDimension(t *testing.T) {
	scs := RangeCounts(array.Shape{3, 3})

	_, err := scs.ThetaWatterson()
	assert.ErrorIs(t, err, ErrDimensions)

	_, err = scs.DTajima()
	assert.ErrorIs(t, err, ErrDimensions)
}

func TestKing(t *testing.T) {
	scs, err := NewCounts([]float64{
		10, 1, 2,
		3, 8, 1,
		2, 1, 10,
	}, array.Shape{3, 3})
	require.NoError(t, err)

	king, err := scs.King()
	require.NoError(t, err)
	assert.InDelta(t, (8.0-2.0*(2.0+2.0))/(1.0+3.0+2.0*8.0+1.0+1.0), king, 1e-9)

	r0, err := scs.R0()
	require.NoError(t, err)
	assert.InDelta(t, 4.0/8.0, r0, 1e-9)

	r1, err := scs.R1()
	require.NoError(t, err)
	assert.InDelta(t, 8.0/10.0, r1, 1e-9)
}

func TestKinshipRequires3x3(t *testing.T) {
	scs := RangeCounts(array.Shape{3, 4})

	_, err := scs.King()
	assert.ErrorIs(t, err, ErrShape)
}

func TestPiXY(t *testing.T) {
	scs, err := NewCounts([]float64{
		0, 0, 1,
		0, 2, 0,
		1, 0, 0,
	}, array.Shape{3, 3})
	require.NoError(t, err)

	// The corner cells are fixed differences contributing 1 each, and the
	// center cells have both populations at frequency 0.5.
	pixy, err := scs.PiXY()
	require.NoError(t, err)
	assert.InDelta(t, 1.0+2.0*0.5+1.0, pixy, 1e-9)
}

func TestF2(t *testing.T) {
	sfs, err := NewFreqs([]float64{
		0, 0, 0.5,
		0, 0, 0,
		0.5, 0, 0,
	}, array.Shape{3, 3})
	require.NoError(t, err)

	// Both cells with mass sit at fixed differences, so f2 is 1.
	f2, err := sfs.F2()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, f2, 1e-9)
}

func TestF3(t *testing.T) {
	sfs, err := NewFreqs([]float64{
		0, 0, 0, 0,
		1, 0, 0, 0,
	}, array.Shape{2, 2, 2})
	require.NoError(t, err)

	// All mass at [1, 0, 0]: (1 - 0) * (1 - 0) = 1.
	f3, err := sfs.F3()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, f3, 1e-9)
}

func TestF4(t *testing.T) {
	sfs := ZeroCounts(array.Shape{2, 2, 2, 2})
	require.True(t, sfs.Add(Count{1, 0, 0, 1}))

	// All mass at [1, 0, 0, 1]: (1 - 0) * (0 - 1) = -1.
	f4, err := sfs.Normalize().F4()
	require.NoError(t, err)
	assert.InDelta(t, -1.0, f4, 1e-9)
}

func TestFst(t *testing.T) {
	scs, err := NewCounts([]float64{
		10, 2, 0,
		1, 4, 1,
		0, 2, 10,
	}, array.Shape{3, 3})
	require.NoError(t, err)

	fst, err := scs.Normalize().Fst()
	require.NoError(t, err)

	// Hand-computed ratio of estimates over the polymorphic cells with
	// single-sample corrections n - 2 = 1 per population.
	var num, denom float64
	data := scs.Normalize().Data()
	for flat := 1; flat < 8; flat++ {
		fx := float64(flat/3) / 2.0
		fy := float64(flat%3) / 2.0
		num += data[flat] * ((fx-fy)*(fx-fy) - fx*(1-fx) - fy*(1-fy))
		denom += data[flat] * (fx*(1-fy) + fy*(1-fx))
	}
	assert.InDelta(t, num/denom, fst, 1e-9)
}

func TestHeterozygosity(t *testing.T) {
	sfs, err := NewFreqs([]float64{0.25, 0.5, 0.25}, array.Shape{3})
	require.NoError(t, err)

	het, err := sfs.Heterozygosity()
	require.NoError(t, err)
	assert.Equal(t, 0.5, het)

	_, err = sfs.F2()
	assert.ErrorIs(t, err, ErrDimensions)
}
