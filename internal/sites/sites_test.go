package sites

import (
	"io"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popgen-tools/sfs/internal/array"
	"github.com/popgen-tools/sfs/internal/genotype"
	"github.com/popgen-tools/sfs/internal/spectrum"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testSampleMap(t *testing.T) *SampleMap {
	t.Helper()

	m, err := ParseSampleMap(strings.NewReader("s0\tA\ns1\tA\ns2\tB\n"))
	require.NoError(t, err)
	return m
}

func matrixReader(t *testing.T, rows string) *genotype.MatrixReader {
	t.Helper()

	r, err := genotype.NewMatrixReader(strings.NewReader(
		"#contig\tposition\ts0\ts1\ts2\n" + rows,
	))
	require.NoError(t, err)
	return r
}

func TestPartialProjectionWeights1D(t *testing.T) {
	projection, err := NewPartialProjection(spectrum.Count{2})
	require.NoError(t, err)

	weights, err := projection.Weights(spectrum.Count{6}, spectrum.Count{2})
	require.NoError(t, err)

	expected := []float64{0.4, 0.533333, 0.066667}
	require.Len(t, weights, 3)
	for i, w := range weights {
		assert.InDelta(t, expected[i], w, 1e-6)
	}

	// The same totals and counts must hit the cache.
	again, err := projection.Weights(spectrum.Count{6}, spectrum.Count{2})
	require.NoError(t, err)
	assert.Same(t, &weights[0], &again[0])
}

func TestPartialProjectionWeights2D(t *testing.T) {
	projection, err := NewPartialProjection(spectrum.Count{1, 1})
	require.NoError(t, err)

	cases := []struct {
		counts   spectrum.Count
		expected []float64
	}{
		{counts: spectrum.Count{0, 0}, expected: []float64{1, 0, 0, 0}},
		{counts: spectrum.Count{0, 1}, expected: []float64{0.5, 0.5, 0, 0}},
		{counts: spectrum.Count{1, 0}, expected: []float64{0.5, 0, 0.5, 0}},
		{counts: spectrum.Count{1, 1}, expected: []float64{0.25, 0.25, 0.25, 0.25}},
		{counts: spectrum.Count{2, 2}, expected: []float64{0, 0, 0, 1}},
	}

	for _, c := range cases {
		weights, err := projection.Weights(spectrum.Count{2, 2}, c.counts)
		require.NoError(t, err)
		for i, w := range weights {
			assert.InDelta(t, c.expected[i], w, 1e-6, "counts %v", c.counts)
		}
	}
}

func TestPartialProjectionErrors(t *testing.T) {
	_, err := NewPartialProjection(spectrum.Count{})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = NewPartialProjection(spectrum.Count{2, 0})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	projection, err := NewPartialProjection(spectrum.Count{4})
	require.NoError(t, err)

	_, err = projection.Weights(spectrum.Count{2}, spectrum.Count{1})
	assert.ErrorIs(t, err, ErrNotProjectable)

	_, err = projection.Weights(spectrum.Count{4, 4}, spectrum.Count{1, 1})
	assert.ErrorIs(t, err, ErrNotProjectable)
}

func TestReaderClassification(t *testing.T) {
	r := matrixReader(t,
		"chr1\t1\t0/1\t1/1\t0/0\n"+
			"chr1\t2\t./.\t0/0\t1/1\n",
	)

	reader, err := NewReader(r, testSampleMap(t), nil)
	require.NoError(t, err)

	assert.Equal(t, array.Shape{5, 3}, reader.ZeroSpectrum().Shape())

	site, err := reader.Next()
	require.NoError(t, err)
	assert.Equal(t, SiteExact, site.Class)
	assert.Equal(t, spectrum.Count{3, 0}, site.Count)
	assert.Equal(t, "chr1", reader.CurrentContig())
	assert.Equal(t, 1, reader.CurrentPosition())

	// A skipped sample makes an unprojected site insufficient.
	site, err = reader.Next()
	require.NoError(t, err)
	assert.Equal(t, SiteInsufficient, site.Class)
	require.Len(t, reader.SkippedSamples(), 1)
	assert.Equal(t, "s0", reader.SkippedSamples()[0].Sample)
	assert.Equal(t, genotype.SkipMissing, reader.SkippedSamples()[0].Reason)

	_, err = reader.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReaderProjectionClassification(t *testing.T) {
	r := matrixReader(t,
		"chr1\t1\t0/1\t1/1\t0/0\n"+ // totals (4, 2): projectable
			"chr1\t2\t./.\t1/1\t1/1\n", // totals (2, 2): exact
	)

	projection, err := NewPartialProjection(spectrum.Count{2, 2})
	require.NoError(t, err)

	reader, err := NewReader(r, testSampleMap(t), projection)
	require.NoError(t, err)

	assert.Equal(t, array.Shape{3, 3}, reader.ZeroSpectrum().Shape())

	site, err := reader.Next()
	require.NoError(t, err)
	assert.Equal(t, SiteProjected, site.Class)

	// Population A downsamples three of four alleles to two draws, and
	// population B is already at the target size with zero alleles.
	require.Len(t, site.Weights, 9)
	assert.InDelta(t, 0.5, site.Weights[3], 1e-9)
	assert.InDelta(t, 0.5, site.Weights[6], 1e-9)

	var sum float64
	for _, w := range site.Weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	site, err = reader.Next()
	require.NoError(t, err)
	assert.Equal(t, SiteExact, site.Class)
	assert.Equal(t, spectrum.Count{2, 2}, site.Count)
}

func TestReaderInsufficientUnderProjection(t *testing.T) {
	r := matrixReader(t, "chr1\t1\t./.\t./.\t0/1\n")

	projection, err := NewPartialProjection(spectrum.Count{4, 2})
	require.NoError(t, err)

	reader, err := NewReader(r, testSampleMap(t), projection)
	require.NoError(t, err)

	site, err := reader.Next()
	require.NoError(t, err)
	assert.Equal(t, SiteInsufficient, site.Class)
}

func TestReaderRejectsOversizedProjection(t *testing.T) {
	r := matrixReader(t, "chr1\t1\t0/0\t0/0\t0/0\n")

	projection, err := NewPartialProjection(spectrum.Count{6, 2})
	require.NoError(t, err)

	_, err = NewReader(r, testSampleMap(t), projection)
	assert.ErrorIs(t, err, ErrProjectionShape)

	projection, err = NewPartialProjection(spectrum.Count{4})
	require.NoError(t, err)

	_, err = NewReader(r, testSampleMap(t), projection)
	assert.ErrorIs(t, err, ErrProjectionShape)
}

func TestRunner(t *testing.T) {
	r := matrixReader(t,
		"chr1\t1\t0/1\t1/1\t0/0\n"+
			"chr1\t2\t0/0\t0/0\t0/1\n"+
			"chr1\t3\t./.\t0/0\t1/1\n"+
			"chr1\t4\t0/1\t0/1\t1/1\n",
	)

	runner, err := NewRunner(r, testSampleMap(t), nil, false, discardLogger())
	require.NoError(t, err)

	scs, err := runner.Run()
	require.NoError(t, err)

	assert.Equal(t, array.Shape{5, 3}, scs.Shape())
	assert.Equal(t, 3.0, scs.Sum(), "the site with a missing genotype is dropped")

	get := func(index ...int) float64 {
		v, ok := scs.Get(index)
		require.True(t, ok)
		return v
	}
	assert.Equal(t, 1.0, get(3, 0))
	assert.Equal(t, 1.0, get(0, 1))
	assert.Equal(t, 1.0, get(2, 2))
}

func TestRunnerPloidyDowngrade(t *testing.T) {
	r := matrixReader(t,
		"chr1\t1\t0/1\t1/1\t0/0\n"+
			"chr1\t2\t0/0/0\t0/0\t0/1\n"+
			"chr1\t3\t0/1\t0/1\t1/1\n",
	)

	runner, err := NewRunner(r, testSampleMap(t), nil, false, discardLogger())
	require.NoError(t, err)

	scs, err := runner.Run()
	require.NoError(t, err)

	assert.Equal(t, 2.0, scs.Sum(), "the site with a non-diploid genotype is dropped")
	assert.Equal(t, 1, runner.warnings.count(warnPloidy))
}

func TestRunnerStrictPloidy(t *testing.T) {
	r := matrixReader(t, "chr1\t1\t0/0/0\t0/0\t0/0\n")

	runner, err := NewRunner(r, testSampleMap(t), nil, true, discardLogger())
	require.NoError(t, err)

	_, err = runner.Run()
	assert.ErrorIs(t, err, ErrStrict)
}

func TestRunnerProjectionConservesMass(t *testing.T) {
	r := matrixReader(t,
		"chr1\t1\t0/1\t1/1\t0/0\n"+
			"chr1\t2\t./.\t1/1\t0/1\n"+
			"chr1\t3\t0/0\t0/1\t1/1\n",
	)

	projection, err := NewPartialProjection(spectrum.Count{2, 2})
	require.NoError(t, err)

	runner, err := NewRunner(r, testSampleMap(t), projection, false, discardLogger())
	require.NoError(t, err)

	scs, err := runner.Run()
	require.NoError(t, err)

	assert.Equal(t, array.Shape{3, 3}, scs.Shape())
	assert.InDelta(t, 3.0, scs.Sum(), 1e-9, "every site is exact or projected")
}

func TestRunnerStrict(t *testing.T) {
	r := matrixReader(t, "chr1\t1\t./.\t0/0\t0/0\n")

	runner, err := NewRunner(r, testSampleMap(t), nil, true, discardLogger())
	require.NoError(t, err)

	_, err = runner.Run()
	assert.ErrorIs(t, err, ErrStrict)
}

func TestRunnerStrictMissingSample(t *testing.T) {
	r := matrixReader(t, "chr1\t1\t0/0\t0/0\t0/0\n")

	m, err := ParseSampleMap(strings.NewReader("s0\tA\nabsent\tA\n"))
	require.NoError(t, err)

	_, err = NewRunner(r, m, nil, true, discardLogger())
	require.Error(t, err)
}
