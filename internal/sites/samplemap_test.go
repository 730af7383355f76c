package sites

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popgen-tools/sfs/internal/array"
	"github.com/popgen-tools/sfs/internal/spectrum"
)

func TestParseSampleMap(t *testing.T) {
	m, err := ParseSampleMap(strings.NewReader(
		"s0\tA\ns1\tB\ns2\tA\ns3\tB\ns4\tB\n",
	))
	require.NoError(t, err)

	assert.Equal(t, []string{"s0", "s1", "s2", "s3", "s4"}, m.Samples())
	assert.Equal(t, 2, m.Populations())
	assert.Equal(t, []int{2, 3}, m.PopulationSizes())
	assert.Equal(t, array.Shape{5, 7}, m.Shape())
	assert.Equal(t, spectrum.Count{4, 6}, m.AlleleCounts())

	// Population ids follow first appearance.
	id, ok := m.PopulationID("s4")
	require.True(t, ok)
	assert.Equal(t, 1, id)
	assert.Equal(t, "B", m.PopulationName(id))

	_, ok = m.PopulationID("missing")
	assert.False(t, ok)
}

func TestParseSampleMapUnnamedPopulation(t *testing.T) {
	m, err := ParseSampleMap(strings.NewReader("s0\ns1\ns2\n"))
	require.NoError(t, err)

	assert.Equal(t, 1, m.Populations())
	assert.Equal(t, array.Shape{7}, m.Shape())
}

func TestMapAll(t *testing.T) {
	m, err := MapAll([]string{"s0", "s1"})
	require.NoError(t, err)

	assert.Equal(t, 1, m.Populations())
	assert.Equal(t, array.Shape{5}, m.Shape())
}

func TestSampleMapErrors(t *testing.T) {
	_, err := ParseSampleMap(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptySampleMap)

	_, err = ParseSampleMap(strings.NewReader("s0\tA\ns0\tB\n"))
	assert.ErrorIs(t, err, ErrDuplicateSample)
}
