package spectrum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popgen-tools/sfs/internal/array"
)

func TestProject7To3(t *testing.T) {
	scs := RangeCounts(array.Shape{7})

	projected, err := scs.Project(array.Shape{3})
	require.NoError(t, err)

	expected := []float64{2.333333, 7.0, 11.666667}
	for i, v := range projected.Data() {
		assert.InDelta(t, expected[i], v, 1e-6)
	}
}

func TestProject7To7IsIdentity(t *testing.T) {
	scs := RangeCounts(array.Shape{7})

	projected, err := scs.Project(array.Shape{7})
	require.NoError(t, err)
	for i, v := range projected.Data() {
		assert.InDelta(t, scs.Data()[i], v, 1e-9)
	}
}

func TestProject3x3To2x2(t *testing.T) {
	scs := RangeCounts(array.Shape{3, 3})

	projected, err := scs.Project(array.Shape{2, 2})
	require.NoError(t, err)

	expected := []float64{3, 6, 12, 15}
	for i, v := range projected.Data() {
		assert.InDelta(t, expected[i], v, 1e-6)
	}
}

func TestProjectPreservesMass(t *testing.T) {
	scs := RangeCounts(array.Shape{4, 5})

	projected, err := scs.Project(array.Shape{3, 3})
	require.NoError(t, err)
	assert.InDelta(t, scs.Sum(), projected.Sum(), 1e-9)
}

func TestProjectErrors(t *testing.T) {
	scs := RangeCounts(array.Shape{7})

	_, err := scs.Project(array.Shape{8})
	assert.ErrorIs(t, err, ErrInvalidProjection)

	_, err = scs.Project(array.Shape{0})
	assert.ErrorIs(t, err, ErrInvalidProjection)

	_, err = scs.Project(array.Shape{3, 3})
	assert.ErrorIs(t, err, ErrProjectionDimensions)
}
