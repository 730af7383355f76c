//go:build !tiledb

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popgen-tools/sfs/internal/spectrum"
)

func TestStubReportsUnsupported(t *testing.T) {
	s, err := NewStore("/tmp/spectrum.tdb")
	require.NoError(t, err)
	defer s.Close()

	assert.False(t, s.Supported())
	assert.Equal(t, "/tmp/spectrum.tdb", s.URI())

	err = s.Write(spectrum.CountsFromVec([]float64{1, 2, 3}))
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = s.Read()
	assert.ErrorIs(t, err, ErrUnsupported)
}
