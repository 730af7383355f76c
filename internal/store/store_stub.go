//go:build !tiledb

package store

import (
	"github.com/popgen-tools/sfs/internal/spectrum"
)

// Store is a stub when built without "-tags tiledb".
type Store struct {
	uri string
}

// NewStore creates a spectrum store (stub). It still resolves the array
// location so config issues surface early, but reads and writes return
// ErrUnsupported.
func NewStore(path string) (*Store, error) {
	uri, err := ResolveArrayURI(path)
	if err != nil {
		return nil, err
	}
	return &Store{uri: uri}, nil
}

func (s *Store) Supported() bool { return false }

func (s *Store) URI() string { return s.uri }

// Write persists the spectrum as a dense array.
func (s *Store) Write(scs *spectrum.CountSpectrum) error {
	return ErrUnsupported
}

// Read loads the spectrum back from the dense array.
func (s *Store) Read() (*spectrum.CountSpectrum, error) {
	return nil, ErrUnsupported
}

func (s *Store) Close() error { return nil }
