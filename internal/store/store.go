// Package store persists spectra as TileDB dense arrays.
//
// This is intentionally small: one float64 attribute holding the cell
// values, one int32 dimension per spectrum axis. Builds without
// "-tags tiledb" get a stub that fails with ErrUnsupported.
package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupported indicates this binary was built without TileDB support.
	ErrUnsupported = errors.New("tiledb support is not enabled in this build (build with: go build -tags tiledb)")

	// ErrEmptyURI indicates a missing array location.
	ErrEmptyURI = errors.New("store: empty array uri")
)

// attrName is the TileDB attribute holding spectrum cell values.
const attrName = "count"

// ResolveArrayURI normalizes a user-supplied array location.
func ResolveArrayURI(path string) (string, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return "", ErrEmptyURI
	}
	p = os.ExpandEnv(p)
	return filepath.Clean(p), nil
}
