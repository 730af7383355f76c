//go:build tiledb

package store

import (
	"fmt"

	tiledb "github.com/TileDB-Inc/TileDB-Go"

	"github.com/popgen-tools/sfs/internal/array"
	"github.com/popgen-tools/sfs/internal/spectrum"
)

// Store persists spectra as TileDB dense arrays.
type Store struct {
	uri string
	ctx *tiledb.Context
}

// NewStore creates a spectrum store backed by the dense array at path.
func NewStore(path string) (*Store, error) {
	uri, err := ResolveArrayURI(path)
	if err != nil {
		return nil, err
	}

	ctx, err := tiledb.NewContext(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create TileDB context: %w", err)
	}
	return &Store{uri: uri, ctx: ctx}, nil
}

func (s *Store) Supported() bool { return true }

func (s *Store) URI() string { return s.uri }

// Write creates the dense array for the spectrum's shape and writes the
// cells in row-major order. The array must not already exist.
func (s *Store) Write(scs *spectrum.CountSpectrum) error {
	shape := scs.Shape()

	domain, err := tiledb.NewDomain(s.ctx)
	if err != nil {
		return fmt.Errorf("failed to create domain: %w", err)
	}
	defer domain.Free()

	for d, size := range shape {
		dim, err := tiledb.NewDimension(
			s.ctx,
			fmt.Sprintf("d%d", d),
			tiledb.TILEDB_INT32,
			[]int32{0, int32(size - 1)},
			int32(size),
		)
		if err != nil {
			return fmt.Errorf("failed to create dimension %d: %w", d, err)
		}
		if err := domain.AddDimensions(dim); err != nil {
			dim.Free()
			return fmt.Errorf("failed to add dimension %d: %w", d, err)
		}
		dim.Free()
	}

	schema, err := tiledb.NewArraySchema(s.ctx, tiledb.TILEDB_DENSE)
	if err != nil {
		return fmt.Errorf("failed to create array schema: %w", err)
	}
	defer schema.Free()
	if err := schema.SetDomain(domain); err != nil {
		return fmt.Errorf("failed to set domain: %w", err)
	}

	attr, err := tiledb.NewAttribute(s.ctx, attrName, tiledb.TILEDB_FLOAT64)
	if err != nil {
		return fmt.Errorf("failed to create attribute: %w", err)
	}
	defer attr.Free()
	if err := schema.AddAttributes(attr); err != nil {
		return fmt.Errorf("failed to add attribute: %w", err)
	}

	arr, err := tiledb.NewArray(s.ctx, s.uri)
	if err != nil {
		return fmt.Errorf("failed to create array handle: %w", err)
	}
	defer arr.Free()
	if err := arr.Create(schema); err != nil {
		return fmt.Errorf("failed to create array at %s: %w", s.uri, err)
	}

	if err := arr.Open(tiledb.TILEDB_WRITE); err != nil {
		return fmt.Errorf("failed to open array for write: %w", err)
	}
	defer arr.Close()

	q, err := tiledb.NewQuery(s.ctx, arr)
	if err != nil {
		return fmt.Errorf("failed to create write query: %w", err)
	}
	defer q.Free()

	if err := q.SetLayout(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return fmt.Errorf("failed to set write layout: %w", err)
	}
	if _, err := q.SetDataBuffer(attrName, scs.Data()); err != nil {
		return fmt.Errorf("failed to set write buffer: %w", err)
	}
	if err := q.Submit(); err != nil {
		return fmt.Errorf("write submit failed: %w", err)
	}
	if err := q.Finalize(); err != nil {
		return fmt.Errorf("write finalize failed: %w", err)
	}
	return nil
}

// Read loads the full dense array back into a spectrum. The shape is
// recovered from the schema domain.
func (s *Store) Read() (*spectrum.CountSpectrum, error) {
	arr, err := tiledb.NewArray(s.ctx, s.uri)
	if err != nil {
		return nil, fmt.Errorf("failed to open array (%s): %w", s.uri, err)
	}
	defer arr.Free()
	if err := arr.Open(tiledb.TILEDB_READ); err != nil {
		return nil, fmt.Errorf("failed to open array for read: %w", err)
	}
	defer arr.Close()

	shape, err := arraySchemaShape(arr)
	if err != nil {
		return nil, err
	}

	sub, err := arr.NewSubarray()
	if err != nil {
		return nil, fmt.Errorf("failed to create subarray: %w", err)
	}
	defer sub.Free()
	for d, size := range shape {
		if err := sub.AddRange(uint32(d), tiledb.MakeRange[int32](0, int32(size-1))); err != nil {
			return nil, fmt.Errorf("failed to add range for dimension %d: %w", d, err)
		}
	}

	q, err := tiledb.NewQuery(s.ctx, arr)
	if err != nil {
		return nil, fmt.Errorf("failed to create read query: %w", err)
	}
	defer q.Free()

	if err := q.SetSubarray(sub); err != nil {
		return nil, fmt.Errorf("failed to set subarray: %w", err)
	}
	if err := q.SetLayout(tiledb.TILEDB_ROW_MAJOR); err != nil {
		return nil, fmt.Errorf("failed to set read layout: %w", err)
	}

	data := make([]float64, shape.Elements())
	if _, err := q.SetDataBuffer(attrName, data); err != nil {
		return nil, fmt.Errorf("failed to set read buffer: %w", err)
	}
	if err := q.Submit(); err != nil {
		return nil, fmt.Errorf("read submit failed: %w", err)
	}
	status, err := q.Status()
	if err != nil {
		return nil, fmt.Errorf("read status failed: %w", err)
	}
	if status != tiledb.TILEDB_COMPLETED {
		return nil, fmt.Errorf("unexpected read query status: %v", status)
	}

	return spectrum.NewCounts(data, shape)
}

func (s *Store) Close() error { return nil }

// arraySchemaShape recovers the spectrum shape from the dense domain.
func arraySchemaShape(arr *tiledb.Array) (array.Shape, error) {
	schema, err := arr.Schema()
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %w", err)
	}
	defer schema.Free()

	domain, err := schema.Domain()
	if err != nil {
		return nil, fmt.Errorf("failed to get domain: %w", err)
	}
	defer domain.Free()

	ndim, err := domain.NDim()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimension count: %w", err)
	}

	shape := make(array.Shape, ndim)
	for d := uint(0); d < ndim; d++ {
		dim, err := domain.DimensionFromIndex(d)
		if err != nil {
			return nil, fmt.Errorf("failed to get dimension %d: %w", d, err)
		}
		bounds, err := dim.Domain()
		dim.Free()
		if err != nil {
			return nil, fmt.Errorf("failed to get dimension %d bounds: %w", d, err)
		}
		lo, hi, err := boundsInt32(bounds)
		if err != nil {
			return nil, fmt.Errorf("dimension %d: %w", d, err)
		}
		shape[d] = int(hi-lo) + 1
	}
	return shape, nil
}

func boundsInt32(bounds interface{}) (int32, int32, error) {
	if v, ok := bounds.([]int32); ok && len(v) >= 2 {
		return v[0], v[1], nil
	}
	return 0, 0, fmt.Errorf("unsupported dimension bounds type %T", bounds)
}
