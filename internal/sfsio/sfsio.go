// Package sfsio reads and writes spectra in the plain-text and npy formats,
// with transparent decompression and format auto-detection.
package sfsio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/popgen-tools/sfs/internal/array"
	"github.com/popgen-tools/sfs/internal/spectrum"
)

// ErrUnknownFormat is returned when input matches neither the text nor the
// npy format.
var ErrUnknownFormat = errors.New("sfsio: unknown spectrum format")

// Spectrum is the surface needed to serialize a spectrum, satisfied by both
// count and frequency spectra.
type Spectrum interface {
	Shape() array.Shape
	Data() []float64
}

// Format identifies a spectrum serialization format.
type Format int

const (
	// FormatText is the two-line plain-text format.
	FormatText Format = iota
	// FormatNpy is the numpy binary format.
	FormatNpy
)

// Detect returns the format matching the start of the input. The second
// return value is false if neither format matches.
func Detect(prefix []byte) (Format, bool) {
	switch {
	case bytes.HasPrefix(prefix, textStart):
		return FormatText, true
	case bytes.HasPrefix(prefix, npyMagic):
		return FormatNpy, true
	default:
		return 0, false
	}
}

// Read reads a spectrum from r, detecting the format from its leading bytes.
func Read(r io.Reader) (*spectrum.CountSpectrum, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	format, ok := Detect(raw)
	if !ok {
		return nil, ErrUnknownFormat
	}

	switch format {
	case FormatNpy:
		return ReadNpy(bytes.NewReader(raw))
	default:
		return ReadText(bytes.NewReader(raw))
	}
}

// Open reads a spectrum from a file, transparently decompressing gzip and
// zstd input.
func Open(path string) (*spectrum.CountSpectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := decompressed(f)
	if err != nil {
		return nil, err
	}

	return Read(r)
}

// decompressed wraps r with a gzip or zstd reader when the stream starts
// with the corresponding magic bytes.
func decompressed(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil && err != io.EOF {
		return nil, err
	}

	switch {
	case len(magic) >= 2 && magic[0] == 0x1f && magic[1] == 0x8b:
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("sfsio: open gzip input: %w", err)
		}
		return gz, nil
	case len(magic) >= 4 && magic[0] == 0x28 && magic[1] == 0xb5 && magic[2] == 0x2f && magic[3] == 0xfd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("sfsio: open zstd input: %w", err)
		}
		return zr.IOReadCloser(), nil
	default:
		return br, nil
	}
}

// WriteOptions configures spectrum serialization.
type WriteOptions struct {
	Format    Format
	Precision int
	Gzip      bool
}

// Write writes a spectrum to w in the configured format, optionally gzipped.
func Write(w io.Writer, s Spectrum, opts WriteOptions) error {
	if opts.Gzip {
		gz := gzip.NewWriter(w)
		if err := write(gz, s, opts); err != nil {
			gz.Close()
			return err
		}
		return gz.Close()
	}
	return write(w, s, opts)
}

func write(w io.Writer, s Spectrum, opts WriteOptions) error {
	switch opts.Format {
	case FormatNpy:
		return WriteNpy(w, s)
	default:
		return WriteText(w, s, opts.Precision)
	}
}

// WriteFile writes a spectrum to a file in the configured format.
func WriteFile(path string, s Spectrum, opts WriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := Write(f, s, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
