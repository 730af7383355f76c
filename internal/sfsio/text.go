package sfsio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/popgen-tools/sfs/internal/array"
	"github.com/popgen-tools/sfs/internal/spectrum"
)

// textStart is the leading bytes of the plain-text format header.
var textStart = []byte("#SHAPE")

// ErrBadHeader is returned when a plain-text header cannot be parsed.
var ErrBadHeader = errors.New("sfsio: malformed plain-text header")

// ReadText reads a spectrum in the plain-text format: a `#SHAPE=<d0/d1/...>`
// header line followed by all cells in row-major order.
func ReadText(r io.Reader) (*spectrum.CountSpectrum, error) {
	br := bufio.NewReader(r)

	header, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}

	shape, err := parseTextHeader(header)
	if err != nil {
		return nil, err
	}

	rest, err := io.ReadAll(br)
	if err != nil {
		return nil, err
	}

	fields := strings.Fields(string(rest))
	data := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("sfsio: bad cell %q: %w", field, err)
		}
		data[i] = v
	}

	return spectrum.NewCounts(data, shape)
}

// parseTextHeader parses the shape from a header line, trimming any
// non-numeric leading and trailing characters before splitting on '/'.
func parseTextHeader(line string) (array.Shape, error) {
	trimmed := strings.TrimFunc(line, func(r rune) bool {
		return r < '0' || r > '9'
	})
	if trimmed == "" {
		return nil, fmt.Errorf("%w: %q", ErrBadHeader, strings.TrimSpace(line))
	}

	parts := strings.Split(trimmed, "/")
	shape := make(array.Shape, len(parts))
	for i, part := range parts {
		size, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadHeader, strings.TrimSpace(line))
		}
		shape[i] = size
	}

	return shape, nil
}

// WriteText writes a spectrum in the plain-text format with the given
// decimal precision.
func WriteText(w io.Writer, s Spectrum, precision int) error {
	shape := s.Shape()

	sizes := make([]string, len(shape))
	for i, size := range shape {
		sizes[i] = strconv.Itoa(size)
	}
	if _, err := fmt.Fprintf(w, "#SHAPE=<%s>\n", strings.Join(sizes, "/")); err != nil {
		return err
	}

	for i, v := range s.Data() {
		if i > 0 {
			if _, err := io.WriteString(w, " "); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%.*f", precision, v); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "\n")
	return err
}
