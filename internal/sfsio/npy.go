package sfsio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/popgen-tools/sfs/internal/array"
	"github.com/popgen-tools/sfs/internal/spectrum"
)

// npyMagic is the npy format magic number.
var npyMagic = []byte("\x93NUMPY")

var (
	// ErrBadNpy is returned when an npy header cannot be parsed.
	ErrBadNpy = errors.New("sfsio: malformed npy input")
	// ErrNpyVersion is returned for npy versions other than 1.0.
	ErrNpyVersion = errors.New("sfsio: unsupported npy version")
	// ErrNpyType is returned for npy dtypes other than little-endian f8.
	ErrNpyType = errors.New("sfsio: unsupported npy dtype")
	// ErrFortranOrder is returned when reading a Fortran-order npy file.
	ErrFortranOrder = errors.New("sfsio: Fortran order not supported when reading npy")
)

// ReadNpy reads a spectrum in npy v1 format: a little-endian float64 C-order
// array. Fortran order is rejected.
func ReadNpy(r io.Reader) (*spectrum.CountSpectrum, error) {
	var magic [8]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadNpy, err)
	}
	if string(magic[:6]) != string(npyMagic) {
		return nil, fmt.Errorf("%w: bad magic", ErrBadNpy)
	}
	if magic[6] != 1 || magic[7] != 0 {
		return nil, fmt.Errorf("%w: %d.%d", ErrNpyVersion, magic[6], magic[7])
	}

	var headerLen uint16
	if err := binary.Read(r, binary.LittleEndian, &headerLen); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadNpy, err)
	}

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadNpy, err)
	}

	shape, err := parseNpyHeader(string(header))
	if err != nil {
		return nil, err
	}

	payload := make([]byte, 8*shape.Elements())
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: short payload: %v", ErrBadNpy, err)
	}

	data := make([]float64, shape.Elements())
	for i := range data {
		data[i] = math.Float64frombits(binary.LittleEndian.Uint64(payload[8*i:]))
	}

	return spectrum.NewCounts(data, shape)
}

// parseNpyHeader parses the shape from an npy header dict, requiring a
// little-endian float64 dtype and C order.
func parseNpyHeader(header string) (array.Shape, error) {
	descr, ok := dictValue(header, "descr")
	if !ok {
		return nil, fmt.Errorf("%w: missing descr", ErrBadNpy)
	}
	if descr != "'<f8'" && descr != "\"<f8\"" {
		return nil, fmt.Errorf("%w: %s", ErrNpyType, descr)
	}

	order, ok := dictValue(header, "fortran_order")
	if !ok {
		return nil, fmt.Errorf("%w: missing fortran_order", ErrBadNpy)
	}
	switch order {
	case "False":
	case "True":
		return nil, ErrFortranOrder
	default:
		return nil, fmt.Errorf("%w: fortran_order %s", ErrBadNpy, order)
	}

	tuple, ok := dictValue(header, "shape")
	if !ok || !strings.HasPrefix(tuple, "(") || !strings.Contains(tuple, ")") {
		return nil, fmt.Errorf("%w: missing shape", ErrBadNpy)
	}
	tuple = tuple[1:strings.Index(tuple, ")")]

	var shape array.Shape
	for _, part := range strings.Split(tuple, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		size, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: shape entry %q", ErrBadNpy, part)
		}
		shape = append(shape, size)
	}
	if len(shape) == 0 {
		return nil, fmt.Errorf("%w: empty shape", ErrBadNpy)
	}

	return shape, nil
}

// dictValue extracts the raw value following a key in the header dict, up to
// the next top-level comma or the closing brace.
func dictValue(header, key string) (string, bool) {
	for _, quote := range []string{"'", "\""} {
		marker := quote + key + quote
		start := strings.Index(header, marker)
		if start == -1 {
			continue
		}

		rest := header[start+len(marker):]
		colon := strings.Index(rest, ":")
		if colon == -1 {
			return "", false
		}
		rest = strings.TrimSpace(rest[colon+1:])

		// Tuples contain commas, so cut at the closing parenthesis instead.
		if strings.HasPrefix(rest, "(") {
			end := strings.Index(rest, ")")
			if end == -1 {
				return "", false
			}
			return rest[:end+1], true
		}

		end := strings.IndexAny(rest, ",}")
		if end == -1 {
			return strings.TrimSpace(rest), true
		}
		return strings.TrimSpace(rest[:end]), true
	}
	return "", false
}

// WriteNpy writes a spectrum in npy v1 format.
func WriteNpy(w io.Writer, s Spectrum) error {
	shape := s.Shape()

	sizes := make([]string, len(shape))
	for i, size := range shape {
		sizes[i] = strconv.Itoa(size)
	}
	tuple := strings.Join(sizes, ", ")
	if len(shape) == 1 {
		tuple += ","
	}

	dict := fmt.Sprintf("{'descr': '<f8', 'fortran_order': False, 'shape': (%s), }", tuple)

	// The header is padded with spaces to a 64-byte boundary and terminated
	// with a newline.
	total := len(npyMagic) + 2 + 2 + len(dict) + 1
	padding := (64 - total%64) % 64

	header := make([]byte, 0, total+padding)
	header = append(header, npyMagic...)
	header = append(header, 1, 0)
	header = binary.LittleEndian.AppendUint16(header, uint16(len(dict)+padding+1))
	header = append(header, dict...)
	for i := 0; i < padding; i++ {
		header = append(header, ' ')
	}
	header = append(header, '\n')

	if _, err := w.Write(header); err != nil {
		return err
	}

	payload := make([]byte, 8*len(s.Data()))
	for i, v := range s.Data() {
		binary.LittleEndian.PutUint64(payload[8*i:], math.Float64bits(v))
	}

	_, err := w.Write(payload)
	return err
}
