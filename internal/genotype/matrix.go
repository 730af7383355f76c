package genotype

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	// ErrMissingHeader is returned when a genotype matrix has no header line.
	ErrMissingHeader = errors.New("genotype: missing matrix header line")
	// ErrRaggedRow is returned when a matrix row has the wrong number of
	// genotype fields.
	ErrRaggedRow = errors.New("genotype: wrong number of genotype fields")
	// ErrBadRow is returned when a matrix row cannot be parsed.
	ErrBadRow = errors.New("genotype: malformed matrix row")
)

// MatrixReader reads genotypes from a tab-separated genotype matrix.
//
// The first line is a header with two fixed columns followed by the sample
// names; a leading '#' on the header is allowed. Each following line holds
// the contig, the 1-based position, and one genotype field per sample.
// Genotype fields are allele pairs in the usual a/b or a|b notation, with
// '.' marking a missing allele or genotype. The allele dosage a + b is the
// derived allele count; dosages above two are skipped as multiallelic, and
// fields with any other number of alleles are skipped as non-diploid.
type MatrixReader struct {
	scanner  *bufio.Scanner
	closers  []io.Closer
	samples  []string
	calls    []Call
	contig   string
	position int
	line     int
}

// OpenMatrix opens a genotype matrix file for reading, transparently
// decompressing gzip and zstd input.
func OpenMatrix(path string) (*MatrixReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(f)
	magic, err := br.Peek(4)
	if err != nil && err != io.EOF {
		f.Close()
		return nil, err
	}

	var r io.Reader = br
	closers := []io.Closer{f}

	switch {
	case len(magic) >= 2 && magic[0] == 0x1f && magic[1] == 0x8b:
		gz, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("genotype: open gzip matrix: %w", err)
		}
		r = gz
		closers = append(closers, gz)
	case len(magic) >= 4 && magic[0] == 0x28 && magic[1] == 0xb5 && magic[2] == 0x2f && magic[3] == 0xfd:
		zr, err := zstd.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("genotype: open zstd matrix: %w", err)
		}
		rc := zr.IOReadCloser()
		r = rc
		closers = append(closers, rc)
	}

	reader, err := NewMatrixReader(r)
	if err != nil {
		f.Close()
		return nil, err
	}
	reader.closers = closers

	return reader, nil
}

// NewMatrixReader reads a genotype matrix from r. The header line is read
// eagerly so that SampleNames is available before the first site.
func NewMatrixReader(r io.Reader) (*MatrixReader, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	reader := &MatrixReader{scanner: scanner}
	if err := reader.readHeader(); err != nil {
		return nil, err
	}

	return reader, nil
}

func (m *MatrixReader) readHeader() error {
	for m.scanner.Scan() {
		m.line++
		text := strings.TrimSpace(m.scanner.Text())
		if text == "" {
			continue
		}

		text = strings.TrimPrefix(text, "#")
		fields := strings.Split(text, "\t")
		if len(fields) < 3 {
			return fmt.Errorf("%w: found %d header columns", ErrMissingHeader, len(fields))
		}

		m.samples = fields[2:]
		m.calls = make([]Call, len(m.samples))
		return nil
	}

	if err := m.scanner.Err(); err != nil {
		return err
	}
	return ErrMissingHeader
}

// CurrentContig returns the contig of the most recently read site.
func (m *MatrixReader) CurrentContig() string {
	return m.contig
}

// CurrentPosition returns the 1-based position of the most recently read
// site.
func (m *MatrixReader) CurrentPosition() int {
	return m.position
}

// SampleNames returns the sample names from the matrix header.
func (m *MatrixReader) SampleNames() []string {
	return m.samples
}

// ReadGenotypes returns the calls at the next site, or io.EOF when the
// matrix is exhausted. The returned slice is reused between calls.
func (m *MatrixReader) ReadGenotypes() ([]Call, error) {
	for m.scanner.Scan() {
		m.line++
		text := m.scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}

		fields := strings.Split(text, "\t")
		if len(fields) != len(m.samples)+2 {
			return nil, fmt.Errorf(
				"%w: line %d has %d genotype fields for %d samples",
				ErrRaggedRow, m.line, len(fields)-2, len(m.samples),
			)
		}

		position, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: bad position %q", ErrBadRow, m.line, fields[1])
		}
		m.contig = fields[0]
		m.position = position

		for i, field := range fields[2:] {
			call, err := parseCall(field)
			if err != nil {
				return nil, fmt.Errorf("line %d, sample %q: %w", m.line, m.samples[i], err)
			}
			m.calls[i] = call
		}

		return m.calls, nil
	}

	if err := m.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// Close closes the underlying file and any decompressor.
func (m *MatrixReader) Close() error {
	var first error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// parseCall parses one a/b or a|b genotype field into a call.
func parseCall(field string) (Call, error) {
	if field == "." {
		return Skip(SkipMissing), nil
	}

	separator := "/"
	if !strings.Contains(field, "/") {
		separator = "|"
	}

	alleles := strings.Split(field, separator)
	if len(alleles) != 2 {
		return Skip(SkipPloidy), nil
	}

	dosage := 0
	for _, allele := range alleles {
		if allele == "." {
			return Skip(SkipMissing), nil
		}

		v, err := strconv.Atoi(allele)
		if err != nil || v < 0 {
			return Call{}, fmt.Errorf("%w: bad allele %q", ErrBadRow, field)
		}
		dosage += v
	}

	g, ok := FromRaw(dosage)
	if !ok {
		return Skip(SkipMultiallelic), nil
	}
	return Called(g), nil
}
