// Package sites accumulates streamed genotype sites into count spectra,
// classifying each site as exact, projectable, or insufficient.
package sites

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/popgen-tools/sfs/internal/array"
	"github.com/popgen-tools/sfs/internal/spectrum"
)

var (
	// ErrEmptySampleMap is returned when a sample map defines no samples.
	ErrEmptySampleMap = errors.New("sites: sample map defines no samples")
	// ErrDuplicateSample is returned when a sample map lists a sample twice.
	ErrDuplicateSample = errors.New("sites: duplicate sample in sample map")
)

// SampleMap maps samples to populations, preserving the order in which
// samples and populations first appear.
type SampleMap struct {
	samples     []string
	populations map[string]int
	names       []string
	sizes       []int
}

// MapAll maps all provided samples to a single unnamed population.
func MapAll(samples []string) (*SampleMap, error) {
	m := newSampleMap()
	for _, sample := range samples {
		if err := m.add(sample, ""); err != nil {
			return nil, err
		}
	}
	return m.finish()
}

// LoadSampleMap reads a sample map from a file. Each line holds a sample
// name, optionally followed by a tab and a population name; lines without a
// population map the sample to a shared unnamed population.
func LoadSampleMap(path string) (*SampleMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseSampleMap(f)
}

// ParseSampleMap reads a sample map from r in the same format as
// LoadSampleMap.
func ParseSampleMap(r io.Reader) (*SampleMap, error) {
	m := newSampleMap()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		sample, population, _ := strings.Cut(line, "\t")
		if err := m.add(sample, population); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return m.finish()
}

func newSampleMap() *SampleMap {
	return &SampleMap{populations: make(map[string]int)}
}

func (m *SampleMap) add(sample, population string) error {
	if _, ok := m.populations[sample]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateSample, sample)
	}

	id := -1
	for i, name := range m.names {
		if name == population {
			id = i
			break
		}
	}
	if id == -1 {
		id = len(m.names)
		m.names = append(m.names, population)
		m.sizes = append(m.sizes, 0)
	}

	m.samples = append(m.samples, sample)
	m.populations[sample] = id
	m.sizes[id]++
	return nil
}

func (m *SampleMap) finish() (*SampleMap, error) {
	if len(m.samples) == 0 {
		return nil, ErrEmptySampleMap
	}
	return m, nil
}

// Samples returns the samples in the map in insertion order.
func (m *SampleMap) Samples() []string {
	return m.samples
}

// PopulationID returns the population id of a sample. The second return
// value is false if the sample is not in the map.
func (m *SampleMap) PopulationID(sample string) (int, bool) {
	id, ok := m.populations[sample]
	return id, ok
}

// PopulationName returns the name of a population id, which is empty for the
// unnamed population.
func (m *SampleMap) PopulationName(id int) string {
	return m.names[id]
}

// Populations returns the number of populations in the map.
func (m *SampleMap) Populations() int {
	return len(m.names)
}

// PopulationSizes returns the number of samples in each population, indexed
// by population id.
func (m *SampleMap) PopulationSizes() []int {
	return m.sizes
}

// Shape returns the spectrum shape implied by the map: one dimension per
// population, sized 2m + 1 for m diploid samples.
func (m *SampleMap) Shape() array.Shape {
	shape := make(array.Shape, len(m.sizes))
	for id, size := range m.sizes {
		shape[id] = 1 + 2*size
	}
	return shape
}

// AlleleCounts returns the total allele count per population, i.e. 2m for m
// diploid samples.
func (m *SampleMap) AlleleCounts() spectrum.Count {
	counts := make(spectrum.Count, len(m.sizes))
	for id, size := range m.sizes {
		counts[id] = 2 * size
	}
	return counts
}
