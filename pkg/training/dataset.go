package training

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
)

// Dataset is a numeric table whose last CSV column is the regression target.
type Dataset struct {
	FeatureNames []string
	Samples      [][]float64
	Targets      []float64
}

func (d *Dataset) Len() int {
	return len(d.Targets)
}

func (d *Dataset) Width() int {
	if len(d.Samples) == 0 {
		return 0
	}
	return len(d.Samples[0])
}

// Subset returns the rows at idx. Rows are shared, not copied.
func (d *Dataset) Subset(idx []int) ([][]float64, []float64) {
	samples := make([][]float64, len(idx))
	targets := make([]float64, len(idx))
	for i, j := range idx {
		samples[i] = d.Samples[j]
		targets[i] = d.Targets[j]
	}
	return samples, targets
}

func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV accepts an optional header row. A first row that does not parse as
// numbers is taken as the header.
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	ds := &Dataset{}
	width := -1
	line := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		line++
		if len(row) < 2 {
			return nil, fmt.Errorf("line %d: need at least one feature and a target, got %d columns", line, len(row))
		}
		if width >= 0 && len(row) != width {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", line, width, len(row))
		}
		width = len(row)

		values, err := parseRow(row)
		if err != nil {
			if line == 1 {
				ds.FeatureNames = trimAll(row[:len(row)-1])
				continue
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ds.Samples = append(ds.Samples, values[:len(values)-1])
		ds.Targets = append(ds.Targets, values[len(values)-1])
	}

	if ds.Len() == 0 {
		return nil, errors.New("dataset has no rows")
	}
	return ds, nil
}

func parseRow(row []string) ([]float64, error) {
	values := make([]float64, len(row))
	for i, cell := range row {
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i+1, err)
		}
		values[i] = v
	}
	return values, nil
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

// Split shuffles 0..n-1 with the given seed and holds out ceil(n*testSize)
// indices for evaluation. The same seed always yields the same split.
func Split(n int, testSize float64, seed int64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size must be in (0, 1), got %v", testSize)
	}
	nTest := int(float64(n)*testSize + 0.999999)
	if nTest < 1 || nTest >= n {
		return nil, nil, fmt.Errorf("cannot split %d rows with test size %v", n, testSize)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}
