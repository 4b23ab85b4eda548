// Package ingest turns tabular sample files into heatmap datasets.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/storm-data-heatmap/internal/heatmap"
)

// ErrNotCSV is returned by LoadFile for paths without a .csv extension.
var ErrNotCSV = errors.New("not a csv file")

// valueSeparator splits multi-value cells such as "hail/wind".
const valueSeparator = "/"

// Columns holds zero-based column indices.
type Columns struct {
	Name  int
	Lat   int
	Lon   int
	Value int
}

// DefaultColumns is the name, lat, lon, value layout.
func DefaultColumns() Columns {
	return Columns{Name: 0, Lat: 1, Lon: 2, Value: 3}
}

func (c Columns) width() int {
	return max(c.Name, c.Lat, c.Lon, c.Value) + 1
}

func (c Columns) validate() error {
	if c.Name < 0 || c.Lat < 0 || c.Lon < 0 || c.Value < 0 {
		return fmt.Errorf("negative column index in %+v", c)
	}
	return nil
}

// Table is a parsed sample file.
type Table struct {
	Points     heatmap.Dataset
	ValueLabel string // header of the value column
	Rows       int    // data rows read, excluding the header
	Skipped    int    // rows missing a lat, lon or value
}

// LoadFile reads the CSV file at path.
func LoadFile(path string, cols Columns) (Table, error) {
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return Table{}, fmt.Errorf("%w: %s", ErrNotCSV, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	t, err := ReadCSV(f, cols)
	if err != nil {
		return Table{}, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// ReadCSV parses a headed CSV. Rows with a blank lat, lon or value are
// skipped. Value cells holding several labels separated by "/" yield one
// point per label.
func ReadCSV(r io.Reader, cols Columns) (Table, error) {
	if err := cols.validate(); err != nil {
		return Table{}, err
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Table{}, fmt.Errorf("missing header row")
	}
	if err != nil {
		return Table{}, fmt.Errorf("read header: %w", err)
	}
	if len(header) < cols.width() {
		return Table{}, fmt.Errorf("header has %d columns, need %d", len(header), cols.width())
	}

	t := Table{ValueLabel: strings.TrimSpace(header[cols.Value])}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("read row: %w", err)
		}
		t.Rows++
		line, _ := reader.FieldPos(0)

		if len(record) < cols.width() {
			return Table{}, fmt.Errorf("line %d: %d columns, need %d", line, len(record), cols.width())
		}
		latText := strings.TrimSpace(record[cols.Lat])
		lonText := strings.TrimSpace(record[cols.Lon])
		value := strings.TrimSpace(record[cols.Value])
		if latText == "" || lonText == "" || value == "" {
			t.Skipped++
			continue
		}

		lat, err := strconv.ParseFloat(latText, 64)
		if err != nil {
			return Table{}, fmt.Errorf("line %d: latitude %q: %w", line, latText, err)
		}
		lon, err := strconv.ParseFloat(lonText, 64)
		if err != nil {
			return Table{}, fmt.Errorf("line %d: longitude %q: %w", line, lonText, err)
		}

		name := strings.TrimSpace(record[cols.Name])
		for _, v := range splitValues(value) {
			t.Points = append(t.Points, heatmap.Point{Name: name, Lat: lat, Lon: lon, Value: v})
		}
	}
	return t, nil
}

func splitValues(cell string) []string {
	if !strings.Contains(cell, valueSeparator) {
		return []string{cell}
	}
	parts := strings.Split(cell, valueSeparator)
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
