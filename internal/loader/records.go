package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are tried in order for date and timestamp columns.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateTime,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04 UTC",
	time.DateOnly,
}

// record is one CSV row addressed by header name.
type record struct {
	cols   map[string]int
	fields []string
}

// String returns the trimmed cell of a column, or "" when the column is absent.
func (r record) String(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// Float returns a nullable number. Blank cells, "nan" and unparseable values are nil.
func (r record) Float(name string) *float64 {
	s := r.String(name)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Int returns the rounded value of a numeric column, or 0.
func (r record) Int(name string) int {
	if v := r.Float(name); v != nil {
		return int(math.Round(*v))
	}
	return 0
}

// Time parses a date or timestamp column as UTC.
func (r record) Time(name string) (time.Time, error) {
	s := r.String(name)
	if s == "" {
		return time.Time{}, fmt.Errorf("column %s is empty", name)
	}
	return parseTime(s)
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// readCSV streams the rows of a CSV file with a header line to visit.
// Header names are lowercased. It returns the number of rows visited.
func readCSV(path string, required []string, visit func(record) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		cols[h] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return 0, fmt.Errorf("missing column %q", name)
		}
	}

	rows := 0
	for line := 2; ; line++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("line %d: %w", line, err)
		}
		if err := visit(record{cols: cols, fields: fields}); err != nil {
			return rows, fmt.Errorf("line %d: %w", line, err)
		}
		rows++
	}
	return rows, nil
}
