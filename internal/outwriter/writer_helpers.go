package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/huangsam/fundscore/internal/contract"
)

// missingValue is shown in tables and memos for a missing number.
const missingValue = "n/a"

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	if err := writeRows(csvWriter); err != nil {
		return err
	}

	return nil
}

// formatters renders numbers at the configured precision.
type formatters struct {
	precision int
}

// createFormatters creates the number formatters shared by every output type.
func createFormatters(precision int) formatters {
	return formatters{precision: precision}
}

// Float formats v at the configured precision.
func (f formatters) Float(v float64) string {
	return strconv.FormatFloat(v, 'f', f.precision, 64)
}

// Opt formats an optional value, using missing when v is nil.
func (f formatters) Opt(v *float64, missing string) string {
	if v == nil {
		return missing
	}
	return f.Float(*v)
}

// OptInt formats an optional integer.
func (f formatters) OptInt(v *int, missing string) string {
	if v == nil {
		return missing
	}
	return strconv.Itoa(*v)
}

// Pct formats a ratio such as 0.052 as "5.2%".
func (f formatters) Pct(v *float64) string {
	if v == nil {
		return missingValue
	}
	return f.Float(*v*100) + "%"
}

// Money formats a large amount with a B or M suffix.
func (f formatters) Money(v *float64) string {
	if v == nil {
		return missingValue
	}
	abs := *v
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1e9:
		return f.Float(*v/1e9) + "B"
	case abs >= 1e6:
		return f.Float(*v/1e6) + "M"
	default:
		return f.Float(*v)
	}
}

// writeFooter prints the timing line shown under text tables.
func writeFooter(w io.Writer, cfg *contract.Config, duration time.Duration) error {
	_, err := fmt.Fprintf(w, "Completed in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, cfg.CacheBackend)
	return err
}
