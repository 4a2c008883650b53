package outwriter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/schema"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// WriteThesisResult outputs a thesis evaluation in the configured format.
func WriteThesisResult(res schema.ThesisResult, cfg *contract.Config, duration time.Duration) error {
	f := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, res)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeThesisCSV(w, res, f)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeThesisTable(w, res, cfg, f, duration)
		}, "Wrote table")
	}
}

// thesisTableFixedWidth is the width of every claim column except the statement.
const thesisTableFixedWidth = 75

func writeThesisTable(w io.Writer, res schema.ThesisResult, cfg *contract.Config, f formatters, duration time.Duration) error {
	if _, err := fmt.Fprintf(w, "📋 %s\n", res.Name); err != nil {
		return err
	}
	headers := []string{"ID", "Metric", "Rule", "Actual", "Status"}
	if cfg.Explain {
		headers = append(headers, "Statement")
	}
	data := make([][]string, 0, len(res.Results))
	for _, c := range res.Results {
		row := []string{
			c.ID,
			string(c.Metric),
			ruleText(c.Claim, f),
			f.Opt(c.Actual, missingValue),
			contract.GetColorStatus(c.Status),
		}
		if cfg.Explain {
			row = append(row, contract.TruncateText(c.Statement, getMaxTableTextWidth(cfg, thesisTableFixedWidth)))
		}
		data = append(data, row)
	}
	if err := renderTable(w, headers, data, false); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Passed %d, failed %d, unknown %d. Support: %s (policy %s)\n",
		res.Passed, res.Failed, res.Unknown, supportText(res.Support, f), res.Policy); err != nil {
		return err
	}
	return writeFooter(w, cfg, duration)
}

// ruleText renders a claim rule such as "fcf_ttm > 0".
func ruleText(c schema.Claim, f formatters) string {
	return fmt.Sprintf("%s %s", c.Operator, f.Opt(c.Threshold, missingValue))
}

func supportText(v *float64, f formatters) string {
	if v == nil {
		return missingValue
	}
	return f.Float(*v) + "%"
}

func writeThesisCSV(w io.Writer, res schema.ThesisResult, f formatters) error {
	header := []string{"id", "metric", "operator", "threshold", "actual", "status", "weight", "statement"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, c := range res.Results {
			rec := []string{
				c.ID,
				string(c.Metric),
				string(c.Operator),
				f.Opt(c.Threshold, ""),
				f.Opt(c.Actual, ""),
				string(c.Status),
				strconv.FormatFloat(c.EffectiveWeight(), 'g', -1, 64),
				c.Statement,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// EncodeThesis serializes a thesis by file extension: .json, .toml or YAML otherwise.
func EncodeThesis(th schema.Thesis, path string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		var buf bytes.Buffer
		if err := writeJSON(&buf, th); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case ".toml":
		data, err := toml.Marshal(th)
		if err != nil {
			return nil, fmt.Errorf("failed to encode TOML: %w", err)
		}
		return data, nil
	default:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(th); err != nil {
			return nil, fmt.Errorf("failed to encode YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

// WriteThesisFile writes a thesis to path, creating parent directories.
func WriteThesisFile(th schema.Thesis, path string) error {
	data, err := EncodeThesis(th, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
