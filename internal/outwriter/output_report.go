package outwriter

import (
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
)

// WriteReport outputs the decision report, dispatching based on the output format configured.
func WriteReport(rep *schema.Report, cfg *contract.Config, duration time.Duration) error {
	f := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, rep)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReportCSV(w, rep)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.MarkdownOut, schema.HTMLOut, schema.DOCXOut, schema.PDFOut:
		format := reportFormatForOutput[cfg.Output]
		data, err := renderMemoFormat(rep, format, cfg.Precision)
		if err != nil {
			return err
		}
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}, "Wrote "+strings.ToUpper(string(format))+" memo"); err != nil {
			return fmt.Errorf("error writing %s output: %w", format, err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReportSummary(w, rep, cfg, f, duration)
		}, "Wrote summary")
	}
	return nil
}

var reportFormatForOutput = map[schema.OutputMode]schema.ReportFormat{
	schema.MarkdownOut: schema.FormatMarkdown,
	schema.HTMLOut:     schema.FormatHTML,
	schema.DOCXOut:     schema.FormatDOCX,
	schema.PDFOut:      schema.FormatPDF,
}

func memoTitle(rep *schema.Report) string {
	return rep.Ticker + " Decision Memo"
}

// renderMemoFormat renders the memo in one report format.
func renderMemoFormat(rep *schema.Report, format schema.ReportFormat, precision int) ([]byte, error) {
	markdown := RenderMemo(rep, precision)
	switch format {
	case schema.FormatMarkdown:
		return []byte(markdown), nil
	case schema.FormatHTML:
		return RenderMemoHTML(markdown, memoTitle(rep))
	case schema.FormatDOCX:
		return RenderMemoDOCX(markdown, memoTitle(rep))
	case schema.FormatPDF:
		return RenderMemoPDF(markdown, memoTitle(rep))
	default:
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
}

// MemoPath is where the memo of a ticker lands for one format.
func MemoPath(outDir, ticker string, format schema.ReportFormat) string {
	return filepath.Join(outDir, strings.ToUpper(ticker)+"_memo."+string(format))
}

// WriteMemoFiles writes the memo into the output directory once per requested format.
// It returns the written paths in the order of cfg.Formats.
func WriteMemoFiles(rep *schema.Report, cfg *contract.Config) ([]string, error) {
	if len(cfg.Formats) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", cfg.OutDir, err)
	}

	paths := make([]string, 0, len(cfg.Formats))
	for _, format := range cfg.Formats {
		data, err := renderMemoFormat(rep, format, cfg.Precision)
		if err != nil {
			return paths, err
		}
		msg := "Wrote " + strings.ToUpper(string(format)) + " memo"
		if format == schema.FormatPDF {
			pages, err := validateMemoPDF(data)
			if err != nil {
				return paths, err
			}
			msg = fmt.Sprintf("Wrote PDF memo (%d pages)", pages)
		}
		path := MemoPath(cfg.OutDir, rep.Ticker, format)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", msg, path)
		paths = append(paths, path)
	}
	return paths, nil
}

// writeReportSummary prints the decision card and the headline diagnostics.
func writeReportSummary(w io.Writer, rep *schema.Report, cfg *contract.Config, f formatters, duration time.Duration) error {
	card := rep.Card
	if _, err := fmt.Fprintf(w, "%s as of %s: %d/100 %s\n", card.Ticker, card.AsOf, card.Score, contract.GetColorRating(card.Rating)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s\n\n", rep.Verdict); err != nil {
		return err
	}

	data := make([][]string, 0, len(rep.Score.Buckets.Points()))
	for _, b := range rep.Score.Buckets.Points() {
		data = append(data, []string{
			b.Name,
			fmt.Sprintf("%d/%d", b.Points, b.Max),
			contract.GetColorLight(card.Lights[b.Name]),
		})
	}
	if err := renderTable(w, []string{"Bucket", "Points", "Light"}, data, false); err != nil {
		return err
	}

	lines := []string{
		fmt.Sprintf("Confidence: %d/100, Data completeness: %d/100", rep.Confidence.Score, rep.Completeness.Score),
		fmt.Sprintf("Red flags: %d, Alerts: %d", len(rep.RedFlags), len(rep.Alerts)),
	}
	if rep.Thesis != nil {
		lines = append(lines, fmt.Sprintf("Thesis: %s support (%d passed, %d failed)", supportText(rep.Thesis.Support, f), rep.Thesis.Passed, rep.Thesis.Failed))
	}
	if rep.DCF != nil && len(rep.DCF.Scenarios) > 0 {
		parts := make([]string, 0, len(rep.DCF.Scenarios))
		for _, s := range rep.DCF.Scenarios {
			parts = append(parts, s.Name+" "+f.Money(s.EV))
		}
		lines = append(lines, "DCF EV: "+strings.Join(parts, ", "))
	}
	if cfg.Explain {
		for _, rf := range rep.RedFlags {
			lines = append(lines, "  "+contract.GetColorSeverity(rf.Severity)+" "+rf.Title)
		}
		for _, a := range rep.Alerts {
			lines = append(lines, "  🚨 "+a.Message)
		}
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return writeFooter(w, cfg, duration)
}

// writeReportCSV emits one row per bucket with the report-level scores repeated.
func writeReportCSV(w io.Writer, rep *schema.Report) error {
	header := []string{"report_id", "ticker", "as_of", "score", "rating", "bucket", "points", "max", "light", "confidence", "completeness", "red_flags", "alerts"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, b := range rep.Score.Buckets.Points() {
			row := []string{
				rep.ID,
				rep.Ticker,
				rep.Card.AsOf,
				strconv.Itoa(rep.Score.Score),
				string(rep.Score.Rating),
				b.Name,
				strconv.Itoa(b.Points),
				strconv.Itoa(b.Max),
				string(rep.Card.Lights[b.Name]),
				strconv.Itoa(rep.Confidence.Score),
				strconv.Itoa(rep.Completeness.Score),
				strconv.Itoa(len(rep.RedFlags)),
				strconv.Itoa(len(rep.Alerts)),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
		return nil
	})
}
