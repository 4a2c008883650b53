package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/schema"
)

// alertTableFixedWidth is the width of the ID and severity columns.
const alertTableFixedWidth = 35

// WriteAlerts outputs the triggered thesis-breaker alerts.
func WriteAlerts(rep schema.AlertReport, cfg *contract.Config, duration time.Duration) error {
	f := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, rep)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"ticker", "id", "severity", "message"}, func(cw *csv.Writer) error {
				for _, a := range rep.Alerts {
					if err := cw.Write([]string{rep.Ticker, a.ID, string(a.Severity), a.Message}); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAlertsText(w, rep, cfg, f, duration)
		}, "Wrote table")
	}
}

func writeAlertsText(w io.Writer, rep schema.AlertReport, cfg *contract.Config, f formatters, duration time.Duration) error {
	if len(rep.Alerts) == 0 {
		if _, err := fmt.Fprintf(w, "✅ No alerts triggered for %s\n", rep.Ticker); err != nil {
			return err
		}
	} else {
		width := getMaxTableTextWidth(cfg, alertTableFixedWidth)
		data := make([][]string, 0, len(rep.Alerts))
		for _, a := range rep.Alerts {
			data = append(data, []string{a.ID, contract.GetColorSeverity(a.Severity), contract.TruncateText(a.Message, width)})
		}
		if _, err := fmt.Fprintf(w, "🚨 %d alert(s) for %s\n", len(rep.Alerts), rep.Ticker); err != nil {
			return err
		}
		if err := renderTable(w, []string{"ID", "Severity", "Message"}, data, false); err != nil {
			return err
		}
	}
	if cfg.Explain {
		keys := slices.Sorted(maps.Keys(rep.Inputs))
		data := make([][]string, 0, len(keys))
		for _, k := range keys {
			data = append(data, []string{k, f.Opt(rep.Inputs[k], missingValue)})
		}
		if err := renderTable(w, []string{"Input", "Value"}, data, false); err != nil {
			return err
		}
	}
	return writeFooter(w, cfg, duration)
}
