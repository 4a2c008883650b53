package outwriter

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/schema"
)

// newsTableFixedWidth is the width of every headline column except the title.
const newsTableFixedWidth = 60

// WriteEvidence outputs the ranked bull and bear evidence.
func WriteEvidence(ev schema.Evidence, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, ev)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeEvidenceCSV(w, ev)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			for _, side := range []struct {
				title string
				items []schema.NewsItem
			}{{"🐂 Bull evidence", ev.Bull}, {"🐻 Bear evidence", ev.Bear}} {
				if _, err := fmt.Fprintln(w, side.title); err != nil {
					return err
				}
				if err := writeNewsTable(w, side.items, cfg); err != nil {
					return err
				}
			}
			return writeFooter(w, cfg, duration)
		}, "Wrote table")
	}
}

func writeEvidenceCSV(w io.Writer, ev schema.Evidence) error {
	header := []string{"side", "rank", "published_at", "ticker", "source", "risk_tag", "impact_score", "trust", "title", "url"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, side := range []struct {
			name  string
			items []schema.NewsItem
		}{{"bull", ev.Bull}, {"bear", ev.Bear}} {
			for i, it := range side.items {
				rec := append([]string{side.name, strconv.Itoa(i + 1)}, newsRecord(it)...)
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// newsRecord is the CSV form of a headline after the leading columns.
func newsRecord(it schema.NewsItem) []string {
	return []string{
		it.PublishedAt.UTC().Format(time.RFC3339),
		it.Ticker,
		it.Source,
		string(it.RiskTag),
		strconv.Itoa(it.ImpactScore),
		strconv.FormatFloat(it.Trust, 'f', 1, 64),
		it.Title,
		it.URL,
	}
}

func writeNewsTable(w io.Writer, items []schema.NewsItem, cfg *contract.Config) error {
	width := getMaxTableTextWidth(cfg, newsTableFixedWidth)
	data := make([][]string, 0, len(items))
	for _, it := range items {
		data = append(data, []string{
			it.PublishedAt.UTC().Format(schema.EvidenceTimeFormat),
			it.Ticker,
			it.Source,
			string(it.RiskTag),
			strconv.Itoa(it.ImpactScore),
			contract.TruncateText(it.Title, width),
		})
	}
	return renderTable(w, []string{"Published", "Ticker", "Source", "Tag", "Impact", "Title"}, data, false)
}

// WriteNewsItems outputs tagged headlines.
func WriteNewsItems(items []schema.NewsItem, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, items)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteNewsCSV(w, items)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if err := writeNewsTable(w, items, cfg); err != nil {
				return err
			}
			return writeFooter(w, cfg, duration)
		}, "Wrote table")
	}
}

// NewsCSVHeader is the column order of news_unified.csv.
var NewsCSVHeader = []string{"ticker", "published_at", "source", "title", "url", "risk_tag", "impact_score", "provider", "summary", "dedupe_key"}

// WriteNewsCSV writes headlines in the news_unified.csv layout.
func WriteNewsCSV(w io.Writer, items []schema.NewsItem) error {
	return writeCSVWithHeader(w, NewsCSVHeader, func(cw *csv.Writer) error {
		for _, it := range items {
			rec := []string{
				it.Ticker,
				it.PublishedAt.UTC().Format(time.RFC3339),
				it.Source,
				it.Title,
				it.URL,
				string(it.RiskTag),
				strconv.Itoa(it.ImpactScore),
				it.Provider,
				it.Summary,
				it.DedupeKey,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteSentimentProxy outputs the sentiment proxy table.
func WriteSentimentProxy(rows []schema.SentimentProxy, cfg *contract.Config, duration time.Duration) error {
	header := []string{"ticker", "articles_7d", "articles_30d", "neg_7d", "neg_30d", "shock_7d", "shock_30d", "proxy_score_7d", "proxy_score_30d"}
	record := func(p schema.SentimentProxy) []string {
		return []string{
			p.Ticker,
			strconv.Itoa(p.Articles7d), strconv.Itoa(p.Articles30d),
			strconv.Itoa(p.Neg7d), strconv.Itoa(p.Neg30d),
			strconv.Itoa(p.Shock7d), strconv.Itoa(p.Shock30d),
			strconv.Itoa(p.ProxyScore7d), strconv.Itoa(p.ProxyScore30d),
		}
	}

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, rows)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
				for _, p := range rows {
					if err := cw.Write(record(p)); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			data := make([][]string, 0, len(rows))
			for _, p := range rows {
				data = append(data, record(p))
			}
			if err := renderTable(w, []string{"Ticker", "Art 7d", "Art 30d", "Neg 7d", "Neg 30d", "Shock 7d", "Shock 30d", "Proxy 7d", "Proxy 30d"}, data, true); err != nil {
				return err
			}
			return writeFooter(w, cfg, duration)
		}, "Wrote table")
	}
}

// WriteRiskDashboard outputs the risk dashboard.
func WriteRiskDashboard(rows []schema.RiskDashboardRow, cfg *contract.Config, duration time.Duration) error {
	f := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, rows)
		}, "Wrote JSON")
	case schema.CSVOut:
		header := []string{"ticker", "risk_tag", "neg_count_30d", "shock_30d", "neg_count_7d", "shock_7d", "worst_7d_title", "worst_7d_source", "worst_7d_url", "worst_7d_impact"}
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
				for _, r := range rows {
					rec := []string{
						r.Ticker, string(r.RiskTag),
						strconv.Itoa(r.NegCount30d), f.Float(r.Shock30d),
						strconv.Itoa(r.NegCount7d), f.Float(r.Shock7d),
						r.Worst7dTitle, r.Worst7dSource, r.Worst7dURL, f.Float(r.Worst7dImpact),
					}
					if err := cw.Write(rec); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			width := getMaxTableTextWidth(cfg, newsTableFixedWidth)
			data := make([][]string, 0, len(rows))
			for _, r := range rows {
				data = append(data, []string{
					r.Ticker, string(r.RiskTag),
					strconv.Itoa(r.NegCount30d), f.Float(r.Shock30d),
					strconv.Itoa(r.NegCount7d), f.Float(r.Shock7d),
					contract.TruncateText(r.Worst7dTitle, width),
				})
			}
			if err := renderTable(w, []string{"Ticker", "Tag", "Neg 30d", "Shock 30d", "Neg 7d", "Shock 7d", "Worst 7d"}, data, false); err != nil {
				return err
			}
			return writeFooter(w, cfg, duration)
		}, "Wrote table")
	}
}

// WriteHybridSignal outputs the tactical and institutional view of one ticker.
func WriteHybridSignal(sig schema.HybridSignal, cfg *contract.Config, duration time.Duration) error {
	f := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, sig)
		}, "Wrote JSON")
	case schema.CSVOut:
		header := []string{"ticker", "as_of", "shock_7d", "neg_7d", "articles_7d", "tactical_alert", "confirmed_tags", "top_source", "source_diversity", "hybrid_escalate"}
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
				return cw.Write([]string{
					sig.Ticker,
					sig.AsOf.Format(contract.DateFormat),
					f.OptInt(sig.Tactical.Shock7d, ""),
					f.OptInt(sig.Tactical.Neg7d, ""),
					f.OptInt(sig.Tactical.Articles7d, ""),
					strconv.FormatBool(sig.Tactical.TacticalAlert),
					strings.Join(confirmedTagNames(sig), "|"),
					sig.SourceMix.TopSource,
					strconv.Itoa(sig.SourceMix.SourceDiversity),
					strconv.FormatBool(sig.HybridEscalate),
				})
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			data := [][]string{
				{"Shock 7d", f.OptInt(sig.Tactical.Shock7d, missingValue)},
				{"Negative headlines 7d", f.OptInt(sig.Tactical.Neg7d, missingValue)},
				{"Articles 7d", f.OptInt(sig.Tactical.Articles7d, missingValue)},
				{"Tactical alert", yesNo(sig.Tactical.TacticalAlert)},
				{"Confirmed tags", cmp.Or(strings.Join(confirmedTagNames(sig), ", "), "none")},
				{"Top source", fmt.Sprintf("%s (%s)", cmp.Or(sig.SourceMix.TopSource, missingValue), f.Pct(sig.SourceMix.SourceShareTop))},
				{"Source diversity", strconv.Itoa(sig.SourceMix.SourceDiversity)},
				{"Escalate", yesNo(sig.HybridEscalate)},
			}
			if _, err := fmt.Fprintf(w, "📡 %s signals as of %s\n", sig.Ticker, sig.AsOf.Format(contract.DateFormat)); err != nil {
				return err
			}
			if err := renderTable(w, []string{"Signal", "Value"}, data, false); err != nil {
				return err
			}
			return writeFooter(w, cfg, duration)
		}, "Wrote table")
	}
}

func confirmedTagNames(sig schema.HybridSignal) []string {
	tags := slices.Sorted(maps.Keys(sig.Institutional.ConfirmedTags))
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = fmt.Sprintf("%s(%d)", t, sig.Institutional.ConfirmedTags[t].Confirmations)
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return contract.AvoidColor.Sprint("YES")
	}
	return "no"
}
