package outwriter

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/fundscore/schema"
)

// memoGlossary explains the terms a first-time reader meets in the memo.
var memoGlossary = map[string]string{
	"FCF":            "Free cash flow: cash from operations minus spending on equipment and buildings.",
	"TTM":            "Trailing twelve months: the last four quarters added together.",
	"FCF yield":      "Free cash flow divided by the company's market value. Higher means cheaper.",
	"FCF margin":     "Free cash flow as a share of revenue. Higher means a more efficient business.",
	"Net debt":       "Debt minus cash. Negative means the company holds more cash than debt.",
	"Peer rank":      "Where the company sits among its peers, from 0 (worst) to 100 (best).",
	"News shock":     "Sum of the negative impact scores of recent headlines. More negative is worse.",
	"Thesis support": "Share of your thesis claims that the data currently backs up.",
	"WACC":           "The return investors expect for funding the company, used to discount future cash.",
}

// memoMetrics are the headline numbers shown near the top of the memo.
var memoMetrics = []struct {
	key   schema.MetricKey
	label string
}{
	{schema.KeyRevenueTTM, "Revenue (TTM)"},
	{schema.KeyFCFTTM, "Free cash flow (TTM)"},
	{schema.KeyFCFMarginTTMPct, "FCF margin % (TTM)"},
	{schema.KeyFCFYieldPct, "FCF yield %"},
	{schema.KeyRevenueTTMYoYPct, "Revenue growth % (YoY)"},
	{schema.KeyFCFTTMYoYPct, "FCF growth % (YoY)"},
	{schema.KeyNetDebtToFCF, "Net debt / FCF"},
	{schema.KeyRankFCFYield, "Peer rank: FCF yield"},
	{schema.KeyRankFCFMargin, "Peer rank: FCF margin"},
}

// memoWriter accumulates markdown.
type memoWriter struct {
	sb strings.Builder
	f  formatters
}

func (m *memoWriter) line(format string, args ...any) {
	fmt.Fprintf(&m.sb, format, args...)
	m.sb.WriteByte('\n')
}

func (m *memoWriter) blank() {
	m.sb.WriteByte('\n')
}

func (m *memoWriter) heading(level int, title string) {
	m.line("%s %s", strings.Repeat("#", level), title)
	m.blank()
}

func (m *memoWriter) table(headers []string, rows [][]string) {
	m.line("| %s |", strings.Join(headers, " | "))
	seps := make([]string, len(headers))
	for i := range seps {
		seps[i] = "---"
	}
	m.line("| %s |", strings.Join(seps, " | "))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = escapeCell(c)
		}
		m.line("| %s |", strings.Join(cells, " | "))
	}
	m.blank()
}

func (m *memoWriter) bullets(items []string) {
	for _, it := range items {
		m.line("- %s", it)
	}
	m.blank()
}

// escapeCell keeps a value inside one markdown table cell.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

// headlineLink renders a headline as a link when it has a URL.
func headlineLink(title, url string) string {
	title = strings.NewReplacer("[", "(", "]", ")").Replace(title)
	if url == "" {
		return title
	}
	return fmt.Sprintf("[%s](%s)", title, url)
}

// RenderMemo builds the markdown decision memo for a report.
func RenderMemo(rep *schema.Report, precision int) string {
	m := &memoWriter{f: createFormatters(precision)}

	m.heading(1, rep.Ticker+" Decision Memo")
	m.bullets([]string{
		"As of: " + cmp.Or(rep.Score.AsOf, missingValue),
		"Generated: " + rep.GeneratedAt.UTC().Format(time.RFC3339),
		"Report ID: " + rep.ID,
	})

	m.heading(2, "Verdict")
	m.line("%s", rep.Verdict)
	m.blank()

	memoDecisionCard(m, rep)
	memoMetricsSection(m, rep)
	memoRedFlags(m, rep)
	memoThesis(m, rep)
	memoEvidence(m, rep)
	memoNews(m, rep)
	memoScenarios(m, rep)
	memoDCF(m, rep)
	memoDataQuality(m, rep)
	memoAlerts(m, rep)

	m.heading(2, "Glossary")
	for _, term := range slices.Sorted(maps.Keys(memoGlossary)) {
		m.line("- **%s**: %s", term, memoGlossary[term])
	}
	m.blank()
	m.line("_This memo is generated from local data files. It is a checklist, not investment advice._")
	return m.sb.String()
}

func memoDecisionCard(m *memoWriter, rep *schema.Report) {
	m.heading(2, "Decision Card")
	m.line("**Score: %d/100 (%s)**", rep.Score.Score, rep.Score.Rating)
	m.blank()
	rows := make([][]string, 0, 5)
	for _, b := range rep.Score.Buckets.Points() {
		rows = append(rows, []string{b.Name, strconv.Itoa(b.Points), strconv.Itoa(b.Max), string(rep.Card.Lights[b.Name])})
	}
	m.table([]string{"Bucket", "Points", "Max", "Light"}, rows)
	m.line("Data completeness: %d/100. Evidence confidence: %d/100.", rep.Card.Completeness, rep.Card.Confidence)
	m.blank()
	if rep.Score.Drift != nil {
		m.line("> Note: a cached score of %d from %s disagreed with the fresh score of %d. The fresh score is shown.",
			rep.Score.Drift.CachedScore, rep.Score.Drift.CachedAt.Format(time.DateOnly), rep.Score.Drift.FreshScore)
		m.blank()
	}
}

func memoMetricsSection(m *memoWriter, rep *schema.Report) {
	m.heading(2, "Key Numbers")
	rows := make([][]string, 0, len(memoMetrics))
	for _, mm := range memoMetrics {
		rows = append(rows, []string{mm.label, m.f.Opt(rep.Score.Metrics.Ptr(mm.key), missingValue)})
	}
	m.table([]string{"Metric", "Value"}, rows)
}

func memoRedFlags(m *memoWriter, rep *schema.Report) {
	m.heading(2, "Red Flags")
	if len(rep.RedFlags) == 0 && len(rep.Score.RedFlags) == 0 {
		m.line("No red flags were raised.")
		m.blank()
		return
	}
	if len(rep.Score.RedFlags) > 0 {
		m.line("Score flags: %s", strings.Join(rep.Score.RedFlags, ", "))
		m.blank()
	}
	for _, rf := range rep.RedFlags {
		m.heading(3, rf.Detail())
		m.bullets([]string{
			"What it means: " + rf.PlainEnglish,
			"Why it matters: " + rf.WhyItMatters,
			"What to check: " + rf.WhatToCheck,
		})
	}
}

func memoThesis(m *memoWriter, rep *schema.Report) {
	m.heading(2, "Thesis Checklist")
	th := rep.Thesis
	if th == nil {
		m.line("No thesis file was found for %s. Run `fundscore thesis new %s` to start one.", rep.Ticker, rep.Ticker)
		m.blank()
		return
	}
	m.line("**%s**", th.Name)
	m.blank()
	if th.Description != "" {
		m.line("%s", th.Description)
		m.blank()
	}
	rows := make([][]string, 0, len(th.Results))
	for _, c := range th.Results {
		rows = append(rows, []string{
			c.ID,
			cmp.Or(c.Statement, string(c.Metric)),
			fmt.Sprintf("%s %s %s", c.Metric, c.Operator, m.f.Opt(c.Threshold, missingValue)),
			m.f.Opt(c.Actual, missingValue),
			string(c.Status),
		})
	}
	m.table([]string{"ID", "Claim", "Rule", "Actual", "Status"}, rows)
	m.line("Passed %d, failed %d, unknown %d. Thesis support: %s (policy: %s).",
		th.Passed, th.Failed, th.Unknown, supportText(th.Support, m.f), th.Policy)
	m.blank()
}

func memoEvidence(m *memoWriter, rep *schema.Report) {
	m.heading(2, "Evidence")
	sides := []struct {
		title string
		items []schema.NewsItem
	}{{"Bull case", rep.Evidence.Bull}, {"Bear case", rep.Evidence.Bear}}
	for _, side := range sides {
		m.heading(3, side.title)
		if len(side.items) == 0 {
			m.line("No headlines available.")
			m.blank()
			continue
		}
		rows := make([][]string, 0, len(side.items))
		for _, it := range side.items {
			rows = append(rows, []string{
				it.PublishedAt.UTC().Format(time.DateOnly),
				it.Source,
				string(it.RiskTag),
				strconv.Itoa(it.ImpactScore),
				headlineLink(it.Title, it.URL),
			})
		}
		m.table([]string{"Date", "Source", "Tag", "Impact", "Headline"}, rows)
	}

	if len(rep.EvidenceRows) > 0 {
		m.heading(3, "Evidence Pack")
		rows := make([][]string, 0, len(rep.EvidenceRows))
		for _, r := range rep.EvidenceRows {
			rows = append(rows, []string{
				r.PublishedAt.Format(schema.EvidenceTimeFormat),
				r.Source,
				string(r.Tier),
				string(r.RiskTag),
				strconv.Itoa(r.ImpactScore),
				headlineLink(r.Title, r.URL),
			})
		}
		m.table([]string{"Published", "Source", "Tier", "Tag", "Impact", "Headline"}, rows)
	}
}

func memoNews(m *memoWriter, rep *schema.Report) {
	m.heading(2, "News Risk")
	m.line("Negative headlines: %d in 7 days, %d in 30 days. 7-day news shock: %d.", rep.News.Neg7d, rep.News.Neg30d, rep.News.Shock7d)
	m.blank()
	if len(rep.Dashboard) > 0 {
		rows := make([][]string, 0, len(rep.Dashboard))
		for _, r := range rep.Dashboard {
			rows = append(rows, []string{
				string(r.RiskTag),
				strconv.Itoa(r.NegCount30d), m.f.Float(r.Shock30d),
				strconv.Itoa(r.NegCount7d), m.f.Float(r.Shock7d),
				headlineLink(r.Worst7dTitle, r.Worst7dURL),
			})
		}
		m.table([]string{"Tag", "Neg 30d", "Shock 30d", "Neg 7d", "Shock 7d", "Worst 7d"}, rows)
	}
	h := rep.Hybrid
	confirmed := confirmedTagNames(h)
	m.bullets([]string{
		"Tactical alert: " + strconv.FormatBool(h.Tactical.TacticalAlert),
		"Confirmed by credible sources: " + cmp.Or(strings.Join(confirmed, ", "), "none"),
		fmt.Sprintf("Source diversity: %d (top source %s at %s)", h.SourceMix.SourceDiversity, cmp.Or(h.SourceMix.TopSource, missingValue), m.f.Pct(h.SourceMix.SourceShareTop)),
		"Escalate: " + strconv.FormatBool(h.HybridEscalate),
	})
}

func memoScenarios(m *memoWriter, rep *schema.Report) {
	sc := rep.Scenarios
	m.heading(2, fmt.Sprintf("Scenarios (%d years)", sc.ProjectionYears))
	if sc.Method != "" {
		m.line("%s", sc.Method)
		m.blank()
	}
	if len(sc.Cases) > 0 {
		rows := make([][]string, 0, len(sc.Cases))
		for _, c := range sc.Cases {
			growth, target := c.FCFGrowth, c.TargetFCFYield
			rows = append(rows, []string{
				c.Name,
				m.f.Pct(&growth),
				m.f.Pct(&target),
				m.f.Money(&c.ProjectedFCF),
				m.f.Money(c.ImpliedMarketCap),
				m.f.Opt(c.ImpliedUpsidePct, missingValue),
			})
		}
		m.table([]string{"Case", "FCF growth", "Target yield", "Projected FCF", "Implied market cap", "Upside %"}, rows)
	}
	if len(sc.Notes) > 0 {
		m.bullets(sc.Notes)
	}
}

func memoDCF(m *memoWriter, rep *schema.Report) {
	d := rep.DCF
	if d == nil {
		return
	}
	m.heading(2, "DCF Appendix")
	if d.Note != "" {
		m.line("%s", d.Note)
		m.blank()
	}
	m.line("Revenue (TTM): %s. FCF margin: %s. Net debt: %s. Projection: %d years.",
		m.f.Money(d.RevenueTTM), m.f.Pct(d.FCFMargin), m.f.Money(d.NetDebt), d.ProjectionYears)
	m.blank()
	if len(d.Scenarios) > 0 {
		rows := make([][]string, 0, len(d.Scenarios))
		for _, s := range d.Scenarios {
			cagr, wacc, g := s.RevCAGR, s.WACC, s.TerminalG
			rows = append(rows, []string{
				s.Name, m.f.Pct(&cagr), m.f.Pct(s.FCFMargin), m.f.Pct(&wacc), m.f.Pct(&g),
				m.f.Money(s.EV), m.f.Money(s.EquityValue),
			})
		}
		m.table([]string{"Scenario", "Revenue CAGR", "FCF margin", "WACC", "Terminal g", "EV", "Equity value"}, rows)
	}
	sens := d.Sensitivity
	if len(sens.EV) > 0 {
		headers := []string{"WACC \\ g"}
		for _, g := range sens.TerminalGGrid {
			headers = append(headers, m.f.Pct(&g))
		}
		rows := make([][]string, 0, len(sens.EV))
		for i, row := range sens.EV {
			cells := []string{m.f.Pct(&sens.WACCGrid[i])}
			for _, ev := range row {
				cells = append(cells, m.f.Money(ev))
			}
			rows = append(rows, cells)
		}
		m.table(headers, rows)
	}
}

func memoDataQuality(m *memoWriter, rep *schema.Report) {
	m.heading(2, "Data Quality")
	m.line("**Evidence confidence: %d/100**", rep.Confidence.Score)
	m.blank()
	if len(rep.Confidence.Reasons) > 0 {
		m.bullets(rep.Confidence.Reasons)
	}
	m.line("**Data completeness: %d/100**", rep.Completeness.Score)
	m.blank()
	if len(rep.Completeness.Missing) > 0 {
		m.bullets(rep.Completeness.Missing)
	}
}

func memoAlerts(m *memoWriter, rep *schema.Report) {
	m.heading(2, "Alerts")
	if len(rep.Alerts) == 0 {
		m.line("No thesis-breaker alerts were triggered.")
		m.blank()
		return
	}
	items := make([]string, len(rep.Alerts))
	for i, a := range rep.Alerts {
		items[i] = fmt.Sprintf("**[%s] %s**: %s", a.Severity, a.ID, a.Message)
	}
	m.bullets(items)
}
