package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/schema"
)

// DefaultMemoEvidence is how many bull and bear items the memo lists.
const DefaultMemoEvidence = 5

// ReportBuilder assembles a decision report step by step.
type ReportBuilder struct {
	cfg    *contract.Config
	ds     *schema.Dataset
	thesis *schema.Thesis
	now    time.Time

	data   *TickerData
	table  schema.MetricTable
	report *schema.Report
	err    error
}

// NewReportBuilder is the starting point for building a report.
// A nil thesis produces a report without a thesis section.
func NewReportBuilder(cfg *contract.Config, ds *schema.Dataset, th *schema.Thesis) *ReportBuilder {
	return &ReportBuilder{
		cfg:    cfg,
		ds:     ds,
		thesis: th,
		now:    time.Now(),
		report: &schema.Report{ID: uuid.NewString()},
	}
}

// At pins the generation time, mostly for tests.
func (b *ReportBuilder) At(now time.Time) *ReportBuilder {
	b.now = now
	return b
}

// CollectInputs selects the ticker's rows and merges its metric table.
func (b *ReportBuilder) CollectInputs() *ReportBuilder {
	if b.err != nil {
		return b
	}
	d, err := Collect(b.ds, b.cfg.Ticker, b.cfg.Peers, b.cfg.AsOf)
	if err != nil {
		b.err = err
		return b
	}
	b.data = d
	b.table = BuildMetricTable(d, b.thesis)
	b.report.Ticker = d.Ticker
	b.report.GeneratedAt = b.now.UTC()
	return b
}

// CalculateScore runs the bucket scorer over the merged table.
func (b *ReportBuilder) CalculateScore() *ReportBuilder {
	if b.err != nil {
		return b
	}
	res := ScoreTable(b.table, b.cfg.RatingBands)
	res.Ticker = b.data.Ticker
	res.AsOf = b.cfg.AsOfDate()
	b.report.Score = res
	return b
}

// EvaluateClaims checks the thesis, when there is one.
func (b *ReportBuilder) EvaluateClaims() *ReportBuilder {
	if b.err != nil || b.thesis == nil {
		return b
	}
	tr := EvaluateThesis(*b.thesis, b.table, b.cfg.SupportPolicy)
	if tr.Ticker == "" {
		tr.Ticker = b.data.Ticker
	}
	b.report.Thesis = &tr
	return b
}

// CollectEvidence ranks bull and bear items and curates the evidence pack.
func (b *ReportBuilder) CollectEvidence() *ReportBuilder {
	if b.err != nil {
		return b
	}
	d := b.data
	bull, bear := RankEvidence(d.News, b.cfg.Tag, DefaultMemoEvidence)
	b.report.Evidence = schema.Evidence{Ticker: d.Ticker, Tag: b.cfg.Tag, Bull: bull, Bear: bear}

	rows := EvidenceTable(d.AllNews, d.Ticker, d.AsOf, b.cfg.NewsWindowDays, b.cfg.EvidenceMaxRows, d.Whitelist)
	b.report.EvidenceRows = CurateEvidence(rows, DefaultCurateLimit)
	b.report.News = d.Summary
	b.report.Dashboard = d.Dashboard
	b.report.Hybrid = HybridSignals(d.Ticker, d.News, d.Proxy, d.AsOf, DefaultMinConfirmations, DefaultCredibilityThreshold)
	return b
}

// CalculateDiagnostics adds red flags, valuation views, the decision card and alerts.
func (b *ReportBuilder) CalculateDiagnostics() *ReportBuilder {
	if b.err != nil {
		return b
	}
	d, r := b.data, b.report

	r.Completeness = DataCompleteness(d.Ticker, d.TableRows, d.Universe)
	r.Confidence = ComputeConfidence(d.Ticker, d.AllNews, d.Whitelist)
	r.RedFlags = ComputeRedFlags(d.Ticker, d.RedFlagInputs())
	r.Scenarios = BuildScenarios(d.Comps)
	r.DCF = BuildDCF(d.Comps, b.cfg.DCF)
	r.Card = BuildDecisionCard(r.Score, r.Completeness, r.Confidence, r.RedFlags)
	r.Alerts = BuildAlerts(d.Ticker, b.table, b.now).Alerts

	var shock7d *int
	if d.HasNews {
		shock7d = &d.Summary.Shock7d
	}
	r.Verdict = Verdict(r.Score, shock7d)
	return b
}

// Table returns the merged metric table once inputs are collected.
func (b *ReportBuilder) Table() schema.MetricTable {
	return b.table
}

// Data returns the per-ticker inputs once they are collected.
func (b *ReportBuilder) Data() *TickerData {
	return b.data
}

// Build finalizes the construction and returns the report.
func (b *ReportBuilder) Build() (*schema.Report, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.report, nil
}

// buildReport runs every builder step in order.
func buildReport(cfg *contract.Config, ds *schema.Dataset, th *schema.Thesis) (*schema.Report, error) {
	return NewReportBuilder(cfg, ds, th).
		CollectInputs().        // Selects rows and merges the metric table
		CalculateScore().       // Buckets, total and rating
		EvaluateClaims().       // Thesis checklist, if any
		CollectEvidence().      // Bull/bear lists and evidence pack
		CalculateDiagnostics(). // Red flags, scenarios, DCF, card and alerts
		Build()
}
