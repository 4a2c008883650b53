package schema

import "time"

// RedFlag is a structured warning with beginner-friendly explanations.
type RedFlag struct {
	Code         string             `json:"code"`
	Severity     Severity           `json:"severity"`
	Title        string             `json:"title"`
	PlainEnglish string             `json:"plain_english"`
	WhyItMatters string             `json:"why_it_matters"`
	WhatToCheck  string             `json:"what_to_check"`
	Values       map[string]float64 `json:"values,omitempty"`
}

// Detail is the one-line form used in lists.
func (r RedFlag) Detail() string {
	return "[" + string(r.Severity) + "] " + r.Title
}

// ScenarioCase is the assumption and outcome of one scenario.
type ScenarioCase struct {
	Name             string   `json:"name"`
	FCFGrowth        float64  `json:"fcf_growth"`
	TargetFCFYield   float64  `json:"target_fcf_yield"`
	ProjectedFCF     float64  `json:"projected_fcf"`
	ImpliedMarketCap *float64 `json:"implied_market_cap"`
	ImpliedUpsidePct *float64 `json:"implied_upside_pct"`
}

// Scenarios is the simple three-year range model.
type Scenarios struct {
	Method          string         `json:"method"`
	ProjectionYears int            `json:"projection_years"`
	FCFTTM          *float64       `json:"fcf_ttm"`
	MarketCap       *float64       `json:"market_cap"`
	CurrentYield    *float64       `json:"current_fcf_yield"`
	Cases           []ScenarioCase `json:"cases"`
	Notes           []string       `json:"notes"`
}

// DCFAssumption is one DCF scenario input.
type DCFAssumption struct {
	Name      string   `json:"name" yaml:"name" mapstructure:"name"`
	RevCAGR   float64  `json:"rev_cagr" yaml:"rev_cagr" mapstructure:"rev-cagr"`
	FCFMargin *float64 `json:"fcf_margin,omitempty" yaml:"fcf_margin,omitempty" mapstructure:"fcf-margin"`
	WACC      float64  `json:"wacc" yaml:"wacc" mapstructure:"wacc"`
	TerminalG float64  `json:"terminal_g" yaml:"terminal_g" mapstructure:"terminal-g"`
}

// DCFConfig holds the DCF projection settings.
type DCFConfig struct {
	ProjectionYears int             `json:"projection_years" yaml:"projection_years" mapstructure:"projection-years"`
	WACCGrid        []float64       `json:"wacc_grid" yaml:"wacc_grid" mapstructure:"wacc-grid"`
	TerminalGGrid   []float64       `json:"terminal_g_grid" yaml:"terminal_g_grid" mapstructure:"terminal-g-grid"`
	Scenarios       []DCFAssumption `json:"scenarios" yaml:"scenarios" mapstructure:"scenarios"`
}

// DefaultDCFConfig is five years with bear, base and bull cases.
func DefaultDCFConfig() DCFConfig {
	return DCFConfig{
		ProjectionYears: 5,
		WACCGrid:        []float64{0.085, 0.095, 0.105},
		TerminalGGrid:   []float64{0.02, 0.025, 0.03},
		Scenarios: []DCFAssumption{
			{Name: "bear", RevCAGR: 0.05, WACC: 0.105, TerminalG: 0.02},
			{Name: "base", RevCAGR: 0.10, WACC: 0.095, TerminalG: 0.025},
			{Name: "bull", RevCAGR: 0.15, WACC: 0.085, TerminalG: 0.03},
		},
	}
}

// DCFResult is the discounted value of one scenario. TV and EV are nil when WACC <= g.
type DCFResult struct {
	DCFAssumption
	PVCashFlows   float64  `json:"pv_cf"`
	TerminalValue *float64 `json:"tv"`
	PVTerminal    *float64 `json:"pv_tv"`
	EV            *float64 `json:"ev"`
	EquityValue   *float64 `json:"equity_value"`
}

// DCFSensitivity is the EV grid over WACC and terminal growth.
type DCFSensitivity struct {
	WACCGrid      []float64    `json:"wacc_grid"`
	TerminalGGrid []float64    `json:"terminal_g_grid"`
	EV            [][]*float64 `json:"ev"`
}

// DCFAppendix is the full DCF view of a ticker.
type DCFAppendix struct {
	RevenueTTM      *float64       `json:"revenue_ttm"`
	FCFMargin       *float64       `json:"fcf_margin"`
	NetDebt         *float64       `json:"net_debt"`
	MarketCap       *float64       `json:"market_cap"`
	ProjectionYears int            `json:"projection_years"`
	Scenarios       []DCFResult    `json:"scenarios"`
	Sensitivity     DCFSensitivity `json:"sensitivity"`
	Note            string         `json:"note,omitempty"`
}

// DecisionCard is the one-glance summary with bucket lights.
type DecisionCard struct {
	Ticker       string           `json:"ticker"`
	AsOf         string           `json:"as_of"`
	Score        int              `json:"score"`
	Rating       Rating           `json:"rating"`
	Lights       map[string]Light `json:"lights"`
	Completeness int              `json:"data_completeness_score"`
	Confidence   int              `json:"confidence_score"`
	RedFlags     []string         `json:"red_flags"`
}

// Alert is a thesis-breaker red line.
type Alert struct {
	ID       string   `json:"id"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// AlertReport is the alerts output for one ticker.
type AlertReport struct {
	Ticker      string              `json:"ticker"`
	GeneratedAt time.Time           `json:"generated_utc"`
	Inputs      map[string]*float64 `json:"inputs"`
	Alerts      []Alert             `json:"alerts"`
}

// Confidence measures how easy the evidence is to verify.
type Confidence struct {
	Score              int            `json:"score"`
	Reasons            []string       `json:"reasons"`
	TotalRows          int            `json:"total_rows"`
	SourceCounts       map[string]int `json:"source_counts"`
	URLRatio           float64        `json:"url_ratio"`
	WhitelistLoaded    bool           `json:"whitelist_loaded"`
	TopTierRatio       float64        `json:"top_tier_ratio"`
	SECRows            int            `json:"sec_rows"`
	LargestSource      string         `json:"largest_source,omitempty"`
	LargestSourceShare float64        `json:"largest_source_share"`
}

// Completeness is the share of expected inputs that were present.
type Completeness struct {
	Score   int      `json:"score"`
	Missing []string `json:"missing"`
}

// Report aggregates everything a decision memo renders.
type Report struct {
	ID           string             `json:"id"`
	Ticker       string             `json:"ticker"`
	GeneratedAt  time.Time          `json:"generated_at"`
	Score        ScoreResult        `json:"score"`
	Verdict      string             `json:"verdict"`
	Card         DecisionCard       `json:"decision_card"`
	RedFlags     []RedFlag          `json:"red_flags"`
	Thesis       *ThesisResult      `json:"thesis,omitempty"`
	Evidence     Evidence           `json:"evidence"`
	EvidenceRows []EvidenceRow      `json:"evidence_rows"`
	Dashboard    []RiskDashboardRow `json:"risk_dashboard"`
	News         NewsSummary        `json:"news_summary"`
	Hybrid       HybridSignal       `json:"hybrid_signals"`
	Scenarios    Scenarios          `json:"scenarios"`
	DCF          *DCFAppendix       `json:"dcf,omitempty"`
	Confidence   Confidence         `json:"confidence"`
	Completeness Completeness       `json:"completeness"`
	Alerts       []Alert            `json:"alerts"`
}
