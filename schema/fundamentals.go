package schema

import "time"

// Quarter is one quarterly fundamentals row. Every amount is nullable.
type Quarter struct {
	Ticker             string    `json:"ticker"`
	PeriodEnd          time.Time `json:"period_end"`
	Revenue            *float64  `json:"revenue"`
	OperatingCashFlow  *float64  `json:"operating_cash_flow"`
	CapitalExpenditure *float64  `json:"capital_expenditure"`
	Cash               *float64  `json:"cash"`
	Debt               *float64  `json:"debt"`
}

// TTMRow is a quarter extended with trailing twelve month figures.
type TTMRow struct {
	Quarter
	FreeCashFlow     *float64 `json:"free_cash_flow"`
	RevenueTTM       *float64 `json:"revenue_ttm"`
	FCFTTM           *float64 `json:"fcf_ttm"`
	FCFMarginTTMPct  *float64 `json:"fcf_margin_ttm_pct"`
	RevenueTTMYoYPct *float64 `json:"revenue_ttm_yoy_pct"`
	FCFTTMYoYPct     *float64 `json:"fcf_ttm_yoy_pct"`
}

// AnnualRow is one fiscal-year fundamentals row with its derived ratios.
type AnnualRow struct {
	Ticker             string    `json:"ticker"`
	PeriodEnd          time.Time `json:"period_end"`
	Revenue            *float64  `json:"revenue"`
	OperatingCashFlow  *float64  `json:"operating_cash_flow"`
	CapitalExpenditure *float64  `json:"capital_expenditure"`
	FreeCashFlow       *float64  `json:"free_cash_flow"`
	FCFMarginPct       *float64  `json:"fcf_margin_pct"`
	RevenueYoYPct      *float64  `json:"revenue_yoy_pct"`
}

// Quote is the latest price and market cap for a ticker.
type Quote struct {
	Ticker    string   `json:"ticker"`
	Price     *float64 `json:"price"`
	MarketCap *float64 `json:"market_cap"`
}

// CompsRow is the peer comparison snapshot for one ticker.
type CompsRow struct {
	Ticker           string    `json:"ticker"`
	Price            *float64  `json:"price"`
	MarketCap        *float64  `json:"market_cap"`
	PeriodEnd        time.Time `json:"period_end"`
	RevenueTTM       *float64  `json:"revenue_ttm"`
	FCFTTM           *float64  `json:"fcf_ttm"`
	FCFMarginTTMPct  *float64  `json:"fcf_margin_ttm_pct"`
	RevenueTTMYoYPct *float64  `json:"revenue_ttm_yoy_pct"`
	FCFTTMYoYPct     *float64  `json:"fcf_ttm_yoy_pct"`
	Cash             *float64  `json:"cash"`
	Debt             *float64  `json:"debt"`
	NetDebt          *float64  `json:"net_debt"`
	FCFYield         *float64  `json:"fcf_yield"`
	NetDebtToFCF     *float64  `json:"net_debt_to_fcf"`
}

// FCFYieldPct is the yield as a percentage, nil when unknown.
func (c CompsRow) FCFYieldPct() *float64 {
	if c.FCFYield == nil {
		return nil
	}
	return FloatPtr(*c.FCFYield * 100)
}

// Metrics converts the row to metric table entries.
func (c CompsRow) Metrics() MetricTable {
	t := NewMetricTable()
	t.Set(KeyPrice, c.Price)
	t.Set(KeyMarketCap, c.MarketCap)
	t.Set(KeyRevenueTTM, c.RevenueTTM)
	t.Set(KeyFCFTTM, c.FCFTTM)
	t.Set(KeyFCFMarginTTMPct, c.FCFMarginTTMPct)
	t.Set(KeyRevenueTTMYoYPct, c.RevenueTTMYoYPct)
	t.Set(KeyFCFTTMYoYPct, c.FCFTTMYoYPct)
	t.Set(KeyCash, c.Cash)
	t.Set(KeyDebt, c.Debt)
	t.Set(KeyNetDebt, c.NetDebt)
	t.Set(KeyFCFYieldPct, c.FCFYieldPct())
	t.Set(KeyNetDebtToFCF, c.NetDebtToFCF)
	return t
}

// WhitelistEntry maps a news domain to a source tier.
type WhitelistEntry struct {
	Domain string     `json:"domain"`
	Tier   SourceTier `json:"tier"`
}

// Whitelist maps lowercase domains to tiers.
type Whitelist map[string]SourceTier
