package schema

// Dataset is everything loaded from a data directory.
// Optional tables are nil when their file is absent.
type Dataset struct {
	Quarters  []Quarter
	Quotes    map[string]Quote
	Annual    []AnnualRow
	Comps     []CompsRow
	News      []NewsItem
	Proxy     []SentimentProxy
	Dashboard []RiskDashboardRow
	Whitelist Whitelist
	CIKs      map[string]string

	// TableRows counts the rows read per table name. A missing file has no entry.
	TableRows map[string]int

	// Warnings collects soft failures such as absent optional files.
	Warnings []string
}

// HasTicker reports whether any quarterly row belongs to ticker.
func (d *Dataset) HasTicker(ticker string) bool {
	ticker = NormalizeTicker(ticker)
	for _, q := range d.Quarters {
		if NormalizeTicker(q.Ticker) == ticker {
			return true
		}
	}
	return false
}

// Tickers lists the distinct tickers in the quarterly fundamentals, in first-seen order.
func (d *Dataset) Tickers() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, q := range d.Quarters {
		t := NormalizeTicker(q.Ticker)
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
