package schema

// Claim is one measurable statement in a thesis.
type Claim struct {
	ID        string    `json:"id" yaml:"id" toml:"id" validate:"required"`
	Statement string    `json:"statement,omitempty" yaml:"statement,omitempty" toml:"statement,omitempty"`
	Metric    MetricKey `json:"metric" yaml:"metric" toml:"metric" validate:"required"`
	Operator  Operator  `json:"operator" yaml:"operator" toml:"operator" validate:"required,oneof=> >= < <= =="`
	Threshold *float64  `json:"threshold" yaml:"threshold" toml:"threshold"`
	Weight    float64   `json:"weight,omitempty" yaml:"weight,omitempty" toml:"weight,omitempty" validate:"gte=0"`
	Rationale string    `json:"rationale,omitempty" yaml:"rationale,omitempty" toml:"rationale,omitempty"`
}

// EffectiveWeight is the claim weight, defaulting to 1 when unset.
func (c Claim) EffectiveWeight() float64 {
	if c.Weight <= 0 {
		return 1
	}
	return c.Weight
}

// Thesis is a named list of claims about one ticker.
type Thesis struct {
	Name        string  `json:"name" yaml:"name" toml:"name"`
	Ticker      string  `json:"ticker" yaml:"ticker" toml:"ticker"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Claims      []Claim `json:"claims" yaml:"claims" toml:"claims" validate:"dive"`

	// Metrics are extra values merged last into the metric table, such as bear_price.
	Metrics map[MetricKey]float64 `json:"metrics,omitempty" yaml:"metrics,omitempty" toml:"metrics,omitempty"`
}

// ClaimResult is a claim plus its evaluated status.
type ClaimResult struct {
	Claim
	Status ClaimStatus `json:"status"`
	Actual *float64    `json:"actual"`
}

// ThesisResult summarizes a thesis evaluation.
type ThesisResult struct {
	Name           string        `json:"name"`
	Ticker         string        `json:"ticker"`
	Description    string        `json:"description,omitempty"`
	Results        []ClaimResult `json:"results"`
	Passed         int           `json:"passed"`
	Failed         int           `json:"failed"`
	Unknown        int           `json:"unknown"`
	SupportDecided *float64      `json:"support_decided_pct"`
	SupportAll     *float64      `json:"support_all_pct"`
	Policy         SupportPolicy `json:"policy"`
	Support        *float64      `json:"support_pct"`
}
