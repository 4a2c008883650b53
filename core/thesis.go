package core

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/huangsam/fundscore/schema"
)

const (
	maxNameText   = 70
	truncNameText = 67
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateThesis checks claim fields and reports unknown metric keys as warnings.
func ValidateThesis(th schema.Thesis) (warnings []string, err error) {
	if err := validate.Struct(th); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed '%s'", fe.Namespace(), fe.Tag()))
			}
			return nil, fmt.Errorf("invalid thesis: %s", strings.Join(msgs, "; "))
		}
		return nil, fmt.Errorf("invalid thesis: %w", err)
	}
	seen := make(map[string]struct{}, len(th.Claims))
	for _, c := range th.Claims {
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("invalid thesis: duplicate claim id %q", c.ID)
		}
		seen[c.ID] = struct{}{}
		if !schema.IsKnownMetricKey(c.Metric) {
			warnings = append(warnings, fmt.Sprintf("claim %q references unknown metric %q", c.ID, c.Metric))
		}
	}
	return warnings, nil
}

// thesisName builds "TICKER: text", shortening long text.
func thesisName(ticker, text string) string {
	short := strings.TrimSpace(text)
	if short == "" {
		return ticker + ": Thesis"
	}
	if r := []rune(short); len(r) > maxNameText {
		short = strings.TrimRight(string(r[:truncNameText]), " ") + "..."
	}
	return ticker + ": " + short
}

func starterClaims() []schema.Claim {
	return []schema.Claim{
		{ID: "rev_growth", Statement: "Revenue is still growing at a healthy pace", Metric: schema.KeyLatestRevenueYoY, Operator: schema.OpGE, Threshold: schema.FloatPtr(10), Weight: 2},
		{ID: "fcf_positive", Statement: "Free cash flow is positive", Metric: schema.KeyLatestFreeCashFlow, Operator: schema.OpGT, Threshold: schema.FloatPtr(0), Weight: 3},
		{ID: "fcf_margin", Statement: "Free cash flow margin is solid", Metric: schema.KeyLatestFCFMarginPct, Operator: schema.OpGE, Threshold: schema.FloatPtr(10), Weight: 2},
		{ID: "valuation_fcf_yield", Statement: "Valuation is not expensive versus cash (FCF yield is decent)", Metric: schema.KeyFCFYieldPct, Operator: schema.OpGE, Threshold: schema.FloatPtr(3), Weight: 2},
		{ID: "news_shock_ok", Statement: "Recent news shock is not severe (not a headline crisis)", Metric: schema.KeyNewsShock30d, Operator: schema.OpGE, Threshold: schema.FloatPtr(-15), Weight: 1},
		{ID: "insurance_not_spiking", Statement: "Insurance risk is not spiking recently", Metric: schema.RiskNegKey(schema.TagInsurance), Operator: schema.OpLE, Threshold: schema.FloatPtr(3), Weight: 1},
		{ID: "regulatory_not_spiking", Statement: "Regulatory risk is not spiking recently", Metric: schema.RiskNegKey(schema.TagRegulatory), Operator: schema.OpLE, Threshold: schema.FloatPtr(3), Weight: 1},
		{ID: "labor_not_spiking", Statement: "Labor risk is not spiking recently", Metric: schema.RiskNegKey(schema.TagLabor), Operator: schema.OpLE, Threshold: schema.FloatPtr(3), Weight: 1},
	}
}

// StarterThesis returns the eight-claim thesis written by "thesis new".
func StarterThesis(ticker, text string) schema.Thesis {
	ticker = schema.NormalizeTicker(ticker)
	return schema.Thesis{
		Name:        thesisName(ticker, text),
		Ticker:      ticker,
		Description: strings.TrimSpace(text),
		Claims:      starterClaims(),
	}
}

// keywordClaim adds a claim when any trigger word appears in the thesis text.
type keywordClaim struct {
	triggers []string
	claim    schema.Claim
}

var keywordClaims = []keywordClaim{
	{
		triggers: []string{"ev", "electric", "battery", "gigafactory", "charging"},
		claim:    schema.Claim{ID: "ev_story_not_headline_crisis", Statement: "EV narrative is not dominated by negative headlines recently", Metric: schema.RiskNegKey(schema.TagRegulatory), Operator: schema.OpLE, Threshold: schema.FloatPtr(10), Weight: 1},
	},
	{
		triggers: []string{"regulation", "antitrust", "sec", "doj", "ftc"},
		claim:    schema.Claim{ID: "reg_not_spiking", Statement: "Regulatory negatives are not spiking recently", Metric: schema.RiskNegKey(schema.TagRegulatory), Operator: schema.OpLE, Threshold: schema.FloatPtr(5), Weight: 2},
	},
	{
		triggers: []string{"labor", "union", "strike", "wage"},
		claim:    schema.Claim{ID: "labor_not_spiking", Statement: "Labor risk is not spiking recently", Metric: schema.RiskNegKey(schema.TagLabor), Operator: schema.OpLE, Threshold: schema.FloatPtr(5), Weight: 2},
	},
	{
		triggers: []string{"insurance", "claims", "accident", "safety"},
		claim:    schema.Claim{ID: "insurance_not_spiking", Statement: "Insurance risk is not spiking recently", Metric: schema.RiskNegKey(schema.TagInsurance), Operator: schema.OpLE, Threshold: schema.FloatPtr(5), Weight: 2},
	},
}

func compileBaseClaims() []schema.Claim {
	return []schema.Claim{
		{ID: "rev_growth", Statement: "Revenue is still growing at a healthy pace", Metric: schema.KeyLatestRevenueYoY, Operator: schema.OpGE, Threshold: schema.FloatPtr(5), Weight: 2},
		{ID: "fcf_positive", Statement: "Free cash flow is positive", Metric: schema.KeyLatestFreeCashFlow, Operator: schema.OpGT, Threshold: schema.FloatPtr(0), Weight: 3},
		{ID: "fcf_margin_ok", Statement: "Free cash flow margin is solid", Metric: schema.KeyLatestFCFMarginPct, Operator: schema.OpGE, Threshold: schema.FloatPtr(5), Weight: 2},
		{ID: "valuation_ok", Statement: "Valuation is not expensive versus cash (FCF yield is decent)", Metric: schema.KeyFCFYieldPct, Operator: schema.OpGE, Threshold: schema.FloatPtr(2), Weight: 2},
		{ID: "news_not_crisis", Statement: "Recent news shock is not severe (not a headline crisis)", Metric: schema.KeyNewsShock30d, Operator: schema.OpGE, Threshold: schema.FloatPtr(-20), Weight: 1},
	}
}

// CompileThesis turns free text into a thesis: base health claims plus
// keyword-triggered risk claims. Triggers match whole words.
func CompileThesis(ticker, text string) schema.Thesis {
	ticker = schema.NormalizeTicker(ticker)
	text = strings.Join(strings.Fields(text), " ")
	words := strings.Fields(NormalizeTitle(text))

	claims := compileBaseClaims()
	for _, kc := range keywordClaims {
		if slices.ContainsFunc(kc.triggers, func(w string) bool { return slices.Contains(words, w) }) {
			claims = append(claims, kc.claim)
		}
	}

	seen := make(map[string]struct{}, len(claims))
	deduped := claims[:0]
	for _, c := range claims {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		deduped = append(deduped, c)
	}

	return schema.Thesis{
		Name:        thesisName(ticker, text),
		Ticker:      ticker,
		Description: text,
		Claims:      deduped,
	}
}
