package core

import (
	"github.com/huangsam/fundscore/schema"
)

// compare applies op to actual and threshold. ok is false for an unknown operator.
func compare(op schema.Operator, actual, threshold float64) (result, ok bool) {
	switch op {
	case schema.OpGT:
		return actual > threshold, true
	case schema.OpGE:
		return actual >= threshold, true
	case schema.OpLT:
		return actual < threshold, true
	case schema.OpLE:
		return actual <= threshold, true
	case schema.OpEQ:
		return actual == threshold, true
	default:
		return false, false
	}
}

// EvaluateClaim checks one claim against the metric table.
// A missing metric, missing threshold or unknown operator yields UNKNOWN, never FAIL.
func EvaluateClaim(c schema.Claim, t schema.MetricTable) schema.ClaimResult {
	res := schema.ClaimResult{Claim: c, Status: schema.StatusUnknown}
	actual, ok := t.Get(c.Metric)
	if !ok {
		return res
	}
	res.Actual = &actual
	if c.Threshold == nil {
		return res
	}
	passed, known := compare(c.Operator, actual, *c.Threshold)
	switch {
	case !known:
		res.Status = schema.StatusUnknown
	case passed:
		res.Status = schema.StatusPass
	default:
		res.Status = schema.StatusFail
	}
	return res
}

// supportPct returns pass/denominator as a percentage rounded to one decimal.
func supportPct(pass, denom float64) *float64 {
	if denom <= 0 {
		return nil
	}
	v := schema.Round(pass/denom*100, 1)
	return &v
}

// EvaluateThesis evaluates every claim and computes weighted support.
// "decided" leaves UNKNOWN claims out of the denominator; "all" keeps them in.
func EvaluateThesis(th schema.Thesis, t schema.MetricTable, policy schema.SupportPolicy) schema.ThesisResult {
	out := schema.ThesisResult{
		Name:        th.Name,
		Ticker:      th.Ticker,
		Description: th.Description,
		Results:     make([]schema.ClaimResult, 0, len(th.Claims)),
		Policy:      policy,
	}

	var passW, failW, unknownW float64
	for _, c := range th.Claims {
		r := EvaluateClaim(c, t)
		out.Results = append(out.Results, r)
		w := c.EffectiveWeight()
		switch r.Status {
		case schema.StatusPass:
			out.Passed++
			passW += w
		case schema.StatusFail:
			out.Failed++
			failW += w
		default:
			out.Unknown++
			unknownW += w
		}
	}

	out.SupportDecided = supportPct(passW, passW+failW)
	out.SupportAll = supportPct(passW, passW+failW+unknownW)
	if policy == schema.SupportAll {
		out.Support = out.SupportAll
	} else {
		out.Policy = schema.SupportDecided
		out.Support = out.SupportDecided
	}
	return out
}
