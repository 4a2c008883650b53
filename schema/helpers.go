package schema

import (
	"fmt"
	"math"
	"net/url"
	"strings"
)

// NotAvailable is how missing values are rendered.
const NotAvailable = "n/a"

// NormalizeTicker uppercases and trims a ticker symbol.
func NormalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

// ExtractDomain returns the lowercase host of an http(s) URL without a leading "www.".
func ExtractDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "http") {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// FormatMoney renders an amount with a B/M/K suffix, e.g. "$11.07B".
func FormatMoney(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	x := *v
	sign := ""
	if x < 0 {
		sign = "-"
		x = -x
	}
	switch {
	case x >= 1e12:
		return fmt.Sprintf("%s$%.2fT", sign, x/1e12)
	case x >= 1e9:
		return fmt.Sprintf("%s$%.2fB", sign, x/1e9)
	case x >= 1e6:
		return fmt.Sprintf("%s$%.2fM", sign, x/1e6)
	case x >= 1e3:
		return fmt.Sprintf("%s$%.2fK", sign, x/1e3)
	default:
		return fmt.Sprintf("%s$%.2f", sign, x)
	}
}

// FormatPct renders a percentage with the given precision, e.g. "14.2%".
func FormatPct(v *float64, precision int) string {
	if v == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.*f%%", precision, *v)
}

// FormatNumber renders a plain number with the given precision.
func FormatNumber(v *float64, precision int) string {
	if v == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.*f", precision, *v)
}

// Round rounds v to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
