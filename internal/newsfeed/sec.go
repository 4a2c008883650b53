package newsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/fundscore/schema"
)

const providerSEC = "sec"

// submissions is the part of the EDGAR submissions JSON we read.
// The recent filings are parallel arrays.
type submissions struct {
	Filings struct {
		Recent struct {
			Form            []string `json:"form"`
			FilingDate      []string `json:"filingDate"`
			AccessionNumber []string `json:"accessionNumber"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

// SubmissionsURL returns the EDGAR submissions URL for a 10-digit CIK.
func (f *Fetcher) SubmissionsURL(cik string) string {
	return fmt.Sprintf("%s/submissions/CIK%s.json", f.secBaseURL, cik)
}

// FilingURL links to the primary document of a filing.
func (f *Fetcher) FilingURL(cik, accession, doc string) (string, error) {
	n, err := strconv.ParseInt(cik, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid CIK %q: %w", cik, err)
	}
	return fmt.Sprintf("%s/%d/%s/%s", f.archiveBaseURL, n, strings.ReplaceAll(accession, "-", ""), doc), nil
}

// FetchSEC lists the recent filings of a company as headlines.
func (f *Fetcher) FetchSEC(ctx context.Context, ticker, cik string, since time.Time) ([]schema.NewsItem, error) {
	if f.userAgent == "" {
		return nil, ErrUserAgentRequired
	}
	body, err := f.get(ctx, f.SubmissionsURL(cik), "application/json")
	if err != nil {
		return nil, err
	}
	var sub submissions
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, fmt.Errorf("failed to decode submissions for %s: %w", ticker, err)
	}
	return f.filingItems(schema.NormalizeTicker(ticker), cik, sub, since), nil
}

func (f *Fetcher) filingItems(ticker, cik string, sub submissions, since time.Time) []schema.NewsItem {
	recent := sub.Filings.Recent
	n := min(len(recent.Form), len(recent.FilingDate), len(recent.AccessionNumber), len(recent.PrimaryDocument))

	var out []schema.NewsItem
	for i := range n {
		if len(out) >= maxSECItems {
			break
		}
		filed, err := time.Parse(time.DateOnly, recent.FilingDate[i])
		if err != nil || filed.Before(since) {
			continue
		}
		url, err := f.FilingURL(cik, recent.AccessionNumber[i], recent.PrimaryDocument[i])
		if err != nil {
			f.logger.Debug("skipping filing", "ticker", ticker, "error", err)
			continue
		}
		out = append(out, schema.NewsItem{
			Ticker:      ticker,
			PublishedAt: filed.UTC(),
			Source:      providerSEC,
			Title:       fmt.Sprintf("%s SEC filing: %s (%s)", ticker, recent.Form[i], recent.FilingDate[i]),
			URL:         url,
			Provider:    providerSEC,
		})
	}
	return out
}
