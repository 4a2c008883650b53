package newsfeed

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/schema"
	"github.com/mmcdole/gofeed"
)

const providerRSS = "rss"

// Feed is an RSS or Atom feed whose items are attributed to one ticker.
type Feed struct {
	Ticker string
	URL    string
	Source string
}

// ParseFeeds reads TICKER=URL entries. The source name defaults to the
// feed's registrable domain label, e.g. "reuters" for feeds.reuters.com.
func ParseFeeds(specs []string) ([]Feed, error) {
	feeds := make([]Feed, 0, len(specs))
	for _, spec := range specs {
		ticker, url, ok := strings.Cut(spec, "=")
		ticker = schema.NormalizeTicker(ticker)
		url = strings.TrimSpace(url)
		if !ok || ticker == "" || !strings.HasPrefix(url, "http") {
			return nil, fmt.Errorf("invalid feed %q, expected TICKER=https://...", spec)
		}
		feeds = append(feeds, Feed{Ticker: ticker, URL: url, Source: sourceFromURL(url)})
	}
	return feeds, nil
}

func sourceFromURL(url string) string {
	domain := schema.ExtractDomain(url)
	labels := strings.Split(domain, ".")
	if len(labels) >= 2 {
		return labels[len(labels)-2]
	}
	if domain != "" {
		return domain
	}
	return providerRSS
}

// FetchRSS downloads a feed and returns its items published at or after since.
func (f *Fetcher) FetchRSS(ctx context.Context, feed Feed, since time.Time) ([]schema.NewsItem, error) {
	body, err := f.get(ctx, feed.URL, "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")
	if err != nil {
		return nil, err
	}
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", feed.URL, err)
	}
	return feedItems(feed, parsed, since), nil
}

// feedItems converts parsed entries, skipping undated and stale ones.
func feedItems(feed Feed, parsed *gofeed.Feed, since time.Time) []schema.NewsItem {
	out := make([]schema.NewsItem, 0, min(len(parsed.Items), maxFeedItems))
	for _, it := range parsed.Items {
		if len(out) >= maxFeedItems {
			break
		}
		published := it.PublishedParsed
		if published == nil {
			published = it.UpdatedParsed
		}
		title := strings.TrimSpace(it.Title)
		if published == nil || title == "" || published.Before(since) {
			continue
		}
		out = append(out, schema.NewsItem{
			Ticker:      feed.Ticker,
			PublishedAt: published.UTC(),
			Source:      feed.Source,
			Title:       title,
			URL:         strings.TrimSpace(it.Link),
			Summary:     summarize(it.Description, feed.URL),
			Provider:    providerRSS,
		})
	}
	return out
}

// summarize turns an HTML description into a single line of markdown.
func summarize(html, baseURL string) string {
	html = strings.TrimSpace(html)
	if html == "" {
		return ""
	}
	text, err := md.NewConverter(schema.ExtractDomain(baseURL), true, nil).ConvertString(html)
	if err != nil {
		text = html
	}
	return contract.TruncateText(strings.Join(strings.Fields(text), " "), maxSummaryText)
}
