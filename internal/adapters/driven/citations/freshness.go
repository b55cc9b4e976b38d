package citations

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const maxPageBytes = 2 << 20

// Selectors for publication dates, most specific first
var dateSelectors = []struct {
	selector string
	attr     string
}{
	{`meta[property="article:modified_time"]`, "content"},
	{`meta[property="og:updated_time"]`, "content"},
	{`meta[property="article:published_time"]`, "content"},
	{`meta[itemprop="dateModified"]`, "content"},
	{`meta[itemprop="datePublished"]`, "content"},
	{`meta[name="date"]`, "content"},
	{`meta[name="last-modified"]`, "content"},
	{`time[datetime]`, "datetime"},
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123,
	time.RFC1123Z,
}

// PageDater fetches a page and reads its publication date from HTML metadata
type PageDater struct {
	client    *http.Client
	userAgent string
}

// NewPageDater creates a dater. A nil client gets a 10s timeout client.
func NewPageDater(client *http.Client) *PageDater {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &PageDater{client: client, userAgent: "acme-insight/1.0 (+citation freshness)"}
}

// Published returns the page's most recent modification or publication
// date. ok is false when the page carries no recognisable date.
func (d *PageDater) Published(ctx context.Context, url string) (t time.Time, ok bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := d.client.Do(req)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return time.Time{}, false, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse %s: %w", url, err)
	}

	for _, ds := range dateSelectors {
		v, found := doc.Find(ds.selector).First().Attr(ds.attr)
		if !found {
			continue
		}
		if t, ok := parseDate(v); ok {
			return t, true, nil
		}
	}

	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, false, nil
}

func parseDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DaysSince counts whole days between t and now, never negative
func DaysSince(t, now time.Time) int {
	if t.After(now) {
		return 0
	}
	return int(now.Sub(t) / (24 * time.Hour))
}
