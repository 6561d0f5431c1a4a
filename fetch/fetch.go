// Package fetch retrieves a page and extracts its title and outbound
// links. The crawler only depends on the Fetcher interface, so tests
// swap in canned pages.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"linkrank/utils"
)

// Result is the extracted content of one page.
type Result struct {
	Title string
	Links []string
}

// Fetcher is implemented by anything that can turn a URL into a title
// and a list of outbound links.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*Result, error)
}

// HTTPFetcher fetches pages over HTTP and parses them with goquery.
type HTTPFetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

func NewHTTPFetcher(userAgent string, timeout time.Duration, ratePerSec int) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter:   rate.NewLimiter(rate.Limit(ratePerSec), 2*ratePerSec),
		userAgent: userAgent,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (*Result, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, pageURL)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTMLContent(contentType) {
		return nil, fmt.Errorf("not an HTML document (%s)", contentType)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return &Result{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Links: extractLinks(doc, pageURL),
	}, nil
}

// extractLinks returns every crawlable href on the page, resolved to an
// absolute URL, in discovery order. Duplicates are kept.
func extractLinks(doc *goquery.Document, baseURL string) []string {
	var links []string

	doc.Find("a[href]").Each(func(i int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists {
			return
		}

		absoluteURL := makeAbsoluteURL(baseURL, href)
		if absoluteURL == "" || !utils.IsValidURL(absoluteURL) {
			return
		}

		links = append(links, utils.NormalizeURL(absoluteURL))
	})

	return links
}

func makeAbsoluteURL(baseURL, href string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}

	link, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(link)

	// Skip anchor-only links on the same page
	if resolved.Fragment != "" && resolved.RawQuery == "" && resolved.Path == base.Path {
		return ""
	}

	return resolved.String()
}

func isHTMLContent(contentType string) bool {
	relevantTypes := []string{
		"text/html",
		"application/xhtml+xml",
	}

	for _, relevantType := range relevantTypes {
		if strings.Contains(contentType, relevantType) {
			return true
		}
	}
	return false
}
