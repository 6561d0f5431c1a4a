// Package crawler walks the link graph breadth-first from a seed URL,
// filling the index and notifying viewers as pages arrive.
package crawler

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"linkrank/fetch"
	"linkrank/index"
	"linkrank/models"
	"linkrank/store"
)

// Notifier receives an index-change event for every successfully
// crawled URL.
type Notifier interface {
	Enqueue(url string, rec models.PageRecord)
}

// Crawler performs depth-bounded concurrent traversal. Each outbound
// link spawns its own branch; the semaphore caps how many fetches are
// in flight at once so a wide page cannot start an unbounded fetch storm.
type Crawler struct {
	index    *index.Index
	store    store.Store
	fetcher  fetch.Fetcher
	notifier Notifier
	visited  *VisitedSet
	sem      chan struct{}
}

func New(idx *index.Index, st store.Store, f fetch.Fetcher, n Notifier, maxInFlight int) *Crawler {
	if maxInFlight <= 0 {
		maxInFlight = 10
	}
	return &Crawler{
		index:    idx,
		store:    st,
		fetcher:  f,
		notifier: n,
		visited:  NewVisitedSet(),
		sem:      make(chan struct{}, maxInFlight),
	}
}

// Crawl fetches url, records it in the index, and follows its outbound
// links concurrently down to the given remaining depth. It returns when
// every branch below it has settled. Fetch failures are logged and
// abandoned without disturbing sibling branches.
func (c *Crawler) Crawl(ctx context.Context, pageURL string, depth int) {
	if depth <= 0 {
		return
	}
	if !c.visited.MarkVisited(pageURL) {
		return
	}
	if ctx.Err() != nil {
		return
	}

	result, err := c.fetchBounded(ctx, pageURL)
	if err != nil {
		log.Warn("fetch failed", "url", pageURL, "err", err)
		return
	}

	title := result.Title
	if title == "" {
		title = "No title"
	}

	rec := models.PageRecord{
		URL:   pageURL,
		Title: title,
		Links: result.Links,
		Rank:  0,
	}
	c.index.Put(pageURL, rec)

	if err := c.store.Save(c.index.Snapshot()); err != nil {
		log.Error("persist index failed", "url", pageURL, "err", err)
	}

	if c.notifier != nil {
		c.notifier.Enqueue(pageURL, rec.Clone())
	}

	var wg sync.WaitGroup
	for _, link := range distinct(result.Links) {
		wg.Add(1)
		go func(link string) {
			defer wg.Done()
			c.Crawl(ctx, link, depth-1)
		}(link)
	}
	wg.Wait()
}

// Visited exposes the dispatch set, mainly for the stats endpoint.
func (c *Crawler) Visited() *VisitedSet {
	return c.visited
}

func (c *Crawler) fetchBounded(ctx context.Context, pageURL string) (*fetch.Result, error) {
	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-c.sem }()

	return c.fetcher.Fetch(ctx, pageURL)
}

func distinct(links []string) []string {
	seen := make(map[string]bool, len(links))
	var out []string
	for _, l := range links {
		if seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
