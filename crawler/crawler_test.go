package crawler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"linkrank/fetch"
	"linkrank/index"
	"linkrank/models"
)

// fakeFetcher returns canned pages keyed by URL and records fetch counts.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]*fetch.Result
	calls map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: make(map[string]*fetch.Result),
		calls: make(map[string]int),
	}
}

func (f *fakeFetcher) add(url, title string, links ...string) {
	f.pages[url] = &fetch.Result{Title: title, Links: links}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*fetch.Result, error) {
	f.mu.Lock()
	f.calls[url]++
	f.mu.Unlock()

	page, ok := f.pages[url]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return page, nil
}

func (f *fakeFetcher) fetchCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

// fakeStore counts saves and can be made to fail.
type fakeStore struct {
	mu    sync.Mutex
	saves int
	fail  bool
}

func (s *fakeStore) Load() (map[string]models.PageRecord, error) {
	return make(map[string]models.PageRecord), nil
}

func (s *fakeStore) Save(map[string]models.PageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.fail {
		return errors.New("disk full")
	}
	return nil
}

func (s *fakeStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// fakeNotifier records enqueued events in order.
type fakeNotifier struct {
	mu     sync.Mutex
	events []models.DeliveryEvent
}

func (n *fakeNotifier) Enqueue(url string, rec models.PageRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, models.DeliveryEvent{URL: url, Data: &rec})
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

func newTestCrawler(f fetch.Fetcher) (*Crawler, *index.Index, *fakeStore, *fakeNotifier) {
	idx := index.New()
	st := &fakeStore{}
	notifier := &fakeNotifier{}
	return New(idx, st, f, notifier, 4), idx, st, notifier
}

func TestCrawl_DepthZeroIsNoOp(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.add("http://a.test/", "A")

	c, idx, st, notifier := newTestCrawler(fetcher)
	c.Crawl(context.Background(), "http://a.test/", 0)

	if idx.Len() != 0 {
		t.Fatalf("depth 0 created %d records", idx.Len())
	}
	if fetcher.fetchCount("http://a.test/") != 0 {
		t.Fatal("depth 0 dispatched a fetch")
	}
	if st.saveCount() != 0 || notifier.count() != 0 {
		t.Fatal("depth 0 produced side effects")
	}
}

func TestCrawl_DepthBoundsRecursion(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.add("http://a.test/", "A", "http://b.test/")
	fetcher.add("http://b.test/", "B", "http://c.test/")
	fetcher.add("http://c.test/", "C")

	c, idx, _, _ := newTestCrawler(fetcher)
	c.Crawl(context.Background(), "http://a.test/", 2)

	if _, ok := idx.Get("http://a.test/"); !ok {
		t.Fatal("missing record for seed")
	}
	if _, ok := idx.Get("http://b.test/"); !ok {
		t.Fatal("missing record for depth-1 link")
	}
	if _, ok := idx.Get("http://c.test/"); ok {
		t.Fatal("record created beyond the depth bound")
	}
}

func TestCrawl_RevisitIsIdempotent(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.add("http://a.test/", "A")

	c, _, _, notifier := newTestCrawler(fetcher)
	c.Crawl(context.Background(), "http://a.test/", 3)
	c.Crawl(context.Background(), "http://a.test/", 3)

	if got := fetcher.fetchCount("http://a.test/"); got != 1 {
		t.Fatalf("expected exactly one fetch, got %d", got)
	}
	if got := notifier.count(); got != 1 {
		t.Fatalf("expected exactly one delivery event, got %d", got)
	}
}

func TestCrawl_CycleTerminates(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.add("http://a.test/", "A", "http://b.test/")
	fetcher.add("http://b.test/", "B", "http://a.test/")

	c, idx, _, _ := newTestCrawler(fetcher)
	c.Crawl(context.Background(), "http://a.test/", 10)

	if idx.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", idx.Len())
	}
	if fetcher.fetchCount("http://a.test/") != 1 || fetcher.fetchCount("http://b.test/") != 1 {
		t.Fatal("cycle caused duplicate fetches")
	}
}

func TestCrawl_FetchFailureIsIsolated(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.add("http://a.test/", "A", "http://ok.test/", "http://down.test/")
	fetcher.add("http://ok.test/", "OK")
	// http://down.test/ is not registered, so it fails.

	c, idx, _, _ := newTestCrawler(fetcher)
	c.Crawl(context.Background(), "http://a.test/", 2)

	if _, ok := idx.Get("http://ok.test/"); !ok {
		t.Fatal("reachable sibling was not indexed")
	}
	if _, ok := idx.Get("http://down.test/"); ok {
		t.Fatal("failed fetch produced a record")
	}
	if idx.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", idx.Len())
	}
}

func TestCrawl_EmptyTitleDefaults(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.add("http://a.test/", "")

	c, idx, _, _ := newTestCrawler(fetcher)
	c.Crawl(context.Background(), "http://a.test/", 1)

	rec, _ := idx.Get("http://a.test/")
	if rec.Title != "No title" {
		t.Fatalf("expected default title, got %q", rec.Title)
	}
}

func TestCrawl_DuplicateLinksDispatchedOnce(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.add("http://a.test/", "A", "http://b.test/", "http://b.test/")
	fetcher.add("http://b.test/", "B")

	c, idx, _, _ := newTestCrawler(fetcher)
	c.Crawl(context.Background(), "http://a.test/", 2)

	if got := fetcher.fetchCount("http://b.test/"); got != 1 {
		t.Fatalf("duplicate link fetched %d times", got)
	}

	// The record itself keeps duplicates in discovery order.
	rec, _ := idx.Get("http://a.test/")
	if len(rec.Links) != 2 {
		t.Fatalf("expected duplicates preserved in record, got %v", rec.Links)
	}
}

func TestCrawl_SaveFailureIsNonFatal(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.add("http://a.test/", "A", "http://b.test/")
	fetcher.add("http://b.test/", "B")

	c, idx, st, notifier := newTestCrawler(fetcher)
	st.fail = true
	c.Crawl(context.Background(), "http://a.test/", 2)

	if idx.Len() != 2 {
		t.Fatalf("write failures should not stop the crawl, got %d records", idx.Len())
	}
	if notifier.count() != 2 {
		t.Fatalf("write failures should not suppress delivery, got %d events", notifier.count())
	}
}

func TestCrawl_SavesAfterEveryPage(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.add("http://a.test/", "A", "http://b.test/")
	fetcher.add("http://b.test/", "B")

	c, _, st, _ := newTestCrawler(fetcher)
	c.Crawl(context.Background(), "http://a.test/", 2)

	if got := st.saveCount(); got != 2 {
		t.Fatalf("expected one save per crawled page, got %d", got)
	}
}

func TestCrawl_CancelledContextStopsDispatch(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.add("http://a.test/", "A")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, idx, _, _ := newTestCrawler(fetcher)
	c.Crawl(ctx, "http://a.test/", 3)

	if idx.Len() != 0 {
		t.Fatalf("cancelled crawl still indexed %d pages", idx.Len())
	}
}
