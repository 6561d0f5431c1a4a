// Package index holds the in-memory link graph: the single source of
// truth mapping each crawled URL to its page record.
package index

import (
	"sync"

	"linkrank/models"
)

// Index is an append/update-only map from URL to PageRecord. The crawler
// inserts records, the rank engine rewrites ranks, and every reader gets
// copies so nothing outside the lock can observe a half-written record.
type Index struct {
	mu    sync.RWMutex
	pages map[string]models.PageRecord
}

func New() *Index {
	return &Index{pages: make(map[string]models.PageRecord)}
}

// Get returns a copy of the record for url.
func (i *Index) Get(url string) (models.PageRecord, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	rec, ok := i.pages[url]
	if !ok {
		return models.PageRecord{}, false
	}
	return rec.Clone(), true
}

// Put creates or overwrites the record for url. Last write wins.
func (i *Index) Put(url string, rec models.PageRecord) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.pages[url] = rec.Clone()
}

// SetRank updates only the rank of an existing record. Records inserted
// after the caller computed its counts are simply left for the next pass.
func (i *Index) SetRank(url string, rank int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	rec, ok := i.pages[url]
	if !ok {
		return
	}
	rec.Rank = rank
	i.pages[url] = rec
}

// Keys returns all indexed URLs in no particular order.
func (i *Index) Keys() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	keys := make([]string, 0, len(i.pages))
	for url := range i.pages {
		keys = append(keys, url)
	}
	return keys
}

// Values returns copies of all records in no particular order.
func (i *Index) Values() []models.PageRecord {
	i.mu.RLock()
	defer i.mu.RUnlock()
	values := make([]models.PageRecord, 0, len(i.pages))
	for _, rec := range i.pages {
		values = append(values, rec.Clone())
	}
	return values
}

// Snapshot returns a deep copy of the whole index, suitable for
// persistence or replay to a newly connected viewer.
func (i *Index) Snapshot() map[string]models.PageRecord {
	i.mu.RLock()
	defer i.mu.RUnlock()
	snap := make(map[string]models.PageRecord, len(i.pages))
	for url, rec := range i.pages {
		snap[url] = rec.Clone()
	}
	return snap
}

// Replace swaps in a previously persisted snapshot, used at startup.
func (i *Index) Replace(pages map[string]models.PageRecord) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.pages = make(map[string]models.PageRecord, len(pages))
	for url, rec := range pages {
		i.pages[url] = rec.Clone()
	}
}

func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.pages)
}
