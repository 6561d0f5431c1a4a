package crawler

import "sync"

// VisitedSet tracks URLs already dispatched for crawling. It only ever
// grows: a URL stays marked even if its fetch later fails, so the same
// page is never dispatched twice in one process lifetime.
type VisitedSet struct {
	mu   sync.Mutex
	seen map[string]bool
}

func NewVisitedSet() *VisitedSet {
	return &VisitedSet{seen: make(map[string]bool)}
}

// MarkVisited atomically checks and marks url. It returns true exactly
// once per URL: for the caller that gets to crawl it.
func (v *VisitedSet) MarkVisited(url string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.seen[url] {
		return false
	}
	v.seen[url] = true
	return true
}

// Contains reports whether url was ever dispatched.
func (v *VisitedSet) Contains(url string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.seen[url]
}

func (v *VisitedSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.seen)
}
