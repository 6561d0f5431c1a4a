// Package rank recomputes page popularity from inbound link counts.
package rank

import (
	"context"
	"time"

	"linkrank/index"
)

// PointsPerBacklink is the weight of one referring page. A page linking
// to the same target several times still contributes once.
const PointsPerBacklink = 10

// Engine periodically rescans the whole graph. The scan is O(pages x
// links) per tick, which is fine at single-host scale; pages crawled
// mid-scan simply pick up their rank on the next tick.
type Engine struct {
	index *index.Index
}

func NewEngine(idx *index.Index) *Engine {
	return &Engine{index: idx}
}

// RecomputeAll sets every page's rank to PointsPerBacklink times the
// number of distinct pages that link to it.
func (e *Engine) RecomputeAll() {
	values := e.index.Values()

	for _, url := range e.index.Keys() {
		backlinks := 0
		for _, page := range values {
			if page.LinksTo(url) {
				backlinks++
			}
		}
		e.index.SetRank(url, backlinks*PointsPerBacklink)
	}
}

// Run recomputes on every tick until the context is cancelled.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.RecomputeAll()
		case <-ctx.Done():
			return
		}
	}
}
