// Package delivery decouples index mutation from viewer notification.
// The crawler appends events to a FIFO queue; a drain loop pops one
// event per tick and fans it out to every connected viewer channel, so
// a burst of crawling never blocks on a slow viewer.
package delivery

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"linkrank/index"
	"linkrank/models"
)

// Hub owns the delivery queue and the viewer session registry.
type Hub struct {
	index *index.Index

	mu      sync.Mutex
	queue   []models.DeliveryEvent
	viewers map[chan models.DeliveryEvent]bool
}

func NewHub(idx *index.Index) *Hub {
	return &Hub{
		index:   idx,
		viewers: make(map[chan models.DeliveryEvent]bool),
	}
}

// Enqueue appends an index-change event. The record is snapshotted at
// enqueue time so later rank updates don't leak into queued events.
func (h *Hub) Enqueue(url string, rec models.PageRecord) {
	snap := rec.Clone()
	h.mu.Lock()
	h.queue = append(h.queue, models.DeliveryEvent{URL: url, Data: &snap})
	h.mu.Unlock()
}

// Register adds a viewer channel and replays every currently indexed
// page to it, so late joiners see the full graph.
func (h *Hub) Register(ch chan models.DeliveryEvent) {
	snapshot := h.index.Snapshot()

	h.mu.Lock()
	h.viewers[ch] = true
	h.mu.Unlock()

	for url, rec := range snapshot {
		rec := rec
		send(ch, models.DeliveryEvent{URL: url, Data: &rec})
	}

	log.Info("viewer connected", "replayed", len(snapshot), "viewers", h.ViewerCount())
}

// Unregister removes a viewer channel and closes it.
func (h *Hub) Unregister(ch chan models.DeliveryEvent) {
	h.mu.Lock()
	if h.viewers[ch] {
		delete(h.viewers, ch)
		close(ch)
	}
	h.mu.Unlock()

	log.Info("viewer disconnected", "viewers", h.ViewerCount())
}

// DrainOne pops the oldest queued event, if any, and pushes it to every
// connected viewer. At most one event leaves the queue per call.
func (h *Hub) DrainOne() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.queue) == 0 {
		return
	}
	event := h.queue[0]
	h.queue = h.queue[1:]

	// Fanning out under the lock keeps the close in Unregister from
	// racing a send; sends are non-blocking so the lock is held briefly.
	for ch := range h.viewers {
		send(ch, event)
	}
}

// Run drains one event per tick until the context is cancelled.
func (h *Hub) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.DrainOne()
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) QueueDepth() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queue)
}

func (h *Hub) ViewerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers)
}

// send never blocks: a viewer whose buffer is full misses the event
// rather than stalling the drain loop for everyone else.
func send(ch chan models.DeliveryEvent, event models.DeliveryEvent) {
	select {
	case ch <- event:
	default:
		log.Warn("viewer buffer full, dropping event", "url", event.URL)
	}
}
