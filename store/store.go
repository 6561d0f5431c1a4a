// Package store mirrors the in-memory index to durable storage. Every
// successful crawl step saves the whole snapshot, so a partially written
// document is never observable.
package store

import "linkrank/models"

// Store is implemented by persistence backends for the link graph.
type Store interface {
	// Load reads the persisted index. A missing or unparsable document
	// is not an error: the index starts empty and the failure is logged.
	Load() (map[string]models.PageRecord, error)

	// Save overwrites the durable document with the full snapshot.
	Save(pages map[string]models.PageRecord) error
}
