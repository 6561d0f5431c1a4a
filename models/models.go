// models/models.go
package models

// PageRecord holds everything the index knows about one crawled URL.
// Title and Links are set once when the page is first fetched; Rank is
// recomputed periodically from inbound link counts.
type PageRecord struct {
	URL   string   `json:"url"`
	Title string   `json:"title"`
	Links []string `json:"links"`
	Rank  int      `json:"rank"`
}

// Clone returns a copy of the record with its own Links slice, safe to
// hand to viewers while the original keeps mutating.
func (p PageRecord) Clone() PageRecord {
	links := make([]string, len(p.Links))
	copy(links, p.Links)
	p.Links = links
	return p
}

// LinksTo reports whether the page lists target among its outbound links.
// Repeated links count as a single reference.
func (p PageRecord) LinksTo(target string) bool {
	for _, l := range p.Links {
		if l == target {
			return true
		}
	}
	return false
}

// DeliveryEvent is one message on the viewer wire: the URL whose index
// entry changed and a snapshot of its record at enqueue time.
type DeliveryEvent struct {
	URL  string      `json:"url"`
	Data *PageRecord `json:"data"`
}
