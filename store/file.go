package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"linkrank/models"
)

// FileStore persists the index as a single JSON document mapping URL to
// page record.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (map[string]models.PageRecord, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]models.PageRecord), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index document: %w", err)
	}

	pages := make(map[string]models.PageRecord)
	if err := json.Unmarshal(raw, &pages); err != nil {
		// A corrupt document resets the index rather than killing the
		// process; the next save overwrites it.
		log.Warn("index document unparsable, starting empty", "path", s.path, "err", err)
		return make(map[string]models.PageRecord), nil
	}

	for url, rec := range pages {
		rec.URL = url
		pages[url] = rec
	}
	return pages, nil
}

func (s *FileStore) Save(pages map[string]models.PageRecord) error {
	raw, err := json.MarshalIndent(pages, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create index dir: %w", err)
		}
	}

	// Write-then-rename so readers never see a torn document.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write index document: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace index document: %w", err)
	}
	return nil
}
