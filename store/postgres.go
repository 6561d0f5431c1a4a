package store

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"linkrank/models"
)

// PostgresStore persists the index in a pages table, one row per URL.
type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pgStore := &PostgresStore{DB: db}
	if err := pgStore.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pgStore, nil
}

func (s *PostgresStore) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS pages (
            url TEXT PRIMARY KEY,
            title TEXT NOT NULL DEFAULT '',
            links TEXT[] NOT NULL DEFAULT '{}',
            rank INTEGER NOT NULL DEFAULT 0,
            saved_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE INDEX IF NOT EXISTS idx_pages_rank ON pages(rank DESC)`,
	}

	for _, query := range queries {
		if _, err := s.DB.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}

	return nil
}

func (s *PostgresStore) Load() (map[string]models.PageRecord, error) {
	rows, err := s.DB.Query(`SELECT url, title, links, rank FROM pages`)
	if err != nil {
		return nil, fmt.Errorf("load pages: %w", err)
	}
	defer rows.Close()

	pages := make(map[string]models.PageRecord)
	for rows.Next() {
		var rec models.PageRecord
		var links pq.StringArray
		if err := rows.Scan(&rec.URL, &rec.Title, &links, &rec.Rank); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		rec.Links = []string(links)
		pages[rec.URL] = rec
	}

	return pages, rows.Err()
}

// Save upserts every record in one transaction so the stored graph is
// always a whole snapshot.
func (s *PostgresStore) Save(pages map[string]models.PageRecord) error {
	tx, err := s.DB.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
        INSERT INTO pages (url, title, links, rank)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (url) DO UPDATE SET
            title = EXCLUDED.title,
            links = EXCLUDED.links,
            rank = EXCLUDED.rank,
            saved_at = CURRENT_TIMESTAMP
    `)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range pages {
		if _, err := stmt.Exec(rec.URL, rec.Title, pq.Array(rec.Links), rec.Rank); err != nil {
			return fmt.Errorf("upsert %s: %w", rec.URL, err)
		}
	}

	return tx.Commit()
}

func (s *PostgresStore) Close() error {
	return s.DB.Close()
}
