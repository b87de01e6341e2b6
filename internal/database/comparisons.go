package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Comparison is one recorded duplicate comparison between two comment files
type Comparison struct {
	ID         int64     `json:"id"`
	FileA      string    `json:"file_a"`
	FileB      string    `json:"file_b"`
	Percentage float64   `json:"percentage"`
	CreatedAt  time.Time `json:"created_at"`
}

// ComparisonStore manages the comparison log
type ComparisonStore struct {
	db *sql.DB
}

// NewComparisonStore creates a new comparison store
func NewComparisonStore(db *sql.DB) (*ComparisonStore, error) {
	store := &ComparisonStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize comparisons schema: %w", err)
	}
	return store, nil
}

// initSchema creates the comparisons table if it doesn't exist
func (s *ComparisonStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS comparisons (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_a TEXT NOT NULL,
		file_b TEXT NOT NULL,
		percentage REAL NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_comparisons_created_at ON comparisons(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record logs a comparison result and returns its id
func (s *ComparisonStore) Record(ctx context.Context, fileA, fileB string, percentage float64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO comparisons (file_a, file_b, percentage, created_at) VALUES (?, ?, ?, ?)",
		fileA, fileB, percentage, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record comparison: %w", err)
	}
	return res.LastInsertId()
}

// List returns the last N comparisons, newest first
func (s *ComparisonStore) List(ctx context.Context, limit int) ([]Comparison, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, file_a, file_b, percentage, created_at FROM comparisons ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Comparison
	for rows.Next() {
		var c Comparison
		if err := rows.Scan(&c.ID, &c.FileA, &c.FileB, &c.Percentage, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
