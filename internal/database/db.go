// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens (creating if needed) the SQLite database at dbPath. The parent
// directory is created when missing.
func Open(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// Stores bundles every store on one database handle.
type Stores struct {
	DB          *sql.DB
	Runs        *RunStore
	Comparisons *ComparisonStore
	Tracked     *TrackedFileStore
}

// OpenStores opens dbPath and initializes every schema.
func OpenStores(dbPath string) (*Stores, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, err
	}

	runs, err := NewRunStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	comparisons, err := NewComparisonStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	tracked, err := NewTrackedFileStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Stores{DB: db, Runs: runs, Comparisons: comparisons, Tracked: tracked}, nil
}

// Close closes the database connection
func (s *Stores) Close() error {
	return s.DB.Close()
}
