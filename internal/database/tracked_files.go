// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// Conversion statuses.
const (
	TrackedStatusConverted = "converted"
	TrackedStatusFailed    = "failed"
)

// TrackedFile is a report the watcher has converted
type TrackedFile struct {
	FilePath      string
	FileHash      string
	OutputPath    string
	LastProcessed sql.NullTime
	Status        string
	Message       string
}

// TrackedFileStore remembers which report contents were already converted
type TrackedFileStore struct {
	db *sql.DB
}

// NewTrackedFileStore creates a new tracked file store
func NewTrackedFileStore(db *sql.DB) (*TrackedFileStore, error) {
	store := &TrackedFileStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracked_files schema: %w", err)
	}
	return store, nil
}

// initSchema creates the necessary tables
func (s *TrackedFileStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS tracked_files (
		file_path TEXT PRIMARY KEY,
		file_hash TEXT NOT NULL,
		output_path TEXT NOT NULL DEFAULT '',
		last_processed DATETIME DEFAULT CURRENT_TIMESTAMP,
		status TEXT NOT NULL DEFAULT 'converted',
		message TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_tracked_files_hash ON tracked_files(file_hash);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get retrieves a tracked file by path, or nil if it is not tracked
func (s *TrackedFileStore) Get(filePath string) (*TrackedFile, error) {
	var tf TrackedFile
	err := s.db.QueryRow(
		"SELECT file_path, file_hash, output_path, last_processed, status, message FROM tracked_files WHERE file_path = ?",
		filePath,
	).Scan(&tf.FilePath, &tf.FileHash, &tf.OutputPath, &tf.LastProcessed, &tf.Status, &tf.Message)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tracked file: %w", err)
	}
	return &tf, nil
}

// Upsert inserts or updates a tracked file
func (s *TrackedFileStore) Upsert(filePath, fileHash, outputPath, status, message string) error {
	const query = `
		INSERT INTO tracked_files (file_path, file_hash, output_path, status, message, last_processed)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(file_path) DO UPDATE SET
			file_hash = excluded.file_hash,
			output_path = excluded.output_path,
			status = excluded.status,
			message = excluded.message,
			last_processed = CURRENT_TIMESTAMP
	`
	if _, err := s.db.Exec(query, filePath, fileHash, outputPath, status, message); err != nil {
		return fmt.Errorf("failed to upsert tracked file: %w", err)
	}
	return nil
}

// Delete removes a file from tracking
func (s *TrackedFileStore) Delete(filePath string) error {
	if _, err := s.db.Exec("DELETE FROM tracked_files WHERE file_path = ?", filePath); err != nil {
		return fmt.Errorf("failed to delete tracked file: %w", err)
	}
	return nil
}

// HashFile returns the hex SHA-256 of a file's contents.
func HashFile(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
