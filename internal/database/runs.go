package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Run statuses.
const (
	RunStatusTraining = "training"
	RunStatusReady    = "ready"
	RunStatusFailed   = "failed"
)

// Run is one topic model training run
type Run struct {
	ID         string     `json:"id"`
	Source     string     `json:"source"`
	NrTopics   int        `json:"nr_topics"`
	Status     string     `json:"status"`
	Message    string     `json:"message"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	RowCount   int        `json:"row_count"`
}

// RunStore records training runs in SQLite
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a new run store
func NewRunStore(db *sql.DB) (*RunStore, error) {
	store := &RunStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize training_runs schema: %w", err)
	}
	return store, nil
}

// initSchema creates the training_runs table if it doesn't exist
func (s *RunStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS training_runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		nr_topics INTEGER NOT NULL,
		status TEXT NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		row_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_training_runs_started_at ON training_runs(started_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Start records a new run in the training status
func (s *RunStore) Start(ctx context.Context, id, source string, nrTopics int) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO training_runs (id, source, nr_topics, status, started_at) VALUES (?, ?, ?, ?, ?)",
		id, source, nrTopics, RunStatusTraining, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record run start: %w", err)
	}
	return nil
}

// Finish stores the outcome of a run
func (s *RunStore) Finish(ctx context.Context, id, status, message string, rowCount int) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE training_runs SET status = ?, message = ?, row_count = ?, finished_at = ? WHERE id = ?",
		status, message, rowCount, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to record run finish: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not found", id)
	}
	return nil
}

// MarkInterrupted fails every run still in the training status. Such runs were
// cut short by a previous process exiting.
func (s *RunStore) MarkInterrupted(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE training_runs SET status = ?, message = ?, finished_at = ? WHERE status = ?",
		RunStatusFailed, "interrupted", time.Now().UTC(), RunStatusTraining,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark interrupted runs: %w", err)
	}
	return res.RowsAffected()
}

const runColumns = "id, source, nr_topics, status, message, started_at, finished_at, row_count"

// Get returns a run by id, or nil if it does not exist
func (s *RunStore) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM training_runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	return run, nil
}

// List returns the last N runs, newest first
func (s *RunStore) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM training_runs ORDER BY started_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var finished sql.NullTime
	if err := row.Scan(&run.ID, &run.Source, &run.NrTopics, &run.Status, &run.Message, &run.StartedAt, &finished, &run.RowCount); err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}
