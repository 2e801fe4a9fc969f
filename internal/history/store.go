// Package history persists one row per orchestrated run in SQLite. It is
// operational metadata for the status endpoint; the CSV dataset remains the
// only store for extracted records.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry summarizes one completed run.
type Entry struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
	Success    bool      `json:"success"`
	Records    int       `json:"records"`
	Error      string    `json:"error,omitempty"`
}

// Store is the run-history database.
type Store struct {
	db *sql.DB
}

// Open initializes the history database at the given path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL, -- unix nanoseconds
		duration_ms INTEGER NOT NULL,
		success INTEGER NOT NULL,
		records INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}
	return nil
}

// Record inserts one run entry.
func (s *Store) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, duration_ms, success, records, error)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.RunID, e.StartedAt.UnixNano(), e.DurationMs, e.Success, e.Records, e.Error)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", e.RunID, err)
	}
	return nil
}

// Last returns the most recent run entry, or ok=false when no run has been
// recorded yet.
func (s *Store) Last(ctx context.Context) (Entry, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, started_at, duration_ms, success, records, error
		 FROM runs ORDER BY started_at DESC LIMIT 1`)

	var e Entry
	var started int64
	err := row.Scan(&e.RunID, &started, &e.DurationMs, &e.Success, &e.Records, &e.Error)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to read last run: %w", err)
	}
	e.StartedAt = time.Unix(0, started).UTC()
	return e, true, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, started_at, duration_ms, success, records, error
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var started int64
		if err := rows.Scan(&e.RunID, &started, &e.DurationMs, &e.Success, &e.Records, &e.Error); err != nil {
			return nil, err
		}
		e.StartedAt = time.Unix(0, started).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
