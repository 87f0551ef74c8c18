// Package buildstore persists build runs and per-document outcomes in SQLite.
//
// The store backs two things: the build history surfaced by the daemon, and
// incremental rebuilds, which skip documents whose content fingerprint matches
// the last successful publish.
package buildstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNoFingerprint indicates no successful publish is recorded for a slug.
var ErrNoFingerprint = errors.New("no recorded fingerprint for slug")

// Outcome status values.
const (
	StatusPublished = "published"
	StatusFailed    = "failed"
)

// Run summarizes one build.
type Run struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Published int
	Failed    int
}

// Outcome records the result for one document within a run.
type Outcome struct {
	RunID       string
	Slug        string
	Status      string
	Reason      string
	Fingerprint string
}

// Store is a SQLite-backed build history store.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (or creates) a store at dbPath. Use ":memory:" for tests.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		published INTEGER NOT NULL,
		failed INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		slug TEXT NOT NULL,
		status TEXT NOT NULL,
		reason TEXT,
		fingerprint TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id);
	CREATE INDEX IF NOT EXISTS idx_outcomes_slug ON outcomes(slug, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordRun inserts a completed run and its outcomes in one transaction.
func (s *Store) RecordRun(ctx context.Context, run Run, outcomes []Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs (id, started_at, duration_ms, published, failed) VALUES (?, ?, ?, ?, ?)",
		run.ID, run.StartedAt.Unix(), run.Duration.Milliseconds(), run.Published, run.Failed,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, o := range outcomes {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO outcomes (run_id, slug, status, reason, fingerprint) VALUES (?, ?, ?, ?, ?)",
			run.ID, o.Slug, o.Status, o.Reason, o.Fingerprint,
		)
		if err != nil {
			return fmt.Errorf("insert outcome: %w", err)
		}
	}

	return tx.Commit()
}

// LastFingerprint returns the fingerprint of the most recent successful
// publish of slug, or ErrNoFingerprint.
func (s *Store) LastFingerprint(ctx context.Context, slug string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var fp string
	err := s.db.QueryRowContext(ctx,
		"SELECT fingerprint FROM outcomes WHERE slug = ? AND status = ? ORDER BY id DESC LIMIT 1",
		slug, StatusPublished,
	).Scan(&fp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrNoFingerprint, slug)
	}
	if err != nil {
		return "", fmt.Errorf("query fingerprint: %w", err)
	}
	return fp, nil
}

// Runs returns the most recent runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, started_at, duration_ms, published, failed FROM runs ORDER BY started_at DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r          Run
			startedAt  int64
			durationMS int64
		)
		if err := rows.Scan(&r.ID, &startedAt, &durationMS, &r.Published, &r.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.Unix(startedAt, 0)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return runs, nil
}

// Outcomes returns the outcomes recorded for a run.
func (s *Store) Outcomes(ctx context.Context, runID string) ([]Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, slug, status, reason, fingerprint FROM outcomes WHERE run_id = ? ORDER BY id",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []Outcome
	for rows.Next() {
		var o Outcome
		if err := rows.Scan(&o.RunID, &o.Slug, &o.Status, &o.Reason, &o.Fingerprint); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return outcomes, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
