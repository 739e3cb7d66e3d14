// Package state manages the run journal in a SQLite database.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

// OutcomeRecord is one journaled unit outcome.
type OutcomeRecord struct {
	RecordedAt time.Time
	RunID      string
	Unit       string
	Kind       string
	Detail     string
	Platform   string
	ID         int64
}

// Store manages the SQLite database holding the run journal.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database at the given path and runs migrations.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent access
	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close() //nolint:errcheck,gosec // best-effort cleanup on error path
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close() //nolint:errcheck,gosec // best-effort cleanup on error path
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.ExecContext(context.Background(), `
		CREATE TABLE IF NOT EXISTS unit_outcomes (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			unit        TEXT NOT NULL,
			kind        TEXT NOT NULL,
			detail      TEXT NOT NULL DEFAULT '',
			platform    TEXT NOT NULL DEFAULT '',
			recorded_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_unit_outcomes_unit ON unit_outcomes(unit, id);
	`)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	return nil
}

// NewRunID returns a timestamp-based identifier for one orchestrator run.
func NewRunID() string {
	return time.Now().UTC().Format("20060102-150405")
}

// RecordOutcome appends one unit outcome to the journal.
func (s *Store) RecordOutcome(runID, unit, kind, detail, platformTag string) error {
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO unit_outcomes (run_id, unit, kind, detail, platform)
		VALUES (?, ?, ?, ?, ?)
	`, runID, unit, kind, detail, platformTag)
	if err != nil {
		return fmt.Errorf("recording outcome: %w", err)
	}

	return nil
}

func scanOutcomeRow(row *sql.Row, op string) (*OutcomeRecord, error) {
	var r OutcomeRecord
	var recordedAt string

	err := row.Scan(&r.ID, &r.RunID, &r.Unit, &r.Kind, &r.Detail, &r.Platform, &recordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // nil means "not found", distinct from error
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.RecordedAt, err = parseTime(recordedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing recorded_at: %w", err)
	}

	return &r, nil
}

// LatestOutcome returns the most recent journal entry for the unit.
// Returns nil if the unit has never been run.
func (s *Store) LatestOutcome(unit string) (*OutcomeRecord, error) {
	row := s.db.QueryRowContext(context.Background(), `
		SELECT id, run_id, unit, kind, detail, platform, recorded_at
		FROM unit_outcomes
		WHERE unit = ?
		ORDER BY id DESC
		LIMIT 1
	`, unit)

	return scanOutcomeRow(row, "querying latest outcome")
}

// RunHistory returns the N most recent journal entries for the unit.
func (s *Store) RunHistory(unit string, limit int) ([]OutcomeRecord, error) {
	ctx := context.Background()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, unit, kind, detail, platform, recorded_at
		FROM unit_outcomes
		WHERE unit = ?
		ORDER BY id DESC
		LIMIT ?
	`, unit, limit)
	if err != nil {
		return nil, fmt.Errorf("querying run history: %w", err)
	}

	defer func() {
		_ = rows.Close() //nolint:errcheck // read-only cursor
	}()

	var records []OutcomeRecord

	for rows.Next() {
		var r OutcomeRecord
		var recordedAt string

		if err := rows.Scan(&r.ID, &r.RunID, &r.Unit, &r.Kind, &r.Detail, &r.Platform, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning run history: %w", err)
		}

		r.RecordedAt, err = parseTime(recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing recorded_at: %w", err)
		}

		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating run history: %w", err)
	}

	return records, nil
}

// parseTime handles the formats SQLite emits for CURRENT_TIMESTAMP columns.
func parseTime(value string) (time.Time, error) {
	layouts := []string{
		"2006-01-02 15:04:05",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %q", value)
}
