// Package storage persists per-cycle readings to a local SQLite database,
// for after-the-fact inspection and the recent-history view on the status
// page.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sweeney/obstacle-alarm/internal/alert"
	"github.com/sweeney/obstacle-alarm/internal/telemetry"
)

const schema = `
CREATE TABLE IF NOT EXISTS cycles (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at TEXT    NOT NULL,
	distance    INTEGER NOT NULL,
	regime      TEXT    NOT NULL,
	light       INTEGER NOT NULL,
	temperature INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cycles_recorded_at ON cycles(recorded_at);
`

// Store is a cycle log backed by SQLite. Safe for use from the single
// control loop goroutine plus concurrent readers.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and ensures the
// schema exists. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record appends one cycle reading.
func (s *Store) Record(r telemetry.Reading) error {
	_, err := s.db.Exec(
		`INSERT INTO cycles (recorded_at, distance, regime, light, temperature) VALUES (?, ?, ?, ?, ?)`,
		r.Time.UTC().Format(time.RFC3339Nano), r.Distance, string(r.Regime), r.Light, r.Temperature,
	)
	if err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}
	return nil
}

// Recent returns up to n readings, newest first.
func (s *Store) Recent(n int) ([]telemetry.Reading, error) {
	rows, err := s.db.Query(
		`SELECT recorded_at, distance, regime, light, temperature FROM cycles ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	var out []telemetry.Reading
	for rows.Next() {
		var ts, regime string
		var r telemetry.Reading
		if err := rows.Scan(&ts, &r.Distance, &regime, &r.Light, &r.Temperature); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
		}
		r.Time = t
		r.Regime = alert.Regime(regime)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count returns the total number of recorded cycles.
func (s *Store) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM cycles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cycles: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
