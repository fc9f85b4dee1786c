//
//
package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // CGO-free SQLite
)

// SQLStore keeps the log in an SQL `events` table.
type SQLStore struct {
	db  *sql.DB
	loc *time.Location
}

// OpenSQLite opens (and migrates) an SQLite log at path.
func OpenSQLite(ctx context.Context, path string, loc *time.Location) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// WAL + busy timeout to avoid "database is locked"
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return NewSQLStore(db, loc), nil
}

// NewSQLStore wraps an already migrated database handle.
func NewSQLStore(db *sql.DB, loc *time.Location) *SQLStore {
	if loc == nil {
		loc = time.Local
	}
	return &SQLStore{db: db, loc: loc}
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS events(
	  id         INTEGER PRIMARY KEY,
	  ts_unix    INTEGER NOT NULL,
	  ts_text    TEXT    NOT NULL,
	  group_size INTEGER NOT NULL CHECK (group_size > 0)
	);
	CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts_unix);
	`)
	if err != nil {
		return fmt.Errorf("failed to create database tables: %w", err)
	}
	return nil
}

// Append inserts one event. Timestamps are stored at second resolution.
func (s *SQLStore) Append(ctx context.Context, event Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events(ts_unix, ts_text, group_size) VALUES(?,?,?)`,
		event.OccurredAt.Unix(), FormatTime(event.OccurredAt, s.loc), event.GroupSize)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// ReadUntil selects the events at or before until, ordered by time then insertion.
func (s *SQLStore) ReadUntil(ctx context.Context, until time.Time) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts_unix, group_size FROM events WHERE ts_unix <= ? ORDER BY ts_unix, id`,
		until.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []Event
	for rows.Next() {
		var (
			unix int64
			size int
		)
		if err := rows.Scan(&unix, &size); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
		}
		events = append(events, Event{OccurredAt: time.Unix(unix, 0).In(s.loc), GroupSize: size})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}

	return events, nil
}

// Close closes the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
