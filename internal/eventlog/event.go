//
//
package eventlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/visitor-flow/vfc/internal/config"
)

// Event is one ingested arrival. Immutable once appended.
type Event struct {
	OccurredAt time.Time
	GroupSize  int
}

// Appender appends one event to the log.
type Appender interface {
	Append(ctx context.Context, event Event) error
}

// Reader returns all events with OccurredAt <= until, in timestamp order.
type Reader interface {
	ReadUntil(ctx context.Context, until time.Time) ([]Event, error)
}

// Store is the full log collaborator.
type Store interface {
	Appender
	Reader
	Close() error
}

var (
	// ErrInvalidEvent indicates an event that must not be persisted.
	ErrInvalidEvent = errors.New("INVALID_EVENT")
	// ErrCorruptRecord indicates a persisted record that could not be decoded.
	ErrCorruptRecord = errors.New("CORRUPT_RECORD")
)

// Validate checks an event before it is appended.
func (e Event) Validate() error {
	if e.OccurredAt.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidEvent)
	}
	if e.GroupSize < 1 {
		return fmt.Errorf("%w: group size must be positive, got %d", ErrInvalidEvent, e.GroupSize)
	}
	return nil
}

// FormatTime renders t in the persisted log layout and zone.
func FormatTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(config.LogTimeLayout)
}

// ParseTime parses a persisted log timestamp in the given zone.
func ParseTime(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(config.LogTimeLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q: %v", ErrCorruptRecord, value, err)
	}
	return t, nil
}

// Open creates the store selected by cfg.Store.Backend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	switch cfg.Store.Backend {
	case config.BackendCSV:
		return OpenCSV(cfg.Store.CSVPath, loc)
	case config.BackendSQLite:
		return OpenSQLite(ctx, cfg.Store.SQLitePath, loc)
	case config.BackendRedis:
		return OpenRedis(ctx, cfg.Store.RedisAddr, cfg.Store.RedisDB, cfg.Store.RedisKey, loc)
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// filterUntil keeps the events at or before until, preserving order.
func filterUntil(events []Event, until time.Time) []Event {
	out := events[:0]
	for _, e := range events {
		if !e.OccurredAt.After(until) {
			out = append(out, e)
		}
	}
	return out
}
