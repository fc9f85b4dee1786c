package eventlog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestSQLite(t *testing.T) *SQLStore {
	t.Helper()

	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "visitors.db"), tokyo)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteRoundTrip(t *testing.T) {
	store := setupTestSQLite(t)
	ctx := context.Background()
	base := time.Date(2025, 5, 5, 9, 30, 15, 500, tokyo)

	require.NoError(t, store.Append(ctx, Event{OccurredAt: base.Add(2 * time.Minute), GroupSize: 3}))
	require.NoError(t, store.Append(ctx, Event{OccurredAt: base, GroupSize: 1}))
	require.NoError(t, store.Append(ctx, Event{OccurredAt: base.Add(time.Hour), GroupSize: 8}))

	events, err := store.ReadUntil(ctx, base.Add(10*time.Minute))
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Timestamp order, second resolution.
	assert.True(t, events[0].OccurredAt.Equal(base.Truncate(time.Second)))
	assert.Equal(t, 1, events[0].GroupSize)
	assert.Equal(t, 3, events[1].GroupSize)
}

func TestSQLiteRejectsInvalidEvent(t *testing.T) {
	store := setupTestSQLite(t)
	err := store.Append(context.Background(), Event{OccurredAt: time.Now(), GroupSize: 0})
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestSQLStoreQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := NewSQLStore(db, time.UTC)
	until := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT ts_unix, group_size FROM events").
		WithArgs(until.Unix()).
		WillReturnError(errors.New("disk I/O error"))

	_, err = store.ReadUntil(context.Background(), until)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreScanError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := NewSQLStore(db, time.UTC)
	until := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"ts_unix", "group_size"}).AddRow("not-a-number", 1)
	mock.ExpectQuery("SELECT ts_unix, group_size FROM events").WillReturnRows(rows)

	_, err = store.ReadUntil(context.Background(), until)
	assert.ErrorIs(t, err, ErrCorruptRecord)
}

func TestSQLStoreInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := NewSQLStore(db, time.UTC)
	at := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO events").
		WithArgs(at.Unix(), "2025-01-01 08:00:00", 2).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Append(context.Background(), Event{OccurredAt: at, GroupSize: 2}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
