//
//
package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visitor-flow/vfc/internal/config"
	"github.com/visitor-flow/vfc/internal/logging"
)

func newTestLogger(t *testing.T) *Logger {
	t.Helper()
	l, err := NewLogger(config.AuditConfig{Dir: filepath.Join(t.TempDir(), "audit"), MaxSizeMB: 1, MaxBackups: 2}, logging.Discard())
	require.NoError(t, err)
	l.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func readEntries(t *testing.T, path string) []Entry {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		entries = append(entries, e)
	}
	require.NoError(t, scanner.Err())
	return entries
}

type codedError struct{}

func (codedError) Error() string { return "store unavailable" }
func (codedError) Code() string  { return "STORE_UNAVAILABLE" }

func TestRecord(t *testing.T) {
	l := newTestLogger(t)
	ctx := WithSource(context.Background(), "ws-1", "ws")

	l.Record(ctx, 3, OutcomeAccepted, nil)
	l.Record(ctx, 0, OutcomeMalformed, errors.New("not json"))
	l.Record(context.Background(), 2, OutcomeStoreError, codedError{})

	entries := readEntries(t, l.Path())
	require.Len(t, entries, 3)

	assert.Equal(t, Entry{
		Timestamp:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Subscriber: "ws-1",
		Channel:    "ws",
		GroupSize:  3,
		Outcome:    OutcomeAccepted,
		Code:       "SUCCESS",
	}, entries[0])
	assert.Equal(t, OutcomeMalformed, entries[1].Code)
	assert.Equal(t, "unknown", entries[2].Subscriber)
	assert.Equal(t, "STORE_UNAVAILABLE", entries[2].Code)
}

func TestRecordAfterClose(t *testing.T) {
	l := newTestLogger(t)
	l.Record(context.Background(), 1, OutcomeAccepted, nil)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	l.Record(context.Background(), 1, OutcomeAccepted, nil)
	assert.Len(t, readEntries(t, l.Path()), 1)
}

func TestRotate(t *testing.T) {
	l := newTestLogger(t)
	l.Record(context.Background(), 1, OutcomeAccepted, nil)

	require.NoError(t, l.Rotate())
	l.Record(context.Background(), 2, OutcomeAccepted, nil)

	entries := readEntries(t, l.Path())
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].GroupSize)

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(l.Path()), "audit-*.jsonl"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}
