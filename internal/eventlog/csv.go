//
//
package eventlog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// CSVHeader is the header row of the persisted log.
var CSVHeader = []string{"timestamp", "group_size"}

// CSVStore is the canonical file-backed log: one `timestamp,group_size` row per event.
type CSVStore struct {
	mu   sync.Mutex
	path string
	loc  *time.Location
	file *os.File
}

// OpenCSV opens (creating with a header if missing) the CSV log at path.
func OpenCSV(path string, loc *time.Location) (*CSVStore, error) {
	if loc == nil {
		loc = time.Local
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat event log: %w", err)
	}
	if info.Size() == 0 {
		w := csv.NewWriter(file)
		if err := w.Write(CSVHeader); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	return &CSVStore{path: path, loc: loc, file: file}, nil
}

// Path returns the log file path.
func (s *CSVStore) Path() string {
	return s.path
}

// Append writes one row and syncs it to disk.
func (s *CSVStore) Append(ctx context.Context, event Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return os.ErrClosed
	}

	w := csv.NewWriter(s.file)
	row := []string{FormatTime(event.OccurredAt, s.loc), strconv.Itoa(event.GroupSize)}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}

	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync event log: %w", err)
	}
	return nil
}

// ReadUntil re-reads the whole file. Any malformed row fails the read.
func (s *CSVStore) ReadUntil(ctx context.Context, until time.Time) ([]Event, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	defer func() { _ = file.Close() }()

	events, err := decodeCSV(file, s.loc)
	if err != nil {
		return nil, err
	}
	return filterUntil(events, until), nil
}

// Close closes the append handle.
func (s *CSVStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil {
		err := s.file.Close()
		s.file = nil
		return err
	}
	return nil
}

// ReadCSV decodes a complete CSV log from r.
func ReadCSV(r io.Reader, loc *time.Location) ([]Event, error) {
	if loc == nil {
		loc = time.Local
	}
	return decodeCSV(r, loc)
}

func decodeCSV(r io.Reader, loc *time.Location) ([]Event, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(CSVHeader)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrCorruptRecord, err)
	}
	if strings.TrimPrefix(header[0], "\ufeff") != CSVHeader[0] || header[1] != CSVHeader[1] {
		return nil, fmt.Errorf("%w: unexpected header %v", ErrCorruptRecord, header)
	}

	var events []Event
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
		}

		ts, err := ParseTime(record[0], loc)
		if err != nil {
			return nil, err
		}
		size, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			return nil, fmt.Errorf("%w: group_size %q", ErrCorruptRecord, record[1])
		}

		events = append(events, Event{OccurredAt: ts, GroupSize: size})
	}

	return events, nil
}
