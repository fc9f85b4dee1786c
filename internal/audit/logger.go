//
//
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/visitor-flow/vfc/internal/config"
)

// Outcomes of a submission.
const (
	OutcomeAccepted    = "ACCEPTED"
	OutcomeMalformed   = "MALFORMED"
	OutcomeRateLimited = "RATE_LIMITED"
	OutcomeStoreError  = "STORE_ERROR"
)

// FileName is the name of the trail inside the audit directory.
const FileName = "audit.jsonl"

// Entry is a single audit record.
type Entry struct {
	Timestamp  time.Time `json:"ts"`
	Subscriber string    `json:"subscriber"`
	Channel    string    `json:"channel"`
	GroupSize  int       `json:"groupSize,omitempty"`
	Outcome    string    `json:"outcome"`
	Code       string    `json:"code"`
}

// Recorder records submissions.
type Recorder interface {
	Record(ctx context.Context, groupSize int, outcome string, err error)
}

type sourceKey struct{}

type source struct {
	subscriber string
	channel    string
}

// WithSource tags ctx with the submitting subscriber and channel ("ws", "http").
func WithSource(ctx context.Context, subscriber, channel string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source{subscriber: subscriber, channel: channel})
}

// Logger appends entries to a rotated JSONL file.
type Logger struct {
	mu       sync.Mutex
	filePath string
	out      io.WriteCloser
	logger   *logrus.Logger
	now      func() time.Time
}

// NewLogger creates the audit directory and opens the trail for appending.
func NewLogger(cfg config.AuditConfig, logger *logrus.Logger) (*Logger, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	filePath := filepath.Join(cfg.Dir, FileName)
	return &Logger{
		filePath: filePath,
		out: &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		},
		logger: logger,
		now:    time.Now,
	}, nil
}

// Record implements Recorder.
func (l *Logger) Record(ctx context.Context, groupSize int, outcome string, err error) {
	src, _ := ctx.Value(sourceKey{}).(source)
	if src.subscriber == "" {
		src.subscriber = "unknown"
	}

	l.writeEntry(Entry{
		Timestamp:  l.now().UTC(),
		Subscriber: src.subscriber,
		Channel:    src.channel,
		GroupSize:  groupSize,
		Outcome:    outcome,
		Code:       codeFor(outcome, err),
	})
}

func (l *Logger) writeEntry(entry Entry) {
	data, err := json.Marshal(entry)
	if err != nil {
		l.logger.WithError(err).Error("Failed to marshal audit entry")
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.out == nil {
		return
	}
	if _, err := l.out.Write(append(data, '\n')); err != nil {
		l.logger.WithError(err).Error("Failed to write audit entry")
	}
}

func codeFor(outcome string, err error) string {
	if err == nil {
		if outcome == OutcomeAccepted {
			return "SUCCESS"
		}
		return outcome
	}
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return outcome
}

// Path returns the path of the active trail file.
func (l *Logger) Path() string {
	return l.filePath
}

// Rotate starts a new trail file, keeping the previous one as a backup.
func (l *Logger) Rotate() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rotator, ok := l.out.(interface{ Rotate() error }); ok {
		if err := rotator.Rotate(); err != nil {
			return fmt.Errorf("failed to rotate audit log: %w", err)
		}
	}
	return nil
}

// Close closes the trail. Later Record calls are dropped.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.out == nil {
		return nil
	}
	err := l.out.Close()
	l.out = nil
	return err
}

// Nop discards every entry.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, int, string, error) {}

var (
	_ Recorder = (*Logger)(nil)
	_ Recorder = Nop{}
)
