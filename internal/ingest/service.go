// Package ingest runs one submission through append, recompute and publish.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/visitor-flow/vfc/internal/audit"
	"github.com/visitor-flow/vfc/internal/broadcast"
	"github.com/visitor-flow/vfc/internal/eventlog"
	"github.com/visitor-flow/vfc/internal/metrics"
	"github.com/visitor-flow/vfc/internal/stats"
)

var (
	// ErrMalformed indicates a payload that is not a valid submission.
	ErrMalformed = errors.New("MALFORMED")
	// ErrRateLimited indicates a submission dropped by the ingress limiter.
	ErrRateLimited = errors.New("RATE_LIMITED")
	// ErrStoreUnavailable indicates the event log rejected an append.
	ErrStoreUnavailable = errors.New("STORE_UNAVAILABLE")
)

// DefaultGroupSize applies when a submission omits group_size.
const DefaultGroupSize = 1

// Publisher fans a message out to subscribers.
type Publisher interface {
	Publish(ctx context.Context, msg broadcast.Message) broadcast.Report
}

// Compile-time assertion that the hub satisfies Publisher
var _ Publisher = (*broadcast.Hub)(nil)

// Service is the ingestion control flow.
//
// Submissions from different connections are not serialised against each
// other: two concurrent submitters may each publish a snapshot that misses the
// other's event. The next accepted event publishes a snapshot covering both.
type Service struct {
	store     eventlog.Appender
	stats     stats.Aggregator
	publisher Publisher
	audit     audit.Recorder
	clock     func() time.Time
	logger    *logrus.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithAudit sets the audit recorder.
func WithAudit(recorder audit.Recorder) Option {
	return func(s *Service) { s.audit = recorder }
}

// WithClock overrides the clock used to stamp events.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithLogger sets the service logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates an ingest service.
func NewService(store eventlog.Appender, aggregator stats.Aggregator, publisher Publisher, opts ...Option) *Service {
	s := &Service{
		store:     store,
		stats:     aggregator,
		publisher: publisher,
		audit:     audit.Nop{},
		clock:     time.Now,
		logger:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit decodes payload, appends the event, recomputes the snapshot and
// publishes it to every connected subscriber. Malformed payloads return
// ErrMalformed and leave the log and the subscribers untouched.
func (s *Service) Submit(ctx context.Context, payload []byte) (stats.Snapshot, error) {
	size, err := DecodeGroupSize(payload)
	if err != nil {
		s.record(ctx, 0, audit.OutcomeMalformed, err)
		s.logger.WithError(err).Debug("Discarding malformed submission")
		return stats.Snapshot{}, err
	}

	event := eventlog.Event{OccurredAt: s.clock(), GroupSize: size}
	if err := s.store.Append(ctx, event); err != nil {
		s.record(ctx, size, audit.OutcomeStoreError, err)
		s.logger.WithError(err).WithField("group_size", size).Error("Failed to append event")
		return stats.Snapshot{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	s.record(ctx, size, audit.OutcomeAccepted, nil)
	metrics.VisitorsIngested.Add(float64(size))

	// Fan-out must outlive the submitter's connection.
	snapshot := s.Publish(context.WithoutCancel(ctx))
	return snapshot, nil
}

// Publish recomputes the snapshot and sends it to every subscriber.
func (s *Service) Publish(ctx context.Context) stats.Snapshot {
	snapshot := s.stats.Snapshot(ctx)

	msg, err := broadcast.NewMessage(broadcast.TypeStats, snapshot)
	if err != nil {
		s.logger.WithError(err).Error("Failed to encode snapshot")
		return snapshot
	}

	report := s.publisher.Publish(ctx, msg)
	s.logger.WithFields(logrus.Fields{
		"total_visitors": snapshot.TotalVisitors,
		"delivered":      report.Delivered,
		"failed":         report.Failed,
	}).Debug("Snapshot published")

	return snapshot
}

// Reject records a submission dropped before decoding.
func (s *Service) Reject(ctx context.Context, reason error) {
	outcome := audit.OutcomeMalformed
	if errors.Is(reason, ErrRateLimited) {
		outcome = audit.OutcomeRateLimited
	}
	s.record(ctx, 0, outcome, reason)
}

// Current returns the snapshot of the current log.
func (s *Service) Current(ctx context.Context) stats.Snapshot {
	return s.stats.Snapshot(ctx)
}

// CurrentMessage returns the current snapshot encoded for subscribers.
func (s *Service) CurrentMessage(ctx context.Context) (broadcast.Message, error) {
	return broadcast.NewMessage(broadcast.TypeStats, s.Current(ctx))
}

func (s *Service) record(ctx context.Context, size int, outcome string, err error) {
	metrics.EventsIngested.WithLabelValues(outcome).Inc()
	s.audit.Record(ctx, size, outcome, err)
}

type submission struct {
	GroupSize *json.RawMessage `json:"group_size"`
}

// DecodeGroupSize parses {"group_size": n}. A missing field means
// DefaultGroupSize; anything other than a JSON object with a positive integer
// group_size is ErrMalformed.
func DecodeGroupSize(payload []byte) (int, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return 0, fmt.Errorf("%w: expected a JSON object", ErrMalformed)
	}

	var sub submission
	if err := json.Unmarshal(trimmed, &sub); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if sub.GroupSize == nil {
		return DefaultGroupSize, nil
	}

	var size int
	if err := json.Unmarshal(*sub.GroupSize, &size); err != nil {
		return 0, fmt.Errorf("%w: group_size must be an integer", ErrMalformed)
	}
	if size < 1 {
		return 0, fmt.Errorf("%w: group_size must be positive, got %d", ErrMalformed, size)
	}
	return size, nil
}
