//
//
package stats

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/visitor-flow/vfc/internal/eventlog"
	"github.com/visitor-flow/vfc/internal/metrics"
)

// Aggregator produces the current snapshot. Snapshot never fails: a degraded
// computation yields a zeroed or partial snapshot and is logged.
type Aggregator interface {
	Snapshot(ctx context.Context) Snapshot
	Mode() Mode
}

// Service recomputes snapshots from the event log.
//
// Append, read and recompute are not transactional: an event appended while a
// snapshot is being computed may or may not be included in it.
type Service struct {
	reader   eventlog.Reader
	strategy Strategy
	clock    func() time.Time
	logger   *logrus.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock that bounds log reads.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithLogger sets the logger for degraded computations.
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a snapshot service.
func NewService(reader eventlog.Reader, strategy Strategy, opts ...Option) *Service {
	s := &Service{
		reader:   reader,
		strategy: strategy,
		clock:    time.Now,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode returns the snapshot variant produced by the service.
func (s *Service) Mode() Mode {
	return s.strategy.Mode()
}

// Snapshot reads the whole log up to now and recomputes the snapshot.
func (s *Service) Snapshot(ctx context.Context) Snapshot {
	mode := s.strategy.Mode()
	start := time.Now()
	defer func() {
		metrics.SnapshotDuration.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())
	}()

	events, err := s.reader.ReadUntil(ctx, s.clock())
	if err != nil {
		s.logger.WithError(err).WithField("mode", mode).Warn("Failed to read event log, publishing empty snapshot")
		metrics.SnapshotsComputed.WithLabelValues(string(mode), "read_error").Inc()
		return Empty(mode)
	}

	snapshot, err := s.strategy.Compute(events)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"mode":   mode,
			"events": len(events),
		}).Debug("Snapshot computed without curve")
		metrics.SnapshotsComputed.WithLabelValues(string(mode), "degraded").Inc()
		return snapshot
	}

	metrics.SnapshotsComputed.WithLabelValues(string(mode), "ok").Inc()
	return snapshot
}

var _ Aggregator = (*Service)(nil)
