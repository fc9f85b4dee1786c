//
//
package stats

import (
	"errors"
	"fmt"
	"time"

	"github.com/visitor-flow/vfc/internal/eventlog"
	"github.com/visitor-flow/vfc/internal/intensity"
)

// DefaultRecentLimit is the number of rows in a tally snapshot.
const DefaultRecentLimit = 10

// Strategy computes one snapshot variant from the full log.
// Compute may return a usable snapshot together with an error describing a
// degraded result.
type Strategy interface {
	Mode() Mode
	Compute(events []eventlog.Event) (Snapshot, error)
}

// TallyStrategy reports the exact total and the last Limit raw rows.
type TallyStrategy struct {
	Limit    int
	Location *time.Location
}

// Mode implements Strategy.
func (s TallyStrategy) Mode() Mode { return ModeTally }

// Compute implements Strategy.
func (s TallyStrategy) Compute(events []eventlog.Event) (Snapshot, error) {
	limit := s.Limit
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}

	snapshot := Snapshot{Mode: ModeTally, RecentVisitors: []Visitor{}}
	for _, e := range events {
		snapshot.TotalVisitors += e.GroupSize
	}

	start := len(events) - limit
	if start < 0 {
		start = 0
	}
	for _, e := range events[start:] {
		snapshot.RecentVisitors = append(snapshot.RecentVisitors, Visitor{
			Timestamp: eventlog.FormatTime(e.OccurredAt, loc),
			GroupSize: e.GroupSize,
		})
	}

	return snapshot, nil
}

// RateStrategy reports the exact total and the smoothed arrival rate curve.
type RateStrategy struct {
	Estimator *intensity.Estimator
	Epoch     time.Time
	// Weighted weights each arrival by its group size.
	Weighted bool
}

// Mode implements Strategy.
func (s RateStrategy) Mode() Mode { return ModeRate }

// Compute implements Strategy. An estimator failure keeps the total and returns an
// empty curve alongside the error.
func (s RateStrategy) Compute(events []eventlog.Event) (Snapshot, error) {
	if s.Estimator == nil {
		return Empty(ModeRate), errors.New("rate strategy has no estimator")
	}

	sample := BuildSample(events, s.Epoch)
	snapshot := Snapshot{
		Mode:          ModeRate,
		TotalVisitors: sample.Total(),
		DispTimes:     []time.Time{},
		DispIntensity: []float64{},
	}

	var weights []float64
	if s.Weighted {
		weights = sample.Weights()
	}

	curve, err := s.Estimator.WeightedCurve(sample.Times, weights, sample.Horizon())
	if err != nil {
		return snapshot, fmt.Errorf("estimate over %d events: %w", sample.Len(), err)
	}

	snapshot.DispTimes = curve.Times(s.Epoch)
	snapshot.DispIntensity = curve.Values()
	return snapshot, nil
}
