//
//
package stats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visitor-flow/vfc/internal/eventlog"
	"github.com/visitor-flow/vfc/internal/intensity"
)

var epoch = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func at(minutes float64, size int) eventlog.Event {
	return eventlog.Event{OccurredAt: intensity.Instant(epoch, minutes), GroupSize: size}
}

func newRateStrategy(t *testing.T, weighted bool) RateStrategy {
	t.Helper()
	est, err := intensity.New(20, 1000)
	require.NoError(t, err)
	return RateStrategy{Estimator: est, Epoch: epoch, Weighted: weighted}
}

func TestBuildSampleDropsEventsBeforeEpoch(t *testing.T) {
	events := []eventlog.Event{at(-5, 4), at(0, 1), at(3, 2)}

	sample := BuildSample(events, epoch)

	assert.Equal(t, []float64{0, 3}, sample.Times)
	assert.Equal(t, []int{1, 2}, sample.Sizes)
	assert.Equal(t, 3, sample.Total())
	assert.Equal(t, 3.0, sample.Horizon())
	assert.Equal(t, []float64{1, 2}, sample.Weights())
}

func TestTallyTotalsAndRecent(t *testing.T) {
	var events []eventlog.Event
	want := 0
	for i := 0; i < 15; i++ {
		events = append(events, at(float64(i), i+1))
		want += i + 1
	}

	snapshot, err := TallyStrategy{Limit: 10, Location: time.UTC}.Compute(events)
	require.NoError(t, err)

	assert.Equal(t, ModeTally, snapshot.Mode)
	assert.Equal(t, want, snapshot.TotalVisitors)
	require.Len(t, snapshot.RecentVisitors, 10)
	assert.Equal(t, 6, snapshot.RecentVisitors[0].GroupSize)
	assert.Equal(t, 15, snapshot.RecentVisitors[9].GroupSize)
	assert.Equal(t, "2025-01-01 09:14:00", snapshot.RecentVisitors[9].Timestamp)
}

func TestTallyCountsEventsBeforeEpoch(t *testing.T) {
	snapshot, err := TallyStrategy{Location: time.UTC}.Compute([]eventlog.Event{at(-10, 3), at(1, 2)})
	require.NoError(t, err)

	assert.Equal(t, 5, snapshot.TotalVisitors)
	assert.Len(t, snapshot.RecentVisitors, 2)
}

func TestTallyEmptyLog(t *testing.T) {
	snapshot, err := TallyStrategy{}.Compute(nil)
	require.NoError(t, err)

	data, err := json.Marshal(snapshot)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_visitors":0,"recent_visitors":[]}`, string(data))
}

func TestRateCurve(t *testing.T) {
	events := []eventlog.Event{at(0, 1), at(5, 1), at(5, 1), at(10, 1)}

	snapshot, err := newRateStrategy(t, false).Compute(events)
	require.NoError(t, err)

	assert.Equal(t, ModeRate, snapshot.Mode)
	assert.Equal(t, 4, snapshot.TotalVisitors)
	require.Len(t, snapshot.DispTimes, 1000)
	require.Len(t, snapshot.DispIntensity, 1000)
	assert.True(t, snapshot.DispTimes[0].Equal(epoch))
	assert.WithinDuration(t, epoch.Add(10*time.Minute), snapshot.DispTimes[999], time.Millisecond)
	for _, v := range snapshot.DispIntensity {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestRateTotalMatchesGroupSizes(t *testing.T) {
	events := []eventlog.Event{at(1, 3), at(2, 1), at(4, 6)}

	snapshot, err := newRateStrategy(t, true).Compute(events)
	require.NoError(t, err)
	assert.Equal(t, 10, snapshot.TotalVisitors)
}

func TestRateWeightedCurveScales(t *testing.T) {
	events := []eventlog.Event{at(1, 2), at(4, 2)}

	plain, err := newRateStrategy(t, false).Compute(events)
	require.NoError(t, err)
	weighted, err := newRateStrategy(t, true).Compute(events)
	require.NoError(t, err)

	for i := range plain.DispIntensity {
		assert.InDelta(t, 2*plain.DispIntensity[i], weighted.DispIntensity[i], 1e-9)
	}
}

func TestRateSingleEventAtEpoch(t *testing.T) {
	snapshot, err := newRateStrategy(t, false).Compute([]eventlog.Event{at(0, 2)})

	assert.ErrorIs(t, err, intensity.ErrInsufficientData)
	assert.Equal(t, 2, snapshot.TotalVisitors)
	assert.Empty(t, snapshot.DispTimes)
	assert.Empty(t, snapshot.DispIntensity)

	data, err := json.Marshal(snapshot)
	require.NoError(t, err)
	assert.JSONEq(t, `{"disp_times":[],"disp_intensity":[],"total_visitors":2}`, string(data))
}

func TestRateOnlyEventsBeforeEpoch(t *testing.T) {
	snapshot, err := newRateStrategy(t, false).Compute([]eventlog.Event{at(-3, 4)})

	assert.ErrorIs(t, err, intensity.ErrInsufficientData)
	assert.Equal(t, 0, snapshot.TotalVisitors)
}

func TestRateWithoutEstimator(t *testing.T) {
	_, err := RateStrategy{Epoch: epoch}.Compute([]eventlog.Event{at(1, 1)})
	assert.Error(t, err)
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("rate")
	require.NoError(t, err)
	assert.Equal(t, ModeRate, mode)

	_, err = ParseMode("histogram")
	assert.Error(t, err)
}

func TestMarshalRateTimes(t *testing.T) {
	snapshot := Snapshot{
		Mode:          ModeRate,
		TotalVisitors: 1,
		DispTimes:     []time.Time{epoch},
		DispIntensity: []float64{0.5},
	}

	data, err := json.Marshal(snapshot)
	require.NoError(t, err)
	assert.JSONEq(t, `{"disp_times":["2025-01-01T09:00:00Z"],"disp_intensity":[0.5],"total_visitors":1}`, string(data))
}

func TestMarshalUnknownMode(t *testing.T) {
	_, err := json.Marshal(Snapshot{})
	assert.Error(t, err)
}
