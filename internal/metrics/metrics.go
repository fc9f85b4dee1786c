// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vfc"

var (
	// EventsIngested counts submissions by outcome.
	EventsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "ingest", Name: "events_total", Help: "Submissions by outcome."},
		[]string{"outcome"},
	)
	// VisitorsIngested sums the group sizes of accepted events.
	VisitorsIngested = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "ingest", Name: "visitors_total", Help: "Visitors in accepted events."},
	)
	// SnapshotsComputed counts snapshot computations by mode and result.
	SnapshotsComputed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "stats", Name: "snapshots_total", Help: "Snapshots computed by mode and result."},
		[]string{"mode", "result"},
	)
	// SnapshotDuration observes the time to read the log and compute a snapshot.
	SnapshotDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: namespace, Subsystem: "stats", Name: "snapshot_duration_seconds", Help: "Snapshot computation latency.", Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14)},
		[]string{"mode"},
	)
	// Subscribers is the number of connected subscribers.
	Subscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: namespace, Subsystem: "hub", Name: "subscribers", Help: "Connected subscribers."},
	)
	// Deliveries counts per-subscriber sends by result.
	Deliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Subsystem: "hub", Name: "deliveries_total", Help: "Per-subscriber sends by result."},
		[]string{"result"},
	)
)

func init() {
	_ = prometheus.Register(EventsIngested)
	_ = prometheus.Register(VisitorsIngested)
	_ = prometheus.Register(SnapshotsComputed)
	_ = prometheus.Register(SnapshotDuration)
	_ = prometheus.Register(Subscribers)
	_ = prometheus.Register(Deliveries)
}
