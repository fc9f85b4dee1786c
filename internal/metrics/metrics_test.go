package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorsRegistered(t *testing.T) {
	EventsIngested.WithLabelValues("accepted").Inc()
	Subscribers.Set(3)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["vfc_ingest_events_total"])
	assert.True(t, names["vfc_hub_subscribers"])
	assert.Equal(t, 3.0, testutil.ToFloat64(Subscribers))
}
