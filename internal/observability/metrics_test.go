package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RegisterOnFreshRegistry(t *testing.T) {
	m := NewMetricsForTesting()
	reg := prometheus.NewRegistry()
	require.NoError(t, func() error {
		for _, c := range m.collectors() {
			if err := reg.Register(c); err != nil {
				return err
			}
		}
		return nil
	}())

	m.FeedRowsInserted.WithLabelValues("kp").Add(3)
	m.ForecastCache.WithLabelValues("hit").Inc()

	assert.InDelta(t, 3, testutil.ToFloat64(m.FeedRowsInserted.WithLabelValues("kp")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ForecastCache.WithLabelValues("hit")), 0)
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()
	a.EventsPublished.Inc()
	assert.InDelta(t, 0, testutil.ToFloat64(b.EventsPublished), 0)
}
