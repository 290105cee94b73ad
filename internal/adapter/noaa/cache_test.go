package noaa

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/space-weather-service/internal/domain"
	"github.com/couchcryptid/space-weather-service/internal/observability"
)

type mockForecastSource struct {
	points []domain.ForecastPoint
	err    error
	calls  int
}

func (m *mockForecastSource) Forecast(context.Context) ([]domain.ForecastPoint, error) {
	m.calls++
	return m.points, m.err
}

func TestCachedForecastSource_TTL(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC))
	inner := &mockForecastSource{points: []domain.ForecastPoint{{Kp: 3}}}
	metrics := observability.NewMetricsForTesting()
	c := NewCachedForecastSource(inner, 10*time.Minute, clock, metrics)
	ctx := context.Background()

	got, err := c.Forecast(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got[0].Kp)
	assert.Equal(t, 1, inner.calls)

	inner.points = []domain.ForecastPoint{{Kp: 7}}
	clock.Advance(9*time.Minute + 59*time.Second)
	got, err = c.Forecast(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got[0].Kp, "served from cache before expiry")
	assert.Equal(t, 1, inner.calls)

	clock.Advance(time.Second)
	got, err = c.Forecast(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7.0, got[0].Kp, "refetched at expiry")
	assert.Equal(t, 2, inner.calls)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ForecastCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.ForecastCache.WithLabelValues("miss")), 0)
}

func TestCachedForecastSource_ErrorKeepsPreviousState(t *testing.T) {
	clock := clockwork.NewFakeClock()
	inner := &mockForecastSource{points: []domain.ForecastPoint{{Kp: 4}}}
	c := NewCachedForecastSource(inner, time.Minute, clock, observability.NewMetricsForTesting())
	ctx := context.Background()

	_, err := c.Forecast(ctx)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	upstream := &domain.UpstreamFetchError{Feed: domain.FeedKpForecast, Err: errors.New("boom")}
	inner.err = upstream
	inner.points = nil

	_, err = c.Forecast(ctx)
	assert.ErrorIs(t, err, upstream)

	// Stale state is still there but expired, so the next call retries upstream.
	inner.err = nil
	inner.points = []domain.ForecastPoint{{Kp: 6}}
	got, err := c.Forecast(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6.0, got[0].Kp)
	assert.Equal(t, 3, inner.calls)
}

func TestCachedForecastSource_ErrorBeforeFirstFetch(t *testing.T) {
	inner := &mockForecastSource{err: errors.New("down")}
	c := NewCachedForecastSource(inner, time.Minute, clockwork.NewFakeClock(), observability.NewMetricsForTesting())

	_, err := c.Forecast(context.Background())
	require.Error(t, err)
	_, err = c.Forecast(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}
