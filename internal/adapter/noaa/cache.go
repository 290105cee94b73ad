package noaa

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/space-weather-service/internal/domain"
	"github.com/couchcryptid/space-weather-service/internal/observability"
)

// CachedForecastSource memoizes a ForecastSource for a fixed TTL.
//
// The lock only guards the cached state; the upstream fetch runs without it,
// so concurrent misses may fetch redundantly. The last successful fetch wins.
// A failed fetch leaves the previous state untouched.
type CachedForecastSource struct {
	inner   domain.ForecastSource
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics

	mu        sync.Mutex
	value     []domain.ForecastPoint
	expiresAt time.Time
	populated bool
}

// NewCachedForecastSource creates a TTL cache decorator around a forecast source.
func NewCachedForecastSource(inner domain.ForecastSource, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedForecastSource {
	return &CachedForecastSource{
		inner:   inner,
		ttl:     ttl,
		clock:   clock,
		metrics: metrics,
	}
}

var _ domain.ForecastSource = (*CachedForecastSource)(nil)

// Forecast returns the cached points while they are fresh and refetches after
// the TTL has passed.
func (c *CachedForecastSource) Forecast(ctx context.Context) ([]domain.ForecastPoint, error) {
	if points, ok := c.lookup(); ok {
		c.metrics.ForecastCache.WithLabelValues("hit").Inc()
		return points, nil
	}
	c.metrics.ForecastCache.WithLabelValues("miss").Inc()

	points, err := c.inner.Forecast(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.value = points
	c.expiresAt = c.clock.Now().Add(c.ttl)
	c.populated = true
	c.mu.Unlock()

	return points, nil
}

func (c *CachedForecastSource) lookup() ([]domain.ForecastPoint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.populated || !c.clock.Now().Before(c.expiresAt) {
		return nil, false
	}
	return c.value, true
}
