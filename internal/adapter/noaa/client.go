// Package noaa fetches NOAA SWPC feeds over HTTP.
package noaa

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/space-weather-service/internal/domain"
	"github.com/couchcryptid/space-weather-service/internal/observability"
)

// maxBodyBytes bounds a single feed response. The largest SWPC product used
// here (one day of 1-minute RTSW data) is well under 1 MiB.
const maxBodyBytes = 16 << 20

// Client implements domain.FeedSource and domain.ForecastSource against the
// SWPC JSON products. It does not retry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an SWPC client. timeout bounds each request.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

var (
	_ domain.FeedSource     = (*Client)(nil)
	_ domain.ForecastSource = (*Client)(nil)
)

// FetchFeed downloads and decodes one feed. Transport failures, non-200
// responses and undecodable bodies are returned as *domain.UpstreamFetchError.
func (c *Client) FetchFeed(ctx context.Context, feed domain.Feed) (any, error) {
	start := time.Now()
	payload, err := c.doRequest(ctx, c.baseURL+feed.Path)
	c.metrics.UpstreamDuration.WithLabelValues(feed.Name).Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(feed.Name, "error").Inc()
		return nil, &domain.UpstreamFetchError{Feed: feed.Name, Err: err}
	}
	c.metrics.UpstreamRequests.WithLabelValues(feed.Name, "success").Inc()
	return payload, nil
}

// Forecast fetches and parses the Kp forecast product. A structurally
// malformed payload yields no points rather than an error.
func (c *Client) Forecast(ctx context.Context) ([]domain.ForecastPoint, error) {
	payload, err := c.FetchFeed(ctx, domain.KpForecastFeed)
	if err != nil {
		return nil, err
	}

	tab := domain.NormalizePayload(payload)
	if !tab.OK() {
		c.logger.Warn("kp forecast payload malformed",
			"error", domain.ErrMissingData,
			"reason", tab.Malformed,
		)
		return []domain.ForecastPoint{}, nil
	}

	points := domain.MapKpForecast(tab)
	if len(points) == 0 {
		c.logger.Warn("kp forecast has no usable rows", "error", domain.ErrMissingData, "rows", len(tab.Rows))
	}
	return points, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", fullURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("swpc API error: status %d: %s", resp.StatusCode, body)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	payload, err := domain.DecodePayload(body)
	if err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	c.logger.Debug("swpc feed fetched", "url", fullURL, "bytes", len(body))
	return payload, nil
}
