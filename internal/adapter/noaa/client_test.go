package noaa

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/space-weather-service/internal/domain"
	"github.com/couchcryptid/space-weather-service/internal/observability"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string) *Client {
	return NewClient(baseURL, 5*time.Second, observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func serveJSON(t *testing.T, wantPath, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, wantPath, r.URL.Path)
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_FetchFeed_Success(t *testing.T) {
	srv := serveJSON(t, "/json/rtsw/rtsw_mag_1m.json", `[{"time_tag":"2026-01-14T00:00:00","bt":8.1}]`)
	c := testClient(srv.URL + "/")

	payload, err := c.FetchFeed(context.Background(), domain.RTSWMagFeed)
	require.NoError(t, err)

	tab := domain.NormalizePayload(payload)
	require.True(t, tab.OK())
	assert.Equal(t, []string{"bt", "time_tag"}, tab.Columns)
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.UpstreamRequests.WithLabelValues(domain.FeedRTSWMag, "success")), 0)
}

func TestClient_FetchFeed_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.FetchFeed(context.Background(), domain.AlertsFeed)

	var ue *domain.UpstreamFetchError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, domain.FeedAlerts, ue.Feed)
	assert.Contains(t, err.Error(), "503")
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.UpstreamRequests.WithLabelValues(domain.FeedAlerts, "error")), 0)
}

func TestClient_FetchFeed_InvalidJSON(t *testing.T) {
	srv := serveJSON(t, domain.KpFeed.Path, `<html>not json</html>`)
	c := testClient(srv.URL)

	_, err := c.FetchFeed(context.Background(), domain.KpFeed)

	var ue *domain.UpstreamFetchError
	require.ErrorAs(t, err, &ue)
	var fe *domain.FormatError
	assert.ErrorAs(t, err, &fe)
}

func TestClient_FetchFeed_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, 50*time.Millisecond, observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := c.FetchFeed(context.Background(), domain.KpFeed)

	var ue *domain.UpstreamFetchError
	require.ErrorAs(t, err, &ue)
}

func TestClient_Forecast(t *testing.T) {
	srv := serveJSON(t, domain.KpForecastFeed.Path, `[
		["time_tag","kp","observed","noaa_scale"],
		["2026-01-14 00:00:00","3.67","observed",null],
		["2026-01-14 03:00:00","5.33","predicted","G1"]
	]`)
	c := testClient(srv.URL)

	points, err := c.Forecast(context.Background())
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 5.33, points[1].Kp)
	assert.Equal(t, time.Date(2026, 1, 14, 3, 0, 0, 0, time.UTC), points[1].TimeTag)
}

func TestClient_Forecast_MalformedPayloadIsEmpty(t *testing.T) {
	srv := serveJSON(t, domain.KpForecastFeed.Path, `{"error":"moved"}`)
	c := testClient(srv.URL)

	points, err := c.Forecast(context.Background())
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestClient_Forecast_CanceledContext(t *testing.T) {
	srv := serveJSON(t, domain.KpForecastFeed.Path, `[]`)
	c := testClient(srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Forecast(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
