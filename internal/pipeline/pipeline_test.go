package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/space-weather-service/internal/domain"
	"github.com/couchcryptid/space-weather-service/internal/observability"
	"github.com/couchcryptid/space-weather-service/internal/pipeline"
	"github.com/couchcryptid/space-weather-service/internal/storage"
	"github.com/couchcryptid/space-weather-service/internal/storage/memory"
)

// --- mocks ---

type mockPublisher struct {
	published []domain.EventRecord
	err       error
}

func (m *mockPublisher) PublishEvents(_ context.Context, events []domain.EventRecord) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, events...)
	return nil
}

type failingEventStore struct {
	storage.EventStore
	err error
}

func (f failingEventStore) UpsertEvent(context.Context, domain.EventRecord) (bool, error) {
	return false, f.err
}

func storedEvents(t *testing.T, store storage.EventStore) []domain.EventRecord {
	t.Helper()
	events, err := store.Query(context.Background(), storage.EventFilter{})
	require.NoError(t, err)
	return events
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	source       *fixtureSource
	events       *memory.EventStore
	observations *memory.ObservationStore
	publisher    *mockPublisher
	metrics      *observability.Metrics
	ingester     *pipeline.Ingester
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		source:       newFixtureSource(t),
		events:       memory.NewEventStore(),
		observations: memory.NewObservationStore(),
		publisher:    &mockPublisher{},
		metrics:      observability.NewMetricsForTesting(),
	}
	h.ingester = pipeline.New(h.source, h.events, h.observations, h.publisher, discardLogger(), h.metrics)
	return h
}

// --- tests ---

func TestIngester_Run_HappyPath(t *testing.T) {
	h := newHarness(t)

	results, err := h.ingester.Run(context.Background())
	require.NoError(t, err)

	want := map[string]pipeline.FeedResult{
		domain.FeedAlerts:   {Parsed: 3, Inserted: 3},
		domain.FeedRTSWWind: {Parsed: 5, Inserted: 5},
		domain.FeedRTSWMag:  {Parsed: 5, Inserted: 5},
		domain.FeedKp:       {Parsed: 4, Inserted: 4},
	}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []string{domain.FeedAlerts, domain.FeedRTSWWind, domain.FeedRTSWMag, domain.FeedKp}, h.source.fetched)
	assert.Len(t, h.publisher.published, 3)
	assert.NoError(t, h.ingester.CheckReadiness(context.Background()))

	metrics, err := h.observations.DistinctMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"bt", "by", "bz", "kp",
		"solar_wind_density", "solar_wind_speed", "solar_wind_temperature",
	}, metrics)

	assert.InDelta(t, 4, testutil.ToFloat64(h.metrics.FeedRowsInserted.WithLabelValues(domain.FeedKp)), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(h.metrics.EventsPublished), 0)
}

func TestIngester_Run_IsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.ingester.Run(ctx)
	require.NoError(t, err)

	results, err := h.ingester.Run(ctx)
	require.NoError(t, err)
	for feed, res := range results {
		assert.Positive(t, res.Parsed, feed)
		assert.Zero(t, res.Inserted, feed)
	}
	assert.Len(t, storedEvents(t, h.events), 3)
	assert.Len(t, h.publisher.published, 3, "no new events, nothing republished")
}

func TestIngester_Run_FetchFailureContinues(t *testing.T) {
	h := newHarness(t)
	h.source.failures[domain.FeedRTSWWind] = errors.New("connection reset")

	results, err := h.ingester.Run(context.Background())

	var ue *domain.UpstreamFetchError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, domain.FeedRTSWWind, ue.Feed)

	assert.Equal(t, pipeline.FeedResult{}, results[domain.FeedRTSWWind])
	assert.Equal(t, 4, results[domain.FeedKp].Inserted)
	assert.Len(t, h.source.fetched, 4)
	assert.NoError(t, h.ingester.CheckReadiness(context.Background()))
}

func TestIngester_Run_AllFeedsFail(t *testing.T) {
	h := newHarness(t)
	for _, feed := range []string{domain.FeedAlerts, domain.FeedRTSWWind, domain.FeedRTSWMag, domain.FeedKp} {
		h.source.failures[feed] = errors.New("dns failure")
	}

	_, err := h.ingester.Run(context.Background())
	require.Error(t, err)
	assert.Error(t, h.ingester.CheckReadiness(context.Background()))
}

func TestIngester_Run_MalformedPayloadIsEmpty(t *testing.T) {
	h := newHarness(t)
	h.source.override[domain.FeedRTSWMag] = map[string]any{"message": "service moved"}

	results, err := h.ingester.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pipeline.FeedResult{}, results[domain.FeedRTSWMag])
}

func TestIngester_Run_PublishErrorDoesNotFail(t *testing.T) {
	h := newHarness(t)
	h.publisher.err = errors.New("broker down")

	results, err := h.ingester.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, results[domain.FeedAlerts].Inserted)
	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.PublishErrors), 0)
}

func TestIngester_Run_NilPublisher(t *testing.T) {
	h := newHarness(t)
	ing := pipeline.New(h.source, h.events, h.observations, nil, discardLogger(), h.metrics)

	_, err := ing.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, storedEvents(t, h.events), 3)
}

func TestIngester_Run_StoreError(t *testing.T) {
	h := newHarness(t)
	storeErr := errors.New("disk full")
	ing := pipeline.New(h.source, failingEventStore{err: storeErr}, h.observations, h.publisher, discardLogger(), h.metrics)

	results, err := ing.Run(context.Background())
	require.ErrorIs(t, err, storeErr)
	assert.Equal(t, 3, results[domain.FeedAlerts].Parsed)
	assert.Equal(t, 4, results[domain.FeedKp].Inserted)
	assert.Empty(t, h.publisher.published)
}

func TestIngester_Run_CanceledContext(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.ingester.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{domain.FeedAlerts}, h.source.fetched)
}

func TestIngester_StoredTimesAreUTC(t *testing.T) {
	h := newHarness(t)
	_, err := h.ingester.Run(context.Background())
	require.NoError(t, err)

	start, end := domain.YearWindow(2024)
	kp, err := h.observations.ListByMetricRange(context.Background(), "kp", start, end)
	require.NoError(t, err)
	require.Len(t, kp, 4)
	assert.Equal(t, time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC), kp[0].ObservedAt)
	assert.Equal(t, "index", kp[0].Unit)

	sum := domain.SummarizeKp(kp)
	assert.Equal(t, 4, sum.StormIntervals)
	assert.Equal(t, 1, sum.StormDays)
}
