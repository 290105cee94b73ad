package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/space-weather-service/internal/domain"
	"github.com/couchcryptid/space-weather-service/internal/observability"
	"github.com/couchcryptid/space-weather-service/internal/storage"
)

// Publisher fans newly stored events out to downstream consumers.
type Publisher interface {
	PublishEvents(ctx context.Context, events []domain.EventRecord) error
}

// FeedResult reports what one feed contributed to an ingest cycle.
type FeedResult struct {
	Parsed   int `json:"parsed"`
	Inserted int `json:"inserted"`
}

// Ingester runs one fetch-parse-upsert cycle over every SWPC feed.
type Ingester struct {
	source       domain.FeedSource
	transformer  *FeedTransformer
	events       storage.EventStore
	observations storage.ObservationStore
	publisher    Publisher
	logger       *slog.Logger
	metrics      *observability.Metrics
	ready        atomic.Bool
}

// New creates an Ingester. A nil publisher disables alert fan-out.
func New(source domain.FeedSource, events storage.EventStore, observations storage.ObservationStore, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics) *Ingester {
	return &Ingester{
		source:       source,
		transformer:  NewTransformer(domain.SourceSWPC, logger),
		events:       events,
		observations: observations,
		publisher:    publisher,
		logger:       logger,
		metrics:      metrics,
	}
}

// CheckReadiness returns nil once at least one feed has been ingested.
func (i *Ingester) CheckReadiness(_ context.Context) error {
	if !i.ready.Load() {
		return errors.New("no feed has been ingested yet")
	}
	return nil
}

// Run ingests alerts, then each observation feed. A failing feed is logged and
// skipped; its error is included in the joined error returned at the end. The
// result has an entry for every feed that was attempted.
func (i *Ingester) Run(ctx context.Context) (map[string]FeedResult, error) {
	start := time.Now()
	defer func() {
		i.metrics.IngestDuration.Observe(time.Since(start).Seconds())
	}()

	results := make(map[string]FeedResult, 1+len(domain.ObservationFeeds))
	var errs []error

	record := func(feed string, res FeedResult, err error) {
		results[feed] = res
		i.metrics.FeedRowsParsed.WithLabelValues(feed).Add(float64(res.Parsed))
		i.metrics.FeedRowsInserted.WithLabelValues(feed).Add(float64(res.Inserted))
		if err != nil {
			i.logger.Error("feed ingest failed", "feed", feed, "error", err)
			errs = append(errs, err)
			return
		}
		i.ready.Store(true)
		i.logger.Info("feed ingested", "feed", feed, "parsed", res.Parsed, "inserted", res.Inserted)
	}

	res, err := i.ingestAlerts(ctx)
	record(domain.FeedAlerts, res, err)

	for _, feed := range domain.ObservationFeeds {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		res, err := i.ingestObservations(ctx, feed)
		record(feed.Name, res, err)
	}

	return results, errors.Join(errs...)
}

func (i *Ingester) ingestAlerts(ctx context.Context) (FeedResult, error) {
	payload, err := i.source.FetchFeed(ctx, domain.AlertsFeed)
	if err != nil {
		return FeedResult{}, err
	}

	events := i.transformer.Alerts(payload)
	res := FeedResult{Parsed: len(events)}

	var fresh []domain.EventRecord
	for _, e := range events {
		inserted, err := i.events.UpsertEvent(ctx, e)
		if err != nil {
			return res, fmt.Errorf("store alert %s: %w", e.ProductID, err)
		}
		if inserted {
			res.Inserted++
			fresh = append(fresh, e)
		}
	}

	i.publish(ctx, fresh)
	return res, nil
}

func (i *Ingester) ingestObservations(ctx context.Context, feed domain.Feed) (FeedResult, error) {
	payload, err := i.source.FetchFeed(ctx, feed)
	if err != nil {
		return FeedResult{}, err
	}

	points := i.transformer.Observations(feed, payload)
	res := FeedResult{Parsed: len(points)}

	inserted, err := i.observations.UpsertObservations(ctx, points)
	if err != nil {
		return res, fmt.Errorf("store %s observations: %w", feed.Name, err)
	}
	res.Inserted = inserted
	return res, nil
}

// publish hands new events to the publisher. Failures are logged only; the
// stored rows remain the source of truth.
func (i *Ingester) publish(ctx context.Context, events []domain.EventRecord) {
	if i.publisher == nil || len(events) == 0 {
		return
	}
	if err := i.publisher.PublishEvents(ctx, events); err != nil {
		i.metrics.PublishErrors.Inc()
		i.logger.Error("publish alerts failed", "error", err, "count", len(events))
		return
	}
	i.metrics.EventsPublished.Add(float64(len(events)))
}
