// Package storage defines the persistence contract for events and observations.
// Writes are idempotent upserts by natural key; reads return UTC timestamps.
package storage

import (
	"context"
	"time"

	"github.com/couchcryptid/space-weather-service/internal/domain"
)

// EventStore persists alert events. The natural key is
// (source, product_id, issued_at).
type EventStore interface {
	// UpsertEvent inserts e unless its natural key already exists.
	// inserted is false for an existing key; that is not an error.
	UpsertEvent(ctx context.Context, e domain.EventRecord) (inserted bool, err error)

	// ListByRange returns events with issued_at in [start, end), oldest first.
	ListByRange(ctx context.Context, start, end time.Time) ([]domain.EventRecord, error)

	// Query returns events matching f, newest first.
	Query(ctx context.Context, f EventFilter) ([]domain.EventRecord, error)
}

// ObservationStore persists metric readings. The natural key is
// (source, metric, observed_at).
type ObservationStore interface {
	// UpsertObservations inserts the points whose natural key is new and
	// returns how many were inserted.
	UpsertObservations(ctx context.Context, points []domain.ObservationPoint) (inserted int, err error)

	// DistinctMetrics returns every metric name in the store, sorted.
	DistinctMetrics(ctx context.Context) ([]string, error)

	// ListByMetricRange returns readings of metric with observed_at in
	// [start, end), oldest first.
	ListByMetricRange(ctx context.Context, metric string, start, end time.Time) ([]domain.ObservationPoint, error)

	// Query returns readings matching f, newest first.
	Query(ctx context.Context, f ObservationFilter) ([]domain.ObservationPoint, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EventFilter selects events for listing. Start and End are inclusive; nil
// and empty fields are unconstrained. A zero Limit returns every match.
type EventFilter struct {
	Start     *time.Time
	End       *time.Time
	Severity  string
	EventType string
	Limit     int
}

// ObservationFilter selects readings for listing. Start and End are
// inclusive; nil and empty fields are unconstrained. A zero Limit returns every match.
type ObservationFilter struct {
	Metric string
	Start  *time.Time
	End    *time.Time
	Limit  int
}
