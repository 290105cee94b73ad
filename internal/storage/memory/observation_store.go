package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/couchcryptid/space-weather-service/internal/domain"
	"github.com/couchcryptid/space-weather-service/internal/storage"
)

// ObservationStore is an in-memory implementation of storage.ObservationStore.
type ObservationStore struct {
	mu     sync.RWMutex
	nextID int64
	data   []domain.ObservationPoint
	keys   map[string]struct{}
}

// NewObservationStore creates a new in-memory observation store.
func NewObservationStore() *ObservationStore {
	return &ObservationStore{keys: make(map[string]struct{})}
}

var _ storage.ObservationStore = (*ObservationStore)(nil)

func observationKey(source, metric string, observedAt time.Time) string {
	return fmt.Sprintf("%s|%s|%d", source, metric, observedAt.UnixNano())
}

// UpsertObservations inserts the points whose natural key is new. The batch is
// validated before anything is written.
func (s *ObservationStore) UpsertObservations(_ context.Context, points []domain.ObservationPoint) (int, error) {
	for _, p := range points {
		if p.Source == "" || p.Metric == "" || p.ObservedAt.IsZero() {
			return 0, storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, p := range points {
		key := observationKey(p.Source, p.Metric, p.ObservedAt)
		if _, exists := s.keys[key]; exists {
			continue
		}
		s.nextID++
		p.ID = s.nextID
		p.ObservedAt = p.ObservedAt.UTC()
		s.keys[key] = struct{}{}
		s.data = append(s.data, p)
		inserted++
	}
	return inserted, nil
}

// DistinctMetrics returns every metric name in the store, sorted.
func (s *ObservationStore) DistinctMetrics(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, p := range s.data {
		seen[p.Metric] = struct{}{}
	}
	metrics := make([]string, 0, len(seen))
	for m := range seen {
		metrics = append(metrics, m)
	}
	sort.Strings(metrics)
	return metrics, nil
}

// ListByMetricRange returns readings of metric in [start, end), oldest first.
func (s *ObservationStore) ListByMetricRange(_ context.Context, metric string, start, end time.Time) ([]domain.ObservationPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.ObservationPoint{}
	for _, p := range s.data {
		if p.Metric == metric && !p.ObservedAt.Before(start) && p.ObservedAt.Before(end) {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.ObservationPoint) int {
		return a.ObservedAt.Compare(b.ObservedAt)
	})
	return out, nil
}

// Query returns readings matching f, newest first.
func (s *ObservationStore) Query(_ context.Context, f storage.ObservationFilter) ([]domain.ObservationPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.ObservationPoint{}
	for _, p := range s.data {
		if f.Metric != "" && p.Metric != f.Metric {
			continue
		}
		if f.Start != nil && p.ObservedAt.Before(*f.Start) {
			continue
		}
		if f.End != nil && p.ObservedAt.After(*f.End) {
			continue
		}
		out = append(out, p)
	}
	slices.SortStableFunc(out, func(a, b domain.ObservationPoint) int {
		if c := b.ObservedAt.Compare(a.ObservedAt); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Ping always succeeds.
func (s *ObservationStore) Ping(context.Context) error { return nil }
