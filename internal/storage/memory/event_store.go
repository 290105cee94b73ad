// Package memory provides in-memory implementations of the storage interfaces.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/couchcryptid/space-weather-service/internal/domain"
	"github.com/couchcryptid/space-weather-service/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore.
type EventStore struct {
	mu     sync.RWMutex
	nextID int64
	data   []domain.EventRecord
	keys   map[string]struct{}
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{keys: make(map[string]struct{})}
}

var _ storage.EventStore = (*EventStore)(nil)

func eventKey(source, productID string, issuedAt time.Time) string {
	return fmt.Sprintf("%s|%s|%d", source, productID, issuedAt.UnixNano())
}

// UpsertEvent inserts e unless its natural key exists.
func (s *EventStore) UpsertEvent(_ context.Context, e domain.EventRecord) (bool, error) {
	if e.Source == "" || e.ProductID == "" || e.IssuedAt.IsZero() {
		return false, storage.ErrInvalidInput
	}
	key := eventKey(e.Source, e.ProductID, e.IssuedAt)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.keys[key]; exists {
		return false, nil
	}
	s.nextID++
	e.ID = s.nextID
	e.IssuedAt = e.IssuedAt.UTC()
	if e.Severity != nil {
		sev := *e.Severity
		e.Severity = &sev
	}
	e.Raw = slices.Clone(e.Raw)
	s.keys[key] = struct{}{}
	s.data = append(s.data, e)
	return true, nil
}

// ListByRange returns events with issued_at in [start, end), oldest first.
func (s *EventStore) ListByRange(_ context.Context, start, end time.Time) ([]domain.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.EventRecord{}
	for _, e := range s.data {
		if !e.IssuedAt.Before(start) && e.IssuedAt.Before(end) {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.EventRecord) int {
		return a.IssuedAt.Compare(b.IssuedAt)
	})
	return out, nil
}

// Query returns events matching f, newest first.
func (s *EventStore) Query(_ context.Context, f storage.EventFilter) ([]domain.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.EventRecord{}
	for _, e := range s.data {
		if f.Start != nil && e.IssuedAt.Before(*f.Start) {
			continue
		}
		if f.End != nil && e.IssuedAt.After(*f.End) {
			continue
		}
		if f.Severity != "" && (e.Severity == nil || *e.Severity != f.Severity) {
			continue
		}
		if f.EventType != "" && e.EventType != f.EventType {
			continue
		}
		out = append(out, e)
	}
	slices.SortStableFunc(out, func(a, b domain.EventRecord) int {
		if c := b.IssuedAt.Compare(a.IssuedAt); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}
