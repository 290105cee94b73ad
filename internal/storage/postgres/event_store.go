package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/couchcryptid/space-weather-service/internal/domain"
	"github.com/couchcryptid/space-weather-service/internal/storage"
)

// EventStore implements storage.EventStore using PostgreSQL.
type EventStore struct {
	pool *Pool
}

// NewEventStore creates a new EventStore.
func NewEventStore(pool *Pool) *EventStore {
	return &EventStore{pool: pool}
}

var _ storage.EventStore = (*EventStore)(nil)

const eventColumns = `id, source, product_id, event_type, severity, message, issued_at, raw`

// UpsertEvent inserts e unless (source, product_id, issued_at) already exists.
func (s *EventStore) UpsertEvent(ctx context.Context, e domain.EventRecord) (bool, error) {
	if e.Source == "" || e.ProductID == "" || e.IssuedAt.IsZero() {
		return false, storage.ErrInvalidInput
	}

	query := `
		INSERT INTO events (source, product_id, event_type, severity, message, issued_at, raw)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT ON CONSTRAINT events_natural_key DO NOTHING
	`

	var raw []byte
	if len(e.Raw) > 0 {
		raw = e.Raw
	}

	tag, err := s.pool.Exec(ctx, query,
		e.Source,
		e.ProductID,
		e.EventType,
		e.Severity,
		e.Message,
		e.IssuedAt.UTC(),
		raw,
	)
	if err != nil {
		return false, fmt.Errorf("upsert event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListByRange returns events with issued_at in [start, end), oldest first.
func (s *EventStore) ListByRange(ctx context.Context, start, end time.Time) ([]domain.EventRecord, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE issued_at >= $1 AND issued_at < $2
		ORDER BY issued_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("list events by range: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// Query returns events matching f, newest first.
func (s *EventStore) Query(ctx context.Context, f storage.EventFilter) ([]domain.EventRecord, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Start != nil {
		add("issued_at >= $%d", f.Start.UTC())
	}
	if f.End != nil {
		add("issued_at <= $%d", f.End.UTC())
	}
	if f.Severity != "" {
		add("severity = $%d", f.Severity)
	}
	if f.EventType != "" {
		add("event_type = $%d", f.EventType)
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY issued_at DESC, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]domain.EventRecord, error) {
	events := []domain.EventRecord{}

	for rows.Next() {
		var (
			e   domain.EventRecord
			raw []byte
		)
		err := rows.Scan(
			&e.ID,
			&e.Source,
			&e.ProductID,
			&e.EventType,
			&e.Severity,
			&e.Message,
			&e.IssuedAt,
			&raw,
		)
		if err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		e.IssuedAt = e.IssuedAt.UTC()
		if len(raw) > 0 {
			e.Raw = json.RawMessage(raw)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	return events, nil
}
