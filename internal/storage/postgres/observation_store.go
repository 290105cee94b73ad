package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/couchcryptid/space-weather-service/internal/domain"
	"github.com/couchcryptid/space-weather-service/internal/storage"
)

// ObservationStore implements storage.ObservationStore using PostgreSQL.
type ObservationStore struct {
	pool *Pool
}

// NewObservationStore creates a new ObservationStore.
func NewObservationStore(pool *Pool) *ObservationStore {
	return &ObservationStore{pool: pool}
}

var _ storage.ObservationStore = (*ObservationStore)(nil)

const observationColumns = `id, source, metric, value, unit, observed_at`

// UpsertObservations inserts the batch in one transaction, skipping points
// whose (source, metric, observed_at) already exists.
func (s *ObservationStore) UpsertObservations(ctx context.Context, points []domain.ObservationPoint) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}
	for _, p := range points {
		if p.Source == "" || p.Metric == "" || p.ObservedAt.IsZero() {
			return 0, storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO observations (source, metric, value, unit, observed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ON CONSTRAINT observations_natural_key DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(query, p.Source, p.Metric, p.Value, nullIfEmpty(p.Unit), p.ObservedAt.UTC())
	}

	results := tx.SendBatch(ctx, batch)
	inserted := 0
	for range points {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return 0, fmt.Errorf("upsert observation: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close observation batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return inserted, nil
}

// DistinctMetrics returns every metric name in the store, sorted.
func (s *ObservationStore) DistinctMetrics(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT metric FROM observations ORDER BY metric`)
	if err != nil {
		return nil, fmt.Errorf("list distinct metrics: %w", err)
	}
	metrics, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan metric row: %w", err)
	}
	return metrics, nil
}

// ListByMetricRange returns readings of metric in [start, end), oldest first.
func (s *ObservationStore) ListByMetricRange(ctx context.Context, metric string, start, end time.Time) ([]domain.ObservationPoint, error) {
	query := `
		SELECT ` + observationColumns + `
		FROM observations
		WHERE metric = $1 AND observed_at >= $2 AND observed_at < $3
		ORDER BY observed_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, metric, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("list observations by range: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// Query returns readings matching f, newest first.
func (s *ObservationStore) Query(ctx context.Context, f storage.ObservationFilter) ([]domain.ObservationPoint, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Metric != "" {
		add("metric = $%d", f.Metric)
	}
	if f.Start != nil {
		add("observed_at >= $%d", f.Start.UTC())
	}
	if f.End != nil {
		add("observed_at <= $%d", f.End.UTC())
	}

	query := `SELECT ` + observationColumns + ` FROM observations`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY observed_at DESC, id DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

func scanObservations(rows pgx.Rows) ([]domain.ObservationPoint, error) {
	points := []domain.ObservationPoint{}

	for rows.Next() {
		var (
			p    domain.ObservationPoint
			unit *string
		)
		if err := rows.Scan(&p.ID, &p.Source, &p.Metric, &p.Value, &unit, &p.ObservedAt); err != nil {
			return nil, fmt.Errorf("scan observation row: %w", err)
		}
		p.ObservedAt = p.ObservedAt.UTC()
		if unit != nil {
			p.Unit = *unit
		}
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observation rows: %w", err)
	}
	return points, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
