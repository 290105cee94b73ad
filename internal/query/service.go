// Package query serves forecasts, annual reports and stored records to the API.
package query

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/space-weather-service/internal/domain"
	"github.com/couchcryptid/space-weather-service/internal/storage"
)

// ForecastSourceName is reported in every forecast response.
const ForecastSourceName = "NOAA SWPC (Kp forecast product)"

// Listing limits.
const (
	DefaultEventLimit       = 100
	MaxEventLimit           = 500
	DefaultObservationLimit = 200
	MaxObservationLimit     = 2000
)

// Service answers read requests. It holds no mutable state of its own; the
// forecast source may cache.
type Service struct {
	forecasts    domain.ForecastSource
	events       storage.EventStore
	observations storage.ObservationStore
	pinger       storage.Pinger
	clock        clockwork.Clock
	kpCandidates []string
}

// NewService creates a query Service. kpCandidates is the ordered list of
// metric names tried when picking the Kp series for annual reports.
func NewService(
	forecasts domain.ForecastSource,
	events storage.EventStore,
	observations storage.ObservationStore,
	pinger storage.Pinger,
	clock clockwork.Clock,
	kpCandidates []string,
) *Service {
	return &Service{
		forecasts:    forecasts,
		events:       events,
		observations: observations,
		pinger:       pinger,
		clock:        clock,
		kpCandidates: slices.Clone(kpCandidates),
	}
}

// GetForecast returns exactly days daily summaries starting today (UTC).
// days is clamped to [1, 7]; callers that want to reject out-of-range values
// use ValidateForecastDays first.
func (s *Service) GetForecast(ctx context.Context, days int) (domain.Forecast, error) {
	points, err := s.forecasts.Forecast(ctx)
	if err != nil {
		return domain.Forecast{}, err
	}

	now := s.clock.Now().UTC()
	days = domain.ClampForecastDays(days)
	return domain.Forecast{
		Source:      ForecastSourceName,
		GeneratedAt: now,
		Days:        days,
		Daily:       domain.GroupForecastByDay(points, days, now),
	}, nil
}

// ValidateForecastDays rejects a window outside [1, 7].
func ValidateForecastDays(days int) error {
	if days < domain.MinForecastDays || days > domain.MaxForecastDays {
		return &domain.ValidationError{
			Field:  "days",
			Reason: fmt.Sprintf("must be between %d and %d, got %d", domain.MinForecastDays, domain.MaxForecastDays, days),
		}
	}
	return nil
}

// GetAnnualReport aggregates one calendar year of stored events and Kp
// readings. The year is validated before any storage access.
func (s *Service) GetAnnualReport(ctx context.Context, year int) (domain.AnnualReportStats, error) {
	if err := domain.ValidateReportYear(year); err != nil {
		return domain.AnnualReportStats{}, err
	}
	start, end := domain.YearWindow(year)

	events, err := s.events.ListByRange(ctx, start, end)
	if err != nil {
		return domain.AnnualReportStats{}, fmt.Errorf("annual report events: %w", err)
	}

	metrics, err := s.observations.DistinctMetrics(ctx)
	if err != nil {
		return domain.AnnualReportStats{}, fmt.Errorf("annual report metrics: %w", err)
	}

	var kp domain.KpSummary
	metric, ok := domain.SelectKpMetric(s.kpCandidates, metrics)
	if ok {
		readings, err := s.observations.ListByMetricRange(ctx, metric, start, end)
		if err != nil {
			return domain.AnnualReportStats{}, fmt.Errorf("annual report %s readings: %w", metric, err)
		}
		kp = domain.SummarizeKp(readings)
	}

	return domain.BuildAnnualReport(year, s.clock.Now(), domain.SummarizeEvents(events), metric, kp, metrics), nil
}

// Classification is the result of classifying a single Kp value.
type Classification struct {
	Kp     *float64      `json:"kp"`
	GScale domain.GScale `json:"g_scale"`
}

// Classify maps a loosely typed Kp value to its G-scale. Unreadable input is
// G0 with a nil Kp.
func (s *Service) Classify(raw any) Classification {
	c := Classification{GScale: domain.ClassifyValue(raw)}
	if kp, ok := domain.ParseNumeric(raw); ok {
		c.Kp = &kp
	}
	return c
}

// ListEvents returns stored events, newest first. A zero limit means the
// default; limits above the maximum are rejected.
func (s *Service) ListEvents(ctx context.Context, f storage.EventFilter) ([]domain.EventRecord, error) {
	limit, err := resolveLimit(f.Limit, DefaultEventLimit, MaxEventLimit)
	if err != nil {
		return nil, err
	}
	if err := validateRange(f.Start != nil && f.End != nil && f.End.Before(*f.Start)); err != nil {
		return nil, err
	}
	f.Limit = limit

	events, err := s.events.Query(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// ListObservations returns stored readings, newest first. Limit handling
// matches ListEvents.
func (s *Service) ListObservations(ctx context.Context, f storage.ObservationFilter) ([]domain.ObservationPoint, error) {
	limit, err := resolveLimit(f.Limit, DefaultObservationLimit, MaxObservationLimit)
	if err != nil {
		return nil, err
	}
	if err := validateRange(f.Start != nil && f.End != nil && f.End.Before(*f.Start)); err != nil {
		return nil, err
	}
	f.Limit = limit

	points, err := s.observations.Query(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}
	return points, nil
}

// CheckReadiness reports whether storage is reachable.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if s.pinger == nil {
		return errors.New("no storage configured")
	}
	return s.pinger.Ping(ctx)
}

func resolveLimit(limit, def, maxLimit int) (int, error) {
	if limit == 0 {
		return def, nil
	}
	if limit < 1 || limit > maxLimit {
		return 0, &domain.ValidationError{
			Field:  "limit",
			Reason: fmt.Sprintf("must be between 1 and %d, got %d", maxLimit, limit),
		}
	}
	return limit, nil
}

func validateRange(inverted bool) error {
	if inverted {
		return &domain.ValidationError{Field: "end", Reason: "must not be before start"}
	}
	return nil
}
