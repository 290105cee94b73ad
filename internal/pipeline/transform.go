package pipeline

import (
	"log/slog"

	"github.com/couchcryptid/space-weather-service/internal/domain"
)

// FeedTransformer turns decoded SWPC payloads into domain records. Malformed
// payloads are logged and produce no records.
type FeedTransformer struct {
	source string
	logger *slog.Logger
}

// NewTransformer creates a FeedTransformer that tags records with source.
func NewTransformer(source string, logger *slog.Logger) *FeedTransformer {
	return &FeedTransformer{
		source: source,
		logger: logger,
	}
}

// Alerts maps the alerts payload to event records.
func (t *FeedTransformer) Alerts(payload any) []domain.EventRecord {
	tab, ok := t.normalize(domain.FeedAlerts, payload)
	if !ok {
		return nil
	}
	events := domain.MapAlerts(tab, t.source)
	t.logEmpty(domain.FeedAlerts, tab, len(events))
	return events
}

// Observations maps a wind, mag or Kp payload to observation points.
func (t *FeedTransformer) Observations(feed domain.Feed, payload any) []domain.ObservationPoint {
	tab, ok := t.normalize(feed.Name, payload)
	if !ok {
		return nil
	}
	points := domain.MapObservations(feed, tab, t.source)
	t.logEmpty(feed.Name, tab, len(points))
	return points
}

func (t *FeedTransformer) normalize(feed string, payload any) (domain.Tabular, bool) {
	tab := domain.NormalizePayload(payload)
	if !tab.OK() {
		t.logger.Warn("feed payload malformed, skipping",
			"feed", feed,
			"error", domain.ErrMissingData,
			"reason", tab.Malformed,
		)
		return tab, false
	}
	return tab, true
}

func (t *FeedTransformer) logEmpty(feed string, tab domain.Tabular, mapped int) {
	if mapped > 0 {
		return
	}
	t.logger.Warn("feed produced no usable rows",
		"feed", feed,
		"error", domain.ErrMissingData,
		"rows", len(tab.Rows),
		"columns", tab.Columns,
	)
}
