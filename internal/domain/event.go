package domain

import (
	"encoding/json"
	"time"
)

// SourceSWPC tags every row ingested from the NOAA SWPC feeds.
const SourceSWPC = "noaa_swpc"

// ObservationPoint is a single scalar reading of one metric.
// A point only exists for readings that had a usable value.
type ObservationPoint struct {
	ID         int64     `json:"id,omitempty"`
	Source     string    `json:"source"`
	Metric     string    `json:"metric"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}

// EventRecord is a discrete alert, watch, or warning notice.
// (Source, ProductID, IssuedAt) is its natural key.
type EventRecord struct {
	ID        int64           `json:"id,omitempty"`
	Source    string          `json:"source"`
	ProductID string          `json:"product_id"`
	EventType string          `json:"event_type"`
	Severity  *string         `json:"severity"`
	Message   string          `json:"message"`
	IssuedAt  time.Time       `json:"issued_at"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}

// ForecastPoint is one entry of the Kp forecast product.
// GScale is filled in when the point is bucketed and never persisted.
type ForecastPoint struct {
	TimeTag time.Time `json:"time_tag"`
	Kp      float64   `json:"kp"`
	GScale  GScale    `json:"g_scale"`
}

// ForecastDaySummary aggregates the forecast points of one UTC calendar date.
type ForecastDaySummary struct {
	Date      Date            `json:"date"`
	KpMax     float64         `json:"kp_max"`
	GScaleMax GScale          `json:"g_scale_max"`
	Points    []ForecastPoint `json:"points"`
}

// Forecast is the response envelope for the geomagnetic storm forecast.
type Forecast struct {
	Source      string               `json:"source"`
	GeneratedAt time.Time            `json:"generated_at_utc"`
	Days        int                  `json:"days"`
	Daily       []ForecastDaySummary `json:"daily"`
}

// EventTypeCount is one entry of the top event types table.
type EventTypeCount struct {
	EventType string `json:"event_type"`
	Count     int    `json:"count"`
}

// AnnualReportStats summarizes one calendar year of stored events and Kp readings.
type AnnualReportStats struct {
	Year        int       `json:"year"`
	GeneratedAt time.Time `json:"generated_at_utc"`

	TotalEvents      int              `json:"total_events"`
	EventsBySeverity map[string]int   `json:"events_by_severity"`
	TopEventTypes    []EventTypeCount `json:"top_event_types"`

	KpMetric           string   `json:"kp_metric,omitempty"`
	KpPoints           int      `json:"kp_points"`
	KpMax              *float64 `json:"kp_max"`
	StormIntervals     int      `json:"storm_intervals_kp_ge_5"`
	StormDaysEstimated int      `json:"storm_days_estimated"`

	MetricsAvailable []string `json:"metrics_available"`
}

// Date is a UTC calendar date. It marshals as "YYYY-MM-DD".
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the UTC calendar date of t.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date n days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

func (d Date) String() string {
	return d.Time().Format(time.DateOnly)
}

// MarshalJSON encodes the date as an ISO 8601 calendar date.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes an ISO 8601 calendar date.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return err
	}
	*d = DateOf(t)
	return nil
}
