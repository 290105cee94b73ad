package domain

import (
	"fmt"
	"slices"
	"time"
)

// Report year bounds, inclusive.
const (
	MinReportYear = 1900
	MaxReportYear = 2200
)

// TopEventTypesLimit caps the event type table of the annual report.
const TopEventTypesLimit = 10

// SeverityNone is the events_by_severity key for events without a scale code.
const SeverityNone = "none"

// ValidateReportYear rejects years outside [MinReportYear, MaxReportYear].
func ValidateReportYear(year int) error {
	if year < MinReportYear || year > MaxReportYear {
		return &ValidationError{
			Field:  "year",
			Reason: fmt.Sprintf("must be between %d and %d, got %d", MinReportYear, MaxReportYear, year),
		}
	}
	return nil
}

// YearWindow returns the half-open UTC interval [Jan 1 year, Jan 1 year+1).
func YearWindow(year int) (start, end time.Time) {
	start = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(1, 0, 0)
}

// EventSummary holds the event half of an annual report.
type EventSummary struct {
	Total         int
	BySeverity    map[string]int
	TopEventTypes []EventTypeCount
}

// SummarizeEvents counts events by severity and by type. The type table keeps
// the TopEventTypesLimit most frequent types; equal counts keep the order in
// which the type was first seen.
func SummarizeEvents(events []EventRecord) EventSummary {
	bySeverity := make(map[string]int)
	typeCounts := make(map[string]int)
	var typeOrder []string

	for _, e := range events {
		sev := SeverityNone
		if e.Severity != nil && *e.Severity != "" {
			sev = *e.Severity
		}
		bySeverity[sev]++

		if _, seen := typeCounts[e.EventType]; !seen {
			typeOrder = append(typeOrder, e.EventType)
		}
		typeCounts[e.EventType]++
	}

	top := make([]EventTypeCount, 0, len(typeOrder))
	for _, t := range typeOrder {
		top = append(top, EventTypeCount{EventType: t, Count: typeCounts[t]})
	}
	slices.SortStableFunc(top, func(a, b EventTypeCount) int {
		return b.Count - a.Count
	})
	if len(top) > TopEventTypesLimit {
		top = top[:TopEventTypesLimit]
	}

	return EventSummary{
		Total:         len(events),
		BySeverity:    bySeverity,
		TopEventTypes: top,
	}
}

// SelectKpMetric returns the first candidate present in available.
func SelectKpMetric(candidates, available []string) (string, bool) {
	for _, c := range candidates {
		if slices.Contains(available, c) {
			return c, true
		}
	}
	return "", false
}

// KpSummary holds the Kp half of an annual report.
type KpSummary struct {
	Points         int
	Max            *float64
	StormIntervals int
	StormDays      int
}

// SummarizeKp computes storm statistics over Kp readings. A storm day is a UTC
// date whose maximum reading is at or above StormKpThreshold.
func SummarizeKp(readings []ObservationPoint) KpSummary {
	var s KpSummary
	dailyMax := make(map[Date]float64)

	for i, r := range readings {
		if i == 0 || r.Value > *s.Max {
			v := r.Value
			s.Max = &v
		}
		if IsStorm(r.Value) {
			s.StormIntervals++
		}
		d := DateOf(r.ObservedAt)
		if cur, ok := dailyMax[d]; !ok || r.Value > cur {
			dailyMax[d] = r.Value
		}
	}
	s.Points = len(readings)

	for _, v := range dailyMax {
		if IsStorm(v) {
			s.StormDays++
		}
	}
	return s
}

// BuildAnnualReport assembles the report from its already computed halves.
func BuildAnnualReport(year int, generatedAt time.Time, events EventSummary, kpMetric string, kp KpSummary, metrics []string) AnnualReportStats {
	if metrics == nil {
		metrics = []string{}
	}
	return AnnualReportStats{
		Year:               year,
		GeneratedAt:        generatedAt.UTC(),
		TotalEvents:        events.Total,
		EventsBySeverity:   events.BySeverity,
		TopEventTypes:      events.TopEventTypes,
		KpMetric:           kpMetric,
		KpPoints:           kp.Points,
		KpMax:              kp.Max,
		StormIntervals:     kp.StormIntervals,
		StormDaysEstimated: kp.StormDays,
		MetricsAvailable:   metrics,
	}
}
