package domain

import (
	"encoding/json"
	"regexp"
	"strings"
)

// noaaScaleRe finds the scale code in an alert message,
// e.g. "NOAA Scale: G2 - Moderate" -> "G2".
var noaaScaleRe = regexp.MustCompile(`NOAA Scale:\s*([GSR][1-5])`)

// EventTypeAlert is the event type of alerts that carry no NOAA scale.
const EventTypeAlert = "ALERT"

var timeColumns = []string{"time_tag"}

// MapObservations turns a normalized wind, mag or Kp payload into observation
// points, one per metric column with a usable value. A payload without a
// time_tag column yields nothing; a row with a bad timestamp is skipped.
func MapObservations(feed Feed, tab Tabular, source string) []ObservationPoint {
	ti := tab.IndexAny(timeColumns...)
	if ti < 0 {
		return nil
	}

	type col struct {
		idx int
		MetricColumn
	}
	var cols []col
	for _, m := range feed.Metrics {
		if i := tab.IndexAny(m.Columns...); i >= 0 {
			cols = append(cols, col{idx: i, MetricColumn: m})
		}
	}
	if len(cols) == 0 {
		return nil
	}

	var out []ObservationPoint
	for _, row := range tab.Rows {
		ts, err := ParseTimestamp(stringOf(row[ti]))
		if err != nil {
			continue
		}
		for _, c := range cols {
			v, ok := ParseNumeric(row[c.idx])
			if !ok {
				continue
			}
			out = append(out, ObservationPoint{
				Source:     source,
				Metric:     c.Metric,
				Value:      v,
				Unit:       c.Unit,
				ObservedAt: ts,
			})
		}
	}
	return out
}

// MapKpForecast turns a normalized Kp forecast payload into forecast points.
// Rows missing either a timestamp or a Kp value are skipped.
func MapKpForecast(tab Tabular) []ForecastPoint {
	ti := tab.IndexAny(timeColumns...)
	ki := tab.Index("kp")
	if ti < 0 || ki < 0 {
		return nil
	}

	var out []ForecastPoint
	for _, row := range tab.Rows {
		ts, err := ParseTimestamp(stringOf(row[ti]))
		if err != nil {
			continue
		}
		kp, ok := ParseNumeric(row[ki])
		if !ok {
			continue
		}
		out = append(out, ForecastPoint{TimeTag: ts, Kp: kp})
	}
	return out
}

// MapAlerts turns a normalized alerts payload into event records. product_id,
// issue_datetime and message are all required per row.
func MapAlerts(tab Tabular, source string) []EventRecord {
	ti := tab.IndexAny("issue_datetime", "issue_time")
	pi := tab.Index("product_id")
	mi := tab.Index("message")
	if ti < 0 || pi < 0 || mi < 0 {
		return nil
	}

	var out []EventRecord
	for i, row := range tab.Rows {
		productID := strings.TrimSpace(stringOf(row[pi]))
		issued := strings.TrimSpace(stringOf(row[ti]))
		message := strings.TrimSpace(stringOf(row[mi]))
		if productID == "" || issued == "" || message == "" {
			continue
		}
		ts, err := ParseTimestamp(issued)
		if err != nil {
			continue
		}

		eventType, severity := ClassifyAlert(message)
		out = append(out, EventRecord{
			Source:    source,
			ProductID: productID,
			EventType: eventType,
			Severity:  severity,
			Message:   message,
			IssuedAt:  ts,
			Raw:       rawRecord(tab, i),
		})
	}
	return out
}

// ClassifyAlert derives the event type and severity from an alert message.
// Without a scale line the type is EventTypeAlert and severity is nil.
func ClassifyAlert(message string) (string, *string) {
	m := noaaScaleRe.FindStringSubmatch(message)
	if len(m) != 2 {
		return EventTypeAlert, nil
	}
	sev := m[1]
	return sev[:1], &sev
}

// rawRecord returns row i as upstream sent it: the source object for record
// payloads, or a column-keyed object for header+rows payloads.
func rawRecord(tab Tabular, i int) json.RawMessage {
	var rec map[string]any
	if i < len(tab.Records) {
		rec = tab.Records[i]
	} else {
		rec = make(map[string]any, len(tab.Columns))
		for j, c := range tab.Columns {
			rec[c] = tab.Rows[i][j]
		}
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil
	}
	return b
}
