package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// fractionalLayout is the only layout that accepts fractional seconds, with
// one to maxFractionDigits digits.
const (
	fractionalLayout  = "2006-01-02 15:04:05.999999"
	maxFractionDigits = 6
)

// Layouts tried by ParseTimestamp for inputs without a fraction, in order.
// All are read as UTC.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
}

// Retried after stripping a literal "+00:00" suffix.
var zeroOffsetLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

const zeroOffsetSuffix = "+00:00"

// ParseTimestamp parses an SWPC timestamp into a UTC instant.
// It never infers a non-zero offset.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	invalid := &FormatError{Input: raw, Reason: "unrecognized timestamp"}

	// time.Parse accepts a fraction after the seconds field even when the
	// layout has none, so fractions are routed explicitly.
	switch n := fractionDigits(s); {
	case n < 0:
	case n >= 1 && n <= maxFractionDigits:
		if t, err := time.ParseInLocation(fractionalLayout, s, time.UTC); err == nil {
			return t, nil
		}
		return time.Time{}, invalid
	default:
		return time.Time{}, invalid
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	if trimmed, ok := strings.CutSuffix(s, zeroOffsetSuffix); ok {
		for _, layout := range zeroOffsetLayouts {
			if t, err := time.ParseInLocation(layout, trimmed, time.UTC); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, invalid
}

// fractionDigits counts the digits after the decimal point of s, or returns
// -1 when s has no decimal point.
func fractionDigits(s string) int {
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return -1
	}
	n := 0
	for _, r := range s[i+1:] {
		if r < '0' || r > '9' {
			break
		}
		n++
	}
	return n
}

// ParseNumeric converts a loosely typed upstream value to a float.
// The second result is false when the value is missing or unusable.
func ParseNumeric(raw any) (float64, bool) {
	var f float64
	switch v := raw.(type) {
	case nil:
		return 0, false
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(v)
		switch strings.ToLower(s) {
		case "", "null", "none", "nan":
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		rv := reflect.ValueOf(raw)
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			f = rv.Float()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			f = float64(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			f = float64(rv.Uint())
		default:
			return 0, false
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Tabular is the normalized form of an SWPC payload: a header and rows of
// equal length. A non-empty Malformed reason means the payload could not be
// read at all, in which case Columns and Rows are empty.
type Tabular struct {
	Columns []string
	Rows    [][]any
	// Records holds the source object of each row when the payload was a
	// list of objects; it is nil for header+rows payloads.
	Records   []map[string]any
	Malformed string
}

// OK reports whether the payload was structurally valid.
func (t Tabular) OK() bool { return t.Malformed == "" }

func malformed(reason string) Tabular {
	return Tabular{Malformed: reason}
}

// NormalizeTabular reads a header+rows payload. Rows whose length differs from
// the header are dropped.
func NormalizeTabular(payload any) Tabular {
	list, ok := payload.([]any)
	if !ok {
		return malformed("payload is not a list")
	}
	if len(list) < 2 {
		return malformed("payload has no data rows")
	}
	header, ok := list[0].([]any)
	if !ok {
		return malformed("header is not a list")
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = stringOf(h)
	}
	rows := make([][]any, 0, len(list)-1)
	for _, item := range list[1:] {
		row, ok := item.([]any)
		if !ok || len(row) != len(columns) {
			continue
		}
		rows = append(rows, row)
	}
	return Tabular{Columns: columns, Rows: rows}
}

// NormalizeRecords reads a list of JSON objects into tabular form. Columns are
// the sorted keys of the first record; later records missing a key get nil in
// that cell. Extra keys are absent from Rows but kept in Records.
func NormalizeRecords(payload any) Tabular {
	list, ok := payload.([]any)
	if !ok {
		return malformed("payload is not a list")
	}
	if len(list) == 0 {
		return malformed("payload has no records")
	}
	first, ok := list[0].(map[string]any)
	if !ok {
		return malformed("first record is not an object")
	}
	columns := make([]string, 0, len(first))
	for k := range first {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	rows := make([][]any, 0, len(list))
	records := make([]map[string]any, 0, len(list))
	for _, item := range list {
		rec, ok := item.(map[string]any)
		if !ok {
			continue
		}
		row := make([]any, len(columns))
		for i, c := range columns {
			row[i] = rec[c]
		}
		rows = append(rows, row)
		records = append(records, rec)
	}
	return Tabular{Columns: columns, Rows: rows, Records: records}
}

// NormalizePayload accepts either SWPC payload shape. Header+rows is tried
// first; a list of objects is the fallback.
func NormalizePayload(payload any) Tabular {
	tab := NormalizeTabular(payload)
	if tab.OK() {
		return tab
	}
	if list, ok := payload.([]any); ok && len(list) > 0 {
		if _, isRecord := list[0].(map[string]any); isRecord {
			return NormalizeRecords(payload)
		}
	}
	return tab
}

// DecodePayload decodes raw feed bytes for NormalizePayload. Numbers are kept
// as json.Number so no precision is lost before ParseNumeric.
func DecodePayload(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, &FormatError{Input: truncate(string(body), 64), Reason: "invalid JSON payload"}
	}
	return payload, nil
}

// Index returns the position of the named column, ignoring case, or -1.
func (t Tabular) Index(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// IndexAny returns the position of the first name present, or -1.
func (t Tabular) IndexAny(names ...string) int {
	for _, n := range names {
		if i := t.Index(n); i >= 0 {
			return i
		}
	}
	return -1
}

func stringOf(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	default:
		b, err := json.Marshal(s)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
