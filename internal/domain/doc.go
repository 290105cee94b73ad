// Package domain models NOAA Space Weather Prediction Center (SWPC) data:
// geomagnetic alerts, real-time solar wind (RTSW) readings, and the planetary
// K-index, both observed and forecast.
//
// # Data Source
//
// All feeds are public JSON products under https://services.swpc.noaa.gov.
// The ingest command fetches them once per run, parses them with the functions
// in this package, and upserts the results by natural key.
//
// # SWPC Payload Conventions
//
// Tabular products are a JSON array whose first element is the header:
//
//	[["time_tag","kp","observed","noaa_scale"],
//	 ["2026-01-14 00:00:00","3.67","predicted",null], ...]
//
// Some products have moved to a list of objects instead:
//
//	[{"time_tag":"2026-01-14T00:00:00","kp":3.67}, ...]
//
// [NormalizePayload] accepts both and yields the same [Tabular] shape. Column
// names are matched case-insensitively because the observed K-index product
// spells the column "Kp" while the forecast product uses "kp".
//
// Timestamps:
//
//	"2026-01-14 00:00:00.000"   alerts (fractional seconds)
//	"2026-01-14 00:00:00"       K-index products
//	"2026-01-14T00:00:00Z"      RTSW
//	"2026-01-14T00:00:00+00:00" occasional explicit offset, always zero
//
// Every layout is UTC. See [ParseTimestamp].
//
// Missing values:
//
//	null, "", "null", "none" and "nan" all mean "no reading". A missing value
//	drops the reading, never the row. See [ParseNumeric].
//
// # Storm Classification
//
// The NOAA G-scale is derived from Kp with inclusive lower bounds:
//
//	Kp < 5 G0 | 5 G1 | 6 G2 | 7 G3 | 8 G4 | ≥ 9 G5
//
// Kp ≥ 5 ([StormKpThreshold]) counts as storm activity in aggregates.
//
// # Alert Categories
//
// Alert messages carry a line like "NOAA Scale: G2 - Moderate". The letter is
// the event type (G geomagnetic, S radiation, R radio blackout) and the full
// code is the severity. Alerts without a scale line are typed "ALERT" with no
// severity.
package domain
