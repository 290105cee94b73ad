package domain

import "context"

// Feed names, used as log fields, metric labels and FeedResult keys.
const (
	FeedAlerts     = "alerts"
	FeedRTSWWind   = "rtsw_wind"
	FeedRTSWMag    = "rtsw_mag"
	FeedKp         = "kp"
	FeedKpForecast = "kp_forecast"
)

// MetricColumn maps one upstream column (or any of its aliases) to a stored
// metric name and unit.
type MetricColumn struct {
	Metric  string
	Unit    string
	Columns []string
}

// Feed describes one SWPC product.
type Feed struct {
	Name    string
	Path    string
	Metrics []MetricColumn
}

// Known SWPC feeds. Paths are relative to the configured base URL.
var (
	AlertsFeed = Feed{Name: FeedAlerts, Path: "/products/alerts.json"}

	RTSWWindFeed = Feed{
		Name: FeedRTSWWind,
		Path: "/json/rtsw/rtsw_wind_1m.json",
		Metrics: []MetricColumn{
			{Metric: "solar_wind_speed", Unit: "km/s", Columns: []string{"speed", "proton_speed"}},
			{Metric: "solar_wind_density", Unit: "p/cm3", Columns: []string{"density", "proton_density"}},
			{Metric: "solar_wind_temperature", Unit: "K", Columns: []string{"temperature", "proton_temperature"}},
		},
	}

	RTSWMagFeed = Feed{
		Name: FeedRTSWMag,
		Path: "/json/rtsw/rtsw_mag_1m.json",
		Metrics: []MetricColumn{
			{Metric: "bt", Unit: "nT", Columns: []string{"bt"}},
			{Metric: "bz", Unit: "nT", Columns: []string{"bz", "bz_gsm"}},
			{Metric: "by", Unit: "nT", Columns: []string{"by", "by_gsm"}},
		},
	}

	KpFeed = Feed{
		Name: FeedKp,
		Path: "/products/noaa-planetary-k-index.json",
		Metrics: []MetricColumn{
			{Metric: "kp", Unit: "index", Columns: []string{"kp"}},
		},
	}

	KpForecastFeed = Feed{Name: FeedKpForecast, Path: "/products/noaa-planetary-k-index-forecast.json"}
)

// ObservationFeeds are ingested as ObservationPoints, in this order.
var ObservationFeeds = []Feed{RTSWWindFeed, RTSWMagFeed, KpFeed}

// FeedSource fetches a decoded SWPC payload.
type FeedSource interface {
	FetchFeed(ctx context.Context, feed Feed) (any, error)
}

// ForecastSource provides parsed Kp forecast points.
type ForecastSource interface {
	Forecast(ctx context.Context) ([]ForecastPoint, error)
}
