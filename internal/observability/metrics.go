package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "space_weather"

// Metrics holds the Prometheus counters and histograms for ingest, the
// forecast cache, alert fan-out and the read API.
type Metrics struct {
	// Ingest metrics.
	FeedRowsParsed   *prometheus.CounterVec // labels: feed
	FeedRowsInserted *prometheus.CounterVec // labels: feed
	IngestDuration   prometheus.Histogram

	// Upstream SWPC metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: feed, outcome={success,error}
	UpstreamDuration *prometheus.HistogramVec // labels: feed

	// Forecast cache metrics.
	ForecastCache *prometheus.CounterVec // labels: result={hit,miss}

	// Alert fan-out metrics.
	EventsPublished prometheus.Counter
	PublishErrors   prometheus.Counter

	// API metrics.
	HTTPRequests *prometheus.CounterVec   // labels: route, status
	HTTPDuration *prometheus.HistogramVec // labels: route
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FeedRowsParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_rows_parsed_total",
			Help:      "Rows parsed from upstream feeds.",
		}, []string{"feed"}),
		FeedRowsInserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_rows_inserted_total",
			Help:      "Parsed rows that were new and got stored.",
		}, []string{"feed"}),
		IngestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_cycle_duration_seconds",
			Help:      "Duration of one complete ingest cycle.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "SWPC feed requests by feed and outcome.",
		}, []string{"feed", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "SWPC feed request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"feed"}),
		ForecastCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_cache_total",
			Help:      "Forecast cache lookups by result.",
		}, []string{"result"}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Alert events written to Kafka.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed Kafka publish attempts.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "API requests by route and status code.",
		}, []string{"route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FeedRowsParsed,
		m.FeedRowsInserted,
		m.IngestDuration,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.ForecastCache,
		m.EventsPublished,
		m.PublishErrors,
		m.HTTPRequests,
		m.HTTPDuration,
	}
}
