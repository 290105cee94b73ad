package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/space-weather-service/internal/domain"
	"github.com/couchcryptid/space-weather-service/internal/observability"
	"github.com/couchcryptid/space-weather-service/internal/query"
	"github.com/couchcryptid/space-weather-service/internal/storage"
)

// DefaultForecastDays is used when the days query parameter is absent.
const DefaultForecastDays = 3

// writeTimeoutHeadroom is added to the upstream timeout so a forecast request
// that waits out a slow SWPC fetch can still write its response.
const writeTimeoutHeadroom = 5 * time.Second

// Queries is the read side served over HTTP.
type Queries interface {
	GetForecast(ctx context.Context, days int) (domain.Forecast, error)
	GetAnnualReport(ctx context.Context, year int) (domain.AnnualReportStats, error)
	ListEvents(ctx context.Context, f storage.EventFilter) ([]domain.EventRecord, error)
	ListObservations(ctx context.Context, f storage.ObservationFilter) ([]domain.ObservationPoint, error)
	Classify(raw any) query.Classification
}

// Server exposes the read API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	queries    Queries
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the API, /healthz, /readyz, and /metrics routes.
// upstreamTimeout is the SWPC request timeout; the write deadline is set past it.
func NewServer(addr string, upstreamTimeout time.Duration, queries Queries, ready sharedobs.ReadinessChecker, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		queries: queries,
		metrics: metrics,
		logger:  logger,
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.instrument(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: max(10*time.Second, upstreamTimeout+writeTimeoutHeadroom),
		IdleTimeout:  60 * time.Second,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /forecast/geomagnetic", s.handleForecast)
	mux.HandleFunc("GET /reports/annual/{year}", s.handleAnnualReport)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /observations", s.handleObservations)
	mux.HandleFunc("GET /classify", s.handleClassify)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("http server starting", "addr", ln.Addr().String(), "write_timeout", s.httpServer.WriteTimeout)
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	days := DefaultForecastDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, &domain.ValidationError{Field: "days", Reason: "must be an integer"})
			return
		}
		days = n
	}
	if err := query.ValidateForecastDays(days); err != nil {
		s.writeError(w, err)
		return
	}

	forecast, err := s.queries.GetForecast(r.Context(), days)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, forecast)
}

func (s *Server) handleAnnualReport(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		s.writeError(w, &domain.ValidationError{Field: "year", Reason: "must be an integer"})
		return
	}

	report, err := s.queries.GetAnnualReport(r.Context(), year)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, report)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := storage.EventFilter{
		Severity:  q.Get("severity"),
		EventType: q.Get("event_type"),
	}

	var err error
	if f.Start, err = timeParam(q.Get("start"), "start"); err != nil {
		s.writeError(w, err)
		return
	}
	if f.End, err = timeParam(q.Get("end"), "end"); err != nil {
		s.writeError(w, err)
		return
	}
	if f.Limit, err = limitParam(q.Get("limit")); err != nil {
		s.writeError(w, err)
		return
	}

	events, err := s.queries.ListEvents(r.Context(), f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if events == nil {
		events = []domain.EventRecord{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, events)
}

func (s *Server) handleObservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := storage.ObservationFilter{Metric: q.Get("metric")}

	var err error
	if f.Start, err = timeParam(q.Get("start"), "start"); err != nil {
		s.writeError(w, err)
		return
	}
	if f.End, err = timeParam(q.Get("end"), "end"); err != nil {
		s.writeError(w, err)
		return
	}
	if f.Limit, err = limitParam(q.Get("limit")); err != nil {
		s.writeError(w, err)
		return
	}

	points, err := s.queries.ListObservations(r.Context(), f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if points == nil {
		points = []domain.ObservationPoint{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, points)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.queries.Classify(r.URL.Query().Get("kp")))
}

// writeError maps domain errors onto status codes. Anything unrecognised is
// logged and reported as a 500 without its detail.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		ve *domain.ValidationError
		ue *domain.UpstreamFetchError
	)
	switch {
	case errors.As(err, &ve):
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Error()})
	case errors.As(err, &ue):
		s.logger.Warn("upstream fetch failed", "feed", ue.Feed, "error", ue.Err)
		sharedobs.WriteJSON(w, http.StatusBadGateway, map[string]string{"error": ue.Error()})
	default:
		s.logger.Error("request failed", "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// timeParam accepts RFC 3339 or any of the feed timestamp layouts.
func timeParam(raw, field string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		if t, err = domain.ParseTimestamp(raw); err != nil {
			return nil, &domain.ValidationError{Field: field, Reason: "unrecognised timestamp " + strconv.Quote(raw)}
		}
	}
	t = t.UTC()
	return &t, nil
}

func limitParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.ValidationError{Field: "limit", Reason: "must be an integer"}
	}
	if n == 0 {
		// Zero selects the default downstream; reject it explicitly here.
		return 0, &domain.ValidationError{Field: "limit", Reason: "must be at least 1"}
	}
	return n, nil
}
