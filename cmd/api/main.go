package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/space-weather-service/internal/adapter/http"
	"github.com/couchcryptid/space-weather-service/internal/adapter/noaa"
	"github.com/couchcryptid/space-weather-service/internal/config"
	"github.com/couchcryptid/space-weather-service/internal/observability"
	"github.com/couchcryptid/space-weather-service/internal/query"
	"github.com/couchcryptid/space-weather-service/internal/storage/backend"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg)
	if err != nil {
		logger.Error("failed to open storage", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	clock := clockwork.NewRealClock()
	client := noaa.NewClient(cfg.NOAABaseURL, cfg.UpstreamTimeout, metrics, logger)
	forecasts := noaa.NewCachedForecastSource(client, cfg.ForecastCacheTTL, clock, metrics)
	logger.Info("noaa upstream configured", "base_url", cfg.NOAABaseURL, "cache_ttl", cfg.ForecastCacheTTL)

	svc := query.NewService(forecasts, store.Events, store.Observations, store.Pinger, clock, cfg.KpMetricCandidates)
	srv := httpadapter.NewServer(cfg.HTTPAddr, cfg.UpstreamTimeout, svc, svc, metrics, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
