// Command ingest runs one fetch-parse-store cycle over the NOAA SWPC feeds.
//
// Usage:
//
//	go run ./cmd/ingest [-init-db]
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	kafkaadapter "github.com/couchcryptid/space-weather-service/internal/adapter/kafka"
	"github.com/couchcryptid/space-weather-service/internal/adapter/noaa"
	"github.com/couchcryptid/space-weather-service/internal/config"
	"github.com/couchcryptid/space-weather-service/internal/observability"
	"github.com/couchcryptid/space-weather-service/internal/pipeline"
	"github.com/couchcryptid/space-weather-service/internal/storage/backend"
	"github.com/couchcryptid/space-weather-service/internal/storage/migrations"
)

func main() {
	initDB := flag.Bool("init-db", false, "apply database migrations before ingesting")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	if err := run(cfg, *initDB, logger); err != nil {
		logger.Error("ingest failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, initDB bool, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if initDB {
		if store.Pool == nil {
			logger.Warn("-init-db ignored for storage driver", "driver", cfg.StorageDriver)
		} else {
			applied, err := migrations.RunPostgresMigrations(ctx, store.Pool)
			if err != nil {
				return err
			}
			logger.Info("migrations applied", "files", applied)
		}
	}

	metrics := observability.NewMetrics()
	client := noaa.NewClient(cfg.NOAABaseURL, cfg.UpstreamTimeout, metrics, logger)

	var publisher pipeline.Publisher
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		publisher = writer
		logger.Info("alert fan-out enabled", "topic", cfg.KafkaAlertsTopic, "brokers", cfg.KafkaBrokers)
	}

	ingester := pipeline.New(client, store.Events, store.Observations, publisher, logger, metrics)
	results, err := ingester.Run(ctx)

	var parsed, inserted int
	for _, r := range results {
		parsed += r.Parsed
		inserted += r.Inserted
	}
	logger.Info("ingest cycle complete", "feeds", len(results), "parsed", parsed, "inserted", inserted)

	// Partial failures were already logged per feed; only a cycle where no
	// feed landed is fatal.
	if readyErr := ingester.CheckReadiness(ctx); readyErr != nil {
		return errors.Join(readyErr, err)
	}
	if err != nil {
		logger.Warn("ingest cycle finished with feed errors", "error", err)
	}
	return nil
}
