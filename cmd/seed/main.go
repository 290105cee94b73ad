// Command seed writes a small sample data set (three observations and one
// G1 event) and reads the latest rows back, as a quick end-to-end check of a
// fresh database.
//
// Usage:
//
//	go run ./cmd/seed [-init-db] [-at 2024-05-10T12:00:00Z]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/space-weather-service/internal/config"
	"github.com/couchcryptid/space-weather-service/internal/domain"
	"github.com/couchcryptid/space-weather-service/internal/storage"
	"github.com/couchcryptid/space-weather-service/internal/storage/backend"
	"github.com/couchcryptid/space-weather-service/internal/storage/migrations"
)

// SampleProductID keys the sample event so reseeding the same instant is a no-op.
const SampleProductID = "SAMPLE-G1"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	initDB := flag.Bool("init-db", false, "apply database migrations first")
	at := flag.String("at", "", "timestamp for the sample rows (RFC 3339, default now)")
	flag.Parse()

	clock := clockwork.NewRealClock()
	if *at != "" {
		t, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			return fmt.Errorf("invalid -at: %w", err)
		}
		clock = clockwork.NewFakeClockAt(t)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := backend.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if *initDB && store.Pool != nil {
		applied, err := migrations.RunPostgresMigrations(ctx, store.Pool)
		if err != nil {
			return err
		}
		log.Printf("migrations applied: %v", applied)
	}

	return seed(ctx, os.Stdout, store.Events, store.Observations, clock)
}

func seed(ctx context.Context, out io.Writer, events storage.EventStore, observations storage.ObservationStore, clock clockwork.Clock) error {
	now := clock.Now().UTC()

	inserted, err := observations.UpsertObservations(ctx, sampleObservations(now))
	if err != nil {
		return fmt.Errorf("insert sample observations: %w", err)
	}
	newEvent, err := events.UpsertEvent(ctx, sampleEvent(now))
	if err != nil {
		return fmt.Errorf("insert sample event: %w", err)
	}
	fmt.Fprintf(out, "inserted %d observations, event inserted: %t\n", inserted, newEvent)

	kp, err := observations.Query(ctx, storage.ObservationFilter{Metric: "kp", Limit: 1})
	if err != nil {
		return fmt.Errorf("read latest kp: %w", err)
	}
	if len(kp) == 0 {
		fmt.Fprintln(out, "no kp rows found")
	} else {
		fmt.Fprintf(out, "latest kp: %g (%s)\n", kp[0].Value, kp[0].ObservedAt.Format(time.RFC3339))
	}

	latest, err := events.Query(ctx, storage.EventFilter{Limit: 1})
	if err != nil {
		return fmt.Errorf("read latest event: %w", err)
	}
	if len(latest) == 0 {
		fmt.Fprintln(out, "no events found")
		return nil
	}
	severity := domain.SeverityNone
	if latest[0].Severity != nil {
		severity = *latest[0].Severity
	}
	fmt.Fprintf(out, "latest event: %s - %s\n", severity, latest[0].Message)
	return nil
}

func sampleObservations(at time.Time) []domain.ObservationPoint {
	return []domain.ObservationPoint{
		{Source: domain.SourceSWPC, Metric: "kp", Value: 4.0, Unit: "index", ObservedAt: at},
		{Source: domain.SourceSWPC, Metric: "solar_wind_speed", Value: 520.0, Unit: "km/s", ObservedAt: at},
		{Source: domain.SourceSWPC, Metric: "bt", Value: 8.1, Unit: "nT", ObservedAt: at},
	}
}

func sampleEvent(at time.Time) domain.EventRecord {
	severity := string(domain.G1)
	return domain.EventRecord{
		Source:    domain.SourceSWPC,
		ProductID: SampleProductID,
		EventType: "G",
		Severity:  &severity,
		Message:   "Geomagnetic storm conditions observed (sample record).",
		IssuedAt:  at,
		Raw:       json.RawMessage(`{"sample":true}`),
	}
}
