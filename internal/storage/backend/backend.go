// Package backend opens the storage implementation selected by STORAGE_DRIVER.
package backend

import (
	"context"
	"fmt"

	"github.com/couchcryptid/space-weather-service/internal/config"
	"github.com/couchcryptid/space-weather-service/internal/storage"
	"github.com/couchcryptid/space-weather-service/internal/storage/memory"
	"github.com/couchcryptid/space-weather-service/internal/storage/postgres"
)

// Backend bundles the stores of one storage driver.
type Backend struct {
	Events       storage.EventStore
	Observations storage.ObservationStore
	Pinger       storage.Pinger

	// Pool is nil for the memory driver.
	Pool *postgres.Pool
}

// Open connects to the configured driver. Callers must Close the result.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		observations := memory.NewObservationStore()
		return &Backend{
			Events:       memory.NewEventStore(),
			Observations: observations,
			Pinger:       observations,
		}, nil
	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Events:       postgres.NewEventStore(pool),
			Observations: postgres.NewObservationStore(pool),
			Pinger:       pool,
			Pool:         pool,
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// Close releases the connection pool, if any.
func (b *Backend) Close() {
	if b.Pool != nil {
		b.Pool.Close()
	}
}
