package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/space-weather-service/internal/config"
)

func TestOpen_Memory(t *testing.T) {
	b, err := Open(context.Background(), &config.Config{StorageDriver: config.StorageMemory})
	require.NoError(t, err)
	defer b.Close()

	assert.Nil(t, b.Pool)
	assert.NoError(t, b.Pinger.Ping(context.Background()))

	metrics, err := b.Observations.DistinctMetrics(context.Background())
	require.NoError(t, err)
	assert.Empty(t, metrics)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{StorageDriver: "sqlite"})
	assert.ErrorContains(t, err, "sqlite")
}
