package pipeline_test

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/space-weather-service/internal/domain"
)

// fixtureSource serves SWPC payloads from testdata/, keyed by the file name of
// each feed path. Feeds listed in failures return that error instead.
type fixtureSource struct {
	t        *testing.T
	failures map[string]error
	override map[string]any

	mu      sync.Mutex
	fetched []string
}

func newFixtureSource(t *testing.T) *fixtureSource {
	return &fixtureSource{t: t, failures: map[string]error{}, override: map[string]any{}}
}

func (s *fixtureSource) FetchFeed(_ context.Context, feed domain.Feed) (any, error) {
	s.mu.Lock()
	s.fetched = append(s.fetched, feed.Name)
	s.mu.Unlock()

	if err, ok := s.failures[feed.Name]; ok {
		return nil, &domain.UpstreamFetchError{Feed: feed.Name, Err: err}
	}
	if payload, ok := s.override[feed.Name]; ok {
		return payload, nil
	}
	return readFixture(s.t, path.Base(feed.Path)), nil
}

func readFixture(t *testing.T, name string) any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err, "read fixture %s", name)
	payload, err := domain.DecodePayload(data)
	require.NoError(t, err, "decode fixture %s", name)
	return payload
}
