package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"challenge-solver/internal/cache"
	"challenge-solver/internal/domain"
	"challenge-solver/internal/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryCache is a minimal domain.Cache for loader tests.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]string)}
}

func (m *memoryCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	if !ok {
		return "", domain.ErrCacheMiss
	}
	return v, nil
}

func (m *memoryCache) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *memoryCache) Ping(ctx context.Context) error { return nil }

func newCatalogBackend(t *testing.T, requestCount *int32) *httptest.Server {
	var mu sync.Mutex
	mux := http.NewServeMux()
	var server *httptest.Server

	count := func() {
		mu.Lock()
		*requestCount++
		mu.Unlock()
	}

	mux.HandleFunc("/planets", func(w http.ResponseWriter, r *http.Request) {
		count()
		fmt.Fprint(w, `{"next": null, "results": [
			{"url": "planets/1/", "name": "Tatooine", "rotation_period": "23", "orbital_period": "304", "diameter": "10465", "surface_water": "1", "population": "200000"}
		]}`)
	})
	mux.HandleFunc("/people", func(w http.ResponseWriter, r *http.Request) {
		count()
		fmt.Fprint(w, `{"next": null, "results": [
			{"url": "people/1/", "name": "Luke Skywalker", "height": "172", "mass": "77", "homeworld": "planets/1/"}
		]}`)
	})
	mux.HandleFunc("/pokemon", func(w http.ResponseWriter, r *http.Request) {
		count()
		fmt.Fprintf(w, `{"count": 1, "next": null, "results": [
			{"name": "pikachu", "url": "%s/pokemon/25/"}
		]}`, server.URL)
	})
	mux.HandleFunc("/pokemon/25/", func(w http.ResponseWriter, r *http.Request) {
		count()
		fmt.Fprint(w, `{"id": 25, "name": "pikachu", "base_experience": 112, "height": 4, "weight": 60}`)
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestLoader(server *httptest.Server, backing domain.Cache) *Loader {
	datasets := map[string]cache.DatasetConfig{
		cache.DatasetPlanets:   {TTL: time.Hour},
		cache.DatasetPeople:    {TTL: time.Hour},
		cache.DatasetCreatures: {TTL: time.Hour, Reduce: ReduceCreatures},
	}
	store := cache.NewSnapshotStore(backing, datasets)
	swapi := NewSWAPIClient(server.URL, WithPageDelay(0))
	poke := NewPokeClient(server.URL, WithCreatureLimit(1), WithDetailBatch(2))
	policy := retry.Policy{MaxAttempts: 2, Delay: time.Millisecond, Backoff: retry.BackoffFixed}
	return NewLoader(store, swapi, poke, policy)
}

func TestLoadFetchesAllDatasets(t *testing.T) {
	var requests int32
	server := newCatalogBackend(t, &requests)
	loader := newTestLoader(server, newMemoryCache())

	data, err := loader.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, data.Planets, 1)
	require.Len(t, data.Characters, 1)
	require.Len(t, data.Creatures, 1)
	assert.Equal(t, "pikachu", data.Creatures[0].Name)
	assert.Equal(t, 60, data.Creatures[0].Weight)
}

func TestLoadUsesSnapshotOnSecondRun(t *testing.T) {
	var requests int32
	server := newCatalogBackend(t, &requests)
	backing := newMemoryCache()

	loader := newTestLoader(server, backing)
	_, err := loader.Load(context.Background())
	require.NoError(t, err)
	firstRun := requests

	_, err = loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, firstRun, requests, "second load must be served from snapshots")
}

func TestLoadWithoutCacheFetchesEveryRun(t *testing.T) {
	var requests int32
	server := newCatalogBackend(t, &requests)
	loader := newTestLoader(server, nil)

	_, err := loader.Load(context.Background())
	require.NoError(t, err)
	firstRun := requests

	_, err = loader.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2*firstRun, requests)
}

func TestLoadAbortsWhenOneDatasetFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/planets", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"next": null, "results": []}`)
	})
	mux.HandleFunc("/people", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"next": null, "results": []}`)
	})
	mux.HandleFunc("/pokemon", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	loader := newTestLoader(server, newMemoryCache())
	_, err := loader.Load(context.Background())
	require.Error(t, err)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeCatalogServiceError, domainErr.Code)
}

func TestLoadSurvivesCorruptSnapshot(t *testing.T) {
	var requests int32
	server := newCatalogBackend(t, &requests)
	backing := newMemoryCache()
	require.NoError(t, backing.Set(context.Background(), cache.DatasetKey(cache.DatasetPlanets), "{corrupt", 0))

	loader := newTestLoader(server, backing)
	data, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, data.Planets, 1)

	// The corrupt entry was replaced by a fresh snapshot.
	raw, err := backing.Get(context.Background(), cache.DatasetKey(cache.DatasetPlanets))
	require.NoError(t, err)
	var entry map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &entry))
	assert.Contains(t, entry, "data")
}
