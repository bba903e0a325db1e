package catalog

import (
	"context"
	"encoding/json"
	"errors"

	"challenge-solver/internal/cache"
	"challenge-solver/internal/domain"
	"challenge-solver/internal/logger"
	"challenge-solver/internal/retry"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Loader composes the catalog fetchers with the snapshot cache and the
// retry policy. The three datasets load concurrently, and all three must
// succeed before interpretation can begin.
type Loader struct {
	store  *cache.SnapshotStore
	swapi  *SWAPIClient
	poke   *PokeClient
	policy retry.Policy
}

// NewLoader creates a Loader. store may be backed by a nil cache, in
// which case every load is a fresh fetch.
func NewLoader(store *cache.SnapshotStore, swapi *SWAPIClient, poke *PokeClient, policy retry.Policy) *Loader {
	return &Loader{
		store:  store,
		swapi:  swapi,
		poke:   poke,
		policy: policy,
	}
}

// Load returns the three reference datasets, from the snapshot cache
// where possible and from the catalogs otherwise. A single unrecoverable
// fetch failure aborts the whole load.
func (l *Loader) Load(ctx context.Context) (*domain.ReferenceData, error) {
	var data domain.ReferenceData

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loadDataset(gctx, l.store, cache.DatasetPlanets, &data.Planets, l.policy, l.swapi.Planets)
	})
	g.Go(func() error {
		return loadDataset(gctx, l.store, cache.DatasetPeople, &data.Characters, l.policy, l.swapi.People)
	})
	g.Go(func() error {
		return loadDataset(gctx, l.store, cache.DatasetCreatures, &data.Creatures, l.policy, l.poke.Creatures)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &data, nil
}

// loadDataset resolves one dataset: snapshot hit, or retried fetch
// followed by a best-effort snapshot write.
func loadDataset[T any](
	ctx context.Context,
	store *cache.SnapshotStore,
	dataset string,
	dst *[]T,
	policy retry.Policy,
	fetch func(context.Context) ([]T, error),
) error {
	l := logger.Get()

	raw, err := store.Get(ctx, dataset)
	if err == nil {
		if err := json.Unmarshal(raw, dst); err == nil {
			l.Info("Loaded dataset from snapshot", zap.String("dataset", dataset), zap.Int("records", len(*dst)))
			return nil
		}
		l.Warn("Snapshot payload did not match dataset shape, refetching", zap.String("dataset", dataset))
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		l.Warn("Snapshot lookup failed, refetching", zap.String("dataset", dataset), zap.Error(err))
	}

	records, err := retry.DoValue(ctx, policy, fetch)
	if err != nil {
		return err
	}
	*dst = records

	if err := store.Put(ctx, dataset, records); err != nil {
		// Caching is an optimization; the fetched data still serves this run.
		l.Warn("Failed to snapshot dataset", zap.String("dataset", dataset), zap.Error(err))
	}
	return nil
}
