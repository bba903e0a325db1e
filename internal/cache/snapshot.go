package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"challenge-solver/internal/domain"
	"challenge-solver/internal/logger"
	"challenge-solver/internal/metrics"

	"go.uber.org/zap"
)

// CurrentVersion is the snapshot schema version. Entries written under a
// different version are treated as misses and deleted.
const CurrentVersion = 1

// ReduceFunc is a lossy transform applied to a payload when its
// serialized form exceeds the dataset's size ceiling.
type ReduceFunc func(data json.RawMessage) (json.RawMessage, error)

// DatasetConfig bounds one dataset's snapshot.
type DatasetConfig struct {
	TTL      time.Duration
	MaxBytes int
	Reduce   ReduceFunc
}

// snapshotEntry is the persisted layout: {data, timestamp, version}.
// Timestamp is Unix milliseconds.
type snapshotEntry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
	Version   int             `json:"version"`
}

// SnapshotStore keeps versioned, TTL-bounded snapshots of the reference
// datasets in a durable key-value cache. A nil backing cache degrades to
// a store that always misses and never writes.
type SnapshotStore struct {
	cache    domain.Cache
	datasets map[string]DatasetConfig
	now      func() time.Time
}

// NewSnapshotStore creates a SnapshotStore over the given cache with
// per-dataset bounds.
func NewSnapshotStore(c domain.Cache, datasets map[string]DatasetConfig) *SnapshotStore {
	return &SnapshotStore{
		cache:    c,
		datasets: datasets,
		now:      time.Now,
	}
}

// Get returns the payload snapshotted under dataset, or ErrCacheMiss.
// Corrupt, expired and version-mismatched entries are deleted and
// reported as misses; the store never fails a read hard.
func (s *SnapshotStore) Get(ctx context.Context, dataset string) (json.RawMessage, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}
	l := logger.Get()
	key := DatasetKey(dataset)

	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			l.Warn("Snapshot read failed", zap.String("dataset", dataset), zap.Error(err))
		}
		metrics.CacheMisses.WithLabelValues(dataset).Inc()
		return nil, domain.ErrCacheMiss
	}

	var entry snapshotEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		l.Warn("Invalid snapshot payload, deleting", zap.String("dataset", dataset), zap.Error(err))
		s.delete(ctx, key)
		metrics.CacheMisses.WithLabelValues(dataset).Inc()
		return nil, domain.ErrCacheMiss
	}

	cfg := s.datasets[dataset]
	age := s.now().Sub(time.UnixMilli(entry.Timestamp))
	if cfg.TTL > 0 && age > cfg.TTL {
		l.Info("Snapshot expired, deleting", zap.String("dataset", dataset), zap.Duration("age", age))
		s.delete(ctx, key)
		metrics.CacheMisses.WithLabelValues(dataset).Inc()
		return nil, domain.ErrCacheMiss
	}
	if entry.Version != CurrentVersion {
		l.Info("Snapshot version outdated, deleting",
			zap.String("dataset", dataset),
			zap.Int("version", entry.Version))
		s.delete(ctx, key)
		metrics.CacheMisses.WithLabelValues(dataset).Inc()
		return nil, domain.ErrCacheMiss
	}

	metrics.CacheHits.WithLabelValues(dataset).Inc()
	return entry.Data, nil
}

// Put snapshots payload under dataset. When the serialized entry exceeds
// the dataset's size ceiling the configured reduction is applied and the
// size check repeated once; a still-oversized entry is abandoned without
// error, leaving the dataset uncached for this run.
func (s *SnapshotStore) Put(ctx context.Context, dataset string, payload any) error {
	if s.cache == nil {
		return nil
	}
	if payload == nil {
		return domain.NewInvalidInputError("attempted to cache nil payload")
	}
	l := logger.Get()

	data, err := json.Marshal(payload)
	if err != nil {
		return domain.NewCacheError(err)
	}

	cfg := s.datasets[dataset]
	entry := snapshotEntry{
		Data:      data,
		Timestamp: s.now().UnixMilli(),
		Version:   CurrentVersion,
	}
	serialized, err := json.Marshal(entry)
	if err != nil {
		return domain.NewCacheError(err)
	}

	if cfg.MaxBytes > 0 && len(serialized) > cfg.MaxBytes {
		if cfg.Reduce == nil {
			l.Warn("Snapshot exceeds size ceiling, not cached",
				zap.String("dataset", dataset), zap.Int("bytes", len(serialized)))
			return nil
		}
		reduced, err := cfg.Reduce(data)
		if err != nil {
			l.Warn("Snapshot reduction failed, not cached",
				zap.String("dataset", dataset), zap.Error(err))
			return nil
		}
		entry.Data = reduced
		serialized, err = json.Marshal(entry)
		if err != nil {
			return domain.NewCacheError(err)
		}
		if len(serialized) > cfg.MaxBytes {
			l.Warn("Snapshot still exceeds size ceiling after reduction, not cached",
				zap.String("dataset", dataset), zap.Int("bytes", len(serialized)))
			return nil
		}
		l.Info("Cached reduced snapshot", zap.String("dataset", dataset), zap.Int("bytes", len(serialized)))
	}

	if err := s.cache.Set(ctx, DatasetKey(dataset), string(serialized), cfg.TTL); err != nil {
		return domain.NewCacheError(err)
	}
	return nil
}

func (s *SnapshotStore) delete(ctx context.Context, key string) {
	if err := s.cache.Delete(ctx, key); err != nil {
		logger.Get().Warn("Failed to delete stale snapshot", zap.String("key", key), zap.Error(err))
	}
}
