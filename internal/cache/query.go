package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/aimd54/kibo-gamification/internal/metrics"
	"github.com/aimd54/kibo-gamification/pkg/logger"
)

const keyPrefix = "kibo:"

// LevelsKey is the cache key of the level threshold ladder.
func LevelsKey() string { return keyPrefix + "levels" }

// StatsKey is the cache key of a user's summary stats.
func StatsKey(userID string) string { return keyPrefix + "stats:" + userID }

// ActivitiesKey is the cache key of a user's daily activities.
func ActivitiesKey(userID string) string { return keyPrefix + "activities:" + userID }

// UserKeys returns every per-user cache key.
func UserKeys(userID string) []string {
	return []string{StatsKey(userID), ActivitiesKey(userID)}
}

// queryName extracts the query label from a key ("kibo:stats:u1" -> "stats").
func queryName(key string) string {
	name := strings.TrimPrefix(key, keyPrefix)
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[:i]
	}
	return name
}

// QueryCache caches JSON-encoded query results and coalesces concurrent misses.
type QueryCache struct {
	store Store
	group singleflight.Group
	log   *logger.Logger

	// mu orders write-backs against invalidations. A load only writes its value back when
	// the key's generation did not move while it ran.
	mu          sync.Mutex
	generations map[string]uint64
}

// NewQueryCache creates a query cache over store.
func NewQueryCache(store Store, log *logger.Logger) *QueryCache {
	return &QueryCache{store: store, log: log.Component("cache"), generations: make(map[string]uint64)}
}

func (q *QueryCache) generation(key string) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.generations[key]
}

// Loader fetches a fresh value on a cache miss.
type Loader[T any] func(ctx context.Context) (T, error)

// Get returns the cached value for key, calling load on a miss. Concurrent misses for the
// same key share one load. Failed loads are not cached. Store errors degrade to a direct load.
func Get[T any](ctx context.Context, q *QueryCache, key string, ttl time.Duration, load Loader[T]) (T, error) {
	query := queryName(key)

	raw, err := q.store.Get(ctx, key)
	if err == nil {
		var value T
		if jsonErr := json.Unmarshal([]byte(raw), &value); jsonErr == nil {
			metrics.RecordCacheHit(query)
			return value, nil
		}
		q.log.Warn().Str("key", key).Msg("Discarding undecodable cache entry")
	} else if !errors.Is(err, ErrCacheMiss) {
		q.log.Warn().Err(err).Str("key", key).Msg("Cache read failed, loading directly")
	}
	metrics.RecordCacheMiss(query)

	v, err, _ := q.group.Do(key, func() (interface{}, error) {
		gen := q.generation(key)
		value, loadErr := load(ctx)
		if loadErr != nil {
			return value, loadErr
		}
		encoded, encErr := json.Marshal(value)
		if encErr != nil {
			q.log.Warn().Err(encErr).Str("key", key).Msg("Failed to encode cache entry")
			return value, nil
		}
		q.mu.Lock()
		defer q.mu.Unlock()
		if q.generations[key] != gen {
			q.log.Debug().Str("key", key).Msg("Key invalidated during load, not caching")
			return value, nil
		}
		if setErr := q.store.Set(ctx, key, string(encoded), ttl); setErr != nil {
			q.log.Warn().Err(setErr).Str("key", key).Msg("Failed to write cache entry")
		}
		return value, nil
	})

	value, _ := v.(T)
	return value, err
}

// Invalidate drops keys so the next Get reloads them. Loads already running for these keys
// still return their value to their callers but do not write it back, and later Gets do not
// join them.
func (q *QueryCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	q.mu.Lock()
	for _, key := range keys {
		q.generations[key]++
		q.group.Forget(key)
	}
	err := q.store.Del(ctx, keys...)
	q.mu.Unlock()
	if err != nil {
		return err
	}
	for _, key := range keys {
		metrics.RecordCacheInvalidation(queryName(key))
	}
	return nil
}
