package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/kibo-gamification/pkg/logger"
)

type stats struct {
	XP    int `json:"xp"`
	Level int `json:"level"`
}

func setupQueryCache(t *testing.T) (*QueryCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewQueryCache(NewRedisStoreFromClient(client), logger.Nop()), mr
}

func TestGet_CachesUntilInvalidated(t *testing.T) {
	q, mr := setupQueryCache(t)
	ctx := context.Background()

	var loads int32
	load := func(context.Context) (stats, error) {
		n := atomic.AddInt32(&loads, 1)
		return stats{XP: int(n) * 10, Level: 1}, nil
	}

	first, err := Get(ctx, q, StatsKey("u1"), time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 10, first.XP)

	second, err := Get(ctx, q, StatsKey("u1"), time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 10, second.XP)
	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
	assert.True(t, mr.Exists(StatsKey("u1")))

	require.NoError(t, q.Invalidate(ctx, StatsKey("u1")))
	assert.False(t, mr.Exists(StatsKey("u1")))

	third, err := Get(ctx, q, StatsKey("u1"), time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 20, third.XP)
}

func TestGet_TTLExpires(t *testing.T) {
	q, mr := setupQueryCache(t)
	ctx := context.Background()

	load := func(context.Context) (stats, error) { return stats{XP: 5}, nil }
	_, err := Get(ctx, q, ActivitiesKey("u1"), 30*time.Second, load)
	require.NoError(t, err)
	assert.True(t, mr.Exists(ActivitiesKey("u1")))

	mr.FastForward(31 * time.Second)
	assert.False(t, mr.Exists(ActivitiesKey("u1")))
}

func TestGet_ZeroTTLNeverExpires(t *testing.T) {
	q, mr := setupQueryCache(t)
	ctx := context.Background()

	load := func(context.Context) ([]int, error) { return []int{1, 2}, nil }
	_, err := Get(ctx, q, LevelsKey(), 0, load)
	require.NoError(t, err)

	mr.FastForward(24 * time.Hour)
	assert.True(t, mr.Exists(LevelsKey()))
}

func TestGet_FailedLoadNotCached(t *testing.T) {
	q, mr := setupQueryCache(t)
	ctx := context.Background()

	boom := errors.New("boom")
	value, err := Get(ctx, q, StatsKey("u1"), time.Minute, func(context.Context) (stats, error) {
		return stats{Level: 1}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, value.Level)
	assert.False(t, mr.Exists(StatsKey("u1")))
}

func TestGet_StoreDownLoadsDirectly(t *testing.T) {
	q, mr := setupQueryCache(t)
	mr.Close()

	value, err := Get(context.Background(), q, StatsKey("u1"), time.Minute, func(context.Context) (stats, error) {
		return stats{XP: 7}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, value.XP)
}

func TestGet_CoalescesConcurrentMisses(t *testing.T) {
	q, _ := setupQueryCache(t)
	ctx := context.Background()

	var loads int32
	release := make(chan struct{})
	load := func(context.Context) (stats, error) {
		atomic.AddInt32(&loads, 1)
		<-release
		return stats{XP: 1}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = Get(ctx, q, StatsKey("u1"), time.Minute, load)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
}

func TestGet_InvalidateDuringLoadNotWrittenBack(t *testing.T) {
	q, mr := setupQueryCache(t)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	stale := func(context.Context) (stats, error) {
		close(started)
		<-release
		return stats{XP: 100}, nil
	}

	done := make(chan stats)
	go func() {
		value, _ := Get(ctx, q, StatsKey("u1"), 0, stale)
		done <- value
	}()

	<-started
	require.NoError(t, q.Invalidate(ctx, StatsKey("u1")))

	// A read after the invalidation must not join the stale load.
	fresh, err := Get(ctx, q, StatsKey("u1"), 0, func(context.Context) (stats, error) {
		return stats{XP: 150}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 150, fresh.XP)

	close(release)
	assert.Equal(t, 100, (<-done).XP, "the in-flight caller still gets its own value")

	cached, err := Get(ctx, q, StatsKey("u1"), 0, func(context.Context) (stats, error) {
		t.Fatal("fresh value should be cached")
		return stats{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 150, cached.XP)
	assert.True(t, mr.Exists(StatsKey("u1")))
}

func TestGet_StaleLoadAloneDoesNotRepopulate(t *testing.T) {
	q, mr := setupQueryCache(t)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = Get(ctx, q, StatsKey("u1"), time.Minute, func(context.Context) (stats, error) {
			close(started)
			<-release
			return stats{XP: 100}, nil
		})
	}()

	<-started
	require.NoError(t, q.Invalidate(ctx, StatsKey("u1")))
	close(release)
	<-done

	assert.False(t, mr.Exists(StatsKey("u1")))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "kibo:levels", LevelsKey())
	assert.Equal(t, "kibo:stats:u1", StatsKey("u1"))
	assert.Equal(t, "kibo:activities:u1", ActivitiesKey("u1"))
	assert.Equal(t, []string{"kibo:stats:u1", "kibo:activities:u1"}, UserKeys("u1"))
	assert.Equal(t, "stats", queryName(StatsKey("u1")))
	assert.Equal(t, "levels", queryName(LevelsKey()))
}

func TestRedisStore_GetMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer store.Close()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, store.Del(context.Background()))
	assert.NoError(t, store.Health(context.Background()))
}
