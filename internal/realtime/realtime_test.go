package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/kibo-gamification/internal/cache"
	"github.com/aimd54/kibo-gamification/pkg/logger"
)

func setupFeed(t *testing.T) *RedisFeed {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisFeed(client, logger.Nop())
}

type recordingCache struct {
	mu   sync.Mutex
	keys []string
	hit  chan struct{}
}

func newRecordingCache() *recordingCache {
	return &recordingCache{hit: make(chan struct{}, 16)}
}

func (r *recordingCache) Invalidate(_ context.Context, keys ...string) error {
	r.mu.Lock()
	r.keys = append(r.keys, keys...)
	r.mu.Unlock()
	r.hit <- struct{}{}
	return nil
}

func (r *recordingCache) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for invalidation")
	}
}

func TestFeed_PublishSubscribe(t *testing.T) {
	feed := setupFeed(t)
	ctx := context.Background()

	sub, err := feed.Subscribe(ctx, "u1")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, feed.Publish(ctx,
		Change{UserID: "u2", Table: TableProfiles, Op: OpUpdate},
		Change{UserID: "u1", Table: TableDailyActivities, Op: OpInsert},
	))

	select {
	case c := <-sub.C:
		assert.Equal(t, "u1", c.UserID)
		assert.Equal(t, TableDailyActivities, c.Table)
		assert.False(t, c.At.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("no change received")
	}
}

func TestFeed_SubscribeAllUsers(t *testing.T) {
	feed := setupFeed(t)
	ctx := context.Background()

	sub, err := feed.Subscribe(ctx, "")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, feed.Publish(ctx, Change{UserID: "u9", Table: TableApplications, Op: OpUpdate}))

	select {
	case c := <-sub.C:
		assert.Equal(t, "u9", c.UserID)
	case <-time.After(2 * time.Second):
		t.Fatal("no change received")
	}
}

func TestKeysFor(t *testing.T) {
	tests := []struct {
		table string
		want  []string
	}{
		{TableProfiles, []string{cache.StatsKey("u1")}},
		{TableDailyActivities, []string{cache.ActivitiesKey("u1")}},
		{TableUserAchievements, []string{cache.StatsKey("u1")}},
		{TableAssessmentAttempts, []string{cache.StatsKey("u1")}},
		{TableApplications, []string{cache.StatsKey("u1")}},
		{"level_thresholds", nil},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			assert.Equal(t, tt.want, KeysFor(Change{UserID: "u1", Table: tt.table}))
		})
	}
}

func TestInvalidator_Start(t *testing.T) {
	feed := setupFeed(t)
	rec := newRecordingCache()
	inv := NewInvalidator(rec, feed, logger.Nop())
	ctx := context.Background()

	stop, err := inv.Start(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, feed.Publish(ctx, Change{UserID: "u1", Table: TableProfiles, Op: OpUpdate}))
	waitFor(t, rec.hit)
	require.NoError(t, feed.Publish(ctx, Change{UserID: "u1", Table: TableDailyActivities, Op: OpInsert}))
	waitFor(t, rec.hit)

	assert.Equal(t, []string{cache.StatsKey("u1"), cache.ActivitiesKey("u1")}, rec.snapshot())

	stop()
}

func TestInvalidator_IgnoresUnknownTables(t *testing.T) {
	rec := newRecordingCache()
	inv := NewInvalidator(rec, setupFeed(t), logger.Nop())

	inv.Handle(context.Background(), Change{UserID: "u1", Table: "level_thresholds"})
	inv.Handle(context.Background(), Change{Table: TableProfiles})

	assert.Empty(t, rec.snapshot())
}
