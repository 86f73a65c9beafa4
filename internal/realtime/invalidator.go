package realtime

import (
	"context"

	"github.com/aimd54/kibo-gamification/internal/cache"
	"github.com/aimd54/kibo-gamification/pkg/logger"
)

// Invalidater drops cache keys.
type Invalidater interface {
	Invalidate(ctx context.Context, keys ...string) error
}

// Subscriber opens change subscriptions.
type Subscriber interface {
	Subscribe(ctx context.Context, userID string) (*Subscription, error)
}

// Invalidator turns change notifications into cache invalidations. It never merges state:
// the next read refetches.
type Invalidator struct {
	cache Invalidater
	feed  Subscriber
	log   *logger.Logger
}

// NewInvalidator creates an invalidator.
func NewInvalidator(c Invalidater, feed Subscriber, log *logger.Logger) *Invalidator {
	return &Invalidator{cache: c, feed: feed, log: log.Component("invalidator")}
}

// KeysFor maps a change to the cache keys it makes stale.
func KeysFor(c Change) []string {
	switch c.Table {
	case TableDailyActivities:
		return []string{cache.ActivitiesKey(c.UserID)}
	case TableProfiles, TableUserAchievements, TableAssessmentAttempts, TableApplications:
		return []string{cache.StatsKey(c.UserID)}
	default:
		return nil
	}
}

// Handle invalidates the keys of one change.
func (i *Invalidator) Handle(ctx context.Context, c Change) {
	keys := KeysFor(c)
	if len(keys) == 0 || c.UserID == "" {
		return
	}
	if err := i.cache.Invalidate(ctx, keys...); err != nil {
		i.log.Warn().Err(err).Str("user_id", c.UserID).Str("table", c.Table).Msg("Failed to invalidate cache")
		return
	}
	i.log.Debug().Str("user_id", c.UserID).Str("table", c.Table).Strs("keys", keys).Msg("Cache invalidated")
}

// Start subscribes to changes for userID (every user when empty) and invalidates in the
// background. The subscription is live when Start returns. The returned stop func ends it.
func (i *Invalidator) Start(ctx context.Context, userID string) (func(), error) {
	sub, err := i.feed.Subscribe(ctx, userID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case c, ok := <-sub.C:
				if !ok {
					return
				}
				i.Handle(ctx, c)
			}
		}
	}()

	i.log.Info().Str("user_id", userID).Msg("Listening for changes")

	return func() {
		cancel()
		_ = sub.Close()
		<-done
	}, nil
}
