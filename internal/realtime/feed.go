// Package realtime carries per-user change notifications used to invalidate cached reads.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aimd54/kibo-gamification/pkg/logger"
)

// Tables that emit change notifications.
const (
	TableProfiles           = "profiles"
	TableDailyActivities    = "daily_activities"
	TableUserAchievements   = "user_achievements"
	TableAssessmentAttempts = "assessment_attempts"
	TableApplications       = "applications"
)

// Change operations.
const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
)

const channelPrefix = "kibo:changes:"

// Change is one committed row change for a user.
type Change struct {
	UserID string    `json:"user_id"`
	Table  string    `json:"table"`
	Op     string    `json:"op"`
	At     time.Time `json:"at"`
}

// Channel returns the pub/sub channel of a user.
func Channel(userID string) string {
	return channelPrefix + userID
}

// RedisFeed publishes and subscribes to changes over Redis pub/sub.
type RedisFeed struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisFeed creates a feed on client.
func NewRedisFeed(client *redis.Client, log *logger.Logger) *RedisFeed {
	return &RedisFeed{client: client, log: log.Component("realtime")}
}

// Publish sends each change on its user's channel.
func (f *RedisFeed) Publish(ctx context.Context, changes ...Change) error {
	for _, c := range changes {
		if c.At.IsZero() {
			c.At = time.Now()
		}
		payload, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to encode change: %w", err)
		}
		if err := f.client.Publish(ctx, Channel(c.UserID), payload).Err(); err != nil {
			return fmt.Errorf("failed to publish change: %w", err)
		}
	}
	return nil
}

// Subscription delivers decoded changes until closed.
type Subscription struct {
	C      <-chan Change
	pubsub *redis.PubSub
	done   chan struct{}
	once   sync.Once
}

// Close ends the subscription and closes C.
func (s *Subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}

// Subscribe listens to one user's changes, or every user's when userID is empty.
// It returns once the subscription is confirmed by the server.
func (f *RedisFeed) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	var pubsub *redis.PubSub
	if userID == "" {
		pubsub = f.client.PSubscribe(ctx, channelPrefix+"*")
	} else {
		pubsub = f.client.Subscribe(ctx, Channel(userID))
	}

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to changes: %w", err)
	}

	out := make(chan Change, 16)
	sub := &Subscription{C: out, pubsub: pubsub, done: make(chan struct{})}

	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var c Change
			if err := json.Unmarshal([]byte(msg.Payload), &c); err != nil {
				f.log.Warn().Err(err).Str("channel", msg.Channel).Msg("Dropping malformed change")
				continue
			}
			select {
			case out <- c:
			case <-sub.done:
				return
			}
		}
	}()

	return sub, nil
}
