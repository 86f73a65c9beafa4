// Package session coordinates one user's gamification actions: it runs mutations through the
// accessor, plays the resulting side effects, checks achievements and keeps cached reads fresh.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/aimd54/kibo-gamification/internal/cache"
	"github.com/aimd54/kibo-gamification/internal/models"
	"github.com/aimd54/kibo-gamification/internal/service/gamification"
	"github.com/aimd54/kibo-gamification/internal/service/progress"
	"github.com/aimd54/kibo-gamification/pkg/logger"
)

// Identity is the authenticated user a session acts for.
type Identity struct {
	UserID      string
	DisplayName string
}

// Accessor is the gamification data accessor a session drives.
type Accessor interface {
	InitDailyActivity(ctx context.Context, userID, displayName string) gamification.Result[*models.DailyInit]
	AwardXP(ctx context.Context, userID, action string, customXP *int) gamification.Result[*models.XPResult]
	RecordProblemSolved(ctx context.Context, userID, difficulty string) gamification.Result[*models.ProblemSolvedResult]
	RecordAssessmentCompleted(ctx context.Context, userID string, sub models.AssessmentSubmission) gamification.Result[*models.XPResult]
	RecordApplicationUpdate(ctx context.Context, userID, oldStatus, newStatus string) gamification.Result[*models.ApplicationXPResult]
	CheckAchievements(ctx context.Context, userID string) gamification.Result[[]models.AchievementUnlock]
	GetLevelThresholds(ctx context.Context) gamification.Result[[]models.LevelThreshold]
	GetDailyActivities(ctx context.Context, userID string) gamification.Result[[]models.DailyActivity]
	GetUserStats(ctx context.Context, userID string) gamification.Result[models.UserStats]
}

// Factory builds sessions that share an accessor and a query cache.
type Factory struct {
	accessor Accessor
	cache    *cache.QueryCache
	ttl      time.Duration
	log      *logger.Logger
}

// NewFactory creates a session factory. ttl applies to stats and activities; thresholds never expire.
func NewFactory(accessor Accessor, queryCache *cache.QueryCache, ttl time.Duration, log *logger.Logger) *Factory {
	return &Factory{accessor: accessor, cache: queryCache, ttl: ttl, log: log.Component("session")}
}

// New creates a session for identity that reports side effects to effects.
func (f *Factory) New(identity Identity, effects Effects) *Session {
	return &Session{
		identity: identity,
		accessor: f.accessor,
		cache:    f.cache,
		effects:  effects,
		ttl:      f.ttl,
		log:      f.log.ForUser(identity.UserID),
	}
}

// Session is the per-identity coordination point.
type Session struct {
	identity Identity
	accessor Accessor
	cache    *cache.QueryCache
	effects  Effects
	ttl      time.Duration
	log      *logger.Logger
}

// Identity returns the session's user.
func (s *Session) Identity() Identity {
	return s.identity
}

// Start begins the user's day and welcomes them back when a new calendar day started.
func (s *Session) Start(ctx context.Context) gamification.Result[*models.DailyInit] {
	res := s.accessor.InitDailyActivity(ctx, s.identity.UserID, s.identity.DisplayName)
	if !res.OK() || res.Value == nil {
		return res
	}

	if res.Value.IsNewDay {
		s.effects.Toast(Toast{
			Kind:    ToastWelcome,
			Title:   "Welcome back!",
			Message: fmt.Sprintf("Streak %d %s, +%d XP", res.Value.Streak, plural(res.Value.Streak, "day", "days"), res.Value.BonusXP),
		})
		s.invalidate(ctx)
	}
	return res
}

// AwardXP grants XP for a named action.
func (s *Session) AwardXP(ctx context.Context, action string, customXP *int) gamification.Result[*models.XPResult] {
	res := s.accessor.AwardXP(ctx, s.identity.UserID, action, customXP)
	if !res.OK() || res.Value == nil {
		return res
	}
	s.celebrate(res.Value.XPGained, res.Value.LeveledUp, res.Value.NewLevel)
	s.afterMutation(ctx)
	return res
}

// RecordProblemSolved records a solved problem.
func (s *Session) RecordProblemSolved(ctx context.Context, difficulty string) gamification.Result[*models.ProblemSolvedResult] {
	res := s.accessor.RecordProblemSolved(ctx, s.identity.UserID, difficulty)
	if !res.OK() || res.Value == nil {
		return res
	}
	s.celebrate(res.Value.XPGained, res.Value.LeveledUp, res.Value.NewLevel)
	s.afterMutation(ctx)
	return res
}

// RecordAssessment records a finished assessment.
func (s *Session) RecordAssessment(ctx context.Context, sub models.AssessmentSubmission) gamification.Result[*models.XPResult] {
	res := s.accessor.RecordAssessmentCompleted(ctx, s.identity.UserID, sub)
	if !res.OK() || res.Value == nil {
		return res
	}
	s.celebrate(res.Value.XPGained, res.Value.LeveledUp, res.Value.NewLevel)
	s.afterMutation(ctx)
	return res
}

// RecordApplicationUpdate records an application status change.
func (s *Session) RecordApplicationUpdate(ctx context.Context, oldStatus, newStatus string) gamification.Result[*models.ApplicationXPResult] {
	res := s.accessor.RecordApplicationUpdate(ctx, s.identity.UserID, oldStatus, newStatus)
	if !res.OK() || res.Value == nil {
		return res
	}
	s.celebrate(res.Value.XPGained, false, 0)
	s.afterMutation(ctx)
	return res
}

// celebrate plays the sound, particle effect and toast for an XP delta. A level-up replaces
// the plain XP path entirely. A zero, non-level-up delta shows nothing.
func (s *Session) celebrate(gained int, leveledUp bool, newLevel int) {
	if leveledUp {
		s.effects.PlaySound(SoundLevelUp)
		s.effects.Celebrate(CelebrationLevelUp)
		s.effects.Toast(Toast{
			Kind:    ToastLevelUp,
			Title:   fmt.Sprintf("Level up! You reached level %d", newLevel),
			Message: fmt.Sprintf("+%d XP", gained),
		})
		return
	}
	if gained <= 0 {
		return
	}
	s.effects.PlaySound(SoundXPGain)
	s.effects.Celebrate(CelebrationXP)
	s.effects.Toast(Toast{Kind: ToastXP, Title: fmt.Sprintf("+%d XP", gained)})
}

// afterMutation checks achievements and invalidates the user's cached reads. It only runs after
// a mutation succeeded with a result, so criteria see the updated counters.
func (s *Session) afterMutation(ctx context.Context) {
	unlocks := s.accessor.CheckAchievements(ctx, s.identity.UserID)
	if !unlocks.OK() {
		s.log.Warn().Err(unlocks.Err).Msg("Achievement check failed")
	} else {
		for _, u := range unlocks.Value {
			s.effects.Celebrate(CelebrationAchievement)
			message := ""
			if u.XPReward > 0 {
				message = fmt.Sprintf("+%d XP", u.XPReward)
			}
			s.effects.Toast(Toast{
				Kind:    ToastAchievement,
				Title:   "Achievement unlocked: " + u.AchievementName,
				Message: message,
			})
		}
	}

	s.invalidate(ctx)
}

func (s *Session) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, cache.UserKeys(s.identity.UserID)...); err != nil {
		s.log.Warn().Err(err).Msg("Failed to invalidate cached reads")
	}
}

// LevelThresholds returns the cached level ladder.
func (s *Session) LevelThresholds(ctx context.Context) gamification.Result[[]models.LevelThreshold] {
	return cached(ctx, s.cache, cache.LevelsKey(), 0, func(ctx context.Context) gamification.Result[[]models.LevelThreshold] {
		return s.accessor.GetLevelThresholds(ctx)
	})
}

// UserStats returns the cached summary stats.
func (s *Session) UserStats(ctx context.Context) gamification.Result[models.UserStats] {
	return cached(ctx, s.cache, cache.StatsKey(s.identity.UserID), s.ttl, func(ctx context.Context) gamification.Result[models.UserStats] {
		return s.accessor.GetUserStats(ctx, s.identity.UserID)
	})
}

// DailyActivities returns the cached last year of daily rows.
func (s *Session) DailyActivities(ctx context.Context) gamification.Result[[]models.DailyActivity] {
	return cached(ctx, s.cache, cache.ActivitiesKey(s.identity.UserID), s.ttl, func(ctx context.Context) gamification.Result[[]models.DailyActivity] {
		return s.accessor.GetDailyActivities(ctx, s.identity.UserID)
	})
}

// LevelProgress derives progress from the cached stats and thresholds.
func (s *Session) LevelProgress(ctx context.Context) gamification.Result[progress.Progress] {
	stats := s.UserStats(ctx)
	thresholds := s.LevelThresholds(ctx)

	p := gamification.LevelProgress(stats.Value, thresholds.Value)
	if !stats.OK() {
		return gamification.Fail(p, stats.Err)
	}
	if !thresholds.OK() {
		return gamification.Fail(p, thresholds.Err)
	}
	return gamification.Ok(p)
}

// cached reads through the query cache. Failed loads are returned with their default value
// and are not stored.
func cached[T any](ctx context.Context, q *cache.QueryCache, key string, ttl time.Duration, load func(context.Context) gamification.Result[T]) gamification.Result[T] {
	value, err := cache.Get(ctx, q, key, ttl, func(ctx context.Context) (T, error) {
		res := load(ctx)
		return res.Value, res.Err
	})
	if err != nil {
		return gamification.Fail(value, err)
	}
	return gamification.Ok(value)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
