// Package gateway implements the authoritative gamification procedures. Each procedure runs
// as a single database transaction and publishes change notifications after it commits.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"github.com/aimd54/kibo-gamification/internal/metrics"
	"github.com/aimd54/kibo-gamification/internal/models"
	"github.com/aimd54/kibo-gamification/internal/realtime"
	"github.com/aimd54/kibo-gamification/internal/repository"
	"github.com/aimd54/kibo-gamification/pkg/logger"
)

// Procedure errors.
var (
	ErrUnknownAction      = errors.New("unknown xp action")
	ErrNegativeXP         = errors.New("custom xp must not be negative")
	ErrInvalidDifficulty  = errors.New("difficulty must be easy, medium or hard")
	ErrInvalidStatus      = errors.New("invalid application status")
	ErrInvalidAssessment  = errors.New("invalid assessment submission")
	ErrInvalidApplication = errors.New("invalid application")
)

// Publisher delivers committed changes to subscribers.
type Publisher interface {
	Publish(ctx context.Context, changes ...realtime.Change) error
}

// Gateway runs gamification procedures against the database.
type Gateway struct {
	db        *repository.DB
	rules     Rules
	publisher Publisher
	clock     clockwork.Clock
	log       *logger.Logger
}

// New creates a gateway. publisher may be nil when no change feed is configured.
func New(db *repository.DB, rules Rules, publisher Publisher, clock clockwork.Clock, log *logger.Logger) *Gateway {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if rules.Location == nil {
		rules.Location = time.UTC
	}
	return &Gateway{
		db:        db,
		rules:     rules,
		publisher: publisher,
		clock:     clock,
		log:       log.Component("gateway"),
	}
}

// txn bundles the repositories bound to one open transaction and the changes it made.
type txn struct {
	userID       string
	profiles     *repository.ProfileRepository
	levels       *repository.LevelRepository
	activities   *repository.ActivityRepository
	achievements *repository.AchievementRepository
	applications *repository.ApplicationRepository
	db           *repository.DB
	changes      []realtime.Change
}

func (t *txn) touch(table, op string) {
	for _, c := range t.changes {
		if c.Table == table && c.Op == op {
			return
		}
	}
	t.changes = append(t.changes, realtime.Change{UserID: t.userID, Table: table, Op: op})
}

// run executes fn in a transaction, records metrics and publishes the changes on commit.
func (g *Gateway) run(ctx context.Context, procedure, userID string, fn func(t *txn) error) error {
	start := g.clock.Now()
	var t *txn

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		db := repository.WithTx(tx)
		t = &txn{
			userID:       userID,
			profiles:     repository.NewProfileRepository(db),
			levels:       repository.NewLevelRepository(db),
			activities:   repository.NewActivityRepository(db),
			achievements: repository.NewAchievementRepository(db),
			applications: repository.NewApplicationRepository(db),
			db:           db,
		}
		return fn(t)
	})

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordGatewayCall(procedure, status, g.clock.Since(start).Seconds())

	if err != nil {
		g.log.Warn().Err(err).Str("procedure", procedure).Str("user_id", userID).Msg("Procedure failed")
		return fmt.Errorf("%s: %w", procedure, err)
	}

	g.publish(ctx, t.changes)
	return nil
}

func (g *Gateway) publish(ctx context.Context, changes []realtime.Change) {
	if g.publisher == nil || len(changes) == 0 {
		return
	}
	now := g.clock.Now()
	for i := range changes {
		changes[i].At = now
	}
	if err := g.publisher.Publish(ctx, changes...); err != nil {
		g.log.Warn().Err(err).Int("changes", len(changes)).Msg("Failed to publish changes")
	}
}

func (g *Gateway) today() time.Time {
	return models.DayOf(g.clock.Now(), g.rules.Location)
}

// LevelThresholds returns the level ladder ordered by level.
func (g *Gateway) LevelThresholds(ctx context.Context) ([]models.LevelThreshold, error) {
	return repository.NewLevelRepository(g.withContext(ctx)).GetAll()
}

// DailyActivities returns a user's daily rows for the last days calendar days, including today.
func (g *Gateway) DailyActivities(ctx context.Context, userID string, days int) ([]models.DailyActivity, error) {
	since := g.today().AddDate(0, 0, -(days - 1))
	return repository.NewActivityRepository(g.withContext(ctx)).GetSince(userID, since)
}

// UserStats returns the summary of a user's gamification state.
func (g *Gateway) UserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	db := g.withContext(ctx)

	profile, err := repository.NewProfileRepository(db).GetByID(userID)
	if err != nil {
		return nil, err
	}
	unlocked, err := repository.NewAchievementRepository(db).CountByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count achievements: %w", err)
	}

	return &models.UserStats{
		UserID:               profile.ID,
		XP:                   profile.XP,
		Level:                profile.Level,
		Streak:               profile.Streak,
		LongestStreak:        profile.LongestStreak,
		ProblemsSolved:       profile.ProblemsSolved,
		ApplicationsSent:     profile.ApplicationsSent,
		AssessmentsPassed:    profile.AssessmentsPassed,
		AchievementsUnlocked: int(unlocked),
	}, nil
}

// UserAchievements returns the achievements a user has unlocked, newest first.
func (g *Gateway) UserAchievements(ctx context.Context, userID string) ([]models.UserAchievement, error) {
	return repository.NewAchievementRepository(g.withContext(ctx)).GetUserAchievements(userID)
}

// PurgeActivities deletes daily rows older than cutoff.
func (g *Gateway) PurgeActivities(ctx context.Context, cutoff time.Time) (int64, error) {
	return repository.NewActivityRepository(g.withContext(ctx)).DeleteOlderThan(cutoff)
}

func (g *Gateway) withContext(ctx context.Context) *repository.DB {
	return repository.WithTx(g.db.WithContext(ctx))
}
