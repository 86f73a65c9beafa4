// Package gamification provides typed, failure-absorbing access to the gamification gateway.
package gamification

import (
	"context"

	"github.com/aimd54/kibo-gamification/internal/metrics"
	"github.com/aimd54/kibo-gamification/internal/models"
	"github.com/aimd54/kibo-gamification/internal/service/progress"
	"github.com/aimd54/kibo-gamification/pkg/logger"
)

// ActivityWindowDays is how many calendar days GetDailyActivities covers.
const ActivityWindowDays = 365

// Gateway is the set of procedures and reads the accessor wraps.
type Gateway interface {
	InitDailyActivity(ctx context.Context, userID, displayName string) (*models.DailyInit, error)
	AwardXP(ctx context.Context, userID, action string, customXP *int) (*models.XPResult, error)
	RecordProblemSolved(ctx context.Context, userID, difficulty string) (*models.ProblemSolvedResult, error)
	RecordAssessmentCompleted(ctx context.Context, userID string, sub models.AssessmentSubmission) (*models.XPResult, error)
	RecordApplicationUpdate(ctx context.Context, userID, oldStatus, newStatus string) (*models.ApplicationXPResult, error)
	CheckAchievements(ctx context.Context, userID string) ([]models.AchievementUnlock, error)
	LevelThresholds(ctx context.Context) ([]models.LevelThreshold, error)
	DailyActivities(ctx context.Context, userID string, days int) ([]models.DailyActivity, error)
	UserStats(ctx context.Context, userID string) (*models.UserStats, error)
}

// Accessor wraps every gateway call in a Result. Errors are logged and counted, never returned
// bare and never panicked. Mutations carry a nil Value on failure; reads carry an empty default.
type Accessor struct {
	gateway Gateway
	log     *logger.Logger
}

// NewAccessor creates an accessor over gateway.
func NewAccessor(gateway Gateway, log *logger.Logger) *Accessor {
	return &Accessor{gateway: gateway, log: log.Component("accessor")}
}

func (a *Accessor) failed(operation, userID string, err error) {
	metrics.RecordAccessorFailure(operation)
	a.log.Error().Err(err).Str("operation", operation).Str("user_id", userID).Msg("Gamification call failed")
}

// InitDailyActivity starts the user's calendar day.
func (a *Accessor) InitDailyActivity(ctx context.Context, userID, displayName string) Result[*models.DailyInit] {
	res, err := a.gateway.InitDailyActivity(ctx, userID, displayName)
	if err != nil {
		a.failed("init_daily_activity", userID, err)
		return Fail[*models.DailyInit](nil, err)
	}
	return Ok(res)
}

// AwardXP grants XP for action. customXP overrides the default reward when non-nil.
func (a *Accessor) AwardXP(ctx context.Context, userID, action string, customXP *int) Result[*models.XPResult] {
	res, err := a.gateway.AwardXP(ctx, userID, action, customXP)
	if err != nil {
		a.failed("award_xp", userID, err)
		return Fail[*models.XPResult](nil, err)
	}
	return Ok(res)
}

// RecordProblemSolved records a solved problem of the given difficulty.
func (a *Accessor) RecordProblemSolved(ctx context.Context, userID, difficulty string) Result[*models.ProblemSolvedResult] {
	res, err := a.gateway.RecordProblemSolved(ctx, userID, difficulty)
	if err != nil {
		a.failed("record_problem_solved", userID, err)
		return Fail[*models.ProblemSolvedResult](nil, err)
	}
	return Ok(res)
}

// RecordAssessmentCompleted records a finished assessment.
func (a *Accessor) RecordAssessmentCompleted(ctx context.Context, userID string, sub models.AssessmentSubmission) Result[*models.XPResult] {
	res, err := a.gateway.RecordAssessmentCompleted(ctx, userID, sub)
	if err != nil {
		a.failed("record_assessment_completed", userID, err)
		return Fail[*models.XPResult](nil, err)
	}
	return Ok(res)
}

// RecordApplicationUpdate records an application status transition.
func (a *Accessor) RecordApplicationUpdate(ctx context.Context, userID, oldStatus, newStatus string) Result[*models.ApplicationXPResult] {
	res, err := a.gateway.RecordApplicationUpdate(ctx, userID, oldStatus, newStatus)
	if err != nil {
		a.failed("record_application_update", userID, err)
		return Fail[*models.ApplicationXPResult](nil, err)
	}
	return Ok(res)
}

// CheckAchievements returns newly unlocked achievements, possibly none.
func (a *Accessor) CheckAchievements(ctx context.Context, userID string) Result[[]models.AchievementUnlock] {
	res, err := a.gateway.CheckAchievements(ctx, userID)
	if err != nil {
		a.failed("check_achievements", userID, err)
		return Fail([]models.AchievementUnlock{}, err)
	}
	if res == nil {
		res = []models.AchievementUnlock{}
	}
	return Ok(res)
}

// GetLevelThresholds returns the level ladder, or an empty list on failure.
func (a *Accessor) GetLevelThresholds(ctx context.Context) Result[[]models.LevelThreshold] {
	res, err := a.gateway.LevelThresholds(ctx)
	if err != nil {
		a.failed("get_level_thresholds", "", err)
		return Fail([]models.LevelThreshold{}, err)
	}
	if res == nil {
		res = []models.LevelThreshold{}
	}
	return Ok(res)
}

// GetDailyActivities returns the last year of daily rows, or an empty list on failure.
func (a *Accessor) GetDailyActivities(ctx context.Context, userID string) Result[[]models.DailyActivity] {
	res, err := a.gateway.DailyActivities(ctx, userID, ActivityWindowDays)
	if err != nil {
		a.failed("get_daily_activities", userID, err)
		return Fail([]models.DailyActivity{}, err)
	}
	if res == nil {
		res = []models.DailyActivity{}
	}
	return Ok(res)
}

// GetUserStats returns the user's summary, or a level-1 zero summary on failure.
func (a *Accessor) GetUserStats(ctx context.Context, userID string) Result[models.UserStats] {
	res, err := a.gateway.UserStats(ctx, userID)
	if err != nil {
		a.failed("get_user_stats", userID, err)
		return Fail(DefaultStats(userID), err)
	}
	if res == nil {
		return Ok(DefaultStats(userID))
	}
	return Ok(*res)
}

// DefaultStats is the summary shown before any data is available.
func DefaultStats(userID string) models.UserStats {
	return models.UserStats{UserID: userID, Level: 1}
}

// LevelProgress combines stats and thresholds into displayable progress.
func LevelProgress(stats models.UserStats, thresholds []models.LevelThreshold) progress.Progress {
	return progress.CalculateLevelProgress(stats.XP, thresholds)
}
