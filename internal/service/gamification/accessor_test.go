package gamification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/kibo-gamification/internal/models"
	"github.com/aimd54/kibo-gamification/pkg/logger"
	"github.com/aimd54/kibo-gamification/test/mocks"
)

var errTransport = errors.New("connection reset")

func failingGateway() *mocks.MockGateway {
	return &mocks.MockGateway{
		InitDailyActivityFunc: func(context.Context, string, string) (*models.DailyInit, error) { return nil, errTransport },
		AwardXPFunc: func(context.Context, string, string, *int) (*models.XPResult, error) {
			return nil, errTransport
		},
		RecordProblemSolvedFunc: func(context.Context, string, string) (*models.ProblemSolvedResult, error) {
			return nil, errTransport
		},
		RecordAssessmentCompletedFunc: func(context.Context, string, models.AssessmentSubmission) (*models.XPResult, error) {
			return nil, errTransport
		},
		RecordApplicationUpdateFunc: func(context.Context, string, string, string) (*models.ApplicationXPResult, error) {
			return nil, errTransport
		},
		CheckAchievementsFunc: func(context.Context, string) ([]models.AchievementUnlock, error) { return nil, errTransport },
		LevelThresholdsFunc:   func(context.Context) ([]models.LevelThreshold, error) { return nil, errTransport },
		DailyActivitiesFunc: func(context.Context, string, int) ([]models.DailyActivity, error) {
			return nil, errTransport
		},
		UserStatsFunc: func(context.Context, string) (*models.UserStats, error) { return nil, errTransport },
	}
}

func TestAccessor_MutationsFailClosed(t *testing.T) {
	acc := NewAccessor(failingGateway(), logger.Nop())
	ctx := context.Background()

	init := acc.InitDailyActivity(ctx, "u1", "")
	assert.False(t, init.OK())
	assert.Nil(t, init.Value)
	assert.ErrorIs(t, init.Err, errTransport)

	xp := acc.AwardXP(ctx, "u1", "task_completed", nil)
	assert.False(t, xp.OK())
	assert.Nil(t, xp.Value)

	assert.False(t, acc.RecordProblemSolved(ctx, "u1", "easy").OK())
	assert.False(t, acc.RecordAssessmentCompleted(ctx, "u1", models.AssessmentSubmission{AssessmentID: "a"}).OK())
	assert.False(t, acc.RecordApplicationUpdate(ctx, "u1", "wishlist", "applied").OK())
}

func TestAccessor_ReadsDegradeToDefaults(t *testing.T) {
	acc := NewAccessor(failingGateway(), logger.Nop())
	ctx := context.Background()

	levels := acc.GetLevelThresholds(ctx)
	assert.False(t, levels.OK())
	assert.NotNil(t, levels.Value)
	assert.Empty(t, levels.Value)

	activities := acc.GetDailyActivities(ctx, "u1")
	assert.False(t, activities.OK())
	assert.NotNil(t, activities.Value)

	stats := acc.GetUserStats(ctx, "u1")
	assert.False(t, stats.OK())
	assert.Equal(t, DefaultStats("u1"), stats.Value)

	unlocks := acc.CheckAchievements(ctx, "u1")
	assert.False(t, unlocks.OK())
	assert.NotNil(t, unlocks.Value)
}

func TestAccessor_DistinguishesNoDataFromFailure(t *testing.T) {
	acc := NewAccessor(&mocks.MockGateway{}, logger.Nop())

	levels := acc.GetLevelThresholds(context.Background())
	assert.True(t, levels.OK())
	assert.Empty(t, levels.Value)

	unlocks := acc.CheckAchievements(context.Background(), "u1")
	assert.True(t, unlocks.OK())
	assert.Empty(t, unlocks.Value)
}

func TestAccessor_PassesThrough(t *testing.T) {
	var gotAction string
	var gotCustom *int
	var gotDays int
	gw := &mocks.MockGateway{
		AwardXPFunc: func(_ context.Context, _ string, action string, custom *int) (*models.XPResult, error) {
			gotAction, gotCustom = action, custom
			return &models.XPResult{NewXP: 110, NewLevel: 2, XPGained: 10, LeveledUp: true}, nil
		},
		DailyActivitiesFunc: func(_ context.Context, _ string, days int) ([]models.DailyActivity, error) {
			gotDays = days
			return []models.DailyActivity{{XPEarned: 3}}, nil
		},
		UserStatsFunc: func(_ context.Context, userID string) (*models.UserStats, error) {
			return &models.UserStats{UserID: userID, XP: 110, Level: 2}, nil
		},
	}
	acc := NewAccessor(gw, logger.Nop())
	ctx := context.Background()

	custom := 10
	xp := acc.AwardXP(ctx, "u1", "task_completed", &custom)
	require.True(t, xp.OK())
	assert.True(t, xp.Value.LeveledUp)
	assert.Equal(t, "task_completed", gotAction)
	assert.Equal(t, &custom, gotCustom)

	activities := acc.GetDailyActivities(ctx, "u1")
	require.True(t, activities.OK())
	assert.Len(t, activities.Value, 1)
	assert.Equal(t, ActivityWindowDays, gotDays)

	stats := acc.GetUserStats(ctx, "u1")
	require.True(t, stats.OK())
	assert.Equal(t, 110, stats.Value.XP)
}

func TestLevelProgress(t *testing.T) {
	thresholds := []models.LevelThreshold{
		{Level: 1, XPRequired: 0, Title: "Novice"},
		{Level: 2, XPRequired: 100, Title: "Apprentice"},
	}

	p := LevelProgress(models.UserStats{XP: 40}, thresholds)
	assert.Equal(t, 40, p.Percent)
	assert.Equal(t, "Novice", p.Title)
}
