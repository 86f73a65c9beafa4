package mocks

import (
	"context"
	"sync"

	"github.com/aimd54/kibo-gamification/internal/models"
)

// MockGateway is a function-field mock of the gamification gateway. Unset functions
// return zero results. Every call is recorded by procedure name.
type MockGateway struct {
	InitDailyActivityFunc         func(ctx context.Context, userID, displayName string) (*models.DailyInit, error)
	AwardXPFunc                   func(ctx context.Context, userID, action string, customXP *int) (*models.XPResult, error)
	RecordProblemSolvedFunc       func(ctx context.Context, userID, difficulty string) (*models.ProblemSolvedResult, error)
	RecordAssessmentCompletedFunc func(ctx context.Context, userID string, sub models.AssessmentSubmission) (*models.XPResult, error)
	RecordApplicationUpdateFunc   func(ctx context.Context, userID, oldStatus, newStatus string) (*models.ApplicationXPResult, error)
	CheckAchievementsFunc         func(ctx context.Context, userID string) ([]models.AchievementUnlock, error)
	LevelThresholdsFunc           func(ctx context.Context) ([]models.LevelThreshold, error)
	DailyActivitiesFunc           func(ctx context.Context, userID string, days int) ([]models.DailyActivity, error)
	UserStatsFunc                 func(ctx context.Context, userID string) (*models.UserStats, error)

	mu    sync.Mutex
	calls []string
}

func (m *MockGateway) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

// Calls returns the procedure names called so far, in order.
func (m *MockGateway) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns how many times a procedure was called.
func (m *MockGateway) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (m *MockGateway) InitDailyActivity(ctx context.Context, userID, displayName string) (*models.DailyInit, error) {
	m.record("init_daily_activity")
	if m.InitDailyActivityFunc != nil {
		return m.InitDailyActivityFunc(ctx, userID, displayName)
	}
	return &models.DailyInit{}, nil
}

func (m *MockGateway) AwardXP(ctx context.Context, userID, action string, customXP *int) (*models.XPResult, error) {
	m.record("award_xp")
	if m.AwardXPFunc != nil {
		return m.AwardXPFunc(ctx, userID, action, customXP)
	}
	return nil, nil
}

func (m *MockGateway) RecordProblemSolved(ctx context.Context, userID, difficulty string) (*models.ProblemSolvedResult, error) {
	m.record("record_problem_solved")
	if m.RecordProblemSolvedFunc != nil {
		return m.RecordProblemSolvedFunc(ctx, userID, difficulty)
	}
	return nil, nil
}

func (m *MockGateway) RecordAssessmentCompleted(ctx context.Context, userID string, sub models.AssessmentSubmission) (*models.XPResult, error) {
	m.record("record_assessment_completed")
	if m.RecordAssessmentCompletedFunc != nil {
		return m.RecordAssessmentCompletedFunc(ctx, userID, sub)
	}
	return nil, nil
}

func (m *MockGateway) RecordApplicationUpdate(ctx context.Context, userID, oldStatus, newStatus string) (*models.ApplicationXPResult, error) {
	m.record("record_application_update")
	if m.RecordApplicationUpdateFunc != nil {
		return m.RecordApplicationUpdateFunc(ctx, userID, oldStatus, newStatus)
	}
	return nil, nil
}

func (m *MockGateway) CheckAchievements(ctx context.Context, userID string) ([]models.AchievementUnlock, error) {
	m.record("check_achievements")
	if m.CheckAchievementsFunc != nil {
		return m.CheckAchievementsFunc(ctx, userID)
	}
	return []models.AchievementUnlock{}, nil
}

func (m *MockGateway) LevelThresholds(ctx context.Context) ([]models.LevelThreshold, error) {
	m.record("level_thresholds")
	if m.LevelThresholdsFunc != nil {
		return m.LevelThresholdsFunc(ctx)
	}
	return []models.LevelThreshold{}, nil
}

func (m *MockGateway) DailyActivities(ctx context.Context, userID string, days int) ([]models.DailyActivity, error) {
	m.record("daily_activities")
	if m.DailyActivitiesFunc != nil {
		return m.DailyActivitiesFunc(ctx, userID, days)
	}
	return []models.DailyActivity{}, nil
}

func (m *MockGateway) UserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	m.record("user_stats")
	if m.UserStatsFunc != nil {
		return m.UserStatsFunc(ctx, userID)
	}
	return &models.UserStats{UserID: userID, Level: 1}, nil
}
