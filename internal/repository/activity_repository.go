package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aimd54/kibo-gamification/internal/models"
)

// ActivityRepository handles per-day activity aggregates.
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new activity repository.
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// ActivityDelta is the set of increments applied to one day's row.
type ActivityDelta struct {
	XPEarned             int
	ProblemsSolved       int
	ApplicationsSent     int
	AssessmentsCompleted int
}

// Add upserts the (user, day) row and atomically adds delta to its counters.
func (r *ActivityRepository) Add(userID string, day time.Time, delta ActivityDelta) error {
	row := models.DailyActivity{
		UserID:               userID,
		Date:                 day,
		XPEarned:             delta.XPEarned,
		ProblemsSolved:       delta.ProblemsSolved,
		ApplicationsSent:     delta.ApplicationsSent,
		AssessmentsCompleted: delta.AssessmentsCompleted,
	}

	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"xp_earned":             gorm.Expr("daily_activities.xp_earned + ?", delta.XPEarned),
			"problems_solved":       gorm.Expr("daily_activities.problems_solved + ?", delta.ProblemsSolved),
			"applications_sent":     gorm.Expr("daily_activities.applications_sent + ?", delta.ApplicationsSent),
			"assessments_completed": gorm.Expr("daily_activities.assessments_completed + ?", delta.AssessmentsCompleted),
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert daily activity: %w", err)
	}
	return nil
}

// GetByDate returns the row for one day, or a zero row when none exists.
func (r *ActivityRepository) GetByDate(userID string, day time.Time) (*models.DailyActivity, error) {
	var activity models.DailyActivity
	err := r.db.Where("user_id = ? AND date = ?", userID, day).First(&activity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.DailyActivity{UserID: userID, Date: day}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily activity: %w", err)
	}
	return &activity, nil
}

// GetSince returns the user's rows on or after since, oldest first.
func (r *ActivityRepository) GetSince(userID string, since time.Time) ([]models.DailyActivity, error) {
	var activities []models.DailyActivity
	err := r.db.Where("user_id = ? AND date >= ?", userID, since).
		Order("date ASC").
		Find(&activities).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list daily activities: %w", err)
	}
	return activities, nil
}

// DeleteOlderThan removes rows dated before cutoff and returns how many were removed.
func (r *ActivityRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res := r.db.Where("date < ?", cutoff).Delete(&models.DailyActivity{})
	return res.RowsAffected, res.Error
}
