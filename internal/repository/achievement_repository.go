package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/aimd54/kibo-gamification/internal/models"
)

// AchievementRepository handles achievement definitions and unlocks.
type AchievementRepository struct {
	db *DB
}

// NewAchievementRepository creates a new achievement repository.
func NewAchievementRepository(db *DB) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// GetAll retrieves every achievement definition.
func (r *AchievementRepository) GetAll() ([]models.Achievement, error) {
	var achievements []models.Achievement
	err := r.db.Order("id ASC").Find(&achievements).Error
	return achievements, err
}

// Upsert inserts or replaces achievement definitions by id.
func (r *AchievementRepository) Upsert(achievements []models.Achievement) error {
	if len(achievements) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "icon", "xp_reward", "criteria"}),
	}).Create(&achievements).Error
}

// Unlock records an unlock. It reports false when the user already held the achievement,
// which keeps concurrent evaluations from granting the reward twice.
func (r *AchievementRepository) Unlock(userID, achievementID string, at time.Time) (bool, error) {
	ua := &models.UserAchievement{
		UserID:        userID,
		AchievementID: achievementID,
		UnlockedAt:    at,
	}
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Omit("Achievement").Create(ua)
	if res.Error != nil {
		return false, fmt.Errorf("failed to unlock achievement %s: %w", achievementID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// UnlockedIDs returns the set of achievement ids the user holds.
func (r *AchievementRepository) UnlockedIDs(userID string) (map[string]bool, error) {
	var ids []string
	err := r.db.Model(&models.UserAchievement{}).
		Where("user_id = ?", userID).
		Pluck("achievement_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unlocked achievements: %w", err)
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// GetUserAchievements retrieves the user's unlocks with definitions preloaded, newest first.
func (r *AchievementRepository) GetUserAchievements(userID string) ([]models.UserAchievement, error) {
	var unlocks []models.UserAchievement
	err := r.db.
		Where("user_id = ?", userID).
		Preload("Achievement").
		Order("unlocked_at DESC").
		Find(&unlocks).Error
	return unlocks, err
}

// CountByUser returns how many achievements the user has unlocked.
func (r *AchievementRepository) CountByUser(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.UserAchievement{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}
