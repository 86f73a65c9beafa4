package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/aimd54/kibo-gamification/internal/models"
)

// ErrProfileNotFound is returned when no profile exists for a user id.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository handles profile database operations.
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create creates a new profile.
func (r *ProfileRepository) Create(profile *models.Profile) error {
	if profile.Level < 1 {
		profile.Level = 1
	}
	if err := r.db.Create(profile).Error; err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// GetByID retrieves a profile by user id.
func (r *ProfileRepository) GetByID(id string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.Where("id = ?", id).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %s: %w", id, err)
	}
	return &profile, nil
}

// Ensure returns the profile for id, creating an empty one on first sight.
func (r *ProfileRepository) Ensure(id, displayName string) (*models.Profile, error) {
	profile, err := r.GetByID(id)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	profile = &models.Profile{ID: id, DisplayName: displayName, Level: 1}
	if err := r.Create(profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// ListIDs returns the ids of every profile.
func (r *ProfileRepository) ListIDs() ([]string, error) {
	var ids []string
	if err := r.db.Model(&models.Profile{}).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list profile ids: %w", err)
	}
	return ids, nil
}

// IncrementCounters atomically adds deltas to numeric profile columns.
func (r *ProfileRepository) IncrementCounters(id string, deltas map[string]int) error {
	updates := make(map[string]interface{}, len(deltas))
	for column, delta := range deltas {
		updates[column] = gorm.Expr(column+" + ?", delta)
	}
	res := r.db.Model(&models.Profile{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update profile counters: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, id)
	}
	return nil
}

// SetLevel stores a recomputed level.
func (r *ProfileRepository) SetLevel(id string, level int) error {
	return r.db.Model(&models.Profile{}).Where("id = ?", id).Update("level", level).Error
}

// StartDay moves the profile onto a new calendar day with the given streak. It only succeeds
// when last_active_date differs from day, so concurrent callers cannot both start the same day.
func (r *ProfileRepository) StartDay(id string, day time.Time, streak, longestStreak int) (bool, error) {
	res := r.db.Model(&models.Profile{}).
		Where("id = ? AND (last_active_date IS NULL OR last_active_date <> ?)", id, day).
		Updates(map[string]interface{}{
			"streak":           streak,
			"longest_streak":   longestStreak,
			"last_active_date": day,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to start day: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
