package repository

import (
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/aimd54/kibo-gamification/internal/models"
)

// LevelRepository handles the level threshold ladder.
type LevelRepository struct {
	db *DB
}

// NewLevelRepository creates a new level repository.
func NewLevelRepository(db *DB) *LevelRepository {
	return &LevelRepository{db: db}
}

// GetAll returns every threshold ordered by level ascending.
func (r *LevelRepository) GetAll() ([]models.LevelThreshold, error) {
	var thresholds []models.LevelThreshold
	if err := r.db.Order("level ASC").Find(&thresholds).Error; err != nil {
		return nil, fmt.Errorf("failed to list level thresholds: %w", err)
	}
	return thresholds, nil
}

// Upsert inserts or replaces thresholds by level.
func (r *LevelRepository) Upsert(thresholds []models.LevelThreshold) error {
	if len(thresholds) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "level"}},
		DoUpdates: clause.AssignmentColumns([]string{"xp_required", "title"}),
	}).Create(&thresholds).Error
}
