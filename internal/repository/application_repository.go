package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/aimd54/kibo-gamification/internal/models"
)

// ErrApplicationNotFound is returned when an application does not exist for the user.
var ErrApplicationNotFound = errors.New("application not found")

// ApplicationRepository handles job application rows.
type ApplicationRepository struct {
	db *DB
}

// NewApplicationRepository creates a new application repository.
func NewApplicationRepository(db *DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create creates a new application.
func (r *ApplicationRepository) Create(app *models.Application) error {
	if app.Status == "" {
		app.Status = models.ApplicationStatusWishlist
	}
	if err := r.db.Create(app).Error; err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// GetByID retrieves one of the user's applications.
func (r *ApplicationRepository) GetByID(userID string, id uint) (*models.Application, error) {
	var app models.Application
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrApplicationNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application %d: %w", id, err)
	}
	return &app, nil
}

// ListByUser retrieves every application of a user, newest first.
func (r *ApplicationRepository) ListByUser(userID string) ([]models.Application, error) {
	var apps []models.Application
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&apps).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

// UpdateStatus moves an application to status and returns the status it had before.
func (r *ApplicationRepository) UpdateStatus(userID string, id uint, status string) (string, error) {
	var old string
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var app models.Application
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&app).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrApplicationNotFound, id)
			}
			return err
		}
		old = app.Status

		updates := map[string]interface{}{"status": status}
		if status == models.ApplicationStatusApplied && app.AppliedAt == nil {
			updates["applied_at"] = time.Now()
		}
		return tx.Model(&app).Updates(updates).Error
	})
	if err != nil {
		return "", err
	}
	return old, nil
}
