package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aimd54/kibo-gamification/internal/models"
)

// ErrReminderNotFound is returned when a reminder does not exist for the user.
var ErrReminderNotFound = errors.New("reminder not found")

// ReminderRepository persists reminders in the device-local store.
type ReminderRepository struct {
	db *DB
}

// NewReminderRepository creates a new reminder repository on a local DB.
func NewReminderRepository(db *DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// Create stores a reminder.
func (r *ReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	if err := r.db.WithContext(ctx).Create(reminder).Error; err != nil {
		return fmt.Errorf("failed to save reminder: %w", err)
	}
	return nil
}

// List returns every stored reminder of every user ordered by target time.
func (r *ReminderRepository) List(ctx context.Context) ([]models.Reminder, error) {
	var reminders []models.Reminder
	if err := r.db.WithContext(ctx).Order("target_at ASC").Find(&reminders).Error; err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return reminders, nil
}

// ListByUser returns the user's reminders ordered by target time.
func (r *ReminderRepository) ListByUser(ctx context.Context, userID string) ([]models.Reminder, error) {
	var reminders []models.Reminder
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("target_at ASC").
		Find(&reminders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders for user %s: %w", userID, err)
	}
	return reminders, nil
}

// Delete removes the user's reminder by id. Returns ErrReminderNotFound when the user owns no
// such reminder.
func (r *ReminderRepository) Delete(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Reminder{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete reminder %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrReminderNotFound
	}
	return nil
}
