package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/aimd54/kibo-gamification/internal/models"
	"github.com/aimd54/kibo-gamification/internal/realtime"
	"github.com/aimd54/kibo-gamification/internal/repository"
)

// CreateApplication stores a new application in the wishlist stage.
func (g *Gateway) CreateApplication(ctx context.Context, userID, company, role string) (*models.Application, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, fmt.Errorf("%w: company is required", ErrInvalidApplication)
	}

	app := &models.Application{
		UserID:  userID,
		Company: company,
		Role:    strings.TrimSpace(role),
		Status:  models.ApplicationStatusWishlist,
	}
	err := g.run(ctx, "create_application", userID, func(t *txn) error {
		if _, err := t.profiles.GetByID(userID); err != nil {
			return err
		}
		if err := t.applications.Create(app); err != nil {
			return err
		}
		t.touch(realtime.TableApplications, realtime.OpInsert)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// ListApplications returns a user's applications, newest first.
func (g *Gateway) ListApplications(ctx context.Context, userID string) ([]models.Application, error) {
	return repository.NewApplicationRepository(g.withContext(ctx)).ListByUser(userID)
}

// MoveApplication stores a new status and returns the previous one. XP for the move is
// granted separately by RecordApplicationUpdate.
func (g *Gateway) MoveApplication(ctx context.Context, userID string, id uint, status string) (string, error) {
	if !models.IsValidApplicationStatus(status) {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var old string
	err := g.run(ctx, "move_application", userID, func(t *txn) error {
		var err error
		old, err = t.applications.UpdateStatus(userID, id, status)
		if err != nil {
			return err
		}
		t.touch(realtime.TableApplications, realtime.OpUpdate)
		return nil
	})
	return old, err
}
