package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/kibo-gamification/internal/models"
	"github.com/aimd54/kibo-gamification/pkg/logger"
)

func TestReminderRepository_ScopedToUser(t *testing.T) {
	db, err := NewLocalDB(":memory:", logger.Nop())
	require.NoError(t, err)
	defer cleanupTestDB(t, db)

	repo := NewReminderRepository(db)
	ctx := context.Background()
	target := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &models.Reminder{ID: "r1", UserID: "alice", Title: "Interview", TargetAt: target}))
	require.NoError(t, repo.Create(ctx, &models.Reminder{ID: "r2", UserID: "bob", Title: "Call", TargetAt: target.Add(time.Hour)}))

	mine, err := repo.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "r1", mine[0].ID)

	err = repo.Delete(ctx, "bob", "r1")
	assert.True(t, errors.Is(err, ErrReminderNotFound))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, repo.Delete(ctx, "alice", "r1"))
	err = repo.Delete(ctx, "alice", "r1")
	assert.True(t, errors.Is(err, ErrReminderNotFound))
}
