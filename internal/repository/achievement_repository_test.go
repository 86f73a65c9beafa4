package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/kibo-gamification/internal/models"
)

func TestAchievementRepository_UnlockOnce(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	createProfile(t, db, "user-1")
	repo := NewAchievementRepository(db)
	require.NoError(t, repo.Upsert([]models.Achievement{
		{ID: "first_blood", Name: "First Blood", XPReward: 20, Criteria: []byte(`{"metric":"problems_solved","operator":">=","value":1}`)},
	}))

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	unlocked, err := repo.Unlock("user-1", "first_blood", now)
	require.NoError(t, err)
	assert.True(t, unlocked)

	unlocked, err = repo.Unlock("user-1", "first_blood", now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, unlocked)

	count, err := repo.CountByUser("user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	ids, err := repo.UnlockedIDs("user-1")
	require.NoError(t, err)
	assert.True(t, ids["first_blood"])

	unlocks, err := repo.GetUserAchievements("user-1")
	require.NoError(t, err)
	require.Len(t, unlocks, 1)
	assert.Equal(t, "First Blood", unlocks[0].Achievement.Name)
}

func TestAchievementRepository_UpsertReplaces(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	repo := NewAchievementRepository(db)
	require.NoError(t, repo.Upsert([]models.Achievement{{ID: "a", Name: "Old", XPReward: 5}}))
	require.NoError(t, repo.Upsert([]models.Achievement{{ID: "a", Name: "New", XPReward: 10}}))

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "New", all[0].Name)
	assert.Equal(t, 10, all[0].XPReward)
}
