package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileRepository_CreateDefaultsLevel(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	profile := createProfile(t, db, "user-1")
	assert.Equal(t, 1, profile.Level)

	got, err := NewProfileRepository(db).GetByID("user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Level)
	assert.Equal(t, 0, got.XP)
	assert.Nil(t, got.LastActiveDate)
}

func TestProfileRepository_GetByIDNotFound(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	_, err := NewProfileRepository(db).GetByID("missing")
	assert.True(t, errors.Is(err, ErrProfileNotFound))
}

func TestProfileRepository_Ensure(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	repo := NewProfileRepository(db)

	first, err := repo.Ensure("user-1", "Ada")
	require.NoError(t, err)
	assert.Equal(t, "Ada", first.DisplayName)

	require.NoError(t, repo.IncrementCounters("user-1", map[string]int{"xp": 30}))

	second, err := repo.Ensure("user-1", "Someone else")
	require.NoError(t, err)
	assert.Equal(t, "Ada", second.DisplayName)
	assert.Equal(t, 30, second.XP)

	ids, err := repo.ListIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"user-1"}, ids)
}

func TestProfileRepository_IncrementCounters(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	createProfile(t, db, "user-1")
	repo := NewProfileRepository(db)

	require.NoError(t, repo.IncrementCounters("user-1", map[string]int{"xp": 10, "problems_solved": 1}))
	require.NoError(t, repo.IncrementCounters("user-1", map[string]int{"xp": 25, "problems_solved": 1}))

	got, err := repo.GetByID("user-1")
	require.NoError(t, err)
	assert.Equal(t, 35, got.XP)
	assert.Equal(t, 2, got.ProblemsSolved)

	err = repo.IncrementCounters("missing", map[string]int{"xp": 1})
	assert.True(t, errors.Is(err, ErrProfileNotFound))
}

func TestProfileRepository_StartDay(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(t, db)

	createProfile(t, db, "user-1")
	repo := NewProfileRepository(db)
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	started, err := repo.StartDay("user-1", day, 1, 1)
	require.NoError(t, err)
	assert.True(t, started)

	// Same day again must not restart it.
	started, err = repo.StartDay("user-1", day, 2, 2)
	require.NoError(t, err)
	assert.False(t, started)

	got, err := repo.GetByID("user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Streak)
	require.NotNil(t, got.LastActiveDate)

	started, err = repo.StartDay("user-1", day.AddDate(0, 0, 1), 2, 2)
	require.NoError(t, err)
	assert.True(t, started)

	got, err = repo.GetByID("user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Streak)
	assert.Equal(t, 2, got.LongestStreak)
}
