package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aimd54/kibo-gamification/internal/models"
)

var ladder = []models.LevelThreshold{
	{Level: 1, XPRequired: 0, Title: "Novice"},
	{Level: 2, XPRequired: 100, Title: "Apprentice"},
	{Level: 3, XPRequired: 250, Title: "Journeyman"},
	{Level: 4, XPRequired: 500, Title: "Adept"},
}

func TestCalculateLevelProgress_Example(t *testing.T) {
	thresholds := []models.LevelThreshold{
		{Level: 1, XPRequired: 0, Title: "Novice"},
		{Level: 2, XPRequired: 100, Title: "Apprentice"},
	}

	p := CalculateLevelProgress(40, thresholds)

	assert.Equal(t, 40, p.XPIntoLevel)
	assert.Equal(t, 100, p.XPNeededForNext)
	assert.Equal(t, 40, p.Percent)
	assert.Equal(t, "Novice", p.Title)
	assert.Equal(t, "Apprentice", p.NextLevelTitle)
	assert.False(t, p.MaxLevel)
}

func TestCalculateLevelProgress_PercentBoundsAndIdentity(t *testing.T) {
	for xp := 0; xp < 500; xp += 7 {
		p := CalculateLevelProgress(xp, ladder)

		assert.GreaterOrEqual(t, p.Percent, 0, "xp=%d", xp)
		assert.LessOrEqual(t, p.Percent, 100, "xp=%d", xp)

		var required int
		for _, l := range ladder {
			if l.Level == p.Level {
				required = l.XPRequired
			}
		}
		assert.Equal(t, xp, p.XPIntoLevel+required, "xp=%d", xp)
	}
}

func TestCalculateLevelProgress_MaxLevel(t *testing.T) {
	for _, xp := range []int{500, 501, 10000} {
		p := CalculateLevelProgress(xp, ladder)
		assert.Equal(t, 100, p.Percent)
		assert.Equal(t, "Adept", p.Title)
		assert.Equal(t, 4, p.Level)
		assert.True(t, p.MaxLevel)
	}
}

func TestCalculateLevelProgress_Empty(t *testing.T) {
	for _, thresholds := range [][]models.LevelThreshold{nil, {}} {
		p := CalculateLevelProgress(40, thresholds)
		assert.Equal(t, DefaultTitle, p.Title)
		assert.Equal(t, 0, p.Percent)
		assert.Equal(t, 1, p.Level)
	}
}

func TestCalculateLevelProgress_NoQualifyingThreshold(t *testing.T) {
	thresholds := []models.LevelThreshold{
		{Level: 1, XPRequired: 50, Title: "Starter"},
	}

	p := CalculateLevelProgress(10, thresholds)
	assert.Equal(t, DefaultTitle, p.Title)
	assert.Equal(t, 0, p.Percent)
	assert.Equal(t, 50, p.XPNeededForNext)
}

func TestCalculateLevelProgress_Rounding(t *testing.T) {
	thresholds := []models.LevelThreshold{
		{Level: 1, XPRequired: 0, Title: "Novice"},
		{Level: 2, XPRequired: 3, Title: "Apprentice"},
	}

	assert.Equal(t, 33, CalculateLevelProgress(1, thresholds).Percent)
	assert.Equal(t, 67, CalculateLevelProgress(2, thresholds).Percent)
}

func TestCalculateLevelProgress_UnsortedInput(t *testing.T) {
	shuffled := []models.LevelThreshold{ladder[2], ladder[0], ladder[3], ladder[1]}

	assert.Equal(t, CalculateLevelProgress(120, ladder), CalculateLevelProgress(120, shuffled))
	// The caller's slice is left untouched.
	assert.Equal(t, 3, shuffled[0].Level)
}

func TestCalculateLevelProgress_DuplicateLevels(t *testing.T) {
	thresholds := []models.LevelThreshold{
		{Level: 1, XPRequired: 0, Title: "Novice"},
		{Level: 2, XPRequired: 100, Title: "Apprentice"},
		{Level: 2, XPRequired: 100, Title: "Apprentice (dup)"},
	}

	p := CalculateLevelProgress(150, thresholds)
	assert.Equal(t, 2, p.Level)
	assert.Equal(t, 100, p.Percent)
	assert.Equal(t, "Apprentice (dup)", p.Title)
}

func TestCurrentLevel(t *testing.T) {
	tests := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{249, 2},
		{250, 3},
		{9999, 4},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CurrentLevel(tt.xp, ladder), "xp=%d", tt.xp)
	}
	assert.Equal(t, 1, CurrentLevel(500, nil))
}
