package widgets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimd54/kibo-gamification/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func timePtr(t time.Time) *time.Time { return &t }

func TestBuildHeatmap_DenseGrid(t *testing.T) {
	today := time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC) // Monday
	activities := []models.DailyActivity{
		{Date: day(2025, 3, 10), XPEarned: 100},
		{Date: day(2025, 3, 9), XPEarned: 20},
		{Date: day(2025, 3, 4), XPEarned: 60},
		{Date: day(2024, 1, 1), XPEarned: 999}, // outside the window
	}

	hm := BuildHeatmap(activities, today, 14)

	require.Len(t, hm.Cells, 14)
	assert.Equal(t, "2025-02-25", hm.Cells[0].Date)
	assert.Equal(t, "2025-03-10", hm.Cells[13].Date)
	assert.Equal(t, 100, hm.MaxXP)
	assert.Equal(t, 180, hm.TotalXP)
	assert.Equal(t, 3, hm.Active)

	// 2025-02-25 is a Tuesday, so the first column starts mid-week.
	assert.Equal(t, 2, hm.Cells[0].Weekday)
	assert.Equal(t, 0, hm.Cells[0].Week)
	assert.Equal(t, 0, hm.Cells[12].Weekday) // Sunday 9th opens a new column
	assert.Equal(t, 2, hm.Cells[12].Week)
	assert.Equal(t, 3, hm.Weeks)

	assert.Equal(t, 4, hm.Cells[13].Intensity)
	assert.Equal(t, 1, hm.Cells[12].Intensity)
	assert.Equal(t, 3, hm.Cells[7].Intensity)
	assert.Equal(t, 0, hm.Cells[1].Intensity)
}

func TestBuildHeatmap_Empty(t *testing.T) {
	hm := BuildHeatmap(nil, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), 0)

	assert.Len(t, hm.Cells, DefaultHeatmapDays)
	assert.Zero(t, hm.MaxXP)
	for _, c := range hm.Cells {
		assert.Zero(t, c.Intensity)
	}
}

func TestIntensity(t *testing.T) {
	tests := []struct {
		xp, max, want int
	}{
		{0, 100, 0},
		{1, 100, 1},
		{25, 100, 1},
		{26, 100, 2},
		{50, 100, 2},
		{75, 100, 3},
		{76, 100, 4},
		{100, 100, 4},
		{10, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, intensity(tt.xp, tt.max), "xp=%d max=%d", tt.xp, tt.max)
	}
}

func TestBuildFunnel(t *testing.T) {
	applied := timePtr(day(2025, 3, 1))
	apps := []models.Application{
		{Status: models.ApplicationStatusWishlist},
		{Status: models.ApplicationStatusWishlist},
		{Status: models.ApplicationStatusApplied, AppliedAt: applied},
		{Status: models.ApplicationStatusOA, AppliedAt: applied},
		{Status: models.ApplicationStatusInterview, AppliedAt: applied},
		{Status: models.ApplicationStatusOffer, AppliedAt: applied},
		{Status: models.ApplicationStatusRejected, AppliedAt: applied},
		{Status: models.ApplicationStatusRejected},
	}

	f := BuildFunnel(apps)

	assert.Equal(t, 8, f.Total)
	assert.Equal(t, 2, f.Rejected)
	require.Len(t, f.Stages, 5)

	want := []struct {
		status  string
		count   int
		reached int
		conv    float64
	}{
		{"wishlist", 2, 8, 100},
		{"applied", 1, 5, 62.5},
		{"oa", 1, 3, 60},
		{"interview", 1, 2, 66.7},
		{"offer", 1, 1, 50},
	}
	for i, w := range want {
		assert.Equal(t, w.status, f.Stages[i].Status)
		assert.Equal(t, w.count, f.Stages[i].Count, w.status)
		assert.Equal(t, w.reached, f.Stages[i].Reached, w.status)
		assert.InDelta(t, w.conv, f.Stages[i].Conversion, 0.001, w.status)
	}
}

func TestBuildFunnel_Empty(t *testing.T) {
	f := BuildFunnel(nil)

	assert.Zero(t, f.Total)
	require.Len(t, f.Stages, len(models.ApplicationPipeline))
	for _, s := range f.Stages {
		assert.Zero(t, s.Reached)
		assert.Zero(t, s.Conversion)
	}
}

func TestBuildRadar(t *testing.T) {
	stats := &models.UserStats{
		Level:             4,
		Streak:            45,
		ProblemsSolved:    125,
		ApplicationsSent:  10,
		AssessmentsPassed: 0,
	}

	axes := BuildRadar(stats, RadarTargets{Streak: 30})

	require.Len(t, axes, 5)
	got := map[string]int{}
	for _, a := range axes {
		got[a.Axis] = a.Value
		assert.GreaterOrEqual(t, a.Value, 0)
		assert.LessOrEqual(t, a.Value, 100)
	}
	assert.Equal(t, 25, got["problems"])
	assert.Equal(t, 10, got["applications"])
	assert.Equal(t, 0, got["assessments"])
	assert.Equal(t, 100, got["streak"], "clamped")
	assert.Equal(t, 50, got["level"])
}

func TestBuildRadar_NilStats(t *testing.T) {
	for _, a := range BuildRadar(nil, RadarTargets{}) {
		assert.Zero(t, a.Value)
	}
}

func TestBuildGauge(t *testing.T) {
	assert.Equal(t, 50.0, BuildGauge(50, 100).Percent)
	assert.Equal(t, 100.0, BuildGauge(150, 100).Percent)
	assert.Equal(t, 0.0, BuildGauge(-5, 100).Percent)
	assert.Equal(t, 0.0, BuildGauge(5, 0).Percent)
	assert.Equal(t, 33.0, BuildGauge(1, 3).Percent)
}

func TestStreakCalendar(t *testing.T) {
	activities := []models.DailyActivity{
		{Date: day(2025, 3, 12), XPEarned: 10},
		{Date: day(2025, 3, 2), ProblemsSolved: 1},
		{Date: day(2025, 3, 5)}, // row without activity
		{Date: day(2025, 2, 28), XPEarned: 5},
		{Date: day(2024, 3, 3), XPEarned: 5},
	}

	assert.Equal(t, []int{2, 12}, StreakCalendar(activities, day(2025, 3, 20)))
	assert.Empty(t, StreakCalendar(activities, day(2025, 4, 1)))
}
