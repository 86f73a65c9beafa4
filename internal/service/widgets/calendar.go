package widgets

import (
	"sort"
	"time"

	"github.com/aimd54/kibo-gamification/internal/models"
)

// StreakCalendar returns the sorted days of month (1-31) that had any activity. Only the year
// and month of month are used.
func StreakCalendar(activities []models.DailyActivity, month time.Time) []int {
	seen := make(map[int]bool)
	for _, a := range activities {
		d := a.Date.UTC()
		if d.Year() != month.Year() || d.Month() != month.Month() {
			continue
		}
		if active(a) {
			seen[d.Day()] = true
		}
	}

	days := make([]int, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Ints(days)
	return days
}

func active(a models.DailyActivity) bool {
	return a.XPEarned > 0 || a.ProblemsSolved > 0 || a.ApplicationsSent > 0 || a.AssessmentsCompleted > 0
}
