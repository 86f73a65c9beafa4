// Package widgets builds the dashboard read models from accessor data.
// Every builder is pure and tolerates empty or partial input.
package widgets

import (
	"time"

	"github.com/aimd54/kibo-gamification/internal/models"
)

// DefaultHeatmapDays is the heatmap window when none is given.
const DefaultHeatmapDays = 365

// HeatmapCell is one calendar day of the heatmap.
type HeatmapCell struct {
	Date      string `json:"date"`
	XP        int    `json:"xp"`
	Intensity int    `json:"intensity"` // 0 (none) to 4 (busiest)
	Weekday   int    `json:"weekday"`   // 0 = Sunday
	Week      int    `json:"week"`      // column, 0 = oldest
}

// Heatmap is a dense day grid, oldest day first.
type Heatmap struct {
	Cells   []HeatmapCell `json:"cells"`
	MaxXP   int           `json:"max_xp"`
	TotalXP int           `json:"total_xp"`
	Active  int           `json:"active_days"`
	Weeks   int           `json:"weeks"`
}

// BuildHeatmap lays out the days ending at today. Days without a row are zero. Rows outside the
// window are ignored.
func BuildHeatmap(activities []models.DailyActivity, today time.Time, days int) Heatmap {
	if days <= 0 {
		days = DefaultHeatmapDays
	}
	end := models.DayOf(today, today.Location())
	start := end.AddDate(0, 0, -(days - 1))

	byDay := make(map[string]int, len(activities))
	for _, a := range activities {
		d := a.Date.UTC()
		if d.Before(start) || d.After(end) {
			continue
		}
		byDay[d.Format(models.DateLayout)] += a.XPEarned
	}

	hm := Heatmap{Cells: make([]HeatmapCell, 0, days)}
	for _, xp := range byDay {
		if xp > hm.MaxXP {
			hm.MaxXP = xp
		}
	}

	offset := int(start.Weekday())
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		key := day.Format(models.DateLayout)
		xp := byDay[key]
		hm.Cells = append(hm.Cells, HeatmapCell{
			Date:      key,
			XP:        xp,
			Intensity: intensity(xp, hm.MaxXP),
			Weekday:   int(day.Weekday()),
			Week:      (i + offset) / 7,
		})
		hm.TotalXP += xp
		if xp > 0 {
			hm.Active++
		}
	}
	if n := len(hm.Cells); n > 0 {
		hm.Weeks = hm.Cells[n-1].Week + 1
	}

	return hm
}

// intensity buckets xp into quarters of the busiest day.
func intensity(xp, maxXP int) int {
	if xp <= 0 || maxXP <= 0 {
		return 0
	}
	ratio := float64(xp) / float64(maxXP)
	switch {
	case ratio <= 0.25:
		return 1
	case ratio <= 0.5:
		return 2
	case ratio <= 0.75:
		return 3
	default:
		return 4
	}
}
