// Package progress derives level progress from cumulative XP and the level ladder.
package progress

import (
	"math"
	"sort"

	"github.com/aimd54/kibo-gamification/internal/models"
)

// DefaultTitle is shown when no threshold applies.
const DefaultTitle = "Novice"

// Progress is the displayable position of a user on the level ladder.
type Progress struct {
	Level           int    `json:"level"`
	XP              int    `json:"xp"`
	XPIntoLevel     int    `json:"xp_into_level"`
	XPNeededForNext int    `json:"xp_needed_for_next"`
	Percent         int    `json:"percent"`
	Title           string `json:"title"`
	NextLevelTitle  string `json:"next_level_title,omitempty"`
	MaxLevel        bool   `json:"max_level"`
}

// normalize returns the thresholds ordered by level. Ties keep input order.
func normalize(thresholds []models.LevelThreshold) []models.LevelThreshold {
	sorted := make([]models.LevelThreshold, len(thresholds))
	copy(sorted, thresholds)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Level < sorted[j].Level
	})
	return sorted
}

// locate returns the indices of the current and next thresholds, -1 when absent.
func locate(xp int, sorted []models.LevelThreshold) (current, next int) {
	current, next = -1, -1
	for i, t := range sorted {
		if t.XPRequired <= xp {
			if current == -1 || t.XPRequired >= sorted[current].XPRequired {
				current = i
			}
			continue
		}
		if next == -1 || t.XPRequired < sorted[next].XPRequired {
			next = i
		}
	}
	return current, next
}

// CalculateLevelProgress maps cumulative XP onto the ladder. It never fails:
// an empty or unreached ladder yields the Novice default.
func CalculateLevelProgress(currentXP int, thresholds []models.LevelThreshold) Progress {
	sorted := normalize(thresholds)
	cur, next := locate(currentXP, sorted)

	if cur == -1 {
		p := Progress{Level: 1, XP: currentXP, Title: DefaultTitle}
		if next != -1 {
			p.XPNeededForNext = sorted[next].XPRequired
			p.NextLevelTitle = sorted[next].Title
		}
		return p
	}

	current := sorted[cur]
	p := Progress{
		Level:       current.Level,
		XP:          currentXP,
		XPIntoLevel: currentXP - current.XPRequired,
		Title:       current.Title,
	}

	if next == -1 {
		p.Percent = 100
		p.MaxLevel = true
		return p
	}

	nextLevel := sorted[next]
	p.XPNeededForNext = nextLevel.XPRequired - current.XPRequired
	p.NextLevelTitle = nextLevel.Title
	p.Percent = percentOf(p.XPIntoLevel, p.XPNeededForNext)
	return p
}

// CurrentLevel returns the level number for xp, or 1 when no threshold is reached.
func CurrentLevel(xp int, thresholds []models.LevelThreshold) int {
	sorted := normalize(thresholds)
	cur, _ := locate(xp, sorted)
	if cur == -1 {
		return 1
	}
	return sorted[cur].Level
}

func percentOf(part, whole int) int {
	if whole <= 0 {
		return 100
	}
	pct := int(math.Round(100 * float64(part) / float64(whole)))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
