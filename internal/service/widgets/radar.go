package widgets

import (
	"math"

	"github.com/aimd54/kibo-gamification/internal/models"
)

// RadarTargets are the raw values that map to a full (100) axis.
type RadarTargets struct {
	Problems     int
	Applications int
	Assessments  int
	Streak       int
	Level        int
}

// DefaultRadarTargets are used when a target is not positive.
var DefaultRadarTargets = RadarTargets{
	Problems:     500,
	Applications: 100,
	Assessments:  50,
	Streak:       30,
	Level:        8,
}

// RadarAxis is one normalized axis.
type RadarAxis struct {
	Axis  string `json:"axis"`
	Raw   int    `json:"raw"`
	Value int    `json:"value"` // 0-100
}

// BuildRadar normalizes the user's stats onto 0-100 axes. A nil stats value yields zero axes.
func BuildRadar(stats *models.UserStats, targets RadarTargets) []RadarAxis {
	if stats == nil {
		stats = &models.UserStats{}
	}
	t := targets.withDefaults()
	return []RadarAxis{
		axis("problems", stats.ProblemsSolved, t.Problems),
		axis("applications", stats.ApplicationsSent, t.Applications),
		axis("assessments", stats.AssessmentsPassed, t.Assessments),
		axis("streak", stats.Streak, t.Streak),
		axis("level", stats.Level, t.Level),
	}
}

func (t RadarTargets) withDefaults() RadarTargets {
	d := DefaultRadarTargets
	if t.Problems > 0 {
		d.Problems = t.Problems
	}
	if t.Applications > 0 {
		d.Applications = t.Applications
	}
	if t.Assessments > 0 {
		d.Assessments = t.Assessments
	}
	if t.Streak > 0 {
		d.Streak = t.Streak
	}
	if t.Level > 0 {
		d.Level = t.Level
	}
	return d
}

func axis(name string, raw, target int) RadarAxis {
	return RadarAxis{Axis: name, Raw: raw, Value: int(BuildGauge(raw, target).Percent)}
}

// Gauge is a value against a maximum.
type Gauge struct {
	Value   int     `json:"value"`
	Max     int     `json:"max"`
	Percent float64 `json:"percent"` // clamped to [0, 100]
}

// BuildGauge returns value as a rounded percentage of max. A non-positive max gives 0.
func BuildGauge(value, maxValue int) Gauge {
	g := Gauge{Value: value, Max: maxValue}
	if maxValue <= 0 {
		return g
	}
	p := math.Round(float64(value) * 100 / float64(maxValue))
	g.Percent = math.Max(0, math.Min(100, p))
	return g
}
