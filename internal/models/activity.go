package models

import (
	"time"
)

// DailyActivity is the per-calendar-day rollup of a user's XP and action counts.
type DailyActivity struct {
	ID                   uint      `gorm:"primaryKey" json:"-"`
	UserID               string    `gorm:"size:36;not null;uniqueIndex:idx_daily_activity_user_date,priority:1" json:"user_id"`
	Date                 time.Time `gorm:"type:date;not null;uniqueIndex:idx_daily_activity_user_date,priority:2" json:"date"`
	XPEarned             int       `gorm:"column:xp_earned;not null;default:0" json:"xp_earned"`
	ProblemsSolved       int       `gorm:"not null;default:0" json:"problems_solved"`
	ApplicationsSent     int       `gorm:"not null;default:0" json:"applications_sent"`
	AssessmentsCompleted int       `gorm:"not null;default:0" json:"assessments_completed"`
}

// TableName specifies the table name for DailyActivity model.
func (DailyActivity) TableName() string {
	return "daily_activities"
}

// AssessmentAttempt records one completed assessment.
type AssessmentAttempt struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           string    `gorm:"size:36;not null;index" json:"user_id"`
	AssessmentID     string    `gorm:"size:100;not null;index" json:"assessment_id"`
	Score            int       `gorm:"not null" json:"score"`
	Passed           bool      `gorm:"not null" json:"passed"`
	TimeTakenSeconds int       `gorm:"not null;default:0" json:"time_taken_seconds"`
	CreatedAt        time.Time `json:"created_at"`
}

// TableName specifies the table name for AssessmentAttempt model.
func (AssessmentAttempt) TableName() string {
	return "assessment_attempts"
}

// DateLayout is the calendar day format used in keys and JSON.
const DateLayout = "2006-01-02"

// DayOf returns the calendar day of t in loc, as midnight UTC. Daily rows are keyed by this value
// so the same day always maps to the same stored date regardless of the server timezone.
func DayOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two day values refer to the same calendar date.
func SameDay(a, b time.Time) bool {
	return a.Format(DateLayout) == b.Format(DateLayout)
}
