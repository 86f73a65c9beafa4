// Package models defines domain models for the Kibo gamification service.
package models

import (
	"time"
)

// Profile holds the authoritative gamification state for one user.
// It is only mutated by the gateway procedures.
type Profile struct {
	ID                string     `gorm:"primaryKey;size:36" json:"id"`
	DisplayName       string     `gorm:"size:255" json:"display_name"`
	XP                int        `gorm:"column:xp;not null;default:0" json:"xp"`
	Level             int        `gorm:"not null;default:1" json:"level"`
	Streak            int        `gorm:"not null;default:0" json:"streak"`
	LongestStreak     int        `gorm:"not null;default:0" json:"longest_streak"`
	ProblemsSolved    int        `gorm:"not null;default:0" json:"problems_solved"`
	ApplicationsSent  int        `gorm:"not null;default:0" json:"applications_sent"`
	AssessmentsPassed int        `gorm:"not null;default:0" json:"assessments_passed"`
	LastActiveDate    *time.Time `gorm:"type:date" json:"last_active_date"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Profile model.
func (Profile) TableName() string {
	return "profiles"
}

// LevelThreshold maps a level number to the minimum cumulative XP and a display title.
type LevelThreshold struct {
	Level      int    `gorm:"primaryKey;autoIncrement:false" json:"level" yaml:"level"`
	XPRequired int    `gorm:"column:xp_required;not null" json:"xp_required" yaml:"xp_required"`
	Title      string `gorm:"size:100;not null" json:"title" yaml:"title"`
}

// TableName specifies the table name for LevelThreshold model.
func (LevelThreshold) TableName() string {
	return "level_thresholds"
}
