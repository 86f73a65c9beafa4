package models

import (
	"encoding/json"
	"time"
)

// Achievement is a one-time award definition with unlock criteria.
type Achievement struct {
	ID          string          `gorm:"primaryKey;size:100" json:"id"`
	Name        string          `gorm:"size:255;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Icon        string          `gorm:"size:50" json:"icon"`
	XPReward    int             `gorm:"column:xp_reward;not null;default:0" json:"xp_reward"`
	Criteria    json.RawMessage `gorm:"type:text" json:"criteria"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TableName specifies the table name for Achievement model.
func (Achievement) TableName() string {
	return "achievements"
}

// AchievementCriteria is the decoded form of Achievement.Criteria.
type AchievementCriteria struct {
	Metric   string  `json:"metric" yaml:"metric"`
	Operator string  `json:"operator" yaml:"operator"` // "<", ">", ">=", "<=", "=="
	Value    float64 `json:"value" yaml:"value"`
}

// UserAchievement records an achievement unlocked by a user.
type UserAchievement struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	UserID        string      `gorm:"size:36;not null;uniqueIndex:idx_user_achievement,priority:1" json:"user_id"`
	AchievementID string      `gorm:"size:100;not null;uniqueIndex:idx_user_achievement,priority:2" json:"achievement_id"`
	Achievement   Achievement `gorm:"foreignKey:AchievementID" json:"achievement,omitempty"`
	UnlockedAt    time.Time   `gorm:"not null" json:"unlocked_at"`
}

// TableName specifies the table name for UserAchievement model.
func (UserAchievement) TableName() string {
	return "user_achievements"
}
