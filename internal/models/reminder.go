package models

import (
	"time"
)

// Reminder is a device-local scheduled notification owned by one user. It lives in the local store only.
type Reminder struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"size:36;not null;default:'';index" json:"user_id"`
	EntityRef   string    `gorm:"size:100;index" json:"entity_ref"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	TargetAt    time.Time `gorm:"not null" json:"target_at"`
	LeadMinutes int       `gorm:"not null;default:0" json:"lead_minutes"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for Reminder model.
func (Reminder) TableName() string {
	return "reminders"
}

// FireAt returns the moment the reminder should fire.
func (r *Reminder) FireAt() time.Time {
	return r.TargetAt.Add(-time.Duration(r.LeadMinutes) * time.Minute)
}
