package models

import (
	"time"
)

// Application is a tracked job application moving through the status pipeline.
type Application struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    string     `gorm:"size:36;not null;index" json:"user_id"`
	Company   string     `gorm:"size:255;not null" json:"company"`
	Role      string     `gorm:"size:255" json:"role"`
	Status    string     `gorm:"size:50;not null;index" json:"status"`
	AppliedAt *time.Time `json:"applied_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Application model.
func (Application) TableName() string {
	return "applications"
}

// Application status constants, in pipeline order.
const (
	ApplicationStatusWishlist  = "wishlist"
	ApplicationStatusApplied   = "applied"
	ApplicationStatusOA        = "oa"
	ApplicationStatusInterview = "interview"
	ApplicationStatusOffer     = "offer"
	ApplicationStatusRejected  = "rejected"
)

// ApplicationPipeline lists the forward stages of the pipeline. Rejected is terminal and not a stage.
var ApplicationPipeline = []string{
	ApplicationStatusWishlist,
	ApplicationStatusApplied,
	ApplicationStatusOA,
	ApplicationStatusInterview,
	ApplicationStatusOffer,
}

// StageIndex returns the pipeline position of a status, or -1 when it is not a forward stage.
func StageIndex(status string) int {
	for i, s := range ApplicationPipeline {
		if s == status {
			return i
		}
	}
	return -1
}

// IsValidApplicationStatus reports whether status is a known pipeline or terminal status.
func IsValidApplicationStatus(status string) bool {
	return status == ApplicationStatusRejected || StageIndex(status) >= 0
}
