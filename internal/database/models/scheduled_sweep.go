package models

import "github.com/google/uuid"

// ScheduledSweep is a recurring warranty/license expiry check for one org.
type ScheduledSweep struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null" json:"organization_id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	CronExpr       string    `gorm:"size:100;not null" json:"cron_expr"` // e.g., "0 6 * * *" (6 AM daily)
	IsEnabled      bool      `gorm:"default:true;index" json:"is_enabled"`

	// Attribute names checked for past dates
	DateFields []string `gorm:"serializer:json" json:"date_fields,omitempty"`

	// Timing (Unix timestamps, UTC)
	NextRunAt int64  `gorm:"index" json:"next_run_at"`
	LastRunAt *int64 `json:"last_run_at,omitempty"`

	// Relationships
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (ScheduledSweep) TableName() string {
	return "scheduled_sweeps"
}
