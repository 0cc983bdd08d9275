package models

import "github.com/google/uuid"

// AuditLog is one recorded mutation on an org-scoped entity. Status
// transitions write entries with Field "status" and the old/new values.
type AuditLog struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null" json:"organization_id"`
	UserID         uuid.UUID `gorm:"type:uuid;index" json:"user_id"`

	EntityType string    `gorm:"not null;index" json:"entity_type"` // asset, asset_type, import_job
	EntityID   uuid.UUID `gorm:"type:uuid;index" json:"entity_id"`
	Action     string    `gorm:"not null" json:"action"` // create, update, transition, expire

	Field    string `json:"field,omitempty"`
	OldValue string `json:"old_value,omitempty"`
	NewValue string `json:"new_value,omitempty"`

	// Relationships
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
