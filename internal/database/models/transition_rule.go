package models

import "github.com/google/uuid"

// TransitionRule is one allowed (from, to) lifecycle edge. A nil AssetTypeID
// means the rule applies organization-wide.
//
// Uniqueness needs two indexes: the composite one covers type-scoped rules,
// and because NULLs compare distinct there, a partial index guards the
// org-wide (null type) case.
type TransitionRule struct {
	Base
	OrganizationID uuid.UUID   `gorm:"type:uuid;index;not null;uniqueIndex:idx_rules_scope_edge;uniqueIndex:idx_rules_org_edge,where:asset_type_id IS NULL" json:"organization_id"`
	AssetTypeID    *uuid.UUID  `gorm:"type:uuid;uniqueIndex:idx_rules_scope_edge" json:"asset_type_id,omitempty"`
	FromStatus     AssetStatus `gorm:"not null;uniqueIndex:idx_rules_scope_edge;uniqueIndex:idx_rules_org_edge,where:asset_type_id IS NULL" json:"from_status"`
	ToStatus       AssetStatus `gorm:"not null;uniqueIndex:idx_rules_scope_edge;uniqueIndex:idx_rules_org_edge,where:asset_type_id IS NULL" json:"to_status"`

	// Attribute names that must be present and non-empty before the edge fires
	RequiredFields []string `gorm:"serializer:json" json:"required_fields,omitempty"`

	// Relationships
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
	AssetType    *AssetType    `gorm:"foreignKey:AssetTypeID" json:"-"`
}

func (TransitionRule) TableName() string {
	return "transition_rules"
}
