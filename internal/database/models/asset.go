package models

import "github.com/google/uuid"

type AssetStatus string

const (
	StatusOrdered     AssetStatus = "ordered"
	StatusReceived    AssetStatus = "received"
	StatusDeployed    AssetStatus = "deployed"
	StatusInUse       AssetStatus = "in_use"
	StatusMaintenance AssetStatus = "maintenance"
	StatusRetired     AssetStatus = "retired"
	StatusDisposed    AssetStatus = "disposed"
)

// AllStatuses is the built-in status vocabulary, in lifecycle order.
var AllStatuses = []AssetStatus{
	StatusOrdered,
	StatusReceived,
	StatusDeployed,
	StatusInUse,
	StatusMaintenance,
	StatusRetired,
	StatusDisposed,
}

func IsValidStatus(s AssetStatus) bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// AttributeMap is the open attribute value map keyed by AttributeDefinition.Name.
type AttributeMap map[string]any

type Asset struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_assets_org_tag" json:"organization_id"`
	AssetTypeID    uuid.UUID `gorm:"type:uuid;index;not null" json:"asset_type_id"`

	AssetTag string      `gorm:"not null;uniqueIndex:idx_assets_org_tag" json:"asset_tag"`
	Name     string      `gorm:"not null" json:"name"`
	Status   AssetStatus `gorm:"not null;index;default:'ordered'" json:"status"`

	// Dynamic attributes validated against the owning type's definitions
	Attributes AttributeMap `gorm:"type:jsonb;serializer:json" json:"attributes,omitempty"`

	Source string `json:"source,omitempty"` // manual, csv_import

	// Relationships
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
	AssetType    *AssetType    `gorm:"foreignKey:AssetTypeID" json:"-"`
}

func (Asset) TableName() string {
	return "assets"
}

// TagCounter backs tag generation with an atomically bumped per-org row.
type TagCounter struct {
	OrganizationID uuid.UUID `gorm:"type:uuid;primaryKey"`
	LastValue      int64     `gorm:"not null;default:0"`
}

func (TagCounter) TableName() string {
	return "tag_counters"
}
