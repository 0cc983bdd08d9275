package models

import (
	"sort"

	"github.com/google/uuid"
	"github.com/hugh/stockroom/internal/schema"
)

type AssetType struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_asset_types_org_name" json:"organization_id"`
	Name           string    `gorm:"not null;uniqueIndex:idx_asset_types_org_name" json:"name"`
	Icon           string    `json:"icon,omitempty"`
	Color          string    `json:"color,omitempty"`
	Description    string    `json:"description,omitempty"`

	// Relationships
	Organization *Organization         `gorm:"foreignKey:OrganizationID" json:"-"`
	Definitions  []AttributeDefinition `gorm:"foreignKey:AssetTypeID" json:"definitions,omitempty"`
	Assets       []Asset               `gorm:"foreignKey:AssetTypeID" json:"-"`
}

func (AssetType) TableName() string {
	return "asset_types"
}

// AttributeDefinition is one typed, orderable field on an asset type's schema.
type AttributeDefinition struct {
	Base
	AssetTypeID uuid.UUID        `gorm:"type:uuid;index;not null;uniqueIndex:idx_attr_defs_type_name" json:"asset_type_id"`
	Name        string           `gorm:"not null;uniqueIndex:idx_attr_defs_type_name" json:"name"`
	Label       string           `gorm:"not null" json:"label"`
	FieldType   schema.FieldType `gorm:"not null" json:"field_type"`
	IsRequired  bool             `gorm:"default:false" json:"is_required"`
	Options     []string         `gorm:"serializer:json" json:"options,omitempty"`
	Position    int              `gorm:"default:0" json:"position"`

	// Relationships
	AssetType *AssetType `gorm:"foreignKey:AssetTypeID" json:"-"`
}

func (AttributeDefinition) TableName() string {
	return "attribute_definitions"
}

// Schema converts the stored definition to its validation form.
func (d *AttributeDefinition) Schema() schema.Definition {
	return schema.Definition{
		Name:     d.Name,
		Label:    d.Label,
		Type:     d.FieldType,
		Required: d.IsRequired,
		Options:  d.Options,
		Position: d.Position,
	}
}

// SchemaDefinitions converts a definition list, ordered by position.
func SchemaDefinitions(defs []AttributeDefinition) []schema.Definition {
	out := make([]schema.Definition, len(defs))
	for i := range defs {
		out[i] = defs[i].Schema()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}
