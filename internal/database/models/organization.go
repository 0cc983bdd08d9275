package models

type Organization struct {
	Base
	Name      string `gorm:"not null" json:"name"`
	Slug      string `gorm:"uniqueIndex;not null" json:"slug"`
	Plan      string `gorm:"default:'free'" json:"plan"` // free, pro, enterprise
	MaxUsers  int    `gorm:"default:5" json:"max_users"`
	MaxAssets int    `gorm:"default:500" json:"max_assets"`

	// Relationships
	Users      []User      `gorm:"foreignKey:OrganizationID" json:"-"`
	AssetTypes []AssetType `gorm:"foreignKey:OrganizationID" json:"-"`
	Assets     []Asset     `gorm:"foreignKey:OrganizationID" json:"-"`
	ImportJobs []ImportJob `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (Organization) TableName() string {
	return "organizations"
}
