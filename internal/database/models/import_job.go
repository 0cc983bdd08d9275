package models

import "github.com/google/uuid"

type ImportJobStatus string

const (
	ImportStatusPending    ImportJobStatus = "pending"
	ImportStatusProcessing ImportJobStatus = "processing"
	ImportStatusCompleted  ImportJobStatus = "completed"
	ImportStatusFailed     ImportJobStatus = "failed"
)

// ImportRowError records the validation failures of a single CSV row.
type ImportRowError struct {
	Row    int      `json:"row"`
	Errors []string `json:"errors"`
}

// ImportJob is one bulk CSV load run. Counters are persisted after every
// processed row so progress survives a crash mid-run.
type ImportJob struct {
	Base
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null" json:"organization_id"`
	UserID         uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	AssetTypeID    uuid.UUID `gorm:"type:uuid;index;not null" json:"asset_type_id"`

	FileName string          `gorm:"not null" json:"file_name"`
	Status   ImportJobStatus `gorm:"not null;index;default:'pending'" json:"status"`

	TotalRows     int `gorm:"default:0" json:"total_rows"`
	ProcessedRows int `gorm:"default:0" json:"processed_rows"`
	SuccessCount  int `gorm:"default:0" json:"success_count"`
	ErrorCount    int `gorm:"default:0" json:"error_count"`

	ColumnMapping map[string]string `gorm:"serializer:json" json:"column_mapping,omitempty"`
	RowErrors     []ImportRowError  `gorm:"serializer:json" json:"errors,omitempty"`

	// Timing (Unix timestamps, UTC)
	StartedAt   int64 `json:"started_at,omitempty"`
	CompletedAt int64 `json:"completed_at,omitempty"`

	// Asynq task ID for tracking
	TaskID string `gorm:"index" json:"task_id,omitempty"`

	// Relationships
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
	AssetType    *AssetType    `gorm:"foreignKey:AssetTypeID" json:"-"`
	User         *User         `gorm:"foreignKey:UserID" json:"-"`
}

func (ImportJob) TableName() string {
	return "import_jobs"
}

// Terminal reports whether the job can no longer change.
func (j *ImportJob) Terminal() bool {
	return j.Status == ImportStatusCompleted || j.Status == ImportStatusFailed
}
