package tasks

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeImportProcess = "import:process"
	TypeExpirySweep   = "sweep:expiry"
)

// ImportProcessPayload contains the data for an import processing task. The
// CSV body rides in the payload so the worker needs no shared filesystem.
type ImportProcessPayload struct {
	JobID          uuid.UUID `json:"job_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	CSVBody        string    `json:"csv_body"`
}

func NewImportProcessTask(payload ImportProcessPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeImportProcess, data), nil
}

// ExpirySweepPayload is empty - the sweep walks every due schedule.
type ExpirySweepPayload struct{}

func NewExpirySweepTask() *asynq.Task {
	return asynq.NewTask(TypeExpirySweep, nil)
}
