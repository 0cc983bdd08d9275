package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/hugh/stockroom/internal/api/dto"
	"github.com/hugh/stockroom/internal/api/middleware"
	"github.com/hugh/stockroom/internal/importer"
	"github.com/hugh/stockroom/internal/tasks"
	"gorm.io/gorm"
)

type ImportHandler struct {
	db       *gorm.DB
	importer *importer.Service
	client   *asynq.Client
	maxRows  int
}

func NewImportHandler(db *gorm.DB, svc *importer.Service, client *asynq.Client, maxRows int) *ImportHandler {
	return &ImportHandler{db: db, importer: svc, client: client, maxRows: maxRows}
}

type CreateImportRequest struct {
	AssetTypeID string            `json:"asset_type_id"`
	FileName    string            `json:"file_name"`
	CSVBody     string            `json:"csv_body"`
	Mapping     map[string]string `json:"mapping,omitempty"`
}

func (r CreateImportRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if _, err := uuid.Parse(r.AssetTypeID); err != nil {
		errs["asset_type_id"] = "Invalid asset type ID"
	}
	if strings.TrimSpace(r.CSVBody) == "" {
		errs["csv_body"] = "CSV body is required"
	}
	return errs
}

// Create handles POST /api/v1/imports. The job record is created first, then
// the processing task is enqueued; a worker picks it up asynchronously and the
// client polls the job for progress.
func (h *ImportHandler) Create(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())
	userID := middleware.GetUserID(r.Context())

	var req CreateImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return
	}

	typeID, _ := uuid.Parse(req.AssetTypeID)
	fileName := req.FileName
	if fileName == "" {
		fileName = "upload.csv"
	}

	// The row limit is checked before the job row is persisted, so an
	// oversized upload never strands a pending job.
	job, err := h.importer.Start(r.Context(), orgID, userID, importer.StartInput{
		AssetTypeID: typeID,
		FileName:    fileName,
		CSVBody:     req.CSVBody,
		Mapping:     req.Mapping,
		MaxRows:     h.maxRows,
	})
	if errors.Is(err, importer.ErrTooManyRows) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error: "Import exceeds the maximum of " + strconv.Itoa(h.maxRows) + " rows",
		})
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	task, err := tasks.NewImportProcessTask(tasks.ImportProcessPayload{
		JobID:          job.ID,
		OrganizationID: orgID,
		CSVBody:        req.CSVBody,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create import task"})
		return
	}

	info, err := h.client.Enqueue(task, asynq.Queue("default"), asynq.MaxRetry(0))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to enqueue import task"})
		return
	}

	job.TaskID = info.ID
	if err := h.db.Model(job).Update("task_id", info.ID).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to update import job"})
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

// List handles GET /api/v1/imports
func (h *ImportHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	pagination := dto.PaginationParams{Page: page, PerPage: perPage}
	pagination.Normalize()

	jobs, total, err := h.importer.List(r.Context(), orgID, pagination.PerPage, pagination.Offset())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list import jobs"})
		return
	}

	totalPages := int(total) / pagination.PerPage
	if int(total)%pagination.PerPage > 0 {
		totalPages++
	}

	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       jobs,
		Total:      total,
		Page:       pagination.Page,
		PerPage:    pagination.PerPage,
		TotalPages: totalPages,
	})
}

// Get handles GET /api/v1/imports/{id}, the polling endpoint.
func (h *ImportHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid import job ID"})
		return
	}

	job, err := h.importer.Get(r.Context(), orgID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// Cancel handles POST /api/v1/imports/{id}/cancel
func (h *ImportHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid import job ID"})
		return
	}

	job, err := h.importer.Cancel(r.Context(), orgID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// Template handles GET /api/v1/asset-types/{id}/template
func (h *ImportHandler) Template(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())
	typeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid asset type ID"})
		return
	}

	csvBody, err := h.importer.Template(r.Context(), orgID, typeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="import_template.csv"`)
	_, _ = w.Write([]byte(csvBody))
}

// Export handles GET /api/v1/asset-types/{id}/export
func (h *ImportHandler) Export(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrganizationID(r.Context())
	typeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid asset type ID"})
		return
	}

	csvBody, err := h.importer.Export(r.Context(), orgID, typeID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="assets_export.csv"`)
	_, _ = w.Write([]byte(csvBody))
}
