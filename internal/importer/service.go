package importer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/inventory"
	"github.com/hugh/stockroom/internal/schema"
	"gorm.io/gorm"
)

var (
	ErrJobNotFound  = errors.New("import job not found")
	ErrJobCompleted = errors.New("import job already completed")
	ErrTooManyRows  = errors.New("import exceeds the maximum row count")
)

type Service struct {
	db        *gorm.DB
	logger    *slog.Logger
	inventory *inventory.Service
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	return &Service{
		db:        db,
		logger:    logger,
		inventory: inventory.NewService(db, logger),
	}
}

type StartInput struct {
	AssetTypeID uuid.UUID
	FileName    string
	CSVBody     string
	Mapping     map[string]string // optional; auto-mapped when nil
	MaxRows     int               // 0 = unlimited
}

// Start verifies the target type, counts rows, resolves the column mapping,
// and persists a pending job. Enqueueing the processing task is the caller's
// concern, mirroring how scan jobs are dispatched.
func (s *Service) Start(ctx context.Context, orgID, userID uuid.UUID, input StartInput) (*models.ImportJob, error) {
	defs, err := s.inventory.Definitions(ctx, orgID, input.AssetTypeID)
	if err != nil {
		return nil, err
	}

	table, err := ParseTable(input.CSVBody)
	if err != nil {
		return nil, err
	}
	if input.MaxRows > 0 && len(table.Rows) > input.MaxRows {
		return nil, ErrTooManyRows
	}

	mapping := input.Mapping
	if len(mapping) == 0 {
		mapping = AutoMap(table.Headers, defs)
	}

	job := models.ImportJob{
		OrganizationID: orgID,
		UserID:         userID,
		AssetTypeID:    input.AssetTypeID,
		FileName:       input.FileName,
		Status:         models.ImportStatusPending,
		TotalRows:      len(table.Rows),
		ColumnMapping:  mapping,
	}
	if err := s.db.WithContext(ctx).Create(&job).Error; err != nil {
		return nil, err
	}

	s.logger.Info("import job created",
		"job_id", job.ID,
		"org_id", orgID,
		"file", input.FileName,
		"rows", job.TotalRows,
	)
	return &job, nil
}

// Process runs the job row by row. Each row's outcome (counters and the
// error log) is persisted before the next row starts, so an interrupted run
// leaves accurate, durable progress behind. Rows are never reordered or
// parallelized.
func (s *Service) Process(ctx context.Context, jobID uuid.UUID, csvBody string) error {
	var job models.ImportJob
	if err := s.db.WithContext(ctx).First(&job, "id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrJobNotFound
		}
		return err
	}
	if job.Terminal() {
		return nil
	}

	job.Status = models.ImportStatusProcessing
	job.StartedAt = time.Now().Unix()
	res := s.db.WithContext(ctx).Model(&job).
		Select("status", "started_at").
		Where("status = ?", models.ImportStatusPending).
		Updates(&job)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Cancelled (or claimed elsewhere) since the load above
		return nil
	}

	// Definitions load once; a schema edit mid-run does not change the rules
	// rows are judged by.
	defs, err := s.inventory.Definitions(ctx, job.OrganizationID, job.AssetTypeID)
	if err != nil {
		return s.fail(ctx, &job, err.Error())
	}

	table, err := ParseTable(csvBody)
	if err != nil {
		return s.fail(ctx, &job, err.Error())
	}

	for i, row := range table.Rows {
		if cancelled, err := s.wasCancelled(ctx, job.ID); err != nil {
			return err
		} else if cancelled {
			s.logger.Info("import job cancelled mid-run", "job_id", job.ID, "row", i+1)
			return nil
		}

		result := ValidateRow(table.Headers, row, defs, job.ColumnMapping)
		if result.Valid {
			if err := s.createAsset(ctx, &job, result); err != nil {
				result.Errors = append(result.Errors, toFieldError(err))
			}
		}

		job.ProcessedRows++
		if len(result.Errors) == 0 {
			job.SuccessCount++
		} else {
			job.ErrorCount++
			job.RowErrors = append(job.RowErrors, models.ImportRowError{
				Row:    i + 1,
				Errors: errorStrings(result.Errors),
			})
		}

		ok, err := s.persistProgress(ctx, &job)
		if err != nil {
			return err
		}
		if !ok {
			s.logger.Info("import job cancelled mid-run", "job_id", job.ID, "row", i+1)
			return nil
		}
	}

	if job.SuccessCount == 0 && job.ErrorCount > 0 {
		job.Status = models.ImportStatusFailed
	} else {
		job.Status = models.ImportStatusCompleted
	}
	job.CompletedAt = time.Now().Unix()
	ok, err := s.finish(ctx, &job)
	if err != nil {
		return err
	}
	if !ok {
		s.logger.Info("import job cancelled before finishing", "job_id", job.ID)
		return nil
	}

	s.logger.Info("import job finished",
		"job_id", job.ID,
		"status", job.Status,
		"success", job.SuccessCount,
		"errors", job.ErrorCount,
	)
	return nil
}

// createAsset persists one valid row. Empty cells were skipped during
// validation, so the attribute map holds only the values the row supplied.
func (s *Service) createAsset(ctx context.Context, job *models.ImportJob, result RowResult) error {
	name, _ := result.Values[TargetName].(string)

	status := models.StatusOrdered
	if v, ok := result.Values[TargetStatus].(models.AssetStatus); ok {
		status = v
	}

	attrs := models.AttributeMap{}
	for key, value := range result.Values {
		if key == TargetName || key == TargetStatus {
			continue
		}
		attrs[key] = value
	}

	tag, err := s.inventory.NextTag(ctx, job.OrganizationID)
	if err != nil {
		return err
	}

	asset := models.Asset{
		OrganizationID: job.OrganizationID,
		AssetTypeID:    job.AssetTypeID,
		AssetTag:       tag,
		Name:           name,
		Status:         status,
		Attributes:     attrs,
		Source:         "csv_import",
	}
	return s.db.WithContext(ctx).Create(&asset).Error
}

// Cancel force-fails a job that has not completed. Completed jobs are
// immutable; the write is guarded so a run completing concurrently is never
// overwritten.
func (s *Service) Cancel(ctx context.Context, orgID, jobID uuid.UUID) (*models.ImportJob, error) {
	job, err := s.Get(ctx, orgID, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status == models.ImportStatusCompleted {
		return nil, ErrJobCompleted
	}

	job.Status = models.ImportStatusFailed
	job.RowErrors = append(job.RowErrors, models.ImportRowError{
		Row:    0,
		Errors: []string{"cancelled by user"},
	})
	job.CompletedAt = time.Now().Unix()
	res := s.db.WithContext(ctx).Model(job).
		Select("status", "row_errors", "completed_at").
		Where("status <> ?", models.ImportStatusCompleted).
		Updates(job)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrJobCompleted
	}
	return job, nil
}

// Get loads an org-scoped job.
func (s *Service) Get(ctx context.Context, orgID, jobID uuid.UUID) (*models.ImportJob, error) {
	var job models.ImportJob
	err := s.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", jobID, orgID).
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// List returns an org's jobs, newest first.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]models.ImportJob, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.ImportJob{}).Where("organization_id = ?", orgID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var jobs []models.ImportJob
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&jobs).Error; err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

func (s *Service) wasCancelled(ctx context.Context, jobID uuid.UUID) (bool, error) {
	var current models.ImportJob
	if err := s.db.WithContext(ctx).Select("status").First(&current, "id = ?", jobID).Error; err != nil {
		return false, err
	}
	return current.Status == models.ImportStatusFailed, nil
}

// persistProgress writes the run's counters and row error log. Every
// status-bearing write is conditional on the job still being in processing;
// a zero-row update means a concurrent Cancel committed first and its failed
// record must stand.
func (s *Service) persistProgress(ctx context.Context, job *models.ImportJob) (bool, error) {
	res := s.db.WithContext(ctx).Model(job).
		Select("processed_rows", "success_count", "error_count", "row_errors").
		Where("status = ?", models.ImportStatusProcessing).
		Updates(job)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// finish commits the terminal status, guarded the same way as persistProgress.
func (s *Service) finish(ctx context.Context, job *models.ImportJob) (bool, error) {
	res := s.db.WithContext(ctx).Model(job).
		Select("status", "completed_at").
		Where("status = ?", models.ImportStatusProcessing).
		Updates(job)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Service) fail(ctx context.Context, job *models.ImportJob, reason string) error {
	job.Status = models.ImportStatusFailed
	job.RowErrors = append(job.RowErrors, models.ImportRowError{Row: 0, Errors: []string{reason}})
	job.CompletedAt = time.Now().Unix()
	res := s.db.WithContext(ctx).Model(job).
		Select("status", "row_errors", "completed_at").
		Where("status = ?", models.ImportStatusProcessing).
		Updates(job)
	return res.Error
}

func errorStrings(errs []schema.FieldError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Error()
	}
	return out
}

// toFieldError wraps a persistence failure (e.g. a uniqueness conflict) so it
// lands in the row's error log instead of aborting the remaining rows.
func toFieldError(err error) schema.FieldError {
	return schema.FieldError{Message: "Failed to create asset: " + err.Error()}
}
