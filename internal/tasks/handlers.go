package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/importer"
	"github.com/hugh/stockroom/internal/schema"
	"github.com/hugh/stockroom/pkg/util"
	"gorm.io/gorm"
)

type Handler struct {
	db       *gorm.DB
	logger   *slog.Logger
	importer *importer.Service
}

func NewHandler(db *gorm.DB, logger *slog.Logger) *Handler {
	return &Handler{
		db:       db,
		logger:   logger,
		importer: importer.NewService(db, logger),
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeImportProcess, h.HandleImportProcess)
	mux.HandleFunc(TypeExpirySweep, h.HandleExpirySweep)
}

func (h *Handler) HandleImportProcess(ctx context.Context, t *asynq.Task) error {
	var payload ImportProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	h.logger.Info("starting import processing",
		"job_id", payload.JobID,
		"org_id", payload.OrganizationID,
	)

	if err := h.importer.Process(ctx, payload.JobID, payload.CSVBody); err != nil {
		h.logger.Error("import processing failed", "job_id", payload.JobID, "error", err)
		return err
	}

	h.logger.Info("completed import processing", "job_id", payload.JobID)
	return nil
}

// HandleExpirySweep runs every due scheduled sweep: assets whose configured
// date attributes have passed get an audit entry flagging the expiry. One
// sweep failing does not block the others.
func (h *Handler) HandleExpirySweep(ctx context.Context, t *asynq.Task) error {
	now := time.Now()

	var sweeps []models.ScheduledSweep
	if err := h.db.WithContext(ctx).
		Where("is_enabled = ? AND next_run_at <= ?", true, now.Unix()).
		Find(&sweeps).Error; err != nil {
		return fmt.Errorf("loading due sweeps: %w", err)
	}

	for i := range sweeps {
		sweep := &sweeps[i]
		if err := h.runSweep(ctx, sweep, now); err != nil {
			h.logger.Error("expiry sweep failed",
				"sweep_id", sweep.ID,
				"org_id", sweep.OrganizationID,
				"error", err,
			)
		}
	}
	return nil
}

func (h *Handler) runSweep(ctx context.Context, sweep *models.ScheduledSweep, now time.Time) error {
	fields := sweep.DateFields
	if len(fields) == 0 {
		fields = []string{"warrantyExpiry", "licenseExpiry"}
	}

	var assets []models.Asset
	if err := h.db.WithContext(ctx).
		Where("organization_id = ? AND status NOT IN ?", sweep.OrganizationID,
			[]models.AssetStatus{models.StatusRetired, models.StatusDisposed}).
		Find(&assets).Error; err != nil {
		return err
	}

	flagged := 0
	for _, asset := range assets {
		for _, field := range fields {
			raw, ok := asset.Attributes[field].(string)
			if !ok || raw == "" {
				continue
			}
			expiry, err := schema.ParseDate(raw)
			if err != nil || !expiry.Before(now) {
				continue
			}
			entry := models.AuditLog{
				OrganizationID: sweep.OrganizationID,
				EntityType:     "asset",
				EntityID:       asset.ID,
				Action:         "expire",
				Field:          field,
				OldValue:       raw,
			}
			if err := h.db.WithContext(ctx).Create(&entry).Error; err != nil {
				return err
			}
			flagged++
		}
	}

	next, err := util.NextCronTime(sweep.CronExpr, now)
	if err != nil {
		return fmt.Errorf("rescheduling sweep: %w", err)
	}
	last := now.Unix()
	sweep.LastRunAt = &last
	sweep.NextRunAt = next.Unix()
	if err := h.db.WithContext(ctx).Save(sweep).Error; err != nil {
		return err
	}

	h.logger.Info("expiry sweep done",
		"sweep_id", sweep.ID,
		"org_id", sweep.OrganizationID,
		"flagged", flagged,
		"next_run", next,
	)
	return nil
}
