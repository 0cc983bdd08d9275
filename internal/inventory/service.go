// Package inventory owns direct asset entry: creation and attribute edits
// validated against the owning type's attribute definitions, tag assignment,
// and CSV export. Bulk loading lives in the importer package and is
// deliberately more lenient than the create path here.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/schema"
	"gorm.io/gorm"
)

var (
	ErrAssetTypeNotFound = errors.New("asset type not found")
	ErrAssetNotFound     = errors.New("asset not found")
	ErrDuplicateTypeName = errors.New("asset type name already in use")
	ErrInvalidStatus     = errors.New("invalid asset status")
)

// ValidationError aggregates every field problem on a record so callers can
// display all of them at once.
type ValidationError struct {
	Errors []schema.FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// GetAssetType loads an org-scoped type with its definitions.
func (s *Service) GetAssetType(ctx context.Context, orgID, typeID uuid.UUID) (*models.AssetType, error) {
	var at models.AssetType
	err := s.db.WithContext(ctx).
		Preload("Definitions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ? AND organization_id = ?", typeID, orgID).
		First(&at).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAssetTypeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &at, nil
}

// Definitions returns a type's schema definitions in position order.
func (s *Service) Definitions(ctx context.Context, orgID, typeID uuid.UUID) ([]schema.Definition, error) {
	at, err := s.GetAssetType(ctx, orgID, typeID)
	if err != nil {
		return nil, err
	}
	return models.SchemaDefinitions(at.Definitions), nil
}

type CreateAssetInput struct {
	AssetTypeID uuid.UUID
	Name        string
	Status      models.AssetStatus
	Attributes  models.AttributeMap
	Source      string
	ActorID     uuid.UUID
}

// CreateAsset validates the attribute map against the type's schema with
// required definitions enforced, mints a tag, and persists the asset.
func (s *Service) CreateAsset(ctx context.Context, orgID uuid.UUID, input CreateAssetInput) (*models.Asset, error) {
	defs, err := s.Definitions(ctx, orgID, input.AssetTypeID)
	if err != nil {
		return nil, err
	}

	var fieldErrs []schema.FieldError
	if strings.TrimSpace(input.Name) == "" {
		fieldErrs = append(fieldErrs, schema.FieldError{Field: "name", Message: "Name is required"})
	}
	fieldErrs = append(fieldErrs, schema.Validate(defs, input.Attributes)...)
	if len(fieldErrs) > 0 {
		return nil, &ValidationError{Errors: fieldErrs}
	}

	status := input.Status
	if status == "" {
		status = models.StatusOrdered
	}
	if !models.IsValidStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	tag, err := s.NextTag(ctx, orgID)
	if err != nil {
		return nil, err
	}

	source := input.Source
	if source == "" {
		source = "manual"
	}

	asset := models.Asset{
		OrganizationID: orgID,
		AssetTypeID:    input.AssetTypeID,
		AssetTag:       tag,
		Name:           strings.TrimSpace(input.Name),
		Status:         status,
		Attributes:     input.Attributes,
		Source:         source,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&asset).Error; err != nil {
			return err
		}
		return tx.Create(&models.AuditLog{
			OrganizationID: orgID,
			UserID:         input.ActorID,
			EntityType:     "asset",
			EntityID:       asset.ID,
			Action:         "create",
			NewValue:       asset.AssetTag,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("asset created", "asset_id", asset.ID, "tag", asset.AssetTag, "org_id", orgID)
	return &asset, nil
}

// GetAsset loads an org-scoped asset.
func (s *Service) GetAsset(ctx context.Context, orgID, assetID uuid.UUID) (*models.Asset, error) {
	var asset models.Asset
	err := s.db.WithContext(ctx).
		Where("id = ? AND organization_id = ?", assetID, orgID).
		First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

// UpdateAttributes merges new attribute values into the asset and re-validates
// the merged map against the type's schema, required definitions included.
// Schema changes after creation are not retroactively enforced elsewhere; this
// is the only path that re-checks an existing asset.
func (s *Service) UpdateAttributes(ctx context.Context, orgID, assetID uuid.UUID, attrs models.AttributeMap, actorID uuid.UUID) (*models.Asset, error) {
	asset, err := s.GetAsset(ctx, orgID, assetID)
	if err != nil {
		return nil, err
	}

	defs, err := s.Definitions(ctx, orgID, asset.AssetTypeID)
	if err != nil {
		return nil, err
	}

	merged := models.AttributeMap{}
	for k, v := range asset.Attributes {
		merged[k] = v
	}
	for k, v := range attrs {
		merged[k] = v
	}

	if fieldErrs := schema.Validate(defs, merged); len(fieldErrs) > 0 {
		return nil, &ValidationError{Errors: fieldErrs}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(asset).Update("attributes", merged).Error; err != nil {
			return err
		}
		asset.Attributes = merged
		return tx.Create(&models.AuditLog{
			OrganizationID: orgID,
			UserID:         actorID,
			EntityType:     "asset",
			EntityID:       asset.ID,
			Action:         "update",
			Field:          "attributes",
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return asset, nil
}
