// Package lifecycle decides whether an asset may move between statuses.
//
// Rules resolve in tiers: a rule scoped to the asset's type wins, then an
// organization-wide rule for the same edge. Only when the organization has
// never configured any rule at all does the built-in default table apply;
// configuring a single rule anywhere disables the defaults for every type in
// the org. That cliff is surprising but existing installations depend on it,
// so it is kept as-is.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/stockroom/internal/database/models"
	"gorm.io/gorm"
)

var ErrSelfTransition = errors.New("asset is already in that status")

// NotAllowedError reports an edge no rule or default permits.
type NotAllowedError struct {
	From models.AssetStatus
	To   models.AssetStatus
}

func (e *NotAllowedError) Error() string {
	return fmt.Sprintf("transition from %q to %q is not allowed", e.From, e.To)
}

// MissingFieldsError reports required attributes blocking a transition.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// Decision is the outcome of resolving one (from, to) pair.
type Decision struct {
	Allowed        bool     `json:"allowed"`
	RequiredFields []string `json:"required_fields,omitempty"`
}

// defaultTransitions is the built-in seven-status graph, consulted only for
// organizations with zero configured rules. The two edges to disposed from
// ordered and received cover cancelled orders and dead-on-arrival hardware.
var defaultTransitions = map[models.AssetStatus][]models.AssetStatus{
	models.StatusOrdered:     {models.StatusReceived, models.StatusDisposed},
	models.StatusReceived:    {models.StatusDeployed, models.StatusDisposed},
	models.StatusDeployed:    {models.StatusInUse},
	models.StatusInUse:       {models.StatusMaintenance, models.StatusRetired},
	models.StatusMaintenance: {models.StatusInUse},
	models.StatusRetired:     {models.StatusDisposed},
}

func defaultAllows(from, to models.AssetStatus) bool {
	for _, next := range defaultTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Resolver struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewResolver(db *gorm.DB, logger *slog.Logger) *Resolver {
	return &Resolver{db: db, logger: logger}
}

// Resolve decides whether the (from, to) edge is permitted for an asset of
// the given type, and which attribute fields must be present first.
func (r *Resolver) Resolve(ctx context.Context, orgID, assetTypeID uuid.UUID, from, to models.AssetStatus) (Decision, error) {
	if from == to {
		return Decision{}, nil
	}

	// Type-scoped rule first
	var rule models.TransitionRule
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND asset_type_id = ? AND from_status = ? AND to_status = ?",
			orgID, assetTypeID, from, to).
		First(&rule).Error
	if err == nil {
		return Decision{Allowed: true, RequiredFields: rule.RequiredFields}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Decision{}, err
	}

	// Organization-wide rule for the same edge
	err = r.db.WithContext(ctx).
		Where("organization_id = ? AND asset_type_id IS NULL AND from_status = ? AND to_status = ?",
			orgID, from, to).
		First(&rule).Error
	if err == nil {
		return Decision{Allowed: true, RequiredFields: rule.RequiredFields}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Decision{}, err
	}

	// Defaults apply only while the org has no rules at all. The count must
	// stay org-scoped; another tenant's rules never disable this org's
	// defaults.
	var configured int64
	if err := r.db.WithContext(ctx).
		Model(&models.TransitionRule{}).
		Where("organization_id = ?", orgID).
		Count(&configured).Error; err != nil {
		return Decision{}, err
	}
	if configured == 0 && defaultAllows(from, to) {
		return Decision{Allowed: true}, nil
	}

	return Decision{}, nil
}

// Apply transitions the asset, enforcing the resolved rule's required fields
// against the asset's current attribute map, and records an audit entry.
func (r *Resolver) Apply(ctx context.Context, asset *models.Asset, to models.AssetStatus, actorID uuid.UUID) error {
	if asset.Status == to {
		return ErrSelfTransition
	}

	decision, err := r.Resolve(ctx, asset.OrganizationID, asset.AssetTypeID, asset.Status, to)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return &NotAllowedError{From: asset.Status, To: to}
	}

	var missing []string
	for _, field := range decision.RequiredFields {
		value, ok := asset.Attributes[field]
		if !ok || isBlank(value) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}

	from := asset.Status
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(asset).Update("status", to).Error; err != nil {
			return err
		}
		asset.Status = to

		entry := models.AuditLog{
			OrganizationID: asset.OrganizationID,
			UserID:         actorID,
			EntityType:     "asset",
			EntityID:       asset.ID,
			Action:         "transition",
			Field:          "status",
			OldValue:       string(from),
			NewValue:       string(to),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		r.logger.Info("asset transitioned",
			"asset_id", asset.ID,
			"from", from,
			"to", to,
		)
		return nil
	})
}

func isBlank(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
