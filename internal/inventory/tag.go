package inventory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/stockroom/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	tagPrefix = "AST-"
	tagWidth  = 5
)

// NextTag mints the next asset tag for an organization (AST-00001, ...).
//
// The counter row is bumped with a single UPDATE inside a transaction, so two
// concurrent creations (interactive or import) cannot mint the same tag. On
// first use the counter seeds from the highest existing tag, which keeps
// pre-counter installations sequencing from where they left off.
func (s *Service) NextTag(ctx context.Context, orgID uuid.UUID) (string, error) {
	var value int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := bumpCounter(tx, orgID)
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			if err := s.seedCounter(tx, orgID); err != nil {
				return err
			}
			res = bumpCounter(tx, orgID)
			if res.Error != nil {
				return res.Error
			}
		}

		var counter models.TagCounter
		if err := tx.Where("organization_id = ?", orgID).First(&counter).Error; err != nil {
			return err
		}
		value = counter.LastValue
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("generating asset tag: %w", err)
	}

	return fmt.Sprintf("%s%0*d", tagPrefix, tagWidth, value), nil
}

func bumpCounter(tx *gorm.DB, orgID uuid.UUID) *gorm.DB {
	return tx.Model(&models.TagCounter{}).
		Where("organization_id = ?", orgID).
		UpdateColumn("last_value", gorm.Expr("last_value + 1"))
}

// seedCounter inserts the org's counter row, seeded from the highest existing
// tag. Two first-ever mints can race here; the conflict is swallowed so the
// loser bumps the winner's row instead of erroring.
func (s *Service) seedCounter(tx *gorm.DB, orgID uuid.UUID) error {
	seed, err := s.highestTagValue(tx, orgID)
	if err != nil {
		return err
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.TagCounter{
			OrganizationID: orgID,
			LastValue:      seed,
		}).Error
}

// highestTagValue extracts the numeric suffix of the lexicographically
// greatest existing tag, or 0 when the org has no tagged assets yet.
func (s *Service) highestTagValue(tx *gorm.DB, orgID uuid.UUID) (int64, error) {
	var asset models.Asset
	err := tx.
		Where("organization_id = ? AND asset_tag LIKE ?", orgID, tagPrefix+"%").
		Order("asset_tag DESC").
		First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	suffix := strings.TrimPrefix(asset.AssetTag, tagPrefix)
	value, err := strconv.ParseInt(suffix, 10, 64)
	if err != nil {
		// Tag with a non-numeric suffix; start fresh rather than fail
		return 0, nil
	}
	return value, nil
}
