package importer

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/schema"
)

// exportHeaders builds the fixed built-in columns followed by each attribute
// definition's label in position order. The same row doubles as the import
// template, so round-tripping an export back through the importer works.
func exportHeaders(defs []schema.Definition) []string {
	headers := []string{"Asset Tag", "Name", "Status"}
	for _, def := range defs {
		headers = append(headers, def.Label)
	}
	return headers
}

// Template returns the header-only CSV for a type, for download as an import
// starting point.
func (s *Service) Template(ctx context.Context, orgID, typeID uuid.UUID) (string, error) {
	defs, err := s.inventory.Definitions(ctx, orgID, typeID)
	if err != nil {
		return "", err
	}
	return SerializeTable(exportHeaders(defs), nil)
}

// Export serializes every asset of a type. Booleans render as true/false,
// dates as ISO-8601, absent values as empty strings.
func (s *Service) Export(ctx context.Context, orgID, typeID uuid.UUID) (string, error) {
	defs, err := s.inventory.Definitions(ctx, orgID, typeID)
	if err != nil {
		return "", err
	}

	var assets []models.Asset
	if err := s.db.WithContext(ctx).
		Where("organization_id = ? AND asset_type_id = ?", orgID, typeID).
		Order("asset_tag ASC").
		Find(&assets).Error; err != nil {
		return "", err
	}

	rows := make([][]string, 0, len(assets))
	for _, asset := range assets {
		row := []string{asset.AssetTag, asset.Name, string(asset.Status)}
		for _, def := range defs {
			row = append(row, formatValue(asset.Attributes[def.Name]))
		}
		rows = append(rows, row)
	}

	return SerializeTable(exportHeaders(defs), rows)
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}
