package importer

import (
	"strconv"
	"strings"

	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/schema"
)

// RowResult is the outcome of validating one mapped row. Values holds every
// successfully parsed cell keyed by its target (built-ins under __name and
// __status); Errors collects every failure rather than stopping at the first.
type RowResult struct {
	Valid  bool
	Errors []schema.FieldError
	Values map[string]any
}

// ValidateRow type-checks and coerces one row against the column mapping.
//
// Empty attribute cells are skipped without a required-field check; bulk
// loads tolerate sparse rows, unlike direct creation. Only __name is
// mandatory here.
func ValidateRow(headers, row []string, defs []schema.Definition, mapping map[string]string) RowResult {
	byName := make(map[string]schema.Definition, len(defs))
	for _, def := range defs {
		byName[def.Name] = def
	}

	result := RowResult{Values: make(map[string]any)}

	// Walk headers in column order so errors report deterministically
	for i, header := range headers {
		target, ok := mapping[header]
		if !ok {
			continue
		}
		raw := ""
		if i < len(row) {
			raw = strings.TrimSpace(row[i])
		}

		switch target {
		case TargetName:
			if raw == "" {
				result.Errors = append(result.Errors, schema.FieldError{
					Field:   header,
					Message: "Name is required",
				})
				continue
			}
			result.Values[TargetName] = raw

		case TargetStatus:
			if raw == "" {
				continue
			}
			status := models.AssetStatus(NormalizeStatus(raw))
			if !models.IsValidStatus(status) {
				result.Errors = append(result.Errors, schema.FieldError{
					Field:   header,
					Message: "Invalid status \"" + raw + "\"",
				})
				continue
			}
			result.Values[TargetStatus] = status

		default:
			def, ok := byName[target]
			if !ok {
				// Mapping points at a definition that no longer exists
				continue
			}
			if raw == "" {
				continue
			}
			value, fieldErr := parseCell(header, raw, def)
			if fieldErr != nil {
				result.Errors = append(result.Errors, *fieldErr)
				continue
			}
			result.Values[def.Name] = value
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// parseCell coerces one non-empty cell per its definition's field type.
// Types without a dedicated parser pass through as the raw string.
func parseCell(header, raw string, def schema.Definition) (any, *schema.FieldError) {
	switch def.Type {
	case schema.FieldNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &schema.FieldError{Field: header, Message: "Must be a valid number"}
		}
		return n, nil

	case schema.FieldDate:
		t, err := schema.ParseDate(raw)
		if err != nil {
			return nil, &schema.FieldError{Field: header, Message: "Must be a valid date"}
		}
		return schema.FormatDate(t), nil

	case schema.FieldBoolean:
		switch strings.ToLower(raw) {
		case "true", "yes", "1":
			return true, nil
		case "false", "no", "0":
			return false, nil
		default:
			return nil, &schema.FieldError{Field: header, Message: "Must be true/false, yes/no, or 1/0"}
		}

	default:
		return raw, nil
	}
}

// NormalizeStatus lowercases and collapses whitespace runs to underscores,
// so "In Use" matches in_use.
func NormalizeStatus(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), "_")
}
