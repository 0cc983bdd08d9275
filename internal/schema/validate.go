package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldError is a single validation failure on one attribute.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Validate checks an attribute map against a type's definitions. All failures
// are collected so a caller can surface every problem at once; a type with no
// definitions accepts anything. Only defined-and-present values are
// type-checked; keys without a definition pass through untouched.
func Validate(defs []Definition, attrs map[string]any) []FieldError {
	var errs []FieldError

	for _, def := range defs {
		value := attrs[def.Name]

		if isEmpty(value) {
			if def.Required {
				errs = append(errs, FieldError{
					Field:   def.Name,
					Message: def.Label + " is required",
				})
			}
			continue
		}

		if err := checkValue(def, value); err != nil {
			errs = append(errs, *err)
		}
	}

	return errs
}

// checkValue type-checks one present, non-empty value. Exhaustive over FieldType.
func checkValue(def Definition, value any) *FieldError {
	switch def.Type {
	case FieldText, FieldURL, FieldIPAddress, FieldUser, FieldReference:
		if _, ok := value.(string); !ok {
			return &FieldError{Field: def.Name, Message: def.Label + " must be a string"}
		}
		return nil

	case FieldNumber:
		switch v := value.(type) {
		case float64, float32, int, int32, int64:
			return nil
		case string:
			if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
				return &FieldError{Field: def.Name, Message: def.Label + " must be a number"}
			}
			return nil
		default:
			return &FieldError{Field: def.Name, Message: def.Label + " must be a number"}
		}

	case FieldDate:
		s, ok := value.(string)
		if !ok {
			return &FieldError{Field: def.Name, Message: def.Label + " must be a date"}
		}
		if _, err := ParseDate(s); err != nil {
			return &FieldError{Field: def.Name, Message: def.Label + " must be a date"}
		}
		return nil

	case FieldBoolean:
		switch v := value.(type) {
		case bool:
			return nil
		case string:
			if v == "true" || v == "false" {
				return nil
			}
			return &FieldError{Field: def.Name, Message: def.Label + " must be a boolean"}
		default:
			return &FieldError{Field: def.Name, Message: def.Label + " must be a boolean"}
		}

	case FieldSelect:
		s, ok := value.(string)
		if !ok {
			return &FieldError{Field: def.Name, Message: def.Label + " must be a string"}
		}
		// An empty options list accepts any string
		if len(def.Options) == 0 {
			return nil
		}
		for _, opt := range def.Options {
			if s == opt {
				return nil
			}
		}
		return &FieldError{
			Field:   def.Name,
			Message: fmt.Sprintf("%s must be one of: %s", def.Label, strings.Join(def.Options, ", ")),
		}

	default:
		return &FieldError{Field: def.Name, Message: fmt.Sprintf("unknown field type %q", def.Type)}
	}
}

// isEmpty treats nil and blank strings as absent.
func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
