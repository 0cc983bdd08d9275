// Package schema validates dynamic attribute maps against per-asset-type
// attribute definitions. Field types are a closed set; adding one means a new
// constant plus a new arm in every switch below, which the default arms make
// hard to miss.
package schema

import "fmt"

type FieldType string

const (
	FieldText      FieldType = "text"
	FieldNumber    FieldType = "number"
	FieldDate      FieldType = "date"
	FieldBoolean   FieldType = "boolean"
	FieldSelect    FieldType = "select"
	FieldReference FieldType = "reference"
	FieldURL       FieldType = "url"
	FieldIPAddress FieldType = "ipAddress"
	FieldUser      FieldType = "user"
)

var fieldTypes = map[FieldType]bool{
	FieldText:      true,
	FieldNumber:    true,
	FieldDate:      true,
	FieldBoolean:   true,
	FieldSelect:    true,
	FieldReference: true,
	FieldURL:       true,
	FieldIPAddress: true,
	FieldUser:      true,
}

// ParseFieldType validates a raw field type string.
func ParseFieldType(s string) (FieldType, error) {
	ft := FieldType(s)
	if !fieldTypes[ft] {
		return "", fmt.Errorf("unknown field type %q", s)
	}
	return ft, nil
}

// Definition is the validation form of one attribute definition.
type Definition struct {
	Name     string
	Label    string
	Type     FieldType
	Required bool
	Options  []string
	Position int
}
