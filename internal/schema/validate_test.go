package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func laptopDefs() []Definition {
	return []Definition{
		{Name: "serialNumber", Label: "Serial Number", Type: FieldText, Required: true, Position: 0},
		{Name: "ram", Label: "RAM (GB)", Type: FieldNumber, Position: 1},
		{Name: "purchaseDate", Label: "Purchase Date", Type: FieldDate, Position: 2},
		{Name: "isManaged", Label: "Managed", Type: FieldBoolean, Position: 3},
		{Name: "condition", Label: "Condition", Type: FieldSelect, Options: []string{"new", "used", "broken"}, Position: 4},
	}
}

// TestValidate_AllValid tests a fully populated, well-typed map
func TestValidate_AllValid(t *testing.T) {
	errs := Validate(laptopDefs(), map[string]any{
		"serialNumber": "SN-001",
		"ram":          16.0,
		"purchaseDate": "2024-03-01",
		"isManaged":    true,
		"condition":    "new",
	})
	assert.Empty(t, errs)
}

// TestValidate_RequiredMissing tests that a missing required field reports
// "<label> is required"
func TestValidate_RequiredMissing(t *testing.T) {
	errs := Validate(laptopDefs(), map[string]any{"ram": 8.0})
	require.Len(t, errs, 1)
	assert.Equal(t, "serialNumber", errs[0].Field)
	assert.Equal(t, "Serial Number is required", errs[0].Message)
}

// TestValidate_BlankStringIsMissing tests that whitespace counts as absent
func TestValidate_BlankStringIsMissing(t *testing.T) {
	errs := Validate(laptopDefs(), map[string]any{"serialNumber": "   "})
	require.Len(t, errs, 1)
	assert.Equal(t, "Serial Number is required", errs[0].Message)
}

// TestValidate_CollectsAllErrors tests that validation never stops at the
// first failure
func TestValidate_CollectsAllErrors(t *testing.T) {
	errs := Validate(laptopDefs(), map[string]any{
		"ram":          "not-a-number",
		"purchaseDate": "yesterday-ish",
		"condition":    "pristine",
	})
	// Missing required serialNumber plus three type failures
	assert.Len(t, errs, 4)

	fields := make([]string, len(errs))
	for i, e := range errs {
		fields[i] = e.Field
	}
	assert.ElementsMatch(t, []string{"serialNumber", "ram", "purchaseDate", "condition"}, fields)
}

// TestValidate_NumberAcceptsNumericString tests number coercion
func TestValidate_NumberAcceptsNumericString(t *testing.T) {
	errs := Validate(laptopDefs(), map[string]any{
		"serialNumber": "SN-002",
		"ram":          " 32 ",
	})
	assert.Empty(t, errs)
}

// TestValidate_OptionalEmptySkipsTypeCheck tests that optional empty values
// pass without a type check
func TestValidate_OptionalEmptySkipsTypeCheck(t *testing.T) {
	errs := Validate(laptopDefs(), map[string]any{
		"serialNumber": "SN-003",
		"ram":          "",
		"purchaseDate": nil,
	})
	assert.Empty(t, errs)
}

// TestValidate_SelectRejectsUnknownOption tests the select membership check
func TestValidate_SelectRejectsUnknownOption(t *testing.T) {
	errs := Validate(laptopDefs(), map[string]any{
		"serialNumber": "SN-004",
		"condition":    "mint",
	})
	require.Len(t, errs, 1)
	assert.Equal(t, "condition", errs[0].Field)
	assert.Contains(t, errs[0].Message, "must be one of: new, used, broken")
}

// TestValidate_SelectWithoutOptionsAcceptsAnything tests the open-select case
func TestValidate_SelectWithoutOptionsAcceptsAnything(t *testing.T) {
	defs := []Definition{{Name: "location", Label: "Location", Type: FieldSelect}}
	errs := Validate(defs, map[string]any{"location": "warehouse-9"})
	assert.Empty(t, errs)
}

// TestValidate_StringTypesAcceptAnyString tests that url, ipAddress, user and
// reference fields take any string without format checks
func TestValidate_StringTypesAcceptAnyString(t *testing.T) {
	defs := []Definition{
		{Name: "docs", Label: "Docs", Type: FieldURL},
		{Name: "mgmtIP", Label: "Management IP", Type: FieldIPAddress},
		{Name: "owner", Label: "Owner", Type: FieldUser},
		{Name: "parent", Label: "Parent", Type: FieldReference},
	}
	errs := Validate(defs, map[string]any{
		"docs":   "not a url at all",
		"mgmtIP": "999.999.999.999",
		"owner":  "whoever",
		"parent": "some-id",
	})
	assert.Empty(t, errs)
}

// TestValidate_UndefinedKeysPassThrough tests that keys without a definition
// are ignored
func TestValidate_UndefinedKeysPassThrough(t *testing.T) {
	errs := Validate(laptopDefs(), map[string]any{
		"serialNumber": "SN-005",
		"legacyField":  12345,
	})
	assert.Empty(t, errs)
}

// TestValidate_NoDefinitionsAcceptsAnything tests a type with an empty schema
func TestValidate_NoDefinitionsAcceptsAnything(t *testing.T) {
	errs := Validate(nil, map[string]any{"anything": "goes"})
	assert.Empty(t, errs)
}

// TestValidate_BooleanValues tests accepted boolean representations
func TestValidate_BooleanValues(t *testing.T) {
	defs := []Definition{{Name: "isManaged", Label: "Managed", Type: FieldBoolean}}

	assert.Empty(t, Validate(defs, map[string]any{"isManaged": false}))
	assert.Empty(t, Validate(defs, map[string]any{"isManaged": "true"}))

	errs := Validate(defs, map[string]any{"isManaged": "yep"})
	require.Len(t, errs, 1)
	assert.Equal(t, "Managed must be a boolean", errs[0].Message)
}

// TestParseFieldType tests the closed field type set
func TestParseFieldType(t *testing.T) {
	for _, valid := range []string{"text", "number", "date", "boolean", "select", "reference", "url", "ipAddress", "user"} {
		ft, err := ParseFieldType(valid)
		require.NoError(t, err)
		assert.Equal(t, FieldType(valid), ft)
	}

	_, err := ParseFieldType("money")
	assert.Error(t, err)
	_, err = ParseFieldType("TEXT")
	assert.Error(t, err, "field types are case sensitive")
}

// TestParseDate tests the accepted date layouts
func TestParseDate(t *testing.T) {
	for _, ok := range []string{"2024-03-01", "03/01/2024", "2024-03-01T10:30:00Z"} {
		_, err := ParseDate(ok)
		assert.NoError(t, err, ok)
	}
	for _, bad := range []string{"yesterday", "2024-13-45", ""} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}
