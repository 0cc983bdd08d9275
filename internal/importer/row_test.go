package importer

import (
	"testing"

	"github.com/hugh/stockroom/internal/database/models"
	"github.com/hugh/stockroom/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowDefs() []schema.Definition {
	return []schema.Definition{
		{Name: "serialNumber", Label: "Serial Number", Type: schema.FieldText, Required: true, Position: 0},
		{Name: "purchasePrice", Label: "Purchase Price", Type: schema.FieldNumber, Position: 1},
		{Name: "purchaseDate", Label: "Purchase Date", Type: schema.FieldDate, Position: 2},
		{Name: "isManaged", Label: "Managed", Type: schema.FieldBoolean, Position: 3},
	}
}

func rowMapping() map[string]string {
	return map[string]string{
		"Name":           TargetName,
		"Status":         TargetStatus,
		"Serial Number":  "serialNumber",
		"Purchase Price": "purchasePrice",
		"Purchase Date":  "purchaseDate",
		"Managed":        "isManaged",
	}
}

var rowHeaders = []string{"Name", "Status", "Serial Number", "Purchase Price", "Purchase Date", "Managed"}

// TestValidateRow_Valid tests a fully populated good row
func TestValidateRow_Valid(t *testing.T) {
	result := ValidateRow(rowHeaders,
		[]string{"MacBook", "In Use", "SN-1", "1999.99", "2024-03-01", "yes"},
		rowDefs(), rowMapping())

	require.True(t, result.Valid)
	assert.Equal(t, "MacBook", result.Values[TargetName])
	assert.Equal(t, models.StatusInUse, result.Values[TargetStatus])
	assert.Equal(t, "SN-1", result.Values["serialNumber"])
	assert.Equal(t, 1999.99, result.Values["purchasePrice"])
	assert.Equal(t, "2024-03-01", result.Values["purchaseDate"])
	assert.Equal(t, true, result.Values["isManaged"])
}

// TestValidateRow_NameRequired tests the only mandatory import column
func TestValidateRow_NameRequired(t *testing.T) {
	result := ValidateRow(rowHeaders,
		[]string{"  ", "", "SN-1", "", "", ""},
		rowDefs(), rowMapping())

	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Name is required", result.Errors[0].Message)
}

// TestValidateRow_EmptyAttributeCellsSkipped tests import-time leniency:
// empty cells skip the required check that direct creation enforces
func TestValidateRow_EmptyAttributeCellsSkipped(t *testing.T) {
	result := ValidateRow(rowHeaders,
		[]string{"MacBook", "", "", "", "", ""},
		rowDefs(), rowMapping())

	require.True(t, result.Valid, "empty required serialNumber passes on import")
	_, ok := result.Values["serialNumber"]
	assert.False(t, ok)
	_, ok = result.Values[TargetStatus]
	assert.False(t, ok)
}

// TestValidateRow_BadNumber tests the number cell error message
func TestValidateRow_BadNumber(t *testing.T) {
	result := ValidateRow(rowHeaders,
		[]string{"MacBook", "", "SN-1", "not-a-number", "", ""},
		rowDefs(), rowMapping())

	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Purchase Price", result.Errors[0].Field)
	assert.Equal(t, "Must be a valid number", result.Errors[0].Message)
}

// TestValidateRow_BadDate tests the date cell error message
func TestValidateRow_BadDate(t *testing.T) {
	result := ValidateRow(rowHeaders,
		[]string{"MacBook", "", "SN-1", "", "soon", ""},
		rowDefs(), rowMapping())

	require.False(t, result.Valid)
	assert.Equal(t, "Must be a valid date", result.Errors[0].Message)
}

// TestValidateRow_DateNormalized tests that accepted dates store as ISO-8601
func TestValidateRow_DateNormalized(t *testing.T) {
	result := ValidateRow(rowHeaders,
		[]string{"MacBook", "", "SN-1", "", "03/01/2024", ""},
		rowDefs(), rowMapping())

	require.True(t, result.Valid)
	assert.Equal(t, "2024-03-01", result.Values["purchaseDate"])
}

// TestValidateRow_BooleanTokens tests the exact accepted token set
func TestValidateRow_BooleanTokens(t *testing.T) {
	cases := map[string]bool{
		"true": true, "TRUE": true, "yes": true, "Yes": true, "1": true,
		"false": false, "No": false, "0": false,
	}
	for token, want := range cases {
		result := ValidateRow(rowHeaders,
			[]string{"MacBook", "", "", "", "", token},
			rowDefs(), rowMapping())
		require.True(t, result.Valid, token)
		assert.Equal(t, want, result.Values["isManaged"], token)
	}

	for _, bad := range []string{"y", "n", "on", "off", "2", "truthy"} {
		result := ValidateRow(rowHeaders,
			[]string{"MacBook", "", "", "", "", bad},
			rowDefs(), rowMapping())
		require.False(t, result.Valid, bad)
		assert.Equal(t, "Must be true/false, yes/no, or 1/0", result.Errors[0].Message)
	}
}

// TestValidateRow_StatusNormalization tests whitespace and case handling
func TestValidateRow_StatusNormalization(t *testing.T) {
	for raw, want := range map[string]models.AssetStatus{
		"In Use":      models.StatusInUse,
		"  in   use ": models.StatusInUse,
		"RETIRED":     models.StatusRetired,
	} {
		result := ValidateRow(rowHeaders,
			[]string{"MacBook", raw, "", "", "", ""},
			rowDefs(), rowMapping())
		require.True(t, result.Valid, raw)
		assert.Equal(t, want, result.Values[TargetStatus], raw)
	}

	result := ValidateRow(rowHeaders,
		[]string{"MacBook", "on loan", "", "", "", ""},
		rowDefs(), rowMapping())
	require.False(t, result.Valid)
	assert.Contains(t, result.Errors[0].Message, "Invalid status")
}

// TestValidateRow_CollectsAllErrors tests multi-error aggregation in column
// order
func TestValidateRow_CollectsAllErrors(t *testing.T) {
	result := ValidateRow(rowHeaders,
		[]string{"", "limbo", "", "NaN-ish", "whenever", "maybe"},
		rowDefs(), rowMapping())

	require.False(t, result.Valid)
	require.Len(t, result.Errors, 5)
	assert.Equal(t, "Name is required", result.Errors[0].Message)
	assert.Contains(t, result.Errors[1].Message, "Invalid status")
	assert.Equal(t, "Must be a valid number", result.Errors[2].Message)
	assert.Equal(t, "Must be a valid date", result.Errors[3].Message)
	assert.Equal(t, "Must be true/false, yes/no, or 1/0", result.Errors[4].Message)
}

// TestValidateRow_UnmappedColumnsIgnored tests that headers without a mapping
// contribute nothing
func TestValidateRow_UnmappedColumnsIgnored(t *testing.T) {
	result := ValidateRow([]string{"Name", "Mystery"},
		[]string{"MacBook", "???"},
		rowDefs(), map[string]string{"Name": TargetName})

	require.True(t, result.Valid)
	assert.Len(t, result.Values, 1)
}

// TestValidateRow_StaleMappingTargetIgnored tests a mapping entry whose
// definition was deleted after the mapping was built
func TestValidateRow_StaleMappingTargetIgnored(t *testing.T) {
	result := ValidateRow([]string{"Name", "Ghost"},
		[]string{"MacBook", "boo"},
		rowDefs(), map[string]string{"Name": TargetName, "Ghost": "deletedField"})

	require.True(t, result.Valid)
	_, ok := result.Values["deletedField"]
	assert.False(t, ok)
}

// TestNormalizeStatus tests the normalization helper directly
func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, "in_use", NormalizeStatus("In Use"))
	assert.Equal(t, "in_use", NormalizeStatus("  IN\tUSE  "))
	assert.Equal(t, "retired", NormalizeStatus("Retired"))
	assert.Equal(t, "", NormalizeStatus("   "))
}

// TestValidateRow_NaNParsesAsNumber documents that strconv accepts "NaN";
// plain garbage like "NaN-ish" does not
func TestValidateRow_NaNParsesAsNumber(t *testing.T) {
	result := ValidateRow(rowHeaders,
		[]string{"MacBook", "", "", "NaN", "", ""},
		rowDefs(), rowMapping())
	assert.True(t, result.Valid)
}
