package importer

import (
	"testing"

	"github.com/hugh/stockroom/internal/schema"
	"github.com/stretchr/testify/assert"
)

func mapperDefs() []schema.Definition {
	return []schema.Definition{
		{Name: "serialNumber", Label: "Serial Number", Type: schema.FieldText, Position: 0},
		{Name: "ram", Label: "RAM (GB)", Type: schema.FieldNumber, Position: 1},
		{Name: "purchaseDate", Label: "Purchase Date", Type: schema.FieldDate, Position: 2},
	}
}

// TestAutoMap_BuiltinsAndExact tests name/status aliases plus exact matches
func TestAutoMap_BuiltinsAndExact(t *testing.T) {
	mapping := AutoMap([]string{"Name", "Serial Number"}, mapperDefs())
	assert.Equal(t, map[string]string{
		"Name":          TargetName,
		"Serial Number": "serialNumber",
	}, mapping)
}

// TestAutoMap_Aliases tests the built-in alias set case-insensitively
func TestAutoMap_Aliases(t *testing.T) {
	mapping := AutoMap([]string{"asset name", "ASSET STATUS"}, nil)
	assert.Equal(t, TargetName, mapping["asset name"])
	assert.Equal(t, TargetStatus, mapping["ASSET STATUS"])
}

// TestAutoMap_ExactBeatsSubstring tests precedence when both would match
func TestAutoMap_ExactBeatsSubstring(t *testing.T) {
	defs := []schema.Definition{
		{Name: "ramSlots", Label: "RAM Slots", Position: 0},
		{Name: "ram", Label: "RAM (GB)", Position: 1},
	}
	// "ram" matches ramSlots by substring but ram exactly; exact wins
	mapping := AutoMap([]string{"ram"}, defs)
	assert.Equal(t, "ram", mapping["ram"])
}

// TestAutoMap_SubstringEitherDirection tests containment both ways
func TestAutoMap_SubstringEitherDirection(t *testing.T) {
	mapping := AutoMap([]string{"Purchase", "The Serial Number Column"}, mapperDefs())
	assert.Equal(t, "purchaseDate", mapping["Purchase"])
	assert.Equal(t, "serialNumber", mapping["The Serial Number Column"])
}

// TestAutoMap_SubstringPositionOrder tests that ties go to the lowest position
func TestAutoMap_SubstringPositionOrder(t *testing.T) {
	defs := []schema.Definition{
		{Name: "warrantyEnd", Label: "Warranty End Date", Position: 1},
		{Name: "purchaseDate", Label: "Purchase Date", Position: 0},
	}
	// "Date" is a substring of both labels; purchaseDate has the lower position
	mapping := AutoMap([]string{"Date"}, defs)
	assert.Equal(t, "purchaseDate", mapping["Date"])
}

// TestAutoMap_UnmatchedHeadersAbsent tests that unknown columns stay unmapped
func TestAutoMap_UnmatchedHeadersAbsent(t *testing.T) {
	mapping := AutoMap([]string{"Name", "Completely Unrelated"}, mapperDefs())
	_, ok := mapping["Completely Unrelated"]
	assert.False(t, ok)
	assert.Len(t, mapping, 1)
}
