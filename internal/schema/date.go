package schema

import (
	"fmt"
	"strings"
	"time"
)

// Date layouts accepted for date attributes and CSV date cells. 4-digit-year
// layouts only; 2-digit years in user spreadsheets are ambiguous and rejected.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"2006.01.02",
	"Jan 2, 2006",
	"2 Jan 2006",
	time.RFC3339,
}

// ParseDate parses a date string against the accepted layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// FormatDate renders a date the way exports expect it (ISO-8601 date).
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
