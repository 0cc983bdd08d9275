// Package importer is the CSV bulk-load pipeline: table codec, column
// mapper, row validator, and the job orchestrator that drives them.
package importer

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// Table is a parsed CSV body: one header row plus data rows, all trimmed.
type Table struct {
	Headers []string
	Rows    [][]string
}

// ParseTable parses an RFC 4180 CSV body. Fields are trimmed, fully blank
// rows are skipped, and ragged rows are padded to the header width so row
// validation can index by column safely.
func ParseTable(text string) (Table, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("parsing csv: %w", err)
	}
	if len(records) == 0 {
		return Table{}, fmt.Errorf("csv body is empty")
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	var rows [][]string
	for _, record := range records[1:] {
		row := make([]string, len(headers))
		blank := true
		for i := range headers {
			if i < len(record) {
				row[i] = strings.TrimSpace(record[i])
				if row[i] != "" {
					blank = false
				}
			}
		}
		if !blank {
			rows = append(rows, row)
		}
	}

	return Table{Headers: headers, Rows: rows}, nil
}

// SerializeTable renders headers and rows as RFC 4180 CSV: fields containing
// a comma, quote, or newline are quoted with internal quotes doubled. No
// trailing newline; zero rows yield the header line only.
func SerializeTable(headers []string, rows [][]string) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(headers); err != nil {
		return "", fmt.Errorf("serializing csv: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("serializing csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("serializing csv: %w", err)
	}

	return strings.TrimSuffix(sb.String(), "\n"), nil
}
