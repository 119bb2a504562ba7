// Package export extracts Markdown tables from assistant messages and
// renders them as CSV.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoTable is returned when the text contains no well-formed table.
var ErrNoTable = errors.New("no table found")

// ExtractTable parses the first pipe-delimited Markdown table in text and
// returns its rows, header first. The header is the `|` row immediately
// before the dash separator row; parsing stops at the first non-table line
// after the table begins.
func ExtractTable(text string) ([][]string, error) {
	var (
		rows    [][]string
		header  []string
		inTable bool
	)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)

		if !inTable {
			switch {
			case isSeparatorRow(line):
				if header != nil {
					inTable = true
					rows = append(rows, header)
				}
			case strings.HasPrefix(line, "|"):
				header = splitRow(line)
			default:
				header = nil
			}
			continue
		}

		if !strings.HasPrefix(line, "|") {
			break
		}
		rows = append(rows, splitRow(line))
	}

	if !inTable || len(rows) == 0 {
		return nil, ErrNoTable
	}
	return rows, nil
}

// isSeparatorRow reports whether a line is the header/body boundary row,
// e.g. `| --- | :-: |`. Every cell must hold at least one dash with
// optional alignment colons.
func isSeparatorRow(line string) bool {
	if !strings.HasPrefix(line, "|") {
		return false
	}
	cells := splitRow(line)
	if cells == nil {
		return false
	}
	for _, cell := range cells {
		cell = strings.TrimPrefix(cell, ":")
		cell = strings.TrimSuffix(cell, ":")
		if cell == "" || strings.Trim(cell, "-") != "" {
			return false
		}
	}
	return true
}

// splitRow strips the outer pipes and trims each cell.
func splitRow(line string) []string {
	parts := strings.Split(line, "|")
	if len(parts) < 3 {
		return nil
	}
	cells := make([]string, 0, len(parts)-2)
	for _, cell := range parts[1 : len(parts)-1] {
		cells = append(cells, strings.TrimSpace(cell))
	}
	return cells
}

// WriteCSV renders table rows as CSV, header row first.
func WriteCSV(dst io.Writer, rows [][]string) error {
	w := csv.NewWriter(dst)
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
