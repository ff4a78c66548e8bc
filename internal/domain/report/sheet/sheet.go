// Package sheet holds the tabular model every spreadsheet is reduced to before
// the report engine sees it.
package sheet

import (
	"strconv"
	"strings"
)

// Row is one physical data row keyed by column name.
type Row struct {
	// GridRow is the 0-based physical row in the source sheet.
	GridRow int
	Cells   map[string]string
}

// MergeRange is a rectangular merged-cell block in 0-based grid coordinates.
type MergeRange struct {
	StartRow int `json:"start_row"`
	EndRow   int `json:"end_row"`
	StartCol int `json:"start_col"`
	EndCol   int `json:"end_col"`
}

// Contains reports whether the grid cell lies inside the range.
func (m MergeRange) Contains(row, col int) bool {
	return row >= m.StartRow && row <= m.EndRow && col >= m.StartCol && col <= m.EndCol
}

// Sheet is the parsed result of one worksheet.
type Sheet struct {
	Name    string
	Columns []string
	Rows    []Row
	Merges  []MergeRange
	// HeaderRow is the grid row holding Columns.
	HeaderRow int
}

// Value returns the trimmed cell value for a column, or "" when absent.
func (r Row) Value(column string) string {
	if r.Cells == nil {
		return ""
	}
	return strings.TrimSpace(r.Cells[column])
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	cells := make(map[string]string, len(r.Cells))
	for k, v := range r.Cells {
		cells[k] = v
	}
	return Row{GridRow: r.GridRow, Cells: cells}
}

// ColumnIndex returns the position of a column or -1.
func (s *Sheet) ColumnIndex(name string) int {
	for i, c := range s.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// MergeAt returns the merge range covering a grid cell.
func (s *Sheet) MergeAt(row, col int) (MergeRange, bool) {
	for _, m := range s.Merges {
		if m.Contains(row, col) {
			return m, true
		}
	}
	return MergeRange{}, false
}

// CellAt looks up the raw value at a grid position. The header row yields the
// column name itself.
func (s *Sheet) CellAt(row, col int) string {
	if col < 0 || col >= len(s.Columns) {
		return ""
	}
	if row == s.HeaderRow {
		return s.Columns[col]
	}
	for _, r := range s.Rows {
		if r.GridRow == row {
			return r.Value(s.Columns[col])
		}
	}
	return ""
}

// Empty reports whether the sheet carries no data rows.
func (s *Sheet) Empty() bool {
	return s == nil || len(s.Columns) == 0 || len(s.Rows) == 0
}

// UniqueHeaders trims header names and disambiguates repeats with a " (n)"
// suffix so every column can be addressed by name.
func UniqueHeaders(raw []string) []string {
	seen := make(map[string]int, len(raw))
	out := make([]string, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		seen[h]++
		if n := seen[h]; n > 1 {
			h = h + " (" + strconv.Itoa(n) + ")"
		}
		out[i] = h
	}
	return out
}
