package models

import "strings"

// Row is one spreadsheet row as read from the store.
// Cells beyond the populated prefix read as empty.
type Row struct {
	Number      int // 1-based sheet row
	FirstColumn int // 1-based column of Cells[0]
	Cells       []string
}

// Cell returns the value at the 1-based sheet column col.
func (r Row) Cell(col int) string {
	i := col - r.FirstColumn
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return r.Cells[i]
}

// IsBlank reports whether s is empty once whitespace is trimmed.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
