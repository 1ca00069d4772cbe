package sheet

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Grid is the raw cell matrix of one sheet. Rows may be ragged; a cell past
// the end of its row reads as "".
type Grid [][]string

// Cell returns the trimmed cell at zero-based (row, col), "" when out of range.
func (g Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return ""
	}
	return g[row][col]
}

// Row returns row r or nil when out of range.
func (g Grid) Row(r int) []string {
	if r < 0 || r >= len(g) {
		return nil
	}
	return g[r]
}

// Width is the length of the longest row.
func (g Grid) Width() int {
	w := 0
	for _, row := range g {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// Workbook is the first sheet of an uploaded file.
type Workbook struct {
	SheetName string
	Grid      Grid
}

// ColumnLetter converts a zero-based column index to its spreadsheet letter:
// 0 -> "A", 25 -> "Z", 26 -> "AA".
func ColumnLetter(idx int) string {
	name, err := excelize.ColumnNumberToName(idx + 1)
	if err != nil {
		return ""
	}
	return name
}

// ColumnIndex converts a spreadsheet column letter to a zero-based index.
func ColumnIndex(letter string) (int, error) {
	n, err := excelize.ColumnNameToNumber(strings.TrimSpace(letter))
	if err != nil {
		return -1, fmt.Errorf("invalid column letter %q: %w", letter, err)
	}
	return n - 1, nil
}
