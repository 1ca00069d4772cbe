package ingest

import (
	"errors"
	"fmt"

	"OrderOps/internal/config"
	"OrderOps/internal/sheet"
)

var (
	ErrEmptyInput       = errors.New("file has no rows")
	ErrInvalidHeaderRow = errors.New("header row out of range")
)

// HeaderColumn describes one cell of a detected header row.
type HeaderColumn struct {
	ColumnIndex  int    `json:"columnIndex"`
	ColumnLetter string `json:"columnLetter"`
	Header       string `json:"header"`
}

// HeaderAnalysis is the result of locating the header row of a mall export.
type HeaderAnalysis struct {
	HeaderRow   int // zero-based
	HeaderCells []string
	Columns     []HeaderColumn
}

// DetectHeaderRow locates the header row of a shopping-mall export.
//
// explicitRow is 1-based; when positive it is used as-is and must fall inside
// the grid. Otherwise the first config.HeaderScanRows rows are scanned and the
// first row holding at least config.MinHeaderCells non-empty cells whose
// distinct/non-empty ratio exceeds config.UniquenessThreshold wins. Title
// banners repeat one merged value across many cells, so their ratio stays
// low. Without a qualifying row the first row is returned.
func DetectHeaderRow(g sheet.Grid, explicitRow int) (int, error) {
	if len(g) == 0 {
		return 0, ErrEmptyInput
	}
	if explicitRow > 0 {
		if explicitRow > len(g) {
			return 0, fmt.Errorf("%w: row %d of %d", ErrInvalidHeaderRow, explicitRow, len(g))
		}
		return explicitRow - 1, nil
	}
	if explicitRow < 0 {
		return 0, fmt.Errorf("%w: row %d", ErrInvalidHeaderRow, explicitRow)
	}

	limit := min(len(g), config.HeaderScanRows)
	for r := 0; r < limit; r++ {
		nonEmpty, distinct := uniqueness(g[r])
		if nonEmpty < config.MinHeaderCells {
			continue
		}
		if float64(distinct)/float64(nonEmpty) > config.UniquenessThreshold {
			return r, nil
		}
	}
	return 0, nil
}

// FirstNonEmptyRow is the header rule for manufacturer and product feeds,
// which are assumed to be well-formed.
func FirstNonEmptyRow(g sheet.Grid) (int, error) {
	if len(g) == 0 {
		return 0, ErrEmptyInput
	}
	for r, row := range g {
		for _, c := range row {
			if c != "" {
				return r, nil
			}
		}
	}
	return 0, ErrEmptyInput
}

// AnalyzeHeader detects the header row and describes its columns.
func AnalyzeHeader(g sheet.Grid, explicitRow int) (*HeaderAnalysis, error) {
	row, err := DetectHeaderRow(g, explicitRow)
	if err != nil {
		return nil, err
	}
	cells := append([]string(nil), g.Row(row)...)
	cols := make([]HeaderColumn, 0, len(cells))
	for i, h := range cells {
		if h == "" {
			continue
		}
		cols = append(cols, HeaderColumn{ColumnIndex: i, ColumnLetter: sheet.ColumnLetter(i), Header: h})
	}
	return &HeaderAnalysis{HeaderRow: row, HeaderCells: cells, Columns: cols}, nil
}

func uniqueness(row []string) (nonEmpty, distinct int) {
	seen := make(map[string]struct{}, len(row))
	for _, c := range row {
		if c == "" {
			continue
		}
		nonEmpty++
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			distinct++
		}
	}
	return nonEmpty, distinct
}
