// Package snapshot captures the accepted part of a shopping-mall upload so
// it can be re-exported later without the original file.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"OrderOps/internal/sheet"
	"OrderOps/internal/textnorm"
)

// Version is the only snapshot layout this build reads or writes.
const Version = 1

var ErrMalformed = errors.New("malformed snapshot")

type DataRow struct {
	RowNumber int      `json:"rowNumber"`
	Cells     []string `json:"cells"`
}

// Snapshot is immutable once written. HeaderRow, DataStartRow and every
// RowNumber are 1-based source rows.
type Snapshot struct {
	Version      int        `json:"version"`
	SheetName    string     `json:"sheetName"`
	TotalRows    int        `json:"totalRows"`
	ColumnCount  int        `json:"columnCount"`
	HeaderRow    int        `json:"headerRow"`
	DataStartRow int        `json:"dataStartRow"`
	PrefixRows   [][]string `json:"prefixRows"`
	HeaderCells  []string   `json:"headerCells"`
	DataRows     []DataRow  `json:"dataRows"`
}

// Capture builds the snapshot of g. headerRow and dataStart are zero-based
// grid indexes; accepted holds the zero-based indexes of the data rows that
// passed validation, and only those are kept.
func Capture(g sheet.Grid, sheetName string, headerRow, dataStart int, accepted map[int]bool) *Snapshot {
	s := &Snapshot{
		Version:      Version,
		SheetName:    sheetName,
		TotalRows:    len(g),
		ColumnCount:  g.Width(),
		HeaderRow:    headerRow + 1,
		DataStartRow: dataStart + 1,
		PrefixRows:   make([][]string, 0, headerRow),
		HeaderCells:  cloneRow(g.Row(headerRow)),
		DataRows:     []DataRow{},
	}
	for r := 0; r < headerRow && r < len(g); r++ {
		s.PrefixRows = append(s.PrefixRows, cloneRow(g[r]))
	}
	for r := dataStart; r < len(g); r++ {
		if textnorm.IsBlank(g[r]) || !accepted[r] {
			continue
		}
		s.DataRows = append(s.DataRows, DataRow{RowNumber: r + 1, Cells: cloneRow(g[r])})
	}
	return s
}

func cloneRow(row []string) []string {
	out := make([]string, len(row))
	copy(out, row)
	return out
}

// Encode serializes s as the persisted JSON document.
func Encode(s *Snapshot) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(s)
}

// Decode parses and validates a persisted snapshot. Unknown fields and other
// versions are rejected.
func Decode(data []byte) (*Snapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformed)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var s Snapshot
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrMalformed)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the structural invariants of s.
func (s *Snapshot) Validate() error {
	switch {
	case s.Version != Version:
		return fmt.Errorf("%w: unsupported version %d", ErrMalformed, s.Version)
	case s.HeaderRow < 1:
		return fmt.Errorf("%w: headerRow %d", ErrMalformed, s.HeaderRow)
	case s.DataStartRow <= s.HeaderRow:
		return fmt.Errorf("%w: dataStartRow %d not after headerRow %d", ErrMalformed, s.DataStartRow, s.HeaderRow)
	case len(s.PrefixRows) != s.HeaderRow-1:
		return fmt.Errorf("%w: %d prefix rows before header row %d", ErrMalformed, len(s.PrefixRows), s.HeaderRow)
	case s.HeaderCells == nil:
		return fmt.Errorf("%w: headerCells missing", ErrMalformed)
	}
	prev := 0
	for i, r := range s.DataRows {
		if r.RowNumber < s.DataStartRow || r.RowNumber <= prev {
			return fmt.Errorf("%w: dataRows[%d] has row number %d", ErrMalformed, i, r.RowNumber)
		}
		if r.Cells == nil {
			return fmt.Errorf("%w: dataRows[%d] has no cells", ErrMalformed, i)
		}
		prev = r.RowNumber
	}
	return nil
}
