package snapshot

import (
	"testing"

	"OrderOps/internal/sheet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGrid() sheet.Grid {
	return sheet.Grid{
		{"6월 주문", "6월 주문", "6월 주문"},
		{"주문번호", "상품명", "수량"},
		{"O-1", "Widget", "1"},
		{"", "", ""},
		{"O-2", "Gadget", "x"},
		{"O-3", "Thing", "2", "extra"},
	}
}

func TestCaptureKeepsOnlyAcceptedRows(t *testing.T) {
	g := sampleGrid()
	s := Capture(g, "주문", 1, 2, map[int]bool{2: true, 5: true})

	assert.Equal(t, Version, s.Version)
	assert.Equal(t, "주문", s.SheetName)
	assert.Equal(t, 6, s.TotalRows)
	assert.Equal(t, 4, s.ColumnCount)
	assert.Equal(t, 2, s.HeaderRow)
	assert.Equal(t, 3, s.DataStartRow)
	assert.Equal(t, [][]string{{"6월 주문", "6월 주문", "6월 주문"}}, s.PrefixRows)
	assert.Equal(t, []string{"주문번호", "상품명", "수량"}, s.HeaderCells)
	assert.Equal(t, []DataRow{
		{RowNumber: 3, Cells: []string{"O-1", "Widget", "1"}},
		{RowNumber: 6, Cells: []string{"O-3", "Thing", "2", "extra"}},
	}, s.DataRows)

	// the snapshot owns its cells
	g[2][0] = "changed"
	assert.Equal(t, "O-1", s.DataRows[0].Cells[0])
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := Capture(sampleGrid(), "Sheet1", 1, 2, map[int]bool{2: true, 4: true})
	data, err := Encode(s)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":          ``,
		"not json":       `{"version":1,`,
		"wrong version":  `{"version":2,"headerRow":1,"dataStartRow":2,"headerCells":[]}`,
		"unknown field":  `{"version":1,"headerRow":1,"dataStartRow":2,"headerCells":[],"original":"..."}`,
		"missing header": `{"version":1,"headerRow":1,"dataStartRow":2}`,
		"bad start":      `{"version":1,"headerRow":2,"dataStartRow":2,"prefixRows":[["t"]],"headerCells":["a"]}`,
		"prefix count":   `{"version":1,"headerRow":2,"dataStartRow":3,"prefixRows":[],"headerCells":["a"]}`,
		"row order": `{"version":1,"headerRow":1,"dataStartRow":2,"headerCells":["a"],
			"dataRows":[{"rowNumber":4,"cells":["x"]},{"rowNumber":3,"cells":["y"]}]}`,
		"null cells": `{"version":1,"headerRow":1,"dataStartRow":2,"headerCells":["a"],
			"dataRows":[{"rowNumber":2,"cells":null}]}`,
		"trailing": `{"version":1,"headerRow":1,"dataStartRow":2,"headerCells":[]} {}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(doc))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestEncodeRejectsInvalid(t *testing.T) {
	_, err := Encode(&Snapshot{Version: 1, HeaderRow: 0})
	assert.ErrorIs(t, err, ErrMalformed)
}
