package sheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"OrderOps/internal/textnorm"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/korean"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrUnreadableFile      = errors.New("unreadable file")
)

// FileExt returns the lower-cased extension of filename including the dot.
func FileExt(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// Read loads the first sheet of a CSV, XLSX or XLS upload into a Grid with
// every cell trimmed. Multi-sheet workbooks contribute only their first sheet.
func Read(r io.Reader, filename string) (*Workbook, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	return ReadBytes(data, filename)
}

// ReadBytes is Read over an in-memory file.
func ReadBytes(data []byte, filename string) (*Workbook, error) {
	var (
		wb  *Workbook
		err error
	)
	switch FileExt(filename) {
	case ".csv", ".txt":
		var g Grid
		g, err = parseCSV(data)
		wb = &Workbook{SheetName: strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)), Grid: g}
	case ".xlsx", ".xlsm":
		wb, err = parseXLSX(data)
	case ".xls":
		wb, err = parseXLS(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	for i, row := range wb.Grid {
		for j := range row {
			row[j] = textnorm.Cell(row[j])
		}
		wb.Grid[i] = row
	}
	return wb, nil
}

func parseCSV(data []byte) (Grid, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if !utf8.Valid(data) {
		// Korean mall exports are frequently CP949/EUC-KR.
		decoded, err := korean.EUCKR.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode csv: %w", err)
		}
		data = decoded
	}

	br := bufio.NewReader(bytes.NewReader(data))
	peek, _ := br.Peek(1024)
	firstLine := peek
	if i := bytes.IndexByte(peek, '\n'); i >= 0 {
		firstLine = peek[:i]
	}
	delimiter := ','
	if bytes.Count(firstLine, []byte("\t")) > bytes.Count(firstLine, []byte(",")) {
		delimiter = '\t'
	} else if bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		delimiter = ';'
	}

	csvr := csv.NewReader(br)
	csvr.Comma = delimiter
	csvr.LazyQuotes = true
	csvr.FieldsPerRecord = -1
	records, err := csvr.ReadAll()
	if err != nil {
		return nil, err
	}
	return Grid(records), nil
}

func parseXLSX(data []byte) (*Workbook, error) {
	xl, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer xl.Close()

	sheetName := xl.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("no sheets found")
	}
	rows, err := xl.GetRows(sheetName)
	if err != nil {
		return nil, err
	}
	return &Workbook{SheetName: sheetName, Grid: Grid(rows)}, nil
}

func parseXLS(data []byte) (*Workbook, error) {
	book, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	ws := book.GetSheet(0)
	if ws == nil {
		return nil, errors.New("no sheets found")
	}

	grid := make(Grid, 0, int(ws.MaxRow)+1)
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := xlsRow(ws, i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for c := 0; c < row.LastCol(); c++ {
			cells = append(cells, row.Col(c))
		}
		grid = append(grid, trimTrailingEmpty(cells))
	}
	return &Workbook{SheetName: ws.Name, Grid: grid}, nil
}

// xlsRow shields against WorkSheet.Row dereferencing a missing sparse row.
func xlsRow(ws *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(i)
}

func trimTrailingEmpty(cells []string) []string {
	n := len(cells)
	for n > 0 && strings.TrimSpace(cells[n-1]) == "" {
		n--
	}
	return cells[:n]
}
