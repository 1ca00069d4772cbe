package export

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// Substitute replaces {{name}} placeholders with vars. Unknown names are
// left as written.
func Substitute(s string, vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		if v, ok := vars[name]; ok {
			return v
		}
		return m
	})
}

// WriteXLSX writes rows to a single-sheet workbook. fixed maps cell
// references such as "B1" to literal values written over the grid after
// placeholder substitution.
func WriteXLSX(w io.Writer, sheetName string, rows [][]string, fixed, vars map[string]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := defaultSheet
	if sheetName != "" && sheetName != defaultSheet {
		// names excelize rejects keep the default
		if err := f.SetSheetName(defaultSheet, sheetName); err == nil {
			sheet = sheetName
		}
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	refs := make([]string, 0, len(fixed))
	for ref := range fixed {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	for _, ref := range refs {
		cell, err := CellRef(ref)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(sheet, cell, Substitute(fixed[ref], vars)); err != nil {
			return fmt.Errorf("fixed value cell %q: %w", ref, err)
		}
	}
	return f.Write(w)
}

// CellRef canonicalizes a fixed-value cell reference such as "b1".
func CellRef(ref string) (string, error) {
	cell := strings.ToUpper(strings.TrimSpace(ref))
	if _, _, err := excelize.CellNameToCoordinates(cell); err != nil {
		return "", fmt.Errorf("fixed value cell %q: %w", ref, err)
	}
	return cell, nil
}

var unsafeFileChars = strings.NewReplacer("/", "_", `\`, "_", `"`, "", ":", "_", "*", "_", "?", "_", "<", "_", ">", "_", "|", "_")

// FileName is the download name of an export: "<displayName>_<YYYYMMDD_HHMMSS>.xlsx".
func FileName(displayName string, at time.Time) string {
	name := strings.TrimSpace(unsafeFileChars.Replace(displayName))
	if name == "" {
		name = "export"
	}
	return fmt.Sprintf("%s_%s.xlsx", name, at.Format("20060102_150405"))
}
