package export

import "OrderOps/internal/snapshot"

// Reconstruct replays s through c. Rows come out in this order: prefix rows
// when CopyPrefixRows is set, one header row, then one row per snapshot data
// row in snapshot order.
func Reconstruct(s *snapshot.Snapshot, c *Config) [][]string {
	out := make([][]string, 0, len(s.PrefixRows)+1+len(s.DataRows))
	if c.CopyPrefixRows {
		for _, row := range s.PrefixRows {
			out = append(out, resolve(c, row))
		}
	}
	out = append(out, header(s, c))
	for _, r := range s.DataRows {
		out = append(out, resolve(c, r.Cells))
	}
	return out
}

func resolve(c *Config, cells []string) []string {
	row := make([]string, len(c.Columns))
	for i, col := range c.Columns {
		switch col.Source.Type {
		case SourceConst:
			row[i] = col.Source.Value
		case SourceInput:
			row[i] = cellAt(cells, col.Source.ColumnIndex)
		}
	}
	return row
}

func header(s *snapshot.Snapshot, c *Config) []string {
	row := make([]string, len(c.Columns))
	for i, col := range c.Columns {
		switch {
		case col.Header != nil:
			row[i] = *col.Header
		case col.Source.Type == SourceInput:
			row[i] = cellAt(s.HeaderCells, col.Source.ColumnIndex)
		}
	}
	return row
}

// cellAt reads the 1-based column idx, empty when out of range.
func cellAt(cells []string, idx int) string {
	if idx < 1 || idx > len(cells) {
		return ""
	}
	return cells[idx-1]
}
