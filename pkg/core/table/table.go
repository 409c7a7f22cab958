// Package table holds the column-oriented model of a parsed HTML table and the
// cleaning rules applied before extraction.
package table

import (
	"strconv"
	"strings"
)

// Table is one parsed <table>: ordered columns, each with one cell per row.
// An empty string stands for an empty or absent cell. Rows are keyed by their
// position ("0", "1", ...) after the header row.
type Table struct {
	Index       int      // position of the table in the source document
	LabelColumn string   // column holding row descriptions
	Columns     []Column // ordered, all of equal length
}

// Column is a single named column of cells.
type Column struct {
	ID    string
	Cells []string
}

// New builds a table from a header and row-major cells. Ragged rows are padded
// with empty cells; the first column becomes the label column.
func New(index int, header []string, rows [][]string) *Table {
	width := len(header)
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	ids := ColumnIDs(header, width)
	t := &Table{Index: index, Columns: make([]Column, width)}
	for c := 0; c < width; c++ {
		cells := make([]string, len(rows))
		for r, row := range rows {
			if c < len(row) {
				cells[r] = row[c]
			}
		}
		t.Columns[c] = Column{ID: ids[c], Cells: cells}
	}
	if width > 0 {
		t.LabelColumn = t.Columns[0].ID
	}
	return t
}

// ColumnIDs names columns the way pandas does for header=0: blank header
// cells become "Unnamed: <pos>" and repeated names get a ".<n>" suffix. A
// suffixed name never collides with another header, so ids are unique.
func ColumnIDs(header []string, width int) []string {
	ids := make([]string, width)
	taken := make(map[string]bool, width)
	suffix := make(map[string]int, width)
	for i := 0; i < width; i++ {
		name := ""
		if i < len(header) {
			name = strings.TrimSpace(header[i])
		}
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if taken[name] {
			base := name
			for n := suffix[base] + 1; ; n++ {
				name = base + "." + strconv.Itoa(n)
				if !taken[name] {
					suffix[base] = n
					break
				}
			}
		}
		taken[name] = true
		ids[i] = name
	}
	return ids
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Cells)
}

// ColumnIndex returns the position of the column with the given id, or -1.
func (t *Table) ColumnIndex(id string) int {
	for i, c := range t.Columns {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Cell returns the cell at (column, row), or "" when out of range.
func (t *Table) Cell(col, row int) string {
	if col < 0 || col >= len(t.Columns) {
		return ""
	}
	cells := t.Columns[col].Cells
	if row < 0 || row >= len(cells) {
		return ""
	}
	return cells[row]
}

// RowKey is the metadata key of a data row.
func RowKey(row int) string {
	return strconv.Itoa(row)
}

// IsBlank reports whether a cell counts as empty.
func IsBlank(cell string) bool {
	return strings.TrimSpace(cell) == ""
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{Index: t.Index, LabelColumn: t.LabelColumn, Columns: make([]Column, len(t.Columns))}
	for i, c := range t.Columns {
		out.Columns[i] = Column{ID: c.ID, Cells: append([]string(nil), c.Cells...)}
	}
	return out
}
