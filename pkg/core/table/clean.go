package table

import (
	"slices"
)

// Default cleaning parameters.
const (
	DefaultMinNonEmpty = 3
	CurrencyMarker     = "$"
	PercentMarker      = "%"
)

// CleanOptions controls which columns survive cleaning.
type CleanOptions struct {
	// MinNonEmpty is the number of non-empty cells a column needs to be kept.
	MinNonEmpty int
	// Markers are stray formatting glyphs; a column holding any cell exactly
	// equal to one of them is dropped. Applied in order.
	Markers []string
}

// DefaultCleanOptions mirrors how the filings are usually laid out: at least
// three real cells per column, "$" and "%" split into their own columns.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{
		MinNonEmpty: DefaultMinNonEmpty,
		Markers:     []string{CurrencyMarker, PercentMarker},
	}
}

// Clean returns a copy of t with sparse, duplicate and marker-only columns
// removed. The input is not modified. Row order is preserved, and column order
// follows first occurrence.
//
// Steps run in a fixed order: sparse columns first, then transpose
// deduplication, then one pass per marker.
func Clean(t *Table, opts CleanOptions) *Table {
	out := &Table{Index: t.Index, LabelColumn: t.LabelColumn}

	kept := make([]Column, 0, len(t.Columns))
	for _, col := range t.Columns {
		if nonEmpty(col.Cells) < opts.MinNonEmpty {
			continue
		}
		kept = append(kept, col)
	}

	kept = dedupe(kept)

	for _, marker := range opts.Markers {
		kept = slices.DeleteFunc(kept, func(c Column) bool {
			return slices.Contains(c.Cells, marker)
		})
	}

	out.Columns = make([]Column, len(kept))
	for i, c := range kept {
		out.Columns[i] = Column{ID: c.ID, Cells: slices.Clone(c.Cells)}
	}
	return out
}

// dedupe keeps the first of every group of columns with identical cells.
func dedupe(cols []Column) []Column {
	out := make([]Column, 0, len(cols))
	for _, col := range cols {
		dup := slices.ContainsFunc(out, func(k Column) bool {
			return slices.Equal(k.Cells, col.Cells)
		})
		if !dup {
			out = append(out, col)
		}
	}
	return out
}

func nonEmpty(cells []string) int {
	n := 0
	for _, c := range cells {
		if !IsBlank(c) {
			n++
		}
	}
	return n
}
