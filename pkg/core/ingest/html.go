// Package ingest turns a filing document into raw tables for extraction.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"filing_tables/pkg/core/table"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// ErrSourceUnreadable marks a filing that cannot be opened or holds no tables.
// It is the only fatal condition of a run.
var ErrSourceUnreadable = errors.New("source unreadable")

// HTMLReader extracts every <table> of an HTML filing as a raw table.
//
// Each table is laid out on a virtual grid so colspan/rowspan cells land in
// every slot they cover. The first grid row is the header; the remaining rows
// become data rows "0", "1", ...
type HTMLReader struct {
	// Encoding is the charset label of the document ("windows-1252",
	// "utf-8", ...). Empty means detect from the document itself.
	Encoding string
}

// NewHTMLReader creates a reader for documents in the given encoding.
func NewHTMLReader(encoding string) *HTMLReader {
	return &HTMLReader{Encoding: encoding}
}

// Read parses all tables from r, in document order. A document with no
// tables is unreadable.
func (h *HTMLReader) Read(r io.Reader) ([]*table.Table, error) {
	decoded, err := h.decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}

	doc, err := goquery.NewDocumentFromReader(decoded)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse HTML: %v", ErrSourceUnreadable, err)
	}

	var tables []*table.Table
	doc.Find("table").Each(func(i int, sel *goquery.Selection) {
		grid := buildGrid(sel)
		if len(grid) == 0 {
			tables = append(tables, &table.Table{Index: i})
			return
		}
		tables = append(tables, table.New(i, grid[0], grid[1:]))
	})

	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: no tables found", ErrSourceUnreadable)
	}
	log.Printf("[HTMLReader] Found %d tables", len(tables))
	return tables, nil
}

func (h *HTMLReader) decode(r io.Reader) (io.Reader, error) {
	if h.Encoding == "" {
		return charset.NewReader(r, "text/html")
	}
	return charset.NewReaderLabel(h.Encoding, r)
}

// buildGrid lays out the rows that belong directly to tbl (rows of nested
// tables are excluded) on a rectangular grid of cell texts.
func buildGrid(tbl *goquery.Selection) [][]string {
	rows := tbl.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return tr.Closest("table").IsSelection(tbl)
	})
	rowCount := rows.Length()
	if rowCount == 0 {
		return nil
	}

	// Pre-scan for the widest row.
	maxCols := 0
	rows.Each(func(_ int, tr *goquery.Selection) {
		width := 0
		tr.ChildrenFiltered("td, th").Each(func(_ int, cell *goquery.Selection) {
			width += span(cell, "colspan")
		})
		if width > maxCols {
			maxCols = width
		}
	})
	if maxCols == 0 {
		return nil
	}

	grid := make([][]string, rowCount)
	filled := make([][]bool, rowCount)
	for i := range grid {
		grid[i] = make([]string, maxCols)
		filled[i] = make([]bool, maxCols)
	}

	rows.Each(func(rowIdx int, tr *goquery.Selection) {
		colIdx := 0
		for colIdx < maxCols && filled[rowIdx][colIdx] {
			colIdx++
		}

		tr.ChildrenFiltered("td, th").Each(func(_ int, cell *goquery.Selection) {
			colspan := span(cell, "colspan")
			rowspan := span(cell, "rowspan")
			text := cellText(cell)

			// Spanned slots repeat the text.
			for r := 0; r < rowspan; r++ {
				for c := 0; c < colspan; c++ {
					targetRow, targetCol := rowIdx+r, colIdx+c
					if targetRow < rowCount && targetCol < maxCols {
						grid[targetRow][targetCol] = text
						filled[targetRow][targetCol] = true
					}
				}
			}

			colIdx += colspan
			for colIdx < maxCols && filled[rowIdx][colIdx] {
				colIdx++
			}
		})
	})

	return grid
}

func span(cell *goquery.Selection, attr string) int {
	n, err := strconv.Atoi(strings.TrimSpace(cell.AttrOr(attr, "1")))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// cellText collapses all whitespace (including non-breaking spaces) to
// single spaces.
func cellText(cell *goquery.Selection) string {
	return strings.Join(strings.Fields(cell.Text()), " ")
}
