package table

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// RenderMarkdown renders the table as a GFM pipe table: column ids as the
// header, then one line per row. Used for the staging preview.
func RenderMarkdown(t *Table) string {
	if len(t.Columns) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("|")
	for _, col := range t.Columns {
		sb.WriteString(" " + markdownCell(col.ID) + " |")
	}
	sb.WriteString("\n|")
	for range t.Columns {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")

	for r := 0; r < t.NumRows(); r++ {
		sb.WriteString("|")
		for c := range t.Columns {
			sb.WriteString(" " + markdownCell(t.Cell(c, r)) + " |")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// CheckMarkdown parses md with the GFM table extension and verifies it holds a
// single table with the given number of body rows.
func CheckMarkdown(md string, wantRows int) error {
	md2 := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md2.Parser().Parse(text.NewReader([]byte(md)))

	tables, rows := 0, 0
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case east.KindTable:
			tables++
		case east.KindTableRow:
			rows++
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return err
	}
	if tables != 1 {
		return fmt.Errorf("markdown preview: want 1 table, found %d", tables)
	}
	if rows != wantRows {
		return fmt.Errorf("markdown preview: want %d rows, found %d", wantRows, rows)
	}
	return nil
}

func markdownCell(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	s = strings.ReplaceAll(s, "|", "\\|")
	if s == "" {
		return " "
	}
	return s
}
