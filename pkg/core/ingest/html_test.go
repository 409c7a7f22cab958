package ingest

import (
	"errors"
	"strings"
	"testing"

	"filing_tables/pkg/core/table"

	"github.com/google/go-cmp/cmp"
)

const incomeSnippet = `<html><body>
<p>CONDENSED CONSOLIDATED STATEMENTS OF OPERATIONS</p>
<table>
  <tr><td></td><td colspan="2"></td><td colspan="2"></td></tr>
  <tr><td></td><td colspan="2">Three Months Ended</td><td colspan="2">Three Months Ended</td></tr>
  <tr><td></td><td colspan="2">December 30, 2023</td><td colspan="2">December 31, 2022</td></tr>
  <tr><td>Net sales</td><td>$</td><td>119,575</td><td>$</td><td>117,154</td></tr>
  <tr><td>Cost of sales</td><td></td><td>64,720</td><td></td><td>66,822</td></tr>
</table>
</body></html>`

func cells(t *table.Table, col int) []string {
	return t.Columns[col].Cells
}

func TestHTMLReader_ExpandsColspan(t *testing.T) {
	tables, err := NewHTMLReader("utf-8").Read(strings.NewReader(incomeSnippet))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(tables) != 1 {
		t.Fatalf("Read() found %d tables, want 1", len(tables))
	}

	tbl := tables[0]
	wantIDs := []string{"Unnamed: 0", "Unnamed: 1", "Unnamed: 2", "Unnamed: 3", "Unnamed: 4"}
	var gotIDs []string
	for _, c := range tbl.Columns {
		gotIDs = append(gotIDs, c.ID)
	}
	if diff := cmp.Diff(wantIDs, gotIDs); diff != "" {
		t.Errorf("column ids mismatch (-want +got):\n%s", diff)
	}
	if tbl.LabelColumn != "Unnamed: 0" {
		t.Errorf("LabelColumn = %q", tbl.LabelColumn)
	}

	want := []string{"Three Months Ended", "December 30, 2023", "$", ""}
	if diff := cmp.Diff(want, cells(tbl, 1)); diff != "" {
		t.Errorf("column 1 mismatch (-want +got):\n%s", diff)
	}
	want = []string{"Three Months Ended", "December 30, 2023", "119,575", "64,720"}
	if diff := cmp.Diff(want, cells(tbl, 2)); diff != "" {
		t.Errorf("column 2 mismatch (-want +got):\n%s", diff)
	}
}

func TestHTMLReader_Rowspan(t *testing.T) {
	doc := `<table>
<tr><th>Item</th><th>A</th><th>B</th></tr>
<tr><td rowspan="2">Shared</td><td>1</td><td>2</td></tr>
<tr><td>3</td><td>4</td></tr>
</table>`
	tables, err := NewHTMLReader("").Read(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	tbl := tables[0]

	if diff := cmp.Diff([]string{"Shared", "Shared"}, cells(tbl, 0)); diff != "" {
		t.Errorf("label column mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"2", "4"}, cells(tbl, 2)); diff != "" {
		t.Errorf("column B mismatch (-want +got):\n%s", diff)
	}
	if tbl.Columns[1].ID != "A" {
		t.Errorf("header id = %q, want A", tbl.Columns[1].ID)
	}
}

func TestHTMLReader_NestedTablesStaySeparate(t *testing.T) {
	doc := `<table>
<tr><td>outer</td><td><table><tr><td>inner1</td></tr><tr><td>inner2</td></tr></table></td></tr>
<tr><td>row</td><td>x</td></tr>
</table>`
	tables, err := NewHTMLReader("").Read(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("Read() found %d tables, want 2", len(tables))
	}
	if tables[0].NumRows() != 1 {
		t.Errorf("outer table rows = %d, want 1", tables[0].NumRows())
	}
	if tables[1].Index != 1 || tables[1].Columns[0].ID != "inner1" {
		t.Errorf("inner table = %+v", tables[1])
	}
}

func TestHTMLReader_Windows1252(t *testing.T) {
	// 0x97 is an em dash and 0xA0 a non-breaking space in windows-1252.
	doc := "<table><tr><td>h</td><td>v</td></tr><tr><td>Net\xa0sales</td><td>\x97</td></tr></table>"
	tables, err := NewHTMLReader("windows-1252").Read(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got := tables[0].Cell(0, 0); got != "Net sales" {
		t.Errorf("label = %q, want %q", got, "Net sales")
	}
	if got := tables[0].Cell(1, 0); got != "—" {
		t.Errorf("value = %q, want em dash", got)
	}
}

func TestHTMLReader_NoTables(t *testing.T) {
	_, err := NewHTMLReader("").Read(strings.NewReader("<html><body><p>nothing</p></body></html>"))
	if !errors.Is(err, ErrSourceUnreadable) {
		t.Errorf("Read() error = %v, want ErrSourceUnreadable", err)
	}
}

func TestHTMLReader_UnknownEncoding(t *testing.T) {
	_, err := NewHTMLReader("not-a-charset").Read(strings.NewReader("<table></table>"))
	if !errors.Is(err, ErrSourceUnreadable) {
		t.Errorf("Read() error = %v, want ErrSourceUnreadable", err)
	}
}
