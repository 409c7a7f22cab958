package table

import (
	"strings"
	"testing"
)

func TestRenderMarkdown(t *testing.T) {
	tbl := New(0, []string{"", "2023"}, [][]string{
		{"Net sales", "100"},
		{"Pipe | label", ""},
		{"", ""},
	})

	md := RenderMarkdown(tbl)
	if !strings.Contains(md, "| Unnamed: 0 | 2023 |") {
		t.Errorf("missing header line:\n%s", md)
	}
	if !strings.Contains(md, `Pipe \| label`) {
		t.Errorf("pipe not escaped:\n%s", md)
	}
	if err := CheckMarkdown(md, tbl.NumRows()); err != nil {
		t.Errorf("CheckMarkdown() error = %v\n%s", err, md)
	}
}

func TestCheckMarkdown_RowMismatch(t *testing.T) {
	tbl := New(0, []string{"a", "b"}, [][]string{{"1", "2"}})
	if err := CheckMarkdown(RenderMarkdown(tbl), 3); err == nil {
		t.Error("CheckMarkdown() expected row count error")
	}
}

func TestRenderMarkdown_Empty(t *testing.T) {
	if got := RenderMarkdown(&Table{}); got != "" {
		t.Errorf("RenderMarkdown(empty) = %q", got)
	}
}
