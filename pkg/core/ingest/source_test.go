package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"filing_tables/pkg/core/table"
)

func TestSourceClient_ReadHTMLFromURL(t *testing.T) {
	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte(incomeSnippet))
	}))
	defer srv.Close()

	tables, err := NewSourceClient().ReadHTML(context.Background(), srv.URL, "utf-8")
	if err != nil {
		t.Fatalf("ReadHTML() error = %v", err)
	}
	if len(tables) != 1 {
		t.Errorf("ReadHTML() found %d tables", len(tables))
	}
	if gotAgent != UserAgent {
		t.Errorf("User-Agent = %q, want %q", gotAgent, UserAgent)
	}
}

func TestSourceClient_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewSourceClient().ReadHTML(context.Background(), srv.URL, "")
	if !errors.Is(err, ErrSourceUnreadable) {
		t.Errorf("ReadHTML() error = %v, want ErrSourceUnreadable", err)
	}
}

func TestSourceClient_MissingFile(t *testing.T) {
	_, err := NewSourceClient().ReadHTML(context.Background(), filepath.Join(t.TempDir(), "missing.html"), "")
	if !errors.Is(err, ErrSourceUnreadable) {
		t.Errorf("ReadHTML() error = %v, want ErrSourceUnreadable", err)
	}
}

func TestReadStaging_Directory(t *testing.T) {
	dir := t.TempDir()
	for _, idx := range []int{10, 2} {
		tbl := table.New(idx, nil, [][]string{{"a", "1"}, {"b", "2"}})
		data, err := table.EncodeColumns(tbl)
		if err != nil {
			t.Fatal(err)
		}
		name := filepath.Join(dir, "json"+table.RowKey(idx)+".json")
		if err := os.WriteFile(name, data, 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "json5.json"), []byte("[1, 2"), 0644); err != nil {
		t.Fatal(err)
	}

	tables, err := ReadStaging(dir)
	if err != nil {
		t.Fatalf("ReadStaging() error = %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("ReadStaging() = %d tables, want 2", len(tables))
	}
	if tables[0].Index != 2 || tables[1].Index != 10 {
		t.Errorf("tables out of order: %d, %d", tables[0].Index, tables[1].Index)
	}
}

func TestReadStaging_Missing(t *testing.T) {
	_, err := ReadStaging(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrSourceUnreadable) {
		t.Errorf("ReadStaging() error = %v, want ErrSourceUnreadable", err)
	}
}
