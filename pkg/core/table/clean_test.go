package table

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func columnIDs(t *Table) []string {
	ids := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		ids[i] = c.ID
	}
	return ids
}

func TestClean(t *testing.T) {
	tests := []struct {
		name    string
		header  []string
		rows    [][]string
		wantIDs []string
	}{
		{
			name:   "sparse column is dropped",
			header: []string{"", "", ""},
			rows: [][]string{
				{"Net sales", "100", ""},
				{"Cost of sales", "60", "x"},
				{"Gross margin", "40", ""},
			},
			wantIDs: []string{"Unnamed: 0", "Unnamed: 1"},
		},
		{
			name:   "duplicate columns collapse to first occurrence",
			header: []string{"", "", "", ""},
			rows: [][]string{
				{"Net sales", "100", "100", "90"},
				{"Cost of sales", "60", "60", "50"},
				{"Gross margin", "40", "40", "40"},
			},
			wantIDs: []string{"Unnamed: 0", "Unnamed: 1", "Unnamed: 3"},
		},
		{
			name:   "currency and percent marker columns are dropped",
			header: []string{"", "", "", "", ""},
			rows: [][]string{
				{"Net sales", "$", "100", "12", "%"},
				{"Cost of sales", "$", "60", "8", "%"},
				{"Gross margin", "1", "40", "4", "2"},
			},
			wantIDs: []string{"Unnamed: 0", "Unnamed: 2", "Unnamed: 3"},
		},
		{
			name:    "no data columns",
			header:  []string{"", ""},
			rows:    [][]string{{"", ""}, {"a", ""}},
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := New(0, tt.header, tt.rows)
			got := Clean(raw, DefaultCleanOptions())
			if diff := cmp.Diff(tt.wantIDs, columnIDs(got)); diff != "" {
				t.Errorf("Clean() columns mismatch (-want +got):\n%s", diff)
			}
			if got.NumRows() != 0 && got.NumRows() != raw.NumRows() {
				t.Errorf("Clean() changed row count: %d -> %d", raw.NumRows(), got.NumRows())
			}
		})
	}
}

func TestClean_NoMarkerCellsSurvive(t *testing.T) {
	raw := New(0, nil, [][]string{
		{"Assets", "$", "10", "%", "10", "20"},
		{"Cash", "$", "5", "%", "5", "7"},
		{"Total", "$", "15", "%", "15", "27"},
	})
	got := Clean(raw, DefaultCleanOptions())

	for _, col := range got.Columns {
		if slices.Contains(col.Cells, CurrencyMarker) || slices.Contains(col.Cells, PercentMarker) {
			t.Errorf("column %s still holds a marker cell: %v", col.ID, col.Cells)
		}
	}
	for i := range got.Columns {
		for j := i + 1; j < len(got.Columns); j++ {
			if slices.Equal(got.Columns[i].Cells, got.Columns[j].Cells) {
				t.Errorf("columns %s and %s are identical", got.Columns[i].ID, got.Columns[j].ID)
			}
		}
	}
}

func TestClean_Idempotent(t *testing.T) {
	raw := New(0, nil, [][]string{
		{"Assets", "$", "10", "10", "20", ""},
		{"Cash", "$", "5", "5", "7", ""},
		{"Total", "$", "15", "15", "27", "1"},
	})
	once := Clean(raw, DefaultCleanOptions())
	twice := Clean(once, DefaultCleanOptions())

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second Clean() changed the table (-once +twice):\n%s", diff)
	}
}

func TestClean_IdenticalValueColumnsCollapse(t *testing.T) {
	raw := New(0, nil, [][]string{
		{"", "Three Months Ended", "Three Months Ended", "Three Months Ended"},
		{"", "December 31, 2022", "December 31, 2022", "December 31, 2022"},
		{"Net sales", "117,154", "117,154", "117,154"},
	})
	got := Clean(raw, DefaultCleanOptions())

	if diff := cmp.Diff([]string{"Unnamed: 1"}, columnIDs(got)); diff != "" {
		t.Errorf("Clean() columns mismatch (-want +got):\n%s", diff)
	}
}

func TestClean_DoesNotMutateInput(t *testing.T) {
	raw := New(0, nil, [][]string{
		{"a", "$", "1"},
		{"b", "$", "2"},
		{"c", "$", "3"},
	})
	before := raw.Clone()
	_ = Clean(raw, DefaultCleanOptions())

	if diff := cmp.Diff(before, raw); diff != "" {
		t.Errorf("Clean() mutated its input (-before +after):\n%s", diff)
	}
}

func TestColumnIDs(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		width  int
		want   []string
	}{
		{
			name:   "blank and repeated headers",
			header: []string{"", "2023", "2023", " ", "2023"},
			width:  6,
			want:   []string{"Unnamed: 0", "2023", "2023.1", "Unnamed: 3", "2023.2", "Unnamed: 5"},
		},
		{
			name:   "suffix already used by a later header",
			header: []string{"A", "A", "A.1"},
			width:  3,
			want:   []string{"A", "A.1", "A.1.1"},
		},
		{
			name:   "suffix already used by an earlier header",
			header: []string{"A.1", "A", "A"},
			width:  3,
			want:   []string{"A.1", "A", "A.2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ColumnIDs(tt.header, tt.width)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ColumnIDs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNew_ColumnIndexUniqueAfterSuffixing(t *testing.T) {
	tbl := New(0, []string{"A", "A", "A.1"}, [][]string{{"x", "y", "z"}})
	for i, c := range tbl.Columns {
		if got := tbl.ColumnIndex(c.ID); got != i {
			t.Errorf("ColumnIndex(%q) = %d, want %d", c.ID, got, i)
		}
	}
}
