package extract

import (
	"fmt"
	"regexp"
	"strings"

	"filing_tables/pkg/core/table"
)

// DefaultSpanMarker introduces a multi-month span whose date sits one row
// below it.
const DefaultSpanMarker = "Three Months Ended"

// Rows "0" and "1" of a value column carry its period metadata.
const (
	periodRow = 0
	dateRow   = 1
)

// datePattern matches fully specified dates such as "December 31, 2022".
var datePattern = regexp.MustCompile(`^[A-Za-z]+ \d{1,2}, \d{4}$`)

// LooksLikeDate reports whether s has the "Month D, YYYY" shape.
func LooksLikeDate(s string) bool {
	return datePattern.MatchString(strings.TrimSpace(s))
}

// Period identifies the reporting period of one value column.
type Period struct {
	Column  string `json:"column"`
	Label   string `json:"label"`
	Quarter string `json:"quarter,omitempty"`
	Date    string `json:"date,omitempty"`
}

// PeriodResolver derives period labels from the leading rows of a column.
type PeriodResolver struct {
	spanMarkers []string
}

// NewPeriodResolver creates a resolver. With no markers it falls back to
// DefaultSpanMarker.
func NewPeriodResolver(spanMarkers []string) *PeriodResolver {
	if len(spanMarkers) == 0 {
		spanMarkers = []string{DefaultSpanMarker}
	}
	return &PeriodResolver{spanMarkers: spanMarkers}
}

// Resolve computes the period of column col. It is pure: the same column of
// the same table always yields the same Period.
//
// When row "0" contains a span marker the label is "<row 0> <row 1>"
// ("Three Months Ended December 31, 2022"); otherwise it is row "0" as-is.
// Missing metadata yields ErrMalformedPeriodMetadata.
func (r *PeriodResolver) Resolve(t *table.Table, col int) (Period, error) {
	if col < 0 || col >= len(t.Columns) {
		return Period{}, fmt.Errorf("%w: no column at position %d", ErrMalformedPeriodMetadata, col)
	}

	p := Period{Column: t.Columns[col].ID}
	first := strings.TrimSpace(t.Cell(col, periodRow))
	second := strings.TrimSpace(t.Cell(col, dateRow))

	if first == "" {
		return p, fmt.Errorf("%w: column %q has no period in row %s",
			ErrMalformedPeriodMetadata, p.Column, table.RowKey(periodRow))
	}

	if r.hasSpanMarker(first) {
		if second == "" {
			return p, fmt.Errorf("%w: column %q has span %q but no date in row %s",
				ErrMalformedPeriodMetadata, p.Column, first, table.RowKey(dateRow))
		}
		p.Label = first + " " + second
		p.Quarter = first
		p.Date = second
		return p, nil
	}

	p.Label = first
	switch {
	case LooksLikeDate(first):
		p.Date = first
	case second != "":
		p.Quarter = first
		p.Date = second
	}
	return p, nil
}

func (r *PeriodResolver) hasSpanMarker(s string) bool {
	for _, m := range r.spanMarkers {
		if m != "" && strings.Contains(s, m) {
			return true
		}
	}
	return false
}
