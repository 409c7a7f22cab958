package extract

import (
	"log"

	"filing_tables/pkg/core/table"
)

// SectionSpan is one section found in the label column: the row that opened
// it and the rows that belong to it as line items.
type SectionSpan struct {
	Name   string
	Header int
	Rows   []int
}

type rowRole int

const (
	roleIgnored rowRole = iota // blank label, no section open
	roleOpen                   // label with no section open
	roleItem                   // label inside an open section
	roleClose                  // blank label closing the open section
)

// scanState is the accumulator of the section fold.
type scanState struct {
	open    bool
	section string
}

// step advances the fold by one label. A label opens a section when none is
// open and is a line item otherwise; a blank label closes the open section.
func (s scanState) step(label string) (scanState, rowRole) {
	if table.IsBlank(label) {
		if s.open {
			return scanState{}, roleClose
		}
		return s, roleIgnored
	}
	if !s.open {
		return scanState{open: true, section: label}, roleOpen
	}
	return s, roleItem
}

// BuildSections partitions rows into sections by folding over the label
// column. Rows before the first section and blank rows belong to none; a
// section still open at the last row is kept.
func BuildSections(labels []string) []SectionSpan {
	var spans []SectionSpan
	state := scanState{}
	for row, label := range labels {
		var role rowRole
		state, role = state.step(label)
		switch role {
		case roleOpen:
			spans = append(spans, SectionSpan{Name: label, Header: row})
		case roleItem:
			last := &spans[len(spans)-1]
			last.Rows = append(last.Rows, row)
		}
	}
	return spans
}

// Sectioned projects multi-section statements such as balance sheets:
// section -> line item -> period -> value.
type Sectioned struct{}

// Name implements Strategy.
func (Sectioned) Name() string { return StrategySectioned }

// Project implements Strategy.
func (Sectioned) Project(p Projection, doc *Document) {
	labels := p.Table.Columns[p.Label].Cells
	for _, span := range BuildSections(labels) {
		doc.openSection(span.Name)
		for _, row := range span.Rows {
			item := labels[row]
			for _, vc := range p.Columns {
				value := p.Table.Cell(vc.Index, row)
				if table.IsBlank(value) {
					continue
				}
				if doc.set(span.Name, item, vc.Period.Label, value) {
					log.Printf("[Extractor] Table %d: %q / %q / %q set twice, keeping the later value",
						doc.Table, span.Name, item, vc.Period.Label)
				}
			}
		}
	}
}
