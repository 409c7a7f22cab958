package extract

import (
	"log"
	"strings"

	"filing_tables/pkg/core/table"
)

// Flat projects single-block statements: every value column becomes its own
// result record, holding descriptor -> period -> value for each labelled row.
type Flat struct{}

// Name implements Strategy.
func (Flat) Name() string { return StrategyFlat }

// Project implements Strategy.
func (Flat) Project(p Projection, doc *Document) {
	labels := p.Table.Columns[p.Label].Cells

	for _, vc := range p.Columns {
		record := ResultName(p.Table.Columns[vc.Index].ID)
		doc.openSection(record)
		for row, descriptor := range labels {
			if table.IsBlank(descriptor) {
				continue
			}
			value := p.Table.Cell(vc.Index, row)
			if table.IsBlank(value) {
				continue
			}
			if doc.set(record, descriptor, vc.Period.Label, value) {
				log.Printf("[Extractor] Table %d: descriptor %q appears twice in %s, keeping the later value",
					doc.Table, descriptor, record)
			}
		}
	}
}

// ResultName names the result record of a value column: "Unnamed: 3"
// becomes "Result: 3". Other ids are prefixed with "Result: ".
func ResultName(columnID string) string {
	if strings.HasPrefix(columnID, "Unnamed") {
		return strings.Replace(columnID, "Unnamed", "Result", 1)
	}
	return "Result: " + columnID
}
