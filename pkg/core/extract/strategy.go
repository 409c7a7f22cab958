package extract

import (
	"fmt"

	"filing_tables/pkg/core/table"
)

// Strategy names, also accepted in configuration.
const (
	StrategyAuto      = "auto"
	StrategyFlat      = "flat"
	StrategySectioned = "sectioned"
)

// Strategy groups row values by label semantics. Flat and Sectioned are the
// two variants; Detect picks one from the table shape.
type Strategy interface {
	Name() string
	Project(p Projection, doc *Document)
}

// Projection is the cleaned table as seen by a strategy: where the labels are
// and which value columns have a resolved period.
type Projection struct {
	Table   *table.Table
	Label   int
	Columns []ValueColumn
}

// ValueColumn is a value column with its resolved period.
type ValueColumn struct {
	Index  int
	Period Period
}

// StrategyByName returns the fixed strategy for name, or nil for "auto".
func StrategyByName(name string) (Strategy, error) {
	switch name {
	case "", StrategyAuto:
		return nil, nil
	case StrategyFlat:
		return Flat{}, nil
	case StrategySectioned:
		return Sectioned{}, nil
	}
	return nil, fmt.Errorf("unknown strategy %q", name)
}

// Detect chooses the strategy for a label column.
//
// A table is flat when its metadata rows ("0" and "1") carry no label, so
// they only describe the columns, and the labelled rows after them form one
// contiguous block. Anything else is sectioned.
func Detect(labels []string) Strategy {
	if len(labels) <= dateRow+1 {
		return Sectioned{}
	}
	for row := periodRow; row <= dateRow; row++ {
		if !table.IsBlank(labels[row]) {
			return Sectioned{}
		}
	}

	seenLabel, gap := false, false
	for _, label := range labels[dateRow+1:] {
		blank := table.IsBlank(label)
		switch {
		case !blank && gap:
			return Sectioned{}
		case !blank:
			seenLabel = true
		case seenLabel:
			gap = true
		}
	}
	if !seenLabel {
		return Sectioned{}
	}
	return Flat{}
}
