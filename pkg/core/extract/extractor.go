// Package extract turns a cleaned filing table into a label-keyed document:
// section -> line item -> period label -> value.
//
// The flow per table is Clean -> (BuildSections | flat descriptors) and
// PeriodResolver -> Strategy.Project -> SectionNameSanitizer. Everything here
// is a pure function of the input table, so tables can be processed in
// parallel without coordination.
package extract

import (
	"errors"
	"fmt"
	"log"

	"filing_tables/pkg/core/table"
)

var (
	// ErrTableShapeUnsupported marks a table that cannot be projected. The
	// table is skipped; the batch goes on.
	ErrTableShapeUnsupported = errors.New("table shape unsupported")

	// ErrMalformedPeriodMetadata marks a value column without usable period
	// rows. The column is omitted and a warning recorded on the document.
	ErrMalformedPeriodMetadata = errors.New("malformed period metadata")
)

func unsupported(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrTableShapeUnsupported, fmt.Sprintf(format, args...))
}

// Options configures an Extractor.
type Options struct {
	Clean table.CleanOptions
	// LabelColumn overrides the table's own label column id.
	LabelColumn string
	SpanMarkers []string
	// Strategy is "auto", "flat" or "sectioned".
	Strategy    string
	Corrections []Correction
}

// DefaultOptions matches the layout of a typical 10-Q/10-K filing.
func DefaultOptions() Options {
	return Options{
		Clean:       table.DefaultCleanOptions(),
		SpanMarkers: []string{DefaultSpanMarker},
		Strategy:    StrategyAuto,
		Corrections: DefaultCorrections(),
	}
}

// Extractor is safe for concurrent use; it holds configuration only.
type Extractor struct {
	opts      Options
	strategy  Strategy // nil means detect per table
	periods   *PeriodResolver
	sanitizer *SectionNameSanitizer
}

// NewExtractor validates opts and builds an extractor.
func NewExtractor(opts Options) (*Extractor, error) {
	strategy, err := StrategyByName(opts.Strategy)
	if err != nil {
		return nil, err
	}
	if opts.Clean.MinNonEmpty < 0 {
		return nil, fmt.Errorf("min non-empty cells must not be negative, got %d", opts.Clean.MinNonEmpty)
	}
	return &Extractor{
		opts:      opts,
		strategy:  strategy,
		periods:   NewPeriodResolver(opts.SpanMarkers),
		sanitizer: NewSectionNameSanitizer(opts.Corrections),
	}, nil
}

// Clean applies the configured cleaning rules to a raw table.
func (e *Extractor) Clean(raw *table.Table) *table.Table {
	return table.Clean(raw, e.opts.Clean)
}

// Extract cleans raw and projects it into a document.
func (e *Extractor) Extract(raw *table.Table) (*Document, error) {
	return e.ExtractCleaned(e.Clean(raw))
}

// ExtractCleaned projects an already cleaned table.
func (e *Extractor) ExtractCleaned(t *table.Table) (*Document, error) {
	labelID := t.LabelColumn
	if e.opts.LabelColumn != "" {
		labelID = e.opts.LabelColumn
	}
	if labelID == "" {
		return nil, unsupported("table %d has no label column", t.Index)
	}
	label := t.ColumnIndex(labelID)
	if label < 0 {
		return nil, unsupported("table %d: label column %q did not survive cleaning", t.Index, labelID)
	}
	if len(t.Columns) < 2 {
		return nil, unsupported("table %d has no value columns after cleaning", t.Index)
	}

	labels := t.Columns[label].Cells
	strategy := e.strategy
	if strategy == nil {
		strategy = Detect(labels)
	}
	doc := newDocument(t.Index, strategy.Name())

	// Periods are resolved once per column and shared by every row.
	proj := Projection{Table: t, Label: label}
	for i := range t.Columns {
		if i == label {
			continue
		}
		period, err := e.periods.Resolve(t, i)
		if err != nil {
			log.Printf("[Extractor] Table %d: omitting column: %v", t.Index, err)
			doc.warn(err.Error())
			continue
		}
		doc.Periods = append(doc.Periods, period)
		proj.Columns = append(proj.Columns, ValueColumn{Index: i, Period: period})
	}

	strategy.Project(proj, doc)
	return e.sanitizer.Sanitize(doc), nil
}
