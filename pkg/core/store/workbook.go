package store

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"filing_tables/pkg/core/extract"

	"github.com/xuri/excelize/v2"
)

var workbookHeader = []interface{}{"Section", "Line item", "Period", "Value"}

// WorkbookSink collects documents and writes them as one .xlsx file, one
// sheet per table in long form (section, line item, period, value).
type WorkbookSink struct {
	mu   sync.Mutex
	docs map[int]*extract.Document
}

// NewWorkbookSink creates an empty sink.
func NewWorkbookSink() *WorkbookSink {
	return &WorkbookSink{docs: make(map[int]*extract.Document)}
}

// WriteDocument keeps doc until Save.
func (w *WorkbookSink) WriteDocument(_ context.Context, _ string, doc *extract.Document) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.docs[doc.Table] = doc
	return nil
}

// SheetName names the sheet of a table.
func SheetName(index int) string {
	return fmt.Sprintf("Table %d", index)
}

// Save writes every collected document to path, sheets ordered by table
// index. Nothing is written when no document was collected.
func (w *WorkbookSink) Save(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.docs) == 0 {
		log.Printf("[Workbook] No documents, skipping %s", path)
		return nil
	}

	indexes := make([]int, 0, len(w.docs))
	for idx := range w.docs {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	f := excelize.NewFile()
	defer f.Close()

	for i, idx := range indexes {
		sheet := SheetName(idx)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return fmt.Errorf("failed to name sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", sheet, err)
		}
		if err := writeSheet(f, sheet, w.docs[idx]); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	log.Printf("[Workbook] Wrote %d sheets to %s", len(indexes), path)
	return nil
}

func writeSheet(f *excelize.File, sheet string, doc *extract.Document) error {
	if err := f.SetSheetRow(sheet, "A1", &workbookHeader); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", sheet, err)
	}

	row := 2
	for _, section := range doc.Sections.Keys() {
		for _, item := range doc.Items(section) {
			for _, period := range doc.PeriodLabels(section, item) {
				value, _ := doc.Value(section, item, period)
				cell, err := excelize.CoordinatesToCellName(1, row)
				if err != nil {
					return err
				}
				values := []interface{}{section, item, period, value}
				if err := f.SetSheetRow(sheet, cell, &values); err != nil {
					return fmt.Errorf("failed to write row %d of %s: %w", row, sheet, err)
				}
				row++
			}
		}
	}
	return nil
}
