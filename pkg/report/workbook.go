// Package report writes one adjustment workbook per client and drives a full report run.
package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/shunichi-ikebuchi/inventory-adjustment-report/pkg/inventory"
	"github.com/shunichi-ikebuchi/inventory-adjustment-report/pkg/layout"
)

// DefaultSheetName is the first sheet of a new workbook.
const DefaultSheetName = "Sheet1"

// Writer persists one client's rows to path.
type Writer interface {
	WriteReport(path string, rows []inventory.MergedAdjustmentRow, runDate time.Time) error
}

// WorkbookWriter writes .xlsx workbooks whose first sheet holds a header row
// followed by one row per adjustment.
type WorkbookWriter struct {
	sheet  string
	layout layout.Layout
}

// NewWorkbookWriter creates a WorkbookWriter. An empty sheet name keeps Sheet1.
func NewWorkbookWriter(sheet string, l layout.Layout) *WorkbookWriter {
	if sheet == "" {
		sheet = DefaultSheetName
	}
	return &WorkbookWriter{sheet: sheet, layout: l}
}

// WriteReport writes rows to path, replacing any existing file. Document
// properties are pinned to the run date so the same input on the same day
// produces the same bytes.
func (w *WorkbookWriter) WriteReport(path string, rows []inventory.MergedAdjustmentRow, runDate time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if w.sheet != DefaultSheetName {
		if err := f.SetSheetName(DefaultSheetName, w.sheet); err != nil {
			return fmt.Errorf("failed to name sheet: %w", err)
		}
	}

	stamp := time.Date(runDate.Year(), runDate.Month(), runDate.Day(), 0, 0, 0, 0, time.UTC).Format("2006-01-02T15:04:05Z")
	if err := f.SetDocProps(&excelize.DocProperties{
		Creator:        "adjustment-report",
		LastModifiedBy: "adjustment-report",
		Title:          "Inventory Adjustments",
		Created:        stamp,
		Modified:       stamp,
	}); err != nil {
		return fmt.Errorf("failed to set document properties: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	dateFormat := "yyyy-mm-dd hh:mm:ss"
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFormat})
	if err != nil {
		return fmt.Errorf("failed to create date style: %w", err)
	}

	sw, err := f.NewStreamWriter(w.sheet)
	if err != nil {
		return fmt.Errorf("failed to open sheet writer: %w", err)
	}

	headers := w.layout.Headers()
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i, row := range rows {
		values := w.layout.Row(row)
		cells := make([]interface{}, len(values))
		for j, v := range values {
			if t, ok := v.(time.Time); ok {
				cells[j] = excelize.Cell{StyleID: dateStyle, Value: t}
				continue
			}
			cells[j] = v
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	return nil
}
