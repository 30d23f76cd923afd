package portal

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// Export is a rendered spreadsheet of the current table.
type Export struct {
	Filename string
	Rows     int
}

// ExportContentType is the media type of the XLSX export.
const ExportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportTable writes the filtered and sorted rows of the current table as an
// XLSX workbook to out. Numeric columns keep their numeric value, every other
// column is written as displayed.
func (w *Workspace) ExportTable(ctx context.Context, out io.Writer) (Export, error) {
	w.mu.Lock()
	def := w.def
	columns := w.engine.Columns()
	records := w.engine.Filtered()
	session := w.session
	w.mu.Unlock()

	if !def.Tabular || len(columns) == 0 {
		return Export{}, fmt.Errorf("%w: %s is not a table", ErrUnknownSection, def.ID)
	}
	if err := WriteWorkbook(out, def.Title, columns, records, w.svc.opts.Formatter); err != nil {
		w.toasts.Error(MessageExportFailed)
		return Export{}, err
	}
	export := Export{
		Filename: fmt.Sprintf("%s_%s.xlsx", def.ID, time.Now().Format("20060102")),
		Rows:     len(records),
	}
	w.svc.opts.Telemetry.Record(ctx, EventTableExport, map[string]any{
		"section": string(def.ID),
		"rows":    export.Rows,
	})
	w.svc.opts.Activity.Record(ctx, session, "export", "section", string(def.ID), map[string]any{"rows": export.Rows})
	return export, nil
}

// WriteWorkbook renders records under columns into a single-sheet workbook.
func WriteWorkbook(out io.Writer, sheet string, columns []Column, records []Record, f *Formatter) error {
	if f == nil {
		f = NewFormatter()
	}
	if sheet == "" {
		sheet = "Sheet1"
	}
	book := excelize.NewFile()
	defer book.Close()
	if err := book.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("portal: export: %w", err)
	}

	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = col.Label
	}
	if err := book.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("portal: export header: %w", err)
	}
	if style, err := book.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil && len(columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(columns), 1)
		_ = book.SetCellStyle(sheet, "A1", last, style)
	}

	for r, rec := range records {
		row := make([]any, len(columns))
		for i, col := range columns {
			row[i] = exportValue(f, col, rec)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return fmt.Errorf("portal: export row %d: %w", r+1, err)
		}
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("portal: export row %d: %w", r+1, err)
		}
	}
	if _, err := book.WriteTo(out); err != nil {
		return fmt.Errorf("portal: export write: %w", err)
	}
	return nil
}

func exportValue(f *Formatter, col Column, rec Record) any {
	raw, ok := rec.Value(col.Key)
	if !ok || raw == nil {
		return ""
	}
	switch col.Type {
	case ColumnNumber, ColumnCurrency:
		if v, ok := numericValue(raw); ok {
			return v
		}
	}
	return f.FormatCell(col, rec)
}
