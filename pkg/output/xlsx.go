package output

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the worksheet name used when none is configured.
const DefaultSheet = "lamptests"

// XLSXFormatter writes the extracted table as an Excel workbook with one
// worksheet: a frozen header row followed by one row per observation.
type XLSXFormatter struct {
	opts FormatOptions
}

// NewXLSXFormatter creates a new spreadsheet formatter with the given options.
func NewXLSXFormatter(opts FormatOptions) *XLSXFormatter {
	if opts.Sheet == "" {
		opts.Sheet = DefaultSheet
	}
	return &XLSXFormatter{opts: opts}
}

// Name returns the format name.
func (f *XLSXFormatter) Name() string {
	return "xlsx"
}

// Format renders the report's table as a workbook. Measurement columns are
// stored as numbers.
func (f *XLSXFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	wb := excelize.NewFile()
	defer wb.Close()

	sheet := f.opts.Sheet
	if err := wb.SetSheetName(wb.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	if len(report.Columns) > 0 {
		if err := f.writeRows(ctx, wb, sheet, report); err != nil {
			return err
		}
	}

	if err := wb.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func (f *XLSXFormatter) writeRows(ctx context.Context, wb *excelize.File, sheet string, report *Report) error {
	header := make([]any, len(report.Columns))
	for i, c := range report.Columns {
		header[i] = c
	}
	if err := wb.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range report.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := wb.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	return wb.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
