package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
)

// CSVFormatter writes the extracted table as comma separated values: a
// header line, then one line per observation.
type CSVFormatter struct {
	opts FormatOptions
}

// NewCSVFormatter creates a new CSV formatter with the given options.
func NewCSVFormatter(opts FormatOptions) *CSVFormatter {
	return &CSVFormatter{opts: opts}
}

// Name returns the format name.
func (f *CSVFormatter) Name() string {
	return "csv"
}

// Format renders the report's table as CSV. A table without columns writes
// nothing; a table without rows writes only the header.
func (f *CSVFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	tbl := report.Table()
	if tbl == nil || !tbl.HasSchema() {
		return nil
	}

	if tbl.Len() == 0 {
		cw := csv.NewWriter(w)
		if err := cw.Write(tbl.Columns()); err != nil {
			return fmt.Errorf("writing csv header: %w", err)
		}
		cw.Flush()
		return cw.Error()
	}

	df, err := tbl.TextFrame()
	if err != nil {
		return err
	}
	if err := df.WriteCSV(w); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}
