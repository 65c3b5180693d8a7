package output

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ccollicutt/lamptest/pkg/table"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	if report.Failed() {
		fmt.Fprintf(w, "lamptest: %s failed (%s): %s\n",
			report.Metadata.Source, report.Summary.Outcome, report.Summary.Error)
		return nil
	}
	fmt.Fprintf(w, "lamptest: %d rows from %s, %d duplicates removed, %d rejected\n",
		report.Summary.Rows,
		report.Metadata.Source,
		report.Summary.DuplicatesRemoved,
		report.Summary.Rejected)
	return nil
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	// Header
	fmt.Fprintln(w, "=== Standard Lamp Tests ===")
	fmt.Fprintf(w, "Source: %s\n", report.Metadata.Source)
	if len(report.Metadata.Labels) > 0 {
		fmt.Fprintf(w, "Labels: %s\n", strings.Join(report.Metadata.Labels, " "))
	}
	if tr := report.Metadata.TimeRange; tr != nil {
		fmt.Fprintf(w, "Period: %s to %s\n", tr.Start.Format(table.TimeLayout), tr.End.Format(table.TimeLayout))
	}
	fmt.Fprintln(w)

	switch {
	case report.Failed():
		fmt.Fprintf(w, "Extraction failed (%s): %s\n", report.Summary.Outcome, report.Summary.Error)
	case len(report.Rows) == 0:
		fmt.Fprintln(w, "  No data recognized")
	default:
		if err := f.formatRows(report, w); err != nil {
			return err
		}
	}
	fmt.Fprintln(w)

	if f.opts.Verbose && len(report.Diagnostics) > 0 {
		fmt.Fprintf(w, "Rejected: %d\n", len(report.Diagnostics))
		for _, d := range report.Diagnostics {
			fmt.Fprintf(w, "  - line %d: %s: %s\n", d.Line, d.Field, d.Reason)
		}
		fmt.Fprintln(w)
	}

	// Summary
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d entries, %d rows, %d duplicates removed, %d rejected\n",
		report.Summary.Entries,
		report.Summary.Rows,
		report.Summary.DuplicatesRemoved,
		report.Summary.Rejected)

	if f.opts.Verbose {
		fmt.Fprintf(w, "Lines scanned: %d\n", report.Summary.LinesScanned)
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
	}

	return nil
}

// formatRows prints the table. Without verbose only the time, lamp,
// temperature and the per-label mean and dN columns are shown.
func (f *TextFormatter) formatRows(report *Report, w io.Writer) error {
	indexes := f.visibleColumns(report.Columns)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	header := make([]string, len(indexes))
	for i, idx := range indexes {
		header[i] = report.Columns[idx]
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, row := range report.Rows {
		cells := make([]string, len(indexes))
		for i, idx := range indexes {
			cells[i] = cellText(row[idx])
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func (f *TextFormatter) visibleColumns(columns []string) []int {
	indexes := make([]int, 0, len(columns))
	for i, name := range columns {
		if f.opts.Verbose || isSummaryColumn(name) {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

func isSummaryColumn(name string) bool {
	switch name {
	case table.ColTime, table.ColLamp, table.ColTemperature:
		return true
	}
	return strings.HasSuffix(name, "_mean") || strings.HasSuffix(name, "_dN")
}

func cellText(v any) string {
	if f, ok := v.(float64); ok {
		return table.FormatFloat(f)
	}
	return fmt.Sprint(v)
}
