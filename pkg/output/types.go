// Package output provides formatting and output generation for extraction results.
package output

import (
	"time"

	"github.com/ccollicutt/lamptest/pkg/extractor"
	"github.com/ccollicutt/lamptest/pkg/table"
)

// Report is the complete extraction output.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary `json:"summary" yaml:"summary"`

	// Columns lists the table columns in output order. Empty when nothing
	// was extracted.
	Columns []string `json:"columns" yaml:"columns"`

	// Rows holds one record per observation in Columns order. Text columns
	// are strings and measurement columns are numbers.
	Rows [][]any `json:"rows" yaml:"rows"`

	// Diagnostics lists rejected candidate entries and label inconsistencies.
	Diagnostics []Diagnostic `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`

	// Metadata provides context about the extraction.
	Metadata Metadata `json:"metadata" yaml:"metadata"`

	table *table.Table
}

// Summary provides aggregate statistics.
type Summary struct {
	// Outcome is the extraction result kind (ok, empty, io, ...).
	Outcome string `json:"outcome" yaml:"outcome"`

	// Error describes the failure for outcomes other than ok and empty.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// Entries is the number of well-formed entries found.
	Entries int `json:"entries" yaml:"entries"`

	// Rows is the number of rows in the final table.
	Rows int `json:"rows" yaml:"rows"`

	// DuplicatesRemoved is the number of near-duplicate rows dropped.
	DuplicatesRemoved int `json:"duplicates_removed" yaml:"duplicates_removed"`

	// Rejected is the number of diagnostics.
	Rejected int `json:"rejected" yaml:"rejected"`

	// LinesScanned is the number of input lines examined.
	LinesScanned int `json:"lines_scanned" yaml:"lines_scanned"`
}

// Diagnostic is a rejected entry or label inconsistency.
type Diagnostic struct {
	Line   int    `json:"line" yaml:"line"`
	Field  string `json:"field" yaml:"field"`
	Reason string `json:"reason" yaml:"reason"`
}

// Metadata provides context about the extraction run.
type Metadata struct {
	// ConfigFile is the path to the configuration file used, if any.
	ConfigFile string `json:"config_file,omitempty" yaml:"config_file,omitempty"`

	// Source is the extracted path or URL.
	Source string `json:"source" yaml:"source"`

	// Labels are the test labels naming the value columns.
	Labels []string `json:"labels,omitempty" yaml:"labels,omitempty"`

	// TimeRange spans the first and last observation, if any.
	TimeRange *TimeRange `json:"time_range,omitempty" yaml:"time_range,omitempty"`

	// ExtractedAt is when the extraction finished.
	ExtractedAt time.Time `json:"extracted_at" yaml:"extracted_at"`

	// Duration is how long the extraction took.
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// TimeRange represents the span of observations.
type TimeRange struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// NewReport creates a Report from an extraction result.
func NewReport(result *extractor.Result, configFile string) *Report {
	report := &Report{
		Columns: []string{},
		Rows:    [][]any{},
		Summary: Summary{
			Outcome:           string(result.Kind),
			Entries:           result.Entries,
			Rows:              result.Rows(),
			DuplicatesRemoved: result.DuplicatesRemoved,
			Rejected:          len(result.Diagnostics),
			LinesScanned:      result.LinesScanned,
		},
		Metadata: Metadata{
			ConfigFile:  configFile,
			Source:      result.Source,
			ExtractedAt: result.EndTime,
			Duration:    result.Duration(),
		},
		table: result.Table,
	}

	if result.Err != nil {
		report.Summary.Error = result.Err.Error()
	}

	for _, d := range result.Diagnostics {
		report.Diagnostics = append(report.Diagnostics, Diagnostic{
			Line:   d.Line,
			Field:  string(d.Field),
			Reason: d.Reason,
		})
	}

	tbl := result.Table
	if tbl == nil || !tbl.HasSchema() {
		return report
	}

	report.Columns = tbl.Columns()
	report.Metadata.Labels = tbl.Labels()
	for _, r := range tbl.Rows {
		report.Rows = append(report.Rows, rowValues(tbl, r))
	}
	if n := tbl.Len(); n > 0 {
		report.Metadata.TimeRange = &TimeRange{
			Start: tbl.Rows[0].Time,
			End:   tbl.Rows[n-1].Time,
		}
	}

	return report
}

// Table returns the extracted table, nil when extraction failed.
func (r *Report) Table() *table.Table {
	return r.table
}

// Failed reports whether the extraction failed.
func (r *Report) Failed() bool {
	return r.Summary.Outcome != string(extractor.KindOK) && r.Summary.Outcome != string(extractor.KindEmpty)
}

// rowValues renders a row in column order with typed cells.
func rowValues(tbl *table.Table, r table.Row) []any {
	values := make([]any, 0, len(tbl.Columns()))
	values = append(values, r.Time.Format(table.TimeLayout), r.Lamp, r.Temperature)
	for b := range tbl.Labels() {
		for _, v := range r.Tests[b].Values {
			values = append(values, v)
		}
	}
	return append(values, r.Original, r.Source)
}
