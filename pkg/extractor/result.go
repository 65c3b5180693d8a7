package extractor

import (
	"time"

	"github.com/ccollicutt/lamptest/pkg/parser"
	"github.com/ccollicutt/lamptest/pkg/table"
)

// Kind classifies the outcome of an extraction.
type Kind string

const (
	// KindOK means at least one row was extracted.
	KindOK Kind = "ok"

	// KindEmpty means no entry matched; the table is empty and schema-less.
	KindEmpty Kind = "empty"

	// KindIO means the input could not be read or fetched.
	KindIO Kind = "io"

	// KindTimestamp means a dtm_ori value could not be parsed; the whole
	// input is discarded.
	KindTimestamp Kind = "timestamp"

	// KindLabels means strict label checking found entries whose test labels
	// differ from the first entry's.
	KindLabels Kind = "labels"

	// KindInternal means an unexpected failure was recovered.
	KindInternal Kind = "internal"
)

// Result is the outcome of extracting one input.
type Result struct {
	// Kind classifies the outcome.
	Kind Kind

	// Table is populated for KindOK and KindEmpty, nil otherwise.
	Table *table.Table

	// Err is the underlying failure for kinds other than KindOK and KindEmpty.
	Err error

	// Source is the path or URL that was extracted.
	Source string

	// Entries is the number of well-formed entries found, before deduplication.
	Entries int

	// DuplicatesRemoved is the number of near-duplicate rows dropped.
	DuplicatesRemoved int

	// Diagnostics lists rejected candidate entries and label inconsistencies.
	Diagnostics []parser.Diagnostic

	// LinesScanned is the number of input lines examined.
	LinesScanned int

	// StartTime and EndTime bracket the extraction.
	StartTime time.Time
	EndTime   time.Time
}

// OK reports whether the extraction succeeded, including the empty case.
func (r *Result) OK() bool {
	return r.Kind == KindOK || r.Kind == KindEmpty
}

// Duration returns how long the extraction took.
func (r *Result) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// Rows returns the number of rows in the table, or 0 on failure.
func (r *Result) Rows() int {
	if r.Table == nil {
		return 0
	}
	return r.Table.Len()
}
