// Package table holds the normalized standard lamp test table.
package table

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Fixed column names.
const (
	ColTime        = "dtm"
	ColLamp        = "lamp"
	ColTemperature = "T"
	ColOriginal    = "dtm_ori"
	ColSource      = "source"
)

// TimeLayout is used when the dtm column is rendered as text.
const TimeLayout = "2006-01-02 15:04:05"

// Suffixes are appended to a test label to name its value columns, in the
// order the values appear in a test block.
var Suffixes = [7]string{"_1", "_2", "_3", "_mean", "_N", "_N_ref", "_dN"}

// ErrUnknownColumn is returned when a column name is not in the table.
var ErrUnknownColumn = errors.New("unknown column")

// Measurement is one test block of a row.
type Measurement struct {
	// Label is the block label this measurement was read under.
	Label string

	// Values holds value1, value2, value3, mean, N, N_ref and dN.
	Values [7]float64
}

// Row is one observation.
type Row struct {
	Time        time.Time
	Original    string
	Lamp        string
	Temperature float64
	Tests       [3]Measurement
	Source      string
}

// Table is the normalized result for one input. A table without labels has
// no schema at all, which is how an input without entries is represented.
type Table struct {
	labels []string
	Rows   []Row
}

// New creates an empty table whose value columns are named after labels.
func New(labels [3]string) *Table {
	return &Table{labels: labels[:]}
}

// Empty returns a schema-less table.
func Empty() *Table {
	return &Table{}
}

// Labels returns the test labels that name the value columns.
func (t *Table) Labels() []string {
	return append([]string(nil), t.labels...)
}

// HasSchema reports whether the table has columns.
func (t *Table) HasSchema() bool {
	return len(t.labels) > 0
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Columns returns the column names in output order.
func (t *Table) Columns() []string {
	if !t.HasSchema() {
		return nil
	}
	cols := []string{ColTime, ColLamp, ColTemperature}
	cols = append(cols, t.ValueColumns()...)
	return append(cols, ColOriginal, ColSource)
}

// ValueColumns returns the per-label measurement column names.
func (t *Table) ValueColumns() []string {
	cols := make([]string, 0, len(t.labels)*len(Suffixes))
	for _, label := range t.labels {
		for _, suffix := range Suffixes {
			cols = append(cols, label+suffix)
		}
	}
	return cols
}

// NumericColumns returns every column holding numbers.
func (t *Table) NumericColumns() []string {
	if !t.HasSchema() {
		return nil
	}
	return append([]string{ColTemperature}, t.ValueColumns()...)
}

// Column returns the values of a numeric column in row order.
func (t *Table) Column(name string) ([]float64, error) {
	if name == ColTemperature && t.HasSchema() {
		out := make([]float64, len(t.Rows))
		for i, r := range t.Rows {
			out[i] = r.Temperature
		}
		return out, nil
	}

	block, value, ok := t.locate(name)
	if !ok {
		return nil, fmt.Errorf("%w %q (have %s)", ErrUnknownColumn, name, strings.Join(t.NumericColumns(), ", "))
	}
	out := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Tests[block].Values[value]
	}
	return out, nil
}

// locate maps a value column name to its block and value index. Labels
// repeated within a row resolve to the first block carrying the label.
func (t *Table) locate(name string) (int, int, bool) {
	for b, label := range t.labels {
		for v, suffix := range Suffixes {
			if label+suffix == name {
				return b, v, true
			}
		}
	}
	return 0, 0, false
}

// Records returns the rows as text in Columns order.
func (t *Table) Records() [][]string {
	records := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		records = append(records, t.record(r))
	}
	return records
}

func (t *Table) record(r Row) []string {
	rec := make([]string, 0, 5+len(t.labels)*len(Suffixes))
	rec = append(rec, r.Time.Format(TimeLayout), r.Lamp, FormatFloat(r.Temperature))
	for b := range t.labels {
		for _, v := range r.Tests[b].Values {
			rec = append(rec, FormatFloat(v))
		}
	}
	return append(rec, r.Original, r.Source)
}

// FormatFloat renders a value with the fewest digits that round-trip.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// rowKey identifies a row on every column except dtm and dtm_ori.
type rowKey struct {
	lamp        string
	temperature float64
	values      [3][7]float64
	source      string
}

// RemoveDuplicates drops rows equal to an earlier row on every column except
// dtm and dtm_ori, keeping the first occurrence. It returns the number of
// rows removed.
func (t *Table) RemoveDuplicates() int {
	seen := make(map[rowKey]bool, len(t.Rows))
	kept := t.Rows[:0]
	for _, r := range t.Rows {
		key := rowKey{lamp: r.Lamp, temperature: r.Temperature, source: r.Source}
		for b := range r.Tests {
			key.values[b] = r.Tests[b].Values
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, r)
	}
	removed := len(t.Rows) - len(kept)
	t.Rows = kept
	return removed
}

// SortByTime orders rows ascending by dtm. Rows with equal times keep their
// relative order.
func (t *Table) SortByTime() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		return t.Rows[i].Time.Before(t.Rows[j].Time)
	})
}
