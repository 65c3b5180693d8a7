package table

import (
	"errors"
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

var (
	// ErrNoSchema is returned when a dataframe is requested for a schema-less table.
	ErrNoSchema = errors.New("table has no columns")

	// ErrNoRows is returned by operations that need at least one row.
	ErrNoRows = errors.New("table has no rows")
)

// DataFrame converts the table into a typed dataframe: dtm, lamp, dtm_ori and
// source are strings, every other column is a float.
func (t *Table) DataFrame() (dataframe.DataFrame, error) {
	if !t.HasSchema() {
		return dataframe.DataFrame{}, ErrNoSchema
	}

	n := len(t.Rows)
	times := make([]string, n)
	lamps := make([]string, n)
	originals := make([]string, n)
	sources := make([]string, n)
	for i, r := range t.Rows {
		times[i] = r.Time.Format(TimeLayout)
		lamps[i] = r.Lamp
		originals[i] = r.Original
		sources[i] = r.Source
	}

	cols := []series.Series{
		series.New(times, series.String, ColTime),
		series.New(lamps, series.String, ColLamp),
	}
	for _, name := range t.NumericColumns() {
		values, err := t.Column(name)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		cols = append(cols, series.New(values, series.Float, name))
	}
	cols = append(cols,
		series.New(originals, series.String, ColOriginal),
		series.New(sources, series.String, ColSource),
	)

	df := dataframe.New(cols...)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("building dataframe: %w", df.Err)
	}
	return df, nil
}

// TextFrame converts the table into a dataframe of strings formatted exactly
// as Records renders them, for lossless text export.
func (t *Table) TextFrame() (dataframe.DataFrame, error) {
	if !t.HasSchema() {
		return dataframe.DataFrame{}, ErrNoSchema
	}
	if t.Len() == 0 {
		return dataframe.DataFrame{}, ErrNoRows
	}
	records := append([][]string{t.Columns()}, t.Records()...)
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("building dataframe: %w", df.Err)
	}
	return df, nil
}

// Describe returns summary statistics (mean, median, stddev, min, quartiles,
// max) for every numeric column, one record per statistic with a header row.
func (t *Table) Describe() ([][]string, error) {
	df, err := t.DataFrame()
	if err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return nil, ErrNoRows
	}
	summary := df.Select(t.NumericColumns()).Describe()
	if summary.Err != nil {
		return nil, fmt.Errorf("describing table: %w", summary.Err)
	}
	return summary.Records(), nil
}
