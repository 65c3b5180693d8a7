// Package extractor turns a standard lamp test log into a normalized table.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/ccollicutt/lamptest/pkg/parser"
	"github.com/ccollicutt/lamptest/pkg/source"
	"github.com/ccollicutt/lamptest/pkg/table"
)

// KindCanceled means the context was canceled before extraction finished.
const KindCanceled Kind = "canceled"

// Extractor reads one input at a time. It holds no per-call state, so a
// single Extractor may serve concurrent calls on different inputs.
type Extractor struct {
	reader     *source.Reader
	scanner    *parser.Scanner
	timestamps *parser.TimestampParser
	logger     *slog.Logger
	progress   io.Writer

	removeDuplicates bool
	verbose          bool
	strictLabels     bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithReader sets the input reader.
func WithReader(r *source.Reader) Option {
	return func(e *Extractor) {
		if r != nil {
			e.reader = r
		}
	}
}

// WithLocation sets the time zone the naive log timestamps are read in.
func WithLocation(loc *time.Location) Option {
	return func(e *Extractor) {
		e.timestamps = parser.NewTimestampParser(loc)
	}
}

// WithRemoveDuplicates enables or disables near-duplicate removal (default on).
func WithRemoveDuplicates(v bool) Option {
	return func(e *Extractor) {
		e.removeDuplicates = v
	}
}

// WithVerbose enables progress output and informational logging (default on).
func WithVerbose(v bool) Option {
	return func(e *Extractor) {
		e.verbose = v
	}
}

// WithProgress sets where verbose progress lines are printed.
func WithProgress(w io.Writer) Option {
	return func(e *Extractor) {
		if w != nil {
			e.progress = w
		}
	}
}

// WithStrictLabels makes label differences between entries a failure instead
// of a warning.
func WithStrictLabels(v bool) Option {
	return func(e *Extractor) {
		e.strictLabels = v
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		reader:           source.NewReader(),
		scanner:          parser.NewScanner(),
		timestamps:       parser.NewTimestampParser(time.UTC),
		logger:           slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})),
		progress:         io.Discard,
		removeDuplicates: true,
		verbose:          true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract is shorthand for New(opts...).Extract(ctx, location).
func Extract(ctx context.Context, location string, opts ...Option) *Result {
	return New(opts...).Extract(ctx, location)
}

// Extract reads location and returns the normalized table. It never panics
// and never returns nil; failures are reported through Result.Kind and
// Result.Err.
func (e *Extractor) Extract(ctx context.Context, location string) (res *Result) {
	res = &Result{Source: location, StartTime: time.Now()}
	defer func() {
		if p := recover(); p != nil {
			e.fail(res, KindInternal, fmt.Errorf("unexpected failure: %v", p))
		}
		res.EndTime = time.Now()
	}()

	if e.verbose {
		fmt.Fprintf(e.progress, "Extracting from file %s ...\n", location)
		e.logger.Info("extracting", slog.String("source", location))
	}

	text, err := e.reader.ReadAll(ctx, location)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return e.fail(res, KindCanceled, err)
		}
		return e.fail(res, KindIO, err)
	}

	scan, err := e.scanner.Scan(ctx, text)
	if err != nil {
		return e.fail(res, KindCanceled, err)
	}
	res.LinesScanned = scan.Lines
	res.Entries = len(scan.Entries)
	res.Diagnostics = scan.Diagnostics
	for _, d := range scan.Diagnostics {
		e.logger.Debug("rejected entry",
			slog.String("source", location),
			slog.Int("line", d.Line),
			slog.String("field", string(d.Field)),
			slog.String("reason", d.Reason))
	}

	if len(scan.Entries) == 0 {
		e.logger.Warn("no data recognized",
			slog.String("source", location),
			slog.Int("rejected", len(scan.Diagnostics)))
		res.Kind = KindEmpty
		res.Table = table.Empty()
		return res
	}

	tbl, mismatched := e.buildTable(scan.Entries, location, res)
	if mismatched > 0 {
		e.logger.Warn("test labels differ from first entry",
			slog.String("source", location),
			slog.Int("entries", mismatched),
			slog.Any("columns_from", tbl.Labels()))
		if e.strictLabels {
			return e.fail(res, KindLabels,
				fmt.Errorf("%d entries have test labels different from %v", mismatched, tbl.Labels()))
		}
	}

	if e.removeDuplicates {
		res.DuplicatesRemoved = tbl.RemoveDuplicates()
		if res.DuplicatesRemoved > 0 && e.verbose {
			e.logger.Info("duplicate records removed",
				slog.String("source", location),
				slog.Int("count", res.DuplicatesRemoved))
		}
	}

	for i := range tbl.Rows {
		ts, err := e.timestamps.Parse(tbl.Rows[i].Original)
		if err != nil {
			return e.fail(res, KindTimestamp, err)
		}
		tbl.Rows[i].Time = ts
	}
	tbl.SortByTime()

	res.Kind = KindOK
	res.Table = tbl
	if e.verbose {
		e.logger.Info("extraction complete",
			slog.String("source", location),
			slog.Int("rows", tbl.Len()),
			slog.Int("rejected", len(res.Diagnostics)))
	}
	return res
}

// buildTable names the columns after the first entry's labels and converts
// every entry into a row. Entries whose labels differ are still converted
// but recorded as diagnostics.
func (e *Extractor) buildTable(entries []parser.Entry, location string, res *Result) (*table.Table, int) {
	labels := entries[0].Labels()
	tbl := table.New(labels)
	tbl.Rows = make([]table.Row, 0, len(entries))

	mismatched := 0
	for i := range entries {
		entry := &entries[i]
		if got := entry.Labels(); got != labels {
			mismatched++
			res.Diagnostics = append(res.Diagnostics, parser.Diagnostic{
				Line:   entry.Line,
				Field:  parser.FieldLabel,
				Reason: fmt.Sprintf("test labels %v differ from first entry %v", got, labels),
			})
		}

		r := table.Row{
			Original:    entry.Timestamp,
			Lamp:        entry.Lamp,
			Temperature: entry.Temperature,
			Source:      location,
		}
		for b, block := range entry.Blocks {
			r.Tests[b] = table.Measurement{Label: block.Label, Values: block.Values}
		}
		tbl.Rows = append(tbl.Rows, r)
	}
	return tbl, mismatched
}

func (e *Extractor) fail(res *Result, kind Kind, err error) *Result {
	res.Kind = kind
	res.Err = err
	res.Table = nil
	e.logger.Error("extraction failed",
		slog.String("source", res.Source),
		slog.String("kind", string(kind)),
		slog.Any("error", err))
	return res
}
