package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"github.com/ccollicutt/lamptest/pkg/config"
	"github.com/ccollicutt/lamptest/pkg/extractor"
	"github.com/ccollicutt/lamptest/pkg/output"
	"github.com/ccollicutt/lamptest/pkg/plot"
	"github.com/ccollicutt/lamptest/pkg/store"
	"github.com/ccollicutt/lamptest/pkg/table"
)

// PlotOptions holds command-line options for the plot command.
type PlotOptions struct {
	Column string
	Out    string
	Width  string
	Height string
	Title  string
	CSV    string
	FromDB string
}

// NewPlotCommand creates the plot command.
func NewPlotCommand(g *GlobalOptions) *cobra.Command {
	opts := &PlotOptions{}

	cmd := &cobra.Command{
		Use:   "plot <file-or-url>",
		Short: "Plot one column of the extracted table against time",
		Long: `Extract standard lamp test records and plot one numeric column against dtm.

The image format follows the --out extension (png, svg, pdf, jpg, eps, tex, tif).
The default column is the mean of the first test label, e.g. A_mean.

With --from-db the argument names an archived source and the rows are read
from that SQLite archive instead of being extracted again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlot(cmd, args, g, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Column, "column", "", "Column to plot (default <first label>_mean)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Image file to write")
	cmd.Flags().StringVar(&opts.Width, "width", "", "Image width, e.g. 16cm or 6in")
	cmd.Flags().StringVar(&opts.Height, "height", "", "Image height, e.g. 8cm or 3in")
	cmd.Flags().StringVar(&opts.Title, "title", "", "Plot title")
	cmd.Flags().StringVar(&opts.CSV, "csv", "", "Also write the plotted table as CSV")
	cmd.Flags().StringVar(&opts.FromDB, "from-db", "", "Read rows from a SQLite archive")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runPlot(cmd *cobra.Command, args []string, g *GlobalOptions, opts *PlotOptions) error {
	location := args[0]
	ctx := commandContext(cmd.Context())

	cfg, err := loadConfig(ctx, g)
	if err != nil {
		return err
	}
	plotOpts, err := plotOptions(cfg, opts)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	plotOpts = append(plotOpts, plot.WithLogger(logger))

	var (
		tbl    *table.Table
		report *output.Report
	)
	if opts.FromDB != "" {
		tbl, err = loadArchived(ctx, opts.FromDB, location)
		if err != nil {
			return err
		}
	} else {
		result := newExtractor(cfg, logger, cmd.ErrOrStderr()).Extract(ctx, location)
		report = output.NewReport(result, g.ConfigPath)
		if report.Failed() {
			fmt.Fprintf(cmd.ErrOrStderr(), "Extraction failed (%s): %s\n", report.Summary.Outcome, report.Summary.Error)
			ExitCode = 1
			return nil
		}
		tbl = report.Table()
	}

	p := plot.New(plotOpts...)
	if err := p.Plot(tbl, opts.Out); err != nil {
		if errors.Is(err, plot.ErrNoData) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Nothing to plot: %s has no rows\n", location)
			ExitCode = 1
			return nil
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Plotted %s (%d points) to %s\n", p.Column(tbl), tbl.Len(), opts.Out)

	if opts.CSV != "" {
		if report == nil {
			report = output.NewReport(archivedResult(tbl, location), g.ConfigPath)
		}
		if err := writeReport(ctx, output.NewCSVFormatter(output.FormatOptions{}), report, opts.CSV, cmd.OutOrStdout()); err != nil {
			return err
		}
		logger.Info("table written", slog.String("path", opts.CSV), slog.Int("rows", tbl.Len()))
	}

	return nil
}

// plotOptions merges the plot section of the config with command-line flags.
func plotOptions(cfg *config.Config, opts *PlotOptions) ([]plot.Option, error) {
	width, height := cfg.Plot.Size()
	if opts.Width != "" {
		w, err := parseLength("width", opts.Width)
		if err != nil {
			return nil, err
		}
		width = w
	}
	if opts.Height != "" {
		h, err := parseLength("height", opts.Height)
		if err != nil {
			return nil, err
		}
		height = h
	}

	column := cfg.Plot.Column
	if opts.Column != "" {
		column = opts.Column
	}
	title := cfg.Plot.Title
	if opts.Title != "" {
		title = opts.Title
	}

	return []plot.Option{
		plot.WithColumn(column),
		plot.WithSize(width, height),
		plot.WithTitle(title),
	}, nil
}

func parseLength(name, value string) (vg.Length, error) {
	l, err := vg.ParseLength(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid --%s %q: %w", name, value, err)
	}
	if l <= 0 {
		return 0, fmt.Errorf("invalid --%s %q: must be positive", name, value)
	}
	return l, nil
}

func loadArchived(ctx context.Context, path, source string) (*table.Table, error) {
	s, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer s.Close()

	tbl, err := s.Load(ctx, source)
	if errors.Is(err, store.ErrUnknownSource) {
		sources, serr := s.Sources(ctx)
		if serr == nil && len(sources) > 0 {
			return nil, fmt.Errorf("%w (archived: %s)", err, strings.Join(sources, ", "))
		}
	}
	if err != nil {
		return nil, err
	}
	return tbl, nil
}

// archivedResult wraps a table read from the archive so it can go through
// the same formatters as a fresh extraction.
func archivedResult(tbl *table.Table, source string) *extractor.Result {
	return &extractor.Result{
		Kind:    extractor.KindOK,
		Table:   tbl,
		Source:  source,
		Entries: tbl.Len(),
	}
}
