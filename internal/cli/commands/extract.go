package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/lamptest/pkg/config"
	"github.com/ccollicutt/lamptest/pkg/notify"
	"github.com/ccollicutt/lamptest/pkg/output"
	"github.com/ccollicutt/lamptest/pkg/store"
	"github.com/ccollicutt/lamptest/pkg/table"
)

// ExtractOptions holds command-line options for the extract command.
type ExtractOptions struct {
	Output         string
	Out            string
	KeepDuplicates bool
	StrictLabels   bool
	Verbose        bool
	Quiet          bool
	Describe       bool
	DB             string

	NotifyURL     string
	NotifyToken   string
	NotifyTrigger string
}

// NewExtractCommand creates the extract command.
func NewExtractCommand(g *GlobalOptions) *cobra.Command {
	opts := &ExtractOptions{}

	cmd := &cobra.Command{
		Use:   "extract <file-or-url>",
		Short: "Extract standard lamp test records into a table",
		Long: `Extract standard lamp test records from an instrument log.

Every entry is a timestamp line, a header line carrying the lamp name and
temperature, and three labelled test blocks. The entries are normalized to
one row each, near-duplicates are dropped and rows are sorted by time.

Exit codes:
  0 - Extraction succeeded (including a log with no entries)
  1 - Extraction failed
  2 - Configuration or runtime error`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", string(config.FormatText), "Output format (text|json|yaml|csv|xlsx)")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Write output to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.KeepDuplicates, "keep-duplicates", false, "Keep rows that differ only in time")
	cmd.Flags().BoolVar(&opts.StrictLabels, "strict-labels", false, "Fail when entries carry different test labels")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show every column and the rejected entries")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no progress or table")
	cmd.Flags().BoolVar(&opts.Describe, "describe", false, "Print column statistics after the table")
	cmd.Flags().StringVar(&opts.DB, "db", "", "Archive the extracted rows in a SQLite database")

	cmd.Flags().StringVar(&opts.NotifyURL, "notify-url", "", "Post the report as JSON to this URL")
	cmd.Flags().StringVar(&opts.NotifyToken, "notify-token", "", "Bearer token for --notify-url")
	cmd.Flags().StringVar(&opts.NotifyTrigger, "notify-trigger", string(config.NotifyOnFailure), "When to post (on_failure|always|never)")

	return cmd
}

func runExtract(cmd *cobra.Command, args []string, g *GlobalOptions, opts *ExtractOptions) error {
	location := args[0]
	ctx := commandContext(cmd.Context())

	cfg, err := loadConfig(ctx, g)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.Format = config.OutputFormat(strings.ToLower(opts.Output))
	}
	if opts.KeepDuplicates {
		cfg.Extract.RemoveDuplicates = false
	}
	if opts.StrictLabels {
		cfg.Extract.StrictLabels = true
	}
	if opts.Quiet {
		cfg.Extract.Verbose = false
	}

	targets, err := notifyTargets(cfg, opts)
	if err != nil {
		return err
	}
	cfg.Notify = targets

	formatter, err := createFormatter(cfg, opts)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	result := newExtractor(cfg, logger, cmd.ErrOrStderr()).Extract(ctx, location)
	report := output.NewReport(result, g.ConfigPath)

	if err := writeReport(ctx, formatter, report, opts.Out, cmd.OutOrStdout()); err != nil {
		return err
	}

	// Delivery errors are reported but never change the exit code
	sendNotifications(ctx, cfg.Notify, report, cmd.ErrOrStderr())

	if report.Failed() {
		ExitCode = 1
		return nil
	}

	tbl := report.Table()
	if opts.Describe {
		if err := printDescribe(tbl, cmd.OutOrStdout()); err != nil {
			return err
		}
	}
	if opts.DB != "" {
		if err := archive(ctx, opts.DB, tbl, cmd.ErrOrStderr()); err != nil {
			return err
		}
	}

	return nil
}

func createFormatter(cfg *config.Config, opts *ExtractOptions) (output.Formatter, error) {
	formatOpts := output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
		Sheet:   cfg.Output.XLSXSheet,
	}

	switch cfg.Output.Format {
	case config.FormatText:
		return output.NewTextFormatter(formatOpts), nil
	case config.FormatJSON:
		return output.NewJSONFormatter(formatOpts), nil
	case config.FormatYAML:
		return output.NewYAMLFormatter(formatOpts), nil
	case config.FormatCSV:
		return output.NewCSVFormatter(formatOpts), nil
	case config.FormatXLSX:
		if opts.Out == "" {
			return nil, fmt.Errorf("xlsx output requires --out")
		}
		return output.NewXLSXFormatter(formatOpts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use text, json, yaml, csv or xlsx)", cfg.Output.Format)
	}
}

// writeReport renders report to path, or to stdout when path is empty.
func writeReport(ctx context.Context, f output.Formatter, report *output.Report, path string, stdout io.Writer) (err error) {
	w := stdout
	if path != "" {
		file, err := os.Create(path) // #nosec G304 -- user-provided output path is expected
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer func() {
			if cerr := file.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("closing output file: %w", cerr)
			}
		}()
		w = file
	}

	if err := f.Format(ctx, report, w); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	return nil
}

func printDescribe(tbl *table.Table, w io.Writer) error {
	if tbl == nil || tbl.Len() == 0 {
		_, err := fmt.Fprintln(w, "\nNo rows to describe")
		return err
	}
	records, err := tbl.Describe()
	if err != nil {
		return fmt.Errorf("describing table: %w", err)
	}

	fmt.Fprintln(w, "\nColumn statistics:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, rec := range records {
		fmt.Fprintln(tw, strings.Join(rec, "\t")+"\t")
	}
	return tw.Flush()
}

// archive upserts the table into the SQLite store at path.
func archive(ctx context.Context, path string, tbl *table.Table, w io.Writer) error {
	if tbl == nil || tbl.Len() == 0 {
		fmt.Fprintf(w, "Nothing to archive in %s\n", path)
		return nil
	}

	s, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer s.Close()

	summary, err := s.Save(ctx, tbl)
	if err != nil {
		return fmt.Errorf("archiving rows: %w", err)
	}
	fmt.Fprintf(w, "Archived %d rows to %s (%d new, %d updated, import %s)\n",
		summary.Total(), path, summary.Inserted, summary.Updated, summary.ImportID)
	return nil
}

// notifyTargets merges the config file endpoints with the one given on the
// command line.
func notifyTargets(cfg *config.Config, opts *ExtractOptions) ([]config.NotifyConfig, error) {
	targets := append([]config.NotifyConfig(nil), cfg.Notify...)
	if opts.NotifyURL == "" {
		return targets, nil
	}

	target := config.NotifyConfig{
		Name:    "cli",
		URL:     opts.NotifyURL,
		Token:   opts.NotifyToken,
		Trigger: config.NotifyTrigger(opts.NotifyTrigger),
	}
	if err := target.Validate(); err != nil {
		return nil, fmt.Errorf("--notify-url: %w", err)
	}
	return append(targets, target), nil
}

func sendNotifications(ctx context.Context, targets []config.NotifyConfig, report *output.Report, w io.Writer) {
	if len(targets) == 0 {
		return
	}
	for _, d := range notify.New().Notify(ctx, report, targets) {
		if d.OK() {
			fmt.Fprintf(w, "Notify %s: sent (%d, %s)\n", d.Target, d.StatusCode, d.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(w, "Notify %s: failed (%v)\n", d.Target, d.Err)
		}
	}
}
