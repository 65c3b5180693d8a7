package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/lamptest/pkg/config"
	"github.com/ccollicutt/lamptest/pkg/extractor"
	"github.com/ccollicutt/lamptest/pkg/logging"
	"github.com/ccollicutt/lamptest/pkg/parser"
	"github.com/ccollicutt/lamptest/pkg/source"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
}

// Diagnostic statuses.
const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusError   = "error"
)

// maxListed caps the detail lines printed for one check.
const maxListed = 20

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand(g *GlobalOptions) *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <file-or-url>",
		Short: "Explain why entries in a lamp test log are not recognized",
		Long: `Diagnose a standard lamp test log.

This command scans the log and reports:
- Whether the input can be read
- Every candidate entry that was rejected, with its line, field and reason
- Entries whose test labels differ from the first entry
- The timestamp formats in use and dates that would also read month-first
- The outcome of a full extraction

Example:
  lamptest diagnose 18V.018
  lamptest diagnose -v https://example.org/logs/18V.018`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(cmd, args[0], g, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(cmd *cobra.Command, location string, g *GlobalOptions, opts *DiagnoseOptions) error {
	ctx := commandContext(cmd.Context())
	w := cmd.OutOrStdout()

	cfg, err := loadConfig(ctx, g)
	if err != nil {
		return err
	}

	results := []DiagnosticResult{}

	// 1. Check the input exists and can be read
	text, result := checkInput(ctx, cfg, location)
	results = append(results, result)
	if result.Status == StatusError {
		printDiagnostics(w, location, results, opts)
		return nil
	}

	// 2. Scan for entries
	scan, result := checkEntries(ctx, text)
	results = append(results, result)
	if scan == nil || len(scan.Entries) == 0 {
		printDiagnostics(w, location, results, opts)
		return nil
	}

	// 3. Check test labels
	results = append(results, checkLabels(scan.Entries))

	// 4. Check timestamps
	results = append(results, checkTimestamps(cfg, scan.Entries, opts)...)

	// 5. Run the full extraction
	results = append(results, checkExtraction(ctx, cfg, location, text))

	printDiagnostics(w, location, results, opts)
	return nil
}

func checkInput(ctx context.Context, cfg *config.Config, location string) (string, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Input",
	}

	if !source.IsURL(location) {
		info, err := os.Stat(location)
		if os.IsNotExist(err) {
			result.Status = StatusError
			result.Message = fmt.Sprintf("File not found: %s", location)
			result.Suggests = []string{"Check the file path is correct"}
			return "", result
		}
		if err != nil {
			result.Status = StatusError
			result.Message = fmt.Sprintf("Cannot access file: %v", err)
			result.Suggests = []string{"Check file permissions"}
			return "", result
		}
		if info.IsDir() {
			result.Status = StatusError
			result.Message = "Path is a directory, not a file"
			return "", result
		}
	}

	text, err := newReader(cfg).ReadAll(ctx, location)
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot read input: %v", err)
		if source.IsURL(location) {
			result.Suggests = []string{
				"Check the URL is reachable",
				fmt.Sprintf("Raise extract.fetch_timeout (currently %s) for slow servers", cfg.Extract.FetchTimeout),
			}
		}
		return "", result
	}

	result.Status = StatusOK
	result.Message = fmt.Sprintf("Read %s (%d bytes, %s)", location, len(text), cfg.Extract.Encoding)
	return text, result
}

func checkEntries(ctx context.Context, text string) (*parser.ScanResult, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Entries",
	}

	scan, err := parser.NewScanner().Scan(ctx, text)
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Scan interrupted: %v", err)
		return nil, result
	}

	for i, d := range scan.Diagnostics {
		if i == maxListed {
			result.Details = append(result.Details, fmt.Sprintf("... and %d more", len(scan.Diagnostics)-maxListed))
			break
		}
		result.Details = append(result.Details, fmt.Sprintf("line %d: %s: %s", d.Line, d.Field, d.Reason))
	}

	switch {
	case len(scan.Entries) == 0:
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("No entries recognized in %d lines (%d rejected candidates)",
			scan.Lines, len(scan.Diagnostics))
		result.Suggests = []string{
			"An entry is a timestamp line, a \"Standard Lamp Name: ... Instrument Temperature: ...\" line, then three \"Test <label>\" blocks of seven numbers",
			"Check the encoding if the file comes from a Windows instrument PC (extract.encoding: windows-1252)",
		}
	case len(scan.Diagnostics) > 0:
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("%d entries recognized, %d candidates rejected in %d lines",
			len(scan.Entries), len(scan.Diagnostics), scan.Lines)
	default:
		result.Status = StatusOK
		result.Message = fmt.Sprintf("%d entries recognized in %d lines", len(scan.Entries), scan.Lines)
	}
	return scan, result
}

func checkLabels(entries []parser.Entry) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Test Labels",
	}

	first := entries[0].Labels()
	mismatched := 0
	for i := range entries {
		labels := entries[i].Labels()
		if labels == first {
			continue
		}
		mismatched++
		if mismatched <= maxListed {
			result.Details = append(result.Details,
				fmt.Sprintf("line %d: %s", entries[i].Line, strings.Join(labels[:], ", ")))
		}
	}

	if mismatched == 0 {
		result.Status = StatusOK
		result.Message = fmt.Sprintf("All entries use labels %s", strings.Join(first[:], ", "))
		return result
	}

	result.Status = StatusWarning
	result.Message = fmt.Sprintf("%d entries differ from the first entry's labels %s",
		mismatched, strings.Join(first[:], ", "))
	result.Suggests = []string{
		"Columns are named after the first entry; values of differing entries land under those names",
		"Set extract.strict_labels: true to reject such logs",
	}
	return result
}

func checkTimestamps(cfg *config.Config, entries []parser.Entry, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	tp := parser.NewTimestampParser(cfg.Extract.Location())
	counts := map[string]int{}
	var invalid []string
	ambiguous := 0
	for i := range entries {
		ts := entries[i].Timestamp
		format := tp.Detect(ts)
		if format == nil {
			invalid = append(invalid, fmt.Sprintf("line %d: %s", entries[i].Line, ts))
			continue
		}
		counts[format.Name]++
		if parser.IsAmbiguous(ts) {
			ambiguous++
		}
	}

	result := DiagnosticResult{
		Check: "Timestamp Format",
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		result.Details = append(result.Details, fmt.Sprintf("%s: %d", name, counts[name]))
	}

	if len(invalid) > 0 {
		result.Status = StatusError
		result.Message = fmt.Sprintf("%d timestamps are not valid day-first dates", len(invalid))
		if len(invalid) > maxListed {
			invalid = append(invalid[:maxListed], fmt.Sprintf("... and %d more", len(invalid)-maxListed))
		}
		result.Details = append(result.Details, invalid...)
		result.Suggests = []string{
			"Extraction discards the whole log when any timestamp fails to parse",
		}
	} else {
		result.Status = StatusOK
		result.Message = fmt.Sprintf("%d timestamps parsed day-first in %s", len(entries), cfg.Extract.Timezone)
	}
	results = append(results, result)

	if ambiguous > 0 && opts.Verbose {
		results = append(results, DiagnosticResult{
			Check:   "Date Order",
			Status:  StatusOK,
			Message: fmt.Sprintf("%d timestamps would also read as valid month-first dates", ambiguous),
			Details: []string{"Dates are always read day first"},
		})
	}

	return results
}

func checkExtraction(ctx context.Context, cfg *config.Config, location, text string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Extraction",
	}

	e := extractor.New(
		extractor.WithLogger(logging.Discard()),
		extractor.WithReader(newReader(cfg)),
		extractor.WithLocation(cfg.Extract.Location()),
		extractor.WithRemoveDuplicates(cfg.Extract.RemoveDuplicates),
		extractor.WithStrictLabels(cfg.Extract.StrictLabels),
		extractor.WithVerbose(false),
	)
	res := e.Extract(ctx, location)

	if !res.OK() {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Extraction failed (%s): %v", res.Kind, res.Err)
		return result
	}

	result.Status = StatusOK
	result.Message = fmt.Sprintf("%d rows, %d duplicates removed", res.Rows(), res.DuplicatesRemoved)
	if res.Table != nil && res.Table.HasSchema() {
		result.Details = []string{
			fmt.Sprintf("Columns: %d", len(res.Table.Columns())),
			fmt.Sprintf("Input size: %d bytes", len(text)),
		}
	}
	return result
}

func printDiagnostics(w io.Writer, location string, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== Standard Lamp Test Diagnostics ===")
	fmt.Fprintf(w, "Source: %s\n", location)
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		var icon string
		switch r.Status {
		case StatusOK:
			icon = "PASS"
			okCount++
		case StatusWarning:
			icon = "WARN"
			warnCount++
		case StatusError:
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != StatusOK {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nThe log cannot be extracted as is.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nThe log is usable but some entries were skipped or differ.")
	} else {
		fmt.Fprintln(w, "\nThe log looks good!")
	}
}
