package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/lamptest/pkg/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a lamptest configuration file without extracting anything.

Checks:
  - YAML syntax
  - Time zone and input encoding names
  - Plot size lengths
  - Output format and worksheet name
  - Log level and format
  - Notify endpoint URLs and triggers

Environment overrides (LAMPTEST_TIMEZONE, LAMPTEST_ENCODING,
LAMPTEST_LOG_LEVEL) are applied before validation.`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := commandContext(cmd.Context())
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")

	fmt.Fprintf(w, "\nExtract:\n")
	fmt.Fprintf(w, "  Remove duplicates: %t\n", cfg.Extract.RemoveDuplicates)
	fmt.Fprintf(w, "  Verbose:           %t\n", cfg.Extract.Verbose)
	fmt.Fprintf(w, "  Strict labels:     %t\n", cfg.Extract.StrictLabels)
	fmt.Fprintf(w, "  Timezone:          %s\n", cfg.Extract.Location())
	fmt.Fprintf(w, "  Encoding:          %s\n", cfg.Extract.Encoding)
	fmt.Fprintf(w, "  Fetch timeout:     %s\n", cfg.Extract.FetchTimeout)

	width, height := cfg.Plot.Size()
	column := cfg.Plot.Column
	if column == "" {
		column = "<first label>_mean"
	}
	fmt.Fprintf(w, "\nPlot:\n")
	fmt.Fprintf(w, "  Column: %s\n", column)
	fmt.Fprintf(w, "  Size:   %s x %s (%.0f x %.0f pt)\n", cfg.Plot.Width, cfg.Plot.Height, width.Points(), height.Points())
	fmt.Fprintf(w, "  Title:  %s\n", cfg.Plot.Title)

	fmt.Fprintf(w, "\nOutput:\n")
	fmt.Fprintf(w, "  Format: %s\n", cfg.Output.Format)
	if cfg.Output.Format == config.FormatXLSX {
		fmt.Fprintf(w, "  Sheet:  %s\n", cfg.Output.XLSXSheet)
	}

	fmt.Fprintf(w, "\nLogging:\n")
	fmt.Fprintf(w, "  Level:  %s\n", cfg.Logging.Level)
	fmt.Fprintf(w, "  Format: %s\n", cfg.Logging.Format)

	if len(cfg.Notify) > 0 {
		fmt.Fprintf(w, "\nNotify:\n")
		for i, n := range cfg.Notify {
			fmt.Fprintf(w, "  %d. [%s] %s (timeout %s)\n", i+1, n.Trigger, n.Label(), n.Timeout)
		}
	}

	return nil
}
