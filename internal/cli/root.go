// Package cli provides the command-line interface for lamptest.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/lamptest/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	rootCmd := NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2 // Configuration or runtime error
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	g := &commands.GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "lamptest",
		Short: "Extract standard lamp tests from Dobson instrument logs",
		Long: `lamptest extracts standard lamp test records from Dobson ozone
spectrophotometer logs into a normalized table, one row per test, sorted by time.

Each row carries the lamp name, the instrument temperature and seven values
for each of the three labelled test blocks. Tables can be printed, exported
as JSON, YAML, CSV or Excel, archived in SQLite and plotted.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&g.ConfigPath, "config", "c", "", "Configuration file (YAML)")
	rootCmd.PersistentFlags().StringVar(&g.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&g.LogFormat, "log-format", "", "Log format (text|json)")

	// Add subcommands
	rootCmd.AddCommand(commands.NewExtractCommand(g))
	rootCmd.AddCommand(commands.NewPlotCommand(g))
	rootCmd.AddCommand(commands.NewDiagnoseCommand(g))
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
