// Package cli wires Strata's schema pipeline (parsing, diffing, SQL
// generation, migration execution) into a Cobra command tree.
package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/stratadb/strata/internal/config"
)

var (
	configPath string
	verbose    bool
	noColor    bool
	format     string
)

var rootCmd = &cobra.Command{
	Use:   "strata",
	Short: "Declarative database schema management",
	Long: `Strata manages a database schema declaratively: describe tables, enums,
and views as YAML, and Strata diffs, generates migrations, and applies
them transactionally across PostgreSQL, MySQL, and SQLite.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		color.NoColor = noColor
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigFile, "path to the project config file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose (debug-level) logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable ANSI color in text output")
	rootCmd.PersistentFlags().StringVar(&format, "format", "text", "output format: text or json")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newApplyCommand())
	rootCmd.AddCommand(newRollbackCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newExportCommand())
}

// Execute runs the root command with args (os.Args[1:] in production,
// explicit slices in tests).
func Execute(args []string) error {
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}
