// Package main provides the cross-reference CLI entrypoint.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/api"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/config"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/observability"
)

const version = "0.1.0"

var (
	// Global flags
	cfgFile     string
	catalogPath string
	outputJSON  bool
	noColor     bool
	verbose     bool

	cfg    *config.Config
	logger *observability.Logger
	ui     *UI
)

var rootCmd = &cobra.Command{
	Use:   "crossref-cli",
	Short: "Cross-reference competitor camera models to current Axis replacements",
	Long: `crossref-cli looks up replacement Axis cameras for competitor and
discontinued Axis model numbers.

Use this tool to:
- Search a single model, manufacturer or Axis model
- Cross-reference a spreadsheet column of models in one batch
- Import mapping datasets into SQLite or Postgres

All commands support --json for automation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if catalogPath != "" {
			cfg.Catalog.Source = config.SourceFile
			cfg.Catalog.DatasetPath = catalogPath
		}

		level := "warn"
		if verbose {
			level = "debug"
		}
		logger = observability.NewLogger(observability.LogConfig{
			Level:       level,
			Format:      "console",
			Output:      os.Stderr,
			ServiceName: "crossref-cli",
		})

		ui = NewUI(outputJSON, noColor)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "dataset file to search instead of the configured source")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadRuntime loads the catalog behind a spinner.
func loadRuntime(ctx context.Context) (*api.Runtime, error) {
	stop := ui.Spinner("Loading catalog...")
	rt, err := api.NewRuntime(ctx, cfg, logger)
	stop()
	if err != nil {
		return nil, err
	}

	stats := rt.Engine.Index().Stats()
	logger.Debug().
		Str("source", rt.Source.Describe()).
		Int("competitors", stats.Competitors).
		Int("legacy", stats.Legacy).
		Msg("Catalog loaded")
	return rt, nil
}

// newVersionCmd creates the version subcommand.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputJSON {
				return ui.JSON(map[string]string{
					"version": version,
					"go":      runtime.Version(),
				})
			}
			fmt.Fprintf(ui.out, "crossref-cli v%s (%s)\n", version, runtime.Version())
			return nil
		},
	}
}
