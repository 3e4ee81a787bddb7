package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/storage"
)

// newExportCmd creates the export subcommand.
func newExportCmd() *cobra.Command {
	var (
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the configured catalog as a dataset file",
		Long: `Export reads the catalog from the configured source and writes it as a
combined dataset file that search --catalog and import --dataset accept.

The format follows the --output extension (.json, .yaml, .yml) unless
--format is given. Without --output the dataset goes to stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = formatForPath(output)
			}

			src := storage.NewCatalogSource(cfg.Catalog)
			defer src.Close()

			stop := ui.Spinner("Reading catalog...")
			ds, err := src.Load(cmd.Context())
			stop()
			if err != nil {
				return err
			}

			if output == "" {
				return writeDataset(os.Stdout, ds, format)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := writeDataset(f, ds, format); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", output, err)
			}

			ui.Success("Exported %d competitor and %d legacy mappings to %s",
				len(ds.Competitors), len(ds.Legacy), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&format, "format", "", "json or yaml (default from extension, else json)")
	return cmd
}

func formatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

func writeDataset(w io.Writer, ds *catalog.Dataset, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(ds); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ds); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q: use json or yaml", format)
	}
}
