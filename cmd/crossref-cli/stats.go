package main

import (
	"errors"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/config"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/storage"
)

type statsOutput struct {
	Source        string                 `json:"source"`
	DatasetHash   string                 `json:"datasetHash"`
	Index         catalog.Stats          `json:"index"`
	Manufacturers []string               `json:"manufacturers,omitempty"`
	Stored        *storage.CatalogCounts `json:"stored,omitempty"`
	LatestImport  *storage.ImportRun     `json:"latestImport,omitempty"`
}

// newStatsCmd creates the stats subcommand.
func newStatsCmd() *cobra.Command {
	var listManufacturers bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show catalog and index statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			idx := rt.Engine.Index()
			out := statsOutput{
				Source:      rt.Source.Describe(),
				DatasetHash: rt.DatasetHash,
				Index:       idx.Stats(),
			}
			if listManufacturers {
				out.Manufacturers = idx.Manufacturers()
			}

			if cfg.Catalog.Source == config.SourceSQLite || cfg.Catalog.Source == config.SourcePostgres {
				repo, err := rt.Source.Repository(cmd.Context())
				if err != nil {
					return err
				}
				counts, err := repo.Counts(cmd.Context())
				if err != nil {
					return err
				}
				out.Stored = &counts
				run, err := repo.LatestImport(cmd.Context())
				switch {
				case errors.Is(err, storage.ErrNotFound):
				case err != nil:
					return err
				default:
					out.LatestImport = run
				}
			}

			if outputJSON {
				return ui.JSON(out)
			}
			renderStats(ui, out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&listManufacturers, "manufacturers", false, "list known manufacturers")
	return cmd
}

func renderStats(ui *UI, out statsOutput) {
	ui.Section("Catalog")
	ui.KeyValue("Source", out.Source)
	ui.KeyValue("Dataset hash", out.DatasetHash)
	ui.KeyValue("Built", out.Index.BuiltAt.Format("2006-01-02 15:04:05"))

	ui.Section("Index")
	ui.Table([]string{"Entity", "Records", "Keys"}, [][]string{
		{"Competitor mappings", itoa(out.Index.Competitors), itoa(out.Index.CompetitorKeys)},
		{"Legacy mappings", itoa(out.Index.Legacy), itoa(out.Index.LegacyKeys)},
		{"Current Axis models", "", itoa(out.Index.CurrentModelKeys)},
		{"Manufacturers", itoa(out.Index.Manufacturers), ""},
	})

	if out.Stored != nil {
		ui.Section("Database")
		ui.KeyValue("Stored competitor mappings", out.Stored.Competitors)
		ui.KeyValue("Stored legacy mappings", out.Stored.Legacy)
		if out.LatestImport != nil {
			ui.KeyValue("Last import", out.LatestImport.CreatedAt.Format("2006-01-02 15:04:05"))
			ui.KeyValue("Last import source", out.LatestImport.Source)
		} else {
			ui.Warning("No imports recorded")
		}
	}

	if len(out.Manufacturers) > 0 {
		ui.Section("Manufacturers")
		ui.Info("%s", strings.Join(out.Manufacturers, ", "))
	}
}

func itoa(n int) string { return strconv.Itoa(n) }
