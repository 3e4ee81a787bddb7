package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/config"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/storage"
)

// newImportCmd creates the import subcommand.
func newImportCmd() *cobra.Command {
	var (
		dataset     string
		competitors string
		legacy      string
		sqlitePath  string
		replace     bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import mapping datasets into the catalog database",
		Long: `Import loads a dataset file (JSON or YAML), or a pair of competitor and
legacy files (JSON, YAML or CSV), validates it and writes it to the database
named by catalog.source in the config. Use --sqlite to target a SQLite file
directly.

Existing rows are kept unless --replace is given.`,
		Example: `  crossref-cli import --dataset data/catalog.yaml --sqlite data/catalog.db --replace
  crossref-cli import --competitors competitors.csv --legacy legacy.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, source, err := readImportDataset(dataset, competitors, legacy)
			if err != nil {
				return err
			}

			target := cfg.Catalog
			if sqlitePath != "" {
				target.Source = config.SourceSQLite
				target.SQLite.Path = sqlitePath
			}
			if target.Source != config.SourceSQLite && target.Source != config.SourcePostgres {
				return fmt.Errorf("catalog source is %q: import needs sqlite or postgres (set catalog.source or pass --sqlite)", target.Source)
			}

			src := storage.NewCatalogSource(target)
			defer src.Close()

			repo, err := src.Repository(cmd.Context())
			if err != nil {
				return err
			}

			total := len(ds.Competitors) + len(ds.Legacy)
			if bar := ui.ImportBar(total, "Importing"); bar != nil {
				repo.OnProgress(func(done, _ int) { _ = bar.Set(done) })
			}

			start := time.Now()
			run, err := repo.Import(cmd.Context(), ds, source, replace)
			if err != nil {
				return fmt.Errorf("import into %s: %w", src.Describe(), err)
			}

			logger.Info().
				Str("run_id", run.ID.String()).
				Str("target", src.Describe()).
				Int("competitors", run.Competitors).
				Int("legacy", run.Legacy).
				Dur("elapsed", time.Since(start)).
				Msg("Catalog imported")

			if outputJSON {
				return ui.JSON(run)
			}
			ui.Success("Imported %d rows into %s in %s", total, src.Describe(), FormatDuration(time.Since(start)))
			ui.KeyValue("Run", run.ID)
			ui.KeyValue("Source", run.Source)
			ui.KeyValue("Competitor mappings", run.Competitors)
			ui.KeyValue("Legacy mappings", run.Legacy)
			ui.KeyValue("Replaced existing", run.Replaced)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dataset, "dataset", "d", "", "combined dataset file (JSON or YAML)")
	cmd.Flags().StringVar(&competitors, "competitors", "", "competitor mappings file")
	cmd.Flags().StringVar(&legacy, "legacy", "", "legacy mappings file")
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "import into this SQLite file")
	cmd.Flags().BoolVar(&replace, "replace", false, "delete existing mappings first")
	return cmd
}

// readImportDataset loads and validates the files named by the import flags.
// The returned source string is recorded with the import run.
func readImportDataset(dataset, competitors, legacy string) (*catalog.Dataset, string, error) {
	var (
		ds     *catalog.Dataset
		source string
		err    error
	)
	switch {
	case dataset != "" && (competitors != "" || legacy != ""):
		return nil, "", errors.New("use either --dataset or --competitors/--legacy, not both")
	case dataset != "":
		source = dataset
		ds, err = catalog.LoadFile(dataset)
	case competitors != "" || legacy != "":
		source = strings.Trim(competitors+","+legacy, ",")
		ds, err = catalog.LoadFiles(competitors, legacy)
	default:
		return nil, "", errors.New("nothing to import: pass --dataset or --competitors/--legacy")
	}
	if err != nil {
		return nil, "", err
	}
	if err := ds.Validate(); err != nil {
		return nil, "", err
	}
	return ds, source, nil
}
