package main

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/api"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/crossref"
)

// newBatchCmd creates the batch subcommand.
func newBatchCmd() *cobra.Command {
	var (
		flags   searchFlags
		file    string
		column  string
		output  string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "batch [query...]",
		Short: "Cross-reference many models at once",
		Long: `Batch searches every query and prints the best replacement per row.

Queries come from arguments or --file. A .csv file is read as a spreadsheet:
the --column header selects the model column (first column if absent). Any
other file holds one query per line. --output writes the results as CSV in
input order, one row per input row.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			queries := append([]string{}, args...)
			if file != "" {
				fromFile, err := readQueriesFile(file, column)
				if err != nil {
					return err
				}
				queries = append(queries, fromFile...)
			}
			if len(queries) == 0 {
				return errors.New("no queries: pass them as arguments or with --file")
			}
			if len(queries) > cfg.Search.MaxBatchSize {
				return fmt.Errorf("batch too large: %d queries, limit %d", len(queries), cfg.Search.MaxBatchSize)
			}
			for _, q := range queries {
				if n := utf8.RuneCountInString(q); n > cfg.Search.MaxQueryLength {
					return fmt.Errorf("query %q too long: %d characters, limit %d", q, n, cfg.Search.MaxQueryLength)
				}
			}

			rt, err := loadRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := applySearchFlags(rt.Engine, &flags); err != nil {
				return err
			}
			if workers <= 0 {
				workers = cfg.Search.BatchWorkers
			}

			processor := crossref.NewBatchProcessor(rt.Engine, workers, cfg.Search.BatchTimeout)
			progress, bar := ui.BatchProgress("Searching", len(queries))
			if bar != nil {
				processor.OnProgress(func(done, total int) { bar.Increment() })
			}

			batch, err := processor.ProcessParallel(cmd.Context(), queries)
			if progress != nil {
				if err != nil {
					bar.Abort(false)
				}
				progress.Wait()
			}
			if err != nil {
				return err
			}

			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				if err := writeBatchCSV(f, queries, batch); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return fmt.Errorf("close output: %w", err)
				}
			}

			if outputJSON {
				return ui.JSON(api.ToBatchResponse(uuid.NewString(), batch))
			}
			renderBatch(ui, queries, batch)
			if output != "" {
				ui.Success("Wrote %d rows to %s", len(queries), output)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "", "read queries from a .csv or line-per-query file")
	cmd.Flags().StringVar(&column, "column", "model", "CSV header of the model column")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write results to a CSV file")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (default from config)")
	return cmd
}

// readQueriesFile reads queries from a spreadsheet export or a plain list.
// Blank entries are skipped.
func readQueriesFile(path, column string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open queries: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return readQueriesCSV(f, column)
	}
	return readQueryLines(f)
}

func readQueryLines(r io.Reader) ([]string, error) {
	var queries []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if q := strings.TrimSpace(sc.Text()); q != "" && !strings.HasPrefix(q, "#") {
			queries = append(queries, q)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}
	return queries, nil
}

func readQueriesCSV(r io.Reader, column string) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := 0
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")), column) {
			col = i
			break
		}
	}

	var queries []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if col >= len(record) {
			continue
		}
		if q := strings.TrimSpace(record[col]); q != "" {
			queries = append(queries, q)
		}
	}
	return queries, nil
}

// writeBatchCSV writes one row per input query, repeating the shared
// response for duplicates.
func writeBatchCSV(w io.Writer, queries []string, batch *crossref.BatchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"query", "query_type", "replacement", "score", "match_type", "confidence", "url"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, q := range queries {
		if err := cw.Write(batchRow(q, batch)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func batchRow(query string, batch *crossref.BatchResult) []string {
	resp, ok := batch.Get(query)
	if !ok {
		return []string{query, "", "", "", "", string(crossref.ConfidenceNone), ""}
	}
	top, ok := resp.TopResult()
	if !ok {
		return []string{query, string(resp.QueryType), "", "", "", string(resp.Confidence), ""}
	}
	return []string{
		query,
		string(resp.QueryType),
		top.Mapping.ReplacementModel(),
		strconv.Itoa(top.Score),
		string(top.MatchType),
		string(resp.Confidence),
		top.URL,
	}
}

func renderBatch(ui *UI, queries []string, batch *crossref.BatchResult) {
	rows := make([][]string, 0, len(queries))
	matched := 0
	for _, q := range queries {
		row := batchRow(q, batch)
		if row[2] != "" {
			matched++
		}
		rows = append(rows, []string{row[0], row[2], row[3], row[4], row[5]})
	}

	ui.Section("Batch results")
	ui.Table([]string{"Query", "Replacement", "Score", "Match", "Confidence"}, rows)
	ui.Newline()
	ui.KeyValue("Rows", len(queries))
	ui.KeyValue("Distinct queries", batch.Len())
	ui.KeyValue("Matched", matched)
}
