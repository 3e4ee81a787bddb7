package main

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/api"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/crossref"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/matching"
	"github.com/spherical-ai/spherical/libs/crossref-engine/pkg/client"
)

// searchFlags override engine settings for one invocation.
type searchFlags struct {
	maxResults int
	minScore   int
	noFuzzy    bool
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.maxResults, "max-results", 0, "maximum results per query (default from config)")
	cmd.Flags().IntVar(&f.minScore, "min-score", 0, "minimum fuzzy score, 50-100 (default from config)")
	cmd.Flags().BoolVar(&f.noFuzzy, "no-fuzzy", false, "disable fuzzy matching")
}

func (f *searchFlags) update() crossref.ConfigUpdate {
	var u crossref.ConfigUpdate
	if f.maxResults > 0 {
		u.MaxResults = &f.maxResults
	}
	if f.minScore > 0 {
		u.MinScore = &f.minScore
	}
	if f.noFuzzy {
		disabled := false
		u.FuzzyEnabled = &disabled
	}
	return u
}

// applySearchFlags configures the engine from flags.
func applySearchFlags(engine *crossref.Engine, f *searchFlags) error {
	u := f.update()
	if u.IsEmpty() {
		return nil
	}
	_, err := engine.Configure(u)
	return err
}

// newSearchCmd creates the search subcommand.
func newSearchCmd() *cobra.Command {
	var (
		flags searchFlags
		voice bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find Axis replacements for a model, manufacturer or Axis model",
		Long: `Search classifies the query and runs the matching strategy:

  competitor model   DS-2CD2143G2-I
  manufacturer       hikvision
  Axis model         P3265-LVE (reverse lookup)
  legacy Axis model  AXIS 211M
  browse             axis

Use --voice for dictated input ("dash" and spelled-out digits are cleaned up).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if voice {
				query = matching.NormalizeVoice(query)
			}
			if n := utf8.RuneCountInString(query); n > cfg.Search.MaxQueryLength {
				return fmt.Errorf("query too long: %d characters, limit %d", n, cfg.Search.MaxQueryLength)
			}

			rt, err := loadRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := applySearchFlags(rt.Engine, &flags); err != nil {
				return err
			}

			resp := api.ToSearchResponse(rt.Engine.Search(query))
			if outputJSON {
				return ui.JSON(resp)
			}
			renderSearch(ui, resp)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&voice, "voice", false, "clean up dictated input before searching")
	return cmd
}

func renderSearch(ui *UI, resp client.SearchResponse) {
	ui.Section(fmt.Sprintf("%s (%s)", resp.Query, resp.QueryType))

	if len(resp.Results) == 0 {
		ui.Warning("No matches found")
	} else {
		rows := make([][]string, len(resp.Results))
		for i, r := range resp.Results {
			rows[i] = []string{
				strconv.Itoa(i + 1),
				strconv.Itoa(r.Score),
				r.MatchType,
				r.Mapping.SourceModel,
				r.Mapping.Manufacturer,
				r.Mapping.Replacement,
				r.Category,
			}
		}
		ui.Table([]string{"#", "Score", "Match", "Model", "Manufacturer", "Replacement", "Category"}, rows)

		top := resp.Results[0]
		ui.Newline()
		ui.KeyValue("Best replacement", top.Mapping.Replacement)
		if top.URL != "" {
			ui.KeyValue("Product page", top.URL)
		}
		if top.Mapping.Notes != "" {
			ui.KeyValue("Notes", top.Mapping.Notes)
		}
	}

	ui.KeyValue("Confidence", resp.Confidence)
	ui.KeyValue("Elapsed", fmt.Sprintf("%.2fms", resp.ElapsedMs))
	if len(resp.Suggestions) > 0 {
		ui.Info("Did you mean: %s", strings.Join(resp.Suggestions, ", "))
	}
}
