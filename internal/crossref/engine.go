package crossref

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/matching"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/observability"
)

// catalogState pairs an index with the classifier that knows its manufacturers.
type catalogState struct {
	index      *catalog.Index
	classifier *QueryClassifier
}

// Engine answers cross-reference queries against an immutable catalog index.
// Search is safe for concurrent use; SwapIndex replaces the whole catalog.
type Engine struct {
	state      atomic.Pointer[catalogState]
	generation atomic.Uint64

	resolver URLResolver
	logger   *observability.Logger

	mu  sync.RWMutex
	cfg SearchConfig
}

// NewEngine creates an engine over idx. A nil resolver yields empty URLs and a
// nil logger discards output.
func NewEngine(idx *catalog.Index, resolver URLResolver, logger *observability.Logger, cfg SearchConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if idx == nil {
		idx = catalog.BuildIndex(nil, nil)
	}
	if resolver == nil {
		resolver = func(string) string { return "" }
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	e := &Engine{
		resolver: resolver,
		logger:   logger.WithOperation("crossref"),
		cfg:      cfg,
	}
	e.state.Store(newCatalogState(idx))
	return e, nil
}

func newCatalogState(idx *catalog.Index) *catalogState {
	return &catalogState{
		index:      idx,
		classifier: NewQueryClassifier(idx.Manufacturers()...),
	}
}

// SwapIndex atomically replaces the catalog. In-flight searches finish on the
// index they started with.
func (e *Engine) SwapIndex(idx *catalog.Index) {
	if idx == nil {
		return
	}
	e.state.Store(newCatalogState(idx))
	gen := e.generation.Add(1)

	stats := idx.Stats()
	e.logger.Info().
		Int("competitors", stats.Competitors).
		Int("legacy", stats.Legacy).
		Int("manufacturers", stats.Manufacturers).
		Int64("generation", int64(gen)).
		Msg("Catalog index swapped")
}

// Index returns the catalog index currently in use.
func (e *Engine) Index() *catalog.Index {
	return e.state.Load().index
}

// Generation counts index swaps since construction.
func (e *Engine) Generation() uint64 {
	return e.generation.Load()
}

// Classify exposes the query classifier bound to the current catalog.
func (e *Engine) Classify(raw string) ParsedQuery {
	return e.state.Load().classifier.Classify(raw)
}

// Config returns a snapshot of the current settings.
func (e *Engine) Config() SearchConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// Configure applies a partial update. Invalid updates leave the previous
// settings untouched.
func (e *Engine) Configure(update ConfigUpdate) (SearchConfig, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := update.Apply(e.cfg)
	if err := next.Validate(); err != nil {
		return e.cfg, err
	}
	e.cfg = next

	e.logger.Info().
		Int("max_results", next.MaxResults).
		Int("min_score", next.MinScore).
		Bool("fuzzy", next.FuzzyEnabled).
		Bool("suggestions", next.SuggestionsEnabled).
		Int("max_suggestions", next.MaxSuggestions).
		Msg("Search configuration updated")
	return next, nil
}

// Search classifies raw, runs the matching strategy and assembles a ranked,
// grouped response. It never fails; unmatched input yields an empty response
// with confidence none.
func (e *Engine) Search(raw string) *SearchResponse {
	start := time.Now()
	cfg := e.Config()
	st := e.state.Load()

	pq := st.classifier.Classify(raw)
	resp := &SearchResponse{
		Query:       raw,
		QueryType:   pq.Type,
		Results:     []SearchResult{},
		Suggestions: []string{},
	}

	if !pq.IsEmpty {
		var results []SearchResult
		switch pq.Type {
		case QueryTypeAxisBrowse:
			results = e.browseManufacturers(st.index)
		case QueryTypeAxisModel:
			results = e.searchCurrentModel(st.index, pq.Normalized)
		case QueryTypeManufacturer:
			results = e.searchManufacturer(st, pq.Manufacturer, cfg)
		case QueryTypeLegacy:
			results = e.searchLegacy(st.index, pq.Normalized, cfg)
		default:
			results = e.searchCompetitors(st.index, pq.Normalized, cfg)
			if len(results) == 0 {
				results = e.searchLegacy(st.index, matching.NormalizeStrict(matching.StripBrand(raw)), cfg)
			}
		}
		if results != nil {
			resp.Results = results
		}

		if cfg.SuggestionsEnabled && len(resp.Results) < minResultsBeforeSuggest {
			resp.Suggestions = suggest(st.index, pq.Normalized, cfg.MaxSuggestions)
		}
	}

	resp.Grouped = groupByTier(resp.Results)
	resp.Confidence = confidenceFor(resp.Grouped)
	resp.Elapsed = time.Since(start)

	e.logger.Debug().
		Str("query_type", string(resp.QueryType)).
		Int("results", len(resp.Results)).
		Int("suggestions", len(resp.Suggestions)).
		Str("confidence", string(resp.Confidence)).
		Dur("latency", resp.Elapsed).
		Msg("Search completed")

	return resp
}

func (e *Engine) browseManufacturers(idx *catalog.Index) []SearchResult {
	reps := idx.ManufacturerRepresentatives()
	if len(reps) > BrowseSampleSize {
		reps = reps[:BrowseSampleSize]
	}
	results := make([]SearchResult, 0, len(reps))
	for _, m := range reps {
		results = append(results, e.competitorResult(m, exactScore()))
	}
	return results
}

func (e *Engine) searchCurrentModel(idx *catalog.Index, key string) []SearchResult {
	hits := idx.LookupCurrentModel(key)
	results := make([]SearchResult, 0, len(hits))
	for _, m := range hits {
		results = append(results, e.competitorResult(m, exactScore()))
	}
	return results
}

// searchManufacturer returns every mapping whose manufacturer is any spelling
// of the queried group, in input order.
func (e *Engine) searchManufacturer(st *catalogState, manufacturer string, cfg SearchConfig) []SearchResult {
	names := map[string]struct{}{catalog.ManufacturerKey(manufacturer): {}}
	for _, alias := range st.classifier.ManufacturerAliases(manufacturer) {
		names[catalog.ManufacturerKey(alias)] = struct{}{}
	}

	results := make([]SearchResult, 0, cfg.MaxResults)
	for _, m := range st.index.Competitors() {
		if len(results) == cfg.MaxResults {
			break
		}
		if _, ok := names[catalog.ManufacturerKey(m.Manufacturer)]; ok {
			results = append(results, e.competitorResult(m, exactScore()))
		}
	}
	return results
}

// searchCompetitors collects exact-key hits, then fuzzy hits not already
// present by competitor model string. Two manufacturers sharing a model
// string therefore surface once through the fuzzy scan.
func (e *Engine) searchCompetitors(idx *catalog.Index, key string, cfg SearchConfig) []SearchResult {
	if key == "" {
		return nil
	}

	var results []SearchResult
	seen := make(map[string]struct{})
	for _, m := range idx.LookupCompetitor(key) {
		results = append(results, e.competitorResult(m, exactScore()))
		seen[m.CompetitorModel] = struct{}{}
	}

	if cfg.FuzzyEnabled {
		for _, m := range idx.Competitors() {
			if _, dup := seen[m.CompetitorModel]; dup {
				continue
			}
			score := matching.ScoreMatch(key, m.CompetitorModel)
			if score.Score < cfg.MinScore {
				continue
			}
			results = append(results, e.competitorResult(m, score))
			seen[m.CompetitorModel] = struct{}{}
		}
	}

	return rank(results, cfg.MaxResults)
}

func (e *Engine) searchLegacy(idx *catalog.Index, key string, cfg SearchConfig) []SearchResult {
	if key == "" {
		return nil
	}

	var results []SearchResult
	seen := make(map[string]struct{})
	for _, m := range idx.LookupLegacy(key) {
		results = append(results, e.legacyResult(m, exactScore()))
		seen[m.LegacyModel] = struct{}{}
	}

	if cfg.FuzzyEnabled {
		for _, m := range idx.Legacy() {
			if _, dup := seen[m.LegacyModel]; dup {
				continue
			}
			score := matching.ScoreMatch(key, catalog.AxisModelKey(m.LegacyModel))
			if score.Score < cfg.MinScore {
				continue
			}
			results = append(results, e.legacyResult(m, score))
			seen[m.LegacyModel] = struct{}{}
		}
	}

	return rank(results, cfg.MaxResults)
}

func (e *Engine) competitorResult(m *catalog.CompetitorMapping, score matching.MatchScore) SearchResult {
	return SearchResult{
		Score:     score.Score,
		MatchType: score.Type,
		Mapping:   catalog.CompetitorRef(m),
		URL:       e.resolver(m.AxisReplacement),
		Category:  CategoryFor(m.Manufacturer),
	}
}

func (e *Engine) legacyResult(m *catalog.LegacyMapping, score matching.MatchScore) SearchResult {
	return SearchResult{
		Score:     score.Score,
		MatchType: score.Type,
		Mapping:   catalog.LegacyRef(m),
		IsLegacy:  true,
		URL:       e.resolver(m.Replacement),
		Category:  CategoryLegacy,
	}
}

func exactScore() matching.MatchScore {
	return matching.MatchScore{Score: 100, Type: matching.MatchExact}
}

// rank sorts by score descending, then tier, and truncates to limit.
func rank(results []SearchResult, limit int) []SearchResult {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].MatchType.Priority() < results[j].MatchType.Priority()
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
