// Package crossref implements the cross-reference search engine: query
// classification, strategy dispatch, ranking, grouping and suggestions over a
// catalog.Index.
package crossref

import (
	"time"

	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/matching"
)

// QueryType is the search strategy chosen for a query.
type QueryType string

const (
	QueryTypeCompetitor   QueryType = "competitor"
	QueryTypeAxisBrowse   QueryType = "axis-browse"
	QueryTypeAxisModel    QueryType = "axis-model"
	QueryTypeManufacturer QueryType = "manufacturer"
	QueryTypeLegacy       QueryType = "legacy"
)

// Confidence is the response-level label derived from which tiers are present.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// ParsedQuery is the classifier's view of a raw query.
type ParsedQuery struct {
	Raw          string    `json:"raw"`
	Normalized   string    `json:"normalized"`
	Type         QueryType `json:"type"`
	Manufacturer string    `json:"manufacturer,omitempty"`
	IsEmpty      bool      `json:"isEmpty"`
}

// URLResolver maps a replacement model to a product page URL.
type URLResolver func(model string) string

// SearchResult is one ranked replacement suggestion.
type SearchResult struct {
	Score     int                `json:"score"`
	MatchType matching.MatchType `json:"matchType"`
	Mapping   catalog.MappingRef `json:"mapping"`
	IsLegacy  bool               `json:"isLegacy"`
	URL       string             `json:"url"`
	Category  string             `json:"category"`
}

// GroupedResults partitions a result list by tier.
type GroupedResults struct {
	Exact   []SearchResult `json:"exact"`
	Partial []SearchResult `json:"partial"`
	Similar []SearchResult `json:"similar"`
}

// SearchResponse is the full answer to one query.
type SearchResponse struct {
	Query       string         `json:"query"`
	QueryType   QueryType      `json:"queryType"`
	Results     []SearchResult `json:"results"`
	Grouped     GroupedResults `json:"grouped"`
	Suggestions []string       `json:"suggestions"`
	Confidence  Confidence     `json:"confidence"`
	Elapsed     time.Duration  `json:"elapsed"`
	IsBatch     bool           `json:"isBatch"`
}

// TopResult returns the best result, if any.
func (r *SearchResponse) TopResult() (SearchResult, bool) {
	if len(r.Results) == 0 {
		return SearchResult{}, false
	}
	return r.Results[0], true
}

func groupByTier(results []SearchResult) GroupedResults {
	g := GroupedResults{
		Exact:   []SearchResult{},
		Partial: []SearchResult{},
		Similar: []SearchResult{},
	}
	for _, r := range results {
		switch r.MatchType {
		case matching.MatchExact:
			g.Exact = append(g.Exact, r)
		case matching.MatchPartial:
			g.Partial = append(g.Partial, r)
		case matching.MatchSimilar:
			g.Similar = append(g.Similar, r)
		}
	}
	return g
}

func confidenceFor(g GroupedResults) Confidence {
	switch {
	case len(g.Exact) > 0:
		return ConfidenceHigh
	case len(g.Partial) > 0:
		return ConfidenceMedium
	case len(g.Similar) > 0:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}
