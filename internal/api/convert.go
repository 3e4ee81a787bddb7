// Package api converts engine types to the public wire types shared by the
// HTTP handlers, the Connect service and the CLI's JSON output.
package api

import (
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/crossref"
	"github.com/spherical-ai/spherical/libs/crossref-engine/pkg/client"
)

// ToSearchResponse converts an engine response.
func ToSearchResponse(resp *crossref.SearchResponse) client.SearchResponse {
	return client.SearchResponse{
		Query:     resp.Query,
		QueryType: string(resp.QueryType),
		Results:   toResults(resp.Results),
		Grouped: client.Grouped{
			Exact:   toResults(resp.Grouped.Exact),
			Partial: toResults(resp.Grouped.Partial),
			Similar: toResults(resp.Grouped.Similar),
		},
		Suggestions: append([]string{}, resp.Suggestions...),
		Confidence:  string(resp.Confidence),
		ElapsedMs:   float64(resp.Elapsed.Microseconds()) / 1000,
		IsBatch:     resp.IsBatch,
	}
}

// ToBatchResponse converts a batch result, keeping its key order.
func ToBatchResponse(batchID string, batch *crossref.BatchResult) client.BatchResponse {
	out := client.BatchResponse{
		BatchID: batchID,
		Count:   batch.Len(),
		Items:   make([]client.BatchItem, 0, batch.Len()),
	}
	batch.Each(func(query string, resp *crossref.SearchResponse) {
		out.Items = append(out.Items, client.BatchItem{
			Query:    query,
			Response: ToSearchResponse(resp),
		})
	})
	return out
}

// ToResult converts one result.
func ToResult(r crossref.SearchResult) client.Result {
	return client.Result{
		Score:     r.Score,
		MatchType: string(r.MatchType),
		IsLegacy:  r.IsLegacy,
		URL:       r.URL,
		Category:  r.Category,
		Mapping:   ToMapping(r.Mapping),
	}
}

// ToMapping flattens the mapping union.
func ToMapping(ref catalog.MappingRef) client.Mapping {
	m := client.Mapping{
		Kind:         string(ref.Kind),
		SourceModel:  ref.SourceModel(),
		Manufacturer: ref.Manufacturer(),
		Replacement:  ref.ReplacementModel(),
	}
	switch ref.Kind {
	case catalog.MappingKindCompetitor:
		c := ref.Competitor
		m.Features = append([]string(nil), c.Features...)
		m.MatchConfidence = c.MatchConfidence
		m.CompetitorType = c.CompetitorType
		m.Resolution = c.Resolution
		m.Notes = c.Notes
	case catalog.MappingKindLegacy:
		m.Notes = ref.Legacy.Notes
		m.DiscontinuedYear = ref.Legacy.DiscontinuedYear
	}
	return m
}

// ToSearchConfig converts engine settings.
func ToSearchConfig(c crossref.SearchConfig) client.SearchConfig {
	return client.SearchConfig{
		MaxResults:         c.MaxResults,
		MinScore:           c.MinScore,
		FuzzyEnabled:       c.FuzzyEnabled,
		SuggestionsEnabled: c.SuggestionsEnabled,
		MaxSuggestions:     c.MaxSuggestions,
	}
}

// FromConfigUpdate converts a wire update into an engine update.
func FromConfigUpdate(u client.ConfigUpdate) crossref.ConfigUpdate {
	return crossref.ConfigUpdate{
		MaxResults:         u.MaxResults,
		MinScore:           u.MinScore,
		FuzzyEnabled:       u.FuzzyEnabled,
		SuggestionsEnabled: u.SuggestionsEnabled,
		MaxSuggestions:     u.MaxSuggestions,
	}
}

// ToStats converts index stats.
func ToStats(s catalog.Stats, generation uint64) client.StatsResponse {
	return client.StatsResponse{
		Competitors:      s.Competitors,
		Legacy:           s.Legacy,
		Manufacturers:    s.Manufacturers,
		CompetitorKeys:   s.CompetitorKeys,
		LegacyKeys:       s.LegacyKeys,
		CurrentModelKeys: s.CurrentModelKeys,
		Generation:       generation,
		BuiltAt:          s.BuiltAt,
	}
}

func toResults(results []crossref.SearchResult) []client.Result {
	out := make([]client.Result, len(results))
	for i, r := range results {
		out[i] = ToResult(r)
	}
	return out
}
