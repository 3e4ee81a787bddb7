package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/crossref"
	"github.com/spherical-ai/spherical/libs/crossref-engine/pkg/client"
)

func testEngine(t *testing.T) *crossref.Engine {
	t.Helper()
	idx := catalog.BuildIndex(
		[]catalog.CompetitorMapping{
			{CompetitorModel: "DS-2CD2143G2-I", Manufacturer: "Hikvision", AxisReplacement: "P3265-LVE", Features: []string{"IR"}, MatchConfidence: "high"},
		},
		[]catalog.LegacyMapping{
			{LegacyModel: "AXIS 211M", Replacement: "P1375", DiscontinuedYear: 2012, Notes: "indoor"},
		},
	)
	e, err := crossref.NewEngine(idx, func(m string) string { return "https://example.test/" + m }, nil, crossref.DefaultSearchConfig())
	require.NoError(t, err)
	return e
}

func TestToSearchResponse_Competitor(t *testing.T) {
	resp := ToSearchResponse(testEngine(t).Search("DS-2CD2143G2-I"))

	assert.Equal(t, "competitor", resp.QueryType)
	assert.Equal(t, "high", resp.Confidence)
	require.Len(t, resp.Results, 1)
	require.Len(t, resp.Grouped.Exact, 1)
	assert.Empty(t, resp.Grouped.Partial)
	assert.NotNil(t, resp.Suggestions)

	r := resp.Results[0]
	assert.Equal(t, 100, r.Score)
	assert.Equal(t, "exact", r.MatchType)
	assert.Equal(t, "https://example.test/P3265-LVE", r.URL)
	assert.Equal(t, "ndaa-restricted", r.Category)
	assert.Equal(t, client.Mapping{
		Kind:            "competitor",
		SourceModel:     "DS-2CD2143G2-I",
		Manufacturer:    "Hikvision",
		Replacement:     "P3265-LVE",
		Features:        []string{"IR"},
		MatchConfidence: "high",
	}, r.Mapping)
}

func TestToMapping_Legacy(t *testing.T) {
	resp := testEngine(t).Search("AXIS 211M")
	require.NotEmpty(t, resp.Results)

	m := ToMapping(resp.Results[0].Mapping)
	assert.Equal(t, "legacy", m.Kind)
	assert.Equal(t, "Axis", m.Manufacturer)
	assert.Equal(t, "P1375", m.Replacement)
	assert.Equal(t, 2012, m.DiscontinuedYear)
	assert.Equal(t, "indoor", m.Notes)
	assert.Empty(t, m.Features)
}

func TestToSearchResponse_Elapsed(t *testing.T) {
	resp := ToSearchResponse(&crossref.SearchResponse{Elapsed: 1500 * time.Microsecond})
	assert.InDelta(t, 1.5, resp.ElapsedMs, 0.0001)
	assert.NotNil(t, resp.Results)
	assert.NotNil(t, resp.Grouped.Exact)
}

func TestToBatchResponse_KeepsOrder(t *testing.T) {
	batch := testEngine(t).SearchBatch([]string{"B", "A", "B"})
	out := ToBatchResponse("id", batch)

	assert.Equal(t, "id", out.BatchID)
	assert.Equal(t, 2, out.Count)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "B", out.Items[0].Query)
	assert.Equal(t, "A", out.Items[1].Query)
	assert.True(t, out.Items[0].Response.IsBatch)
}

func TestConfigConversions(t *testing.T) {
	minScore := 70
	fuzzy := false
	update := FromConfigUpdate(client.ConfigUpdate{MinScore: &minScore, FuzzyEnabled: &fuzzy})

	cfg := update.Apply(crossref.DefaultSearchConfig())
	wire := ToSearchConfig(cfg)
	assert.Equal(t, 70, wire.MinScore)
	assert.False(t, wire.FuzzyEnabled)
	assert.Equal(t, 10, wire.MaxResults)
}
