package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCompetitors() []CompetitorMapping {
	return []CompetitorMapping{
		{CompetitorModel: "DS-2CD2143G2-I", Manufacturer: "Hikvision", AxisReplacement: "AXIS P3265-LVE"},
		{CompetitorModel: "IPC-HFW2831T-ZS", Manufacturer: "Dahua", AxisReplacement: "P1465-LE"},
		{CompetitorModel: "DS-2CD2143G2-I", Manufacturer: "hikvision ", AxisReplacement: "M3106-L Mk II"},
		{CompetitorModel: "QNV-8080R", Manufacturer: "Hanwha", AxisReplacement: "P3265-LVE"},
	}
}

func testLegacy() []LegacyMapping {
	return []LegacyMapping{
		{LegacyModel: "AXIS 211M", Replacement: "P1375", DiscontinuedYear: 2012},
		{LegacyModel: "211M", Replacement: "P1377"},
		{LegacyModel: "AXIS 207W", Replacement: "M1075-L"},
	}
}

func TestBuildIndex_KeepsDuplicateKeysInOrder(t *testing.T) {
	idx := BuildIndex(testCompetitors(), testLegacy())

	hits := idx.LookupCompetitor(CompetitorKey("ds-2cd2143g2-i"))
	require.Len(t, hits, 2)
	assert.Equal(t, "AXIS P3265-LVE", hits[0].AxisReplacement)
	assert.Equal(t, "M3106-L Mk II", hits[1].AxisReplacement)

	legacy := idx.LookupLegacy(AxisModelKey("211m"))
	require.Len(t, legacy, 2)
	assert.Equal(t, "P1375", legacy[0].Replacement)
	assert.Equal(t, "P1377", legacy[1].Replacement)
}

func TestBuildIndex_ManufacturerLookupIsCaseInsensitive(t *testing.T) {
	idx := BuildIndex(testCompetitors(), nil)

	hik := idx.LookupManufacturer("HIKVISION")
	require.Len(t, hik, 2)
	assert.Equal(t, "Hikvision", hik[0].Manufacturer)
	assert.Len(t, idx.LookupManufacturer("dahua"), 1)
	assert.Empty(t, idx.LookupManufacturer("bosch"))
}

func TestBuildIndex_ReverseIndexIgnoresBrandPrefix(t *testing.T) {
	idx := BuildIndex(testCompetitors(), nil)

	hits := idx.LookupCurrentModel(AxisModelKey("p3265-lve"))
	require.Len(t, hits, 2)
	assert.Equal(t, "DS-2CD2143G2-I", hits[0].CompetitorModel)
	assert.Equal(t, "QNV-8080R", hits[1].CompetitorModel)
}

func TestBuildIndex_NeverDropsEntries(t *testing.T) {
	competitors := testCompetitors()
	legacy := testLegacy()
	idx := BuildIndex(competitors, legacy)

	for _, m := range competitors {
		assert.Contains(t, idx.LookupCompetitor(CompetitorKey(m.CompetitorModel)), findCompetitor(idx, m))
	}
	total := 0
	for _, hits := range idx.byCompetitorModel {
		total += len(hits)
	}
	assert.Equal(t, len(competitors), total)

	total = 0
	for _, hits := range idx.byManufacturer {
		total += len(hits)
	}
	assert.Equal(t, len(competitors), total)

	total = 0
	for _, hits := range idx.byCurrentModel {
		total += len(hits)
	}
	assert.Equal(t, len(competitors), total)

	total = 0
	for _, hits := range idx.byLegacyModel {
		total += len(hits)
	}
	assert.Equal(t, len(legacy), total)
}

func findCompetitor(idx *Index, m CompetitorMapping) *CompetitorMapping {
	for _, c := range idx.Competitors() {
		if c.CompetitorModel == m.CompetitorModel && c.Manufacturer == m.Manufacturer && c.AxisReplacement == m.AxisReplacement {
			return c
		}
	}
	return nil
}

func TestBuildIndex_RepresentativesFollowInputOrder(t *testing.T) {
	idx := BuildIndex(testCompetitors(), nil)

	reps := idx.ManufacturerRepresentatives()
	require.Len(t, reps, 3)
	assert.Equal(t, "Hikvision", reps[0].Manufacturer)
	assert.Equal(t, "Dahua", reps[1].Manufacturer)
	assert.Equal(t, "Hanwha", reps[2].Manufacturer)
	assert.Equal(t, []string{"Hikvision", "Dahua", "Hanwha"}, idx.Manufacturers())
}

func TestBuildIndex_CopiesInput(t *testing.T) {
	competitors := testCompetitors()
	idx := BuildIndex(competitors, nil)

	competitors[0].AxisReplacement = "changed"
	assert.Equal(t, "AXIS P3265-LVE", idx.Competitors()[0].AxisReplacement)
}

func TestIndex_Stats(t *testing.T) {
	stats := BuildIndex(testCompetitors(), testLegacy()).Stats()

	assert.Equal(t, 4, stats.Competitors)
	assert.Equal(t, 3, stats.Legacy)
	assert.Equal(t, 3, stats.Manufacturers)
	assert.Equal(t, 3, stats.CompetitorKeys)
	assert.Equal(t, 2, stats.LegacyKeys)
	assert.Equal(t, 3, stats.CurrentModelKeys)
	assert.False(t, stats.BuiltAt.IsZero())
}

func TestMappingRef(t *testing.T) {
	comp := &CompetitorMapping{CompetitorModel: "QNV-8080R", Manufacturer: "Hanwha", AxisReplacement: "P3265-LVE"}
	ref := CompetitorRef(comp)
	assert.Equal(t, MappingKindCompetitor, ref.Kind)
	assert.Nil(t, ref.Legacy)
	assert.Equal(t, "QNV-8080R", ref.SourceModel())
	assert.Equal(t, "P3265-LVE", ref.ReplacementModel())
	assert.Equal(t, "Hanwha", ref.Manufacturer())

	leg := &LegacyMapping{LegacyModel: "AXIS 207W", Replacement: "M1075-L"}
	ref = LegacyRef(leg)
	assert.Equal(t, MappingKindLegacy, ref.Kind)
	assert.Nil(t, ref.Competitor)
	assert.Equal(t, "AXIS 207W", ref.SourceModel())
	assert.Equal(t, "M1075-L", ref.ReplacementModel())
	assert.Equal(t, LegacyManufacturer, ref.Manufacturer())
}
