package catalog

import (
	"strings"
	"time"

	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/matching"
)

// Index owns the mapping records and four derived lookup views keyed by
// normalized strings. It is populated once by BuildIndex and read-only
// afterwards, so concurrent readers need no locking. To change the data,
// build a new Index and swap it in whole.
type Index struct {
	competitors []CompetitorMapping
	legacy      []LegacyMapping

	competitorPtrs []*CompetitorMapping
	legacyPtrs     []*LegacyMapping

	byCompetitorModel map[string][]*CompetitorMapping
	byLegacyModel     map[string][]*LegacyMapping
	byManufacturer    map[string][]*CompetitorMapping
	byCurrentModel    map[string][]*CompetitorMapping

	// First record per manufacturer, in input order.
	representatives []*CompetitorMapping

	builtAt time.Time
}

// Stats summarizes an Index.
type Stats struct {
	Competitors      int       `json:"competitors"`
	Legacy           int       `json:"legacy"`
	Manufacturers    int       `json:"manufacturers"`
	CompetitorKeys   int       `json:"competitorKeys"`
	LegacyKeys       int       `json:"legacyKeys"`
	CurrentModelKeys int       `json:"currentModelKeys"`
	BuiltAt          time.Time `json:"builtAt"`
}

// CompetitorKey is the lookup key for a competitor model.
func CompetitorKey(model string) string {
	return matching.NormalizeStrict(model)
}

// AxisModelKey is the lookup key for an Axis model (current or legacy); the
// brand prefix is ignored.
func AxisModelKey(model string) string {
	return matching.NormalizeStrict(matching.StripBrand(model))
}

// ManufacturerKey is the case-insensitive lookup key for a manufacturer.
// Runs of whitespace count as one space.
func ManufacturerKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// BuildIndex copies both input lists and builds every lookup view in a single
// pass over each. Records sharing a key are all kept, in input order.
func BuildIndex(competitors []CompetitorMapping, legacy []LegacyMapping) *Index {
	idx := &Index{
		competitors:       append([]CompetitorMapping(nil), competitors...),
		legacy:            append([]LegacyMapping(nil), legacy...),
		byCompetitorModel: make(map[string][]*CompetitorMapping, len(competitors)),
		byLegacyModel:     make(map[string][]*LegacyMapping, len(legacy)),
		byManufacturer:    make(map[string][]*CompetitorMapping),
		byCurrentModel:    make(map[string][]*CompetitorMapping),
		builtAt:           time.Now(),
	}

	idx.competitorPtrs = make([]*CompetitorMapping, len(idx.competitors))
	for i := range idx.competitors {
		m := &idx.competitors[i]
		idx.competitorPtrs[i] = m

		key := CompetitorKey(m.CompetitorModel)
		idx.byCompetitorModel[key] = append(idx.byCompetitorModel[key], m)

		mfr := ManufacturerKey(m.Manufacturer)
		if _, seen := idx.byManufacturer[mfr]; !seen {
			idx.representatives = append(idx.representatives, m)
		}
		idx.byManufacturer[mfr] = append(idx.byManufacturer[mfr], m)

		current := AxisModelKey(m.AxisReplacement)
		idx.byCurrentModel[current] = append(idx.byCurrentModel[current], m)
	}

	idx.legacyPtrs = make([]*LegacyMapping, len(idx.legacy))
	for i := range idx.legacy {
		m := &idx.legacy[i]
		idx.legacyPtrs[i] = m

		key := AxisModelKey(m.LegacyModel)
		idx.byLegacyModel[key] = append(idx.byLegacyModel[key], m)
	}

	return idx
}

// LookupCompetitor returns competitor mappings whose normalized model equals key.
func (idx *Index) LookupCompetitor(key string) []*CompetitorMapping {
	return idx.byCompetitorModel[key]
}

// LookupLegacy returns legacy mappings whose normalized model equals key.
func (idx *Index) LookupLegacy(key string) []*LegacyMapping {
	return idx.byLegacyModel[key]
}

// LookupManufacturer returns every competitor mapping for a manufacturer,
// matched case-insensitively.
func (idx *Index) LookupManufacturer(name string) []*CompetitorMapping {
	return idx.byManufacturer[ManufacturerKey(name)]
}

// LookupCurrentModel is the reverse index: competitor mappings whose
// replacement normalizes to key.
func (idx *Index) LookupCurrentModel(key string) []*CompetitorMapping {
	return idx.byCurrentModel[key]
}

// Competitors returns all competitor mappings in input order.
func (idx *Index) Competitors() []*CompetitorMapping {
	return idx.competitorPtrs
}

// Legacy returns all legacy mappings in input order.
func (idx *Index) Legacy() []*LegacyMapping {
	return idx.legacyPtrs
}

// ManufacturerRepresentatives returns the first competitor mapping seen for
// each distinct manufacturer, in input order.
func (idx *Index) ManufacturerRepresentatives() []*CompetitorMapping {
	return idx.representatives
}

// Manufacturers returns distinct manufacturer names as first spelled in the data.
func (idx *Index) Manufacturers() []string {
	names := make([]string, len(idx.representatives))
	for i, m := range idx.representatives {
		names[i] = strings.TrimSpace(m.Manufacturer)
	}
	return names
}

// Stats reports record and key counts.
func (idx *Index) Stats() Stats {
	return Stats{
		Competitors:      len(idx.competitors),
		Legacy:           len(idx.legacy),
		Manufacturers:    len(idx.representatives),
		CompetitorKeys:   len(idx.byCompetitorModel),
		LegacyKeys:       len(idx.byLegacyModel),
		CurrentModelKeys: len(idx.byCurrentModel),
		BuiltAt:          idx.builtAt,
	}
}
