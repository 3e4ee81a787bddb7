// Package catalog holds the cross-reference datasets and the index built over them.
package catalog

// CompetitorMapping links a third-party camera model to its recommended
// Axis replacement. MatchConfidence is supplied by the data source and is
// never computed here.
type CompetitorMapping struct {
	CompetitorModel string   `json:"competitor_model" yaml:"competitor_model"`
	Manufacturer    string   `json:"manufacturer" yaml:"manufacturer"`
	AxisReplacement string   `json:"axis_replacement" yaml:"axis_replacement"`
	Features        []string `json:"features,omitempty" yaml:"features,omitempty"`
	MatchConfidence string   `json:"match_confidence,omitempty" yaml:"match_confidence,omitempty"`
	CompetitorType  string   `json:"competitor_type,omitempty" yaml:"competitor_type,omitempty"`
	Resolution      string   `json:"resolution,omitempty" yaml:"resolution,omitempty"`
	Notes           string   `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// LegacyMapping links a discontinued Axis model to its current replacement.
type LegacyMapping struct {
	LegacyModel      string `json:"legacy_model" yaml:"legacy_model"`
	Replacement      string `json:"replacement" yaml:"replacement"`
	Notes            string `json:"notes,omitempty" yaml:"notes,omitempty"`
	DiscontinuedYear int    `json:"discontinued_year,omitempty" yaml:"discontinued_year,omitempty"`
}

// LegacyManufacturer is reported for legacy mappings, which are all first-party.
const LegacyManufacturer = "Axis"

// MappingKind tags which variant a MappingRef holds.
type MappingKind string

const (
	MappingKindCompetitor MappingKind = "competitor"
	MappingKindLegacy     MappingKind = "legacy"
)

// MappingRef is a tagged union over the two mapping record types. Exactly one
// of Competitor or Legacy is set, selected by Kind. The pointers refer into an
// Index and must not be modified.
type MappingRef struct {
	Kind       MappingKind        `json:"kind"`
	Competitor *CompetitorMapping `json:"competitor,omitempty"`
	Legacy     *LegacyMapping     `json:"legacy,omitempty"`
}

// CompetitorRef wraps a competitor mapping.
func CompetitorRef(m *CompetitorMapping) MappingRef {
	return MappingRef{Kind: MappingKindCompetitor, Competitor: m}
}

// LegacyRef wraps a legacy mapping.
func LegacyRef(m *LegacyMapping) MappingRef {
	return MappingRef{Kind: MappingKindLegacy, Legacy: m}
}

// SourceModel is the model the user searched for: the competitor model or the
// discontinued Axis model.
func (r MappingRef) SourceModel() string {
	switch r.Kind {
	case MappingKindCompetitor:
		return r.Competitor.CompetitorModel
	case MappingKindLegacy:
		return r.Legacy.LegacyModel
	default:
		return ""
	}
}

// ReplacementModel is the current Axis model recommended by the mapping.
func (r MappingRef) ReplacementModel() string {
	switch r.Kind {
	case MappingKindCompetitor:
		return r.Competitor.AxisReplacement
	case MappingKindLegacy:
		return r.Legacy.Replacement
	default:
		return ""
	}
}

// Manufacturer of the source model.
func (r MappingRef) Manufacturer() string {
	switch r.Kind {
	case MappingKindCompetitor:
		return r.Competitor.Manufacturer
	case MappingKindLegacy:
		return LegacyManufacturer
	default:
		return ""
	}
}

// Dataset is the pair of input lists an Index is built from.
type Dataset struct {
	Competitors []CompetitorMapping `json:"competitors" yaml:"competitors"`
	Legacy      []LegacyMapping     `json:"legacy" yaml:"legacy"`
}
