package crossref

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/matching"
)

// browseKeywords trigger a browse of the whole competitor catalog.
var browseKeywords = []string{"axis", "axis communications", "axis cameras"}

// legacyPrefixes are discontinued numeric Axis model families. Letter-series
// legacy models (M1011, P1311, ...) are caught by the current-model rule first.
var legacyPrefixes = []string{
	"2100", "2110", "2120", "2130", "2400", "2401", "2411", "2420", "2460",
	"205", "206", "207", "209", "210", "211", "212", "213", "214", "215", "216",
	"221", "223", "225", "231", "232", "233", "240", "241", "243", "247",
}

// axisModelPattern matches a current Axis model: a series letter followed by
// four digits, an optional suffix, and optionally the brand in front.
var axisModelPattern = regexp.MustCompile(`^(?:AXIS[\s_-]+)?[MPQFVDICW]\d{4}(?:[\s/-]?[A-Z0-9]+)*$`)

type manufacturerAlias struct {
	alias     string
	canonical string
}

// QueryClassifier decides which search strategy a raw query needs.
type QueryClassifier struct {
	browse   map[string]struct{}
	aliases  []manufacturerAlias
	groups   map[string][]string
	prefixes []string
}

// NewQueryClassifier builds a classifier over the built-in manufacturer table.
// Manufacturer names from the loaded dataset that the table does not know are
// recognised as well.
func NewQueryClassifier(datasetManufacturers ...string) *QueryClassifier {
	c := &QueryClassifier{
		browse:   make(map[string]struct{}, len(browseKeywords)),
		groups:   make(map[string][]string),
		prefixes: legacyPrefixes,
	}
	for _, kw := range browseKeywords {
		c.browse[kw] = struct{}{}
	}

	known := make(map[string]bool)
	for _, group := range manufacturerGroups {
		canonical := group[0]
		c.groups[canonical] = group
		for _, alias := range group {
			c.aliases = append(c.aliases, manufacturerAlias{alias: alias, canonical: canonical})
			known[alias] = true
		}
	}
	for _, name := range datasetManufacturers {
		key := strings.ToLower(strings.Join(strings.Fields(name), " "))
		if key == "" || known[key] {
			continue
		}
		known[key] = true
		c.groups[key] = []string{key}
		c.aliases = append(c.aliases, manufacturerAlias{alias: key, canonical: key})
	}

	// Longest alias first so "hanwha vision" wins over "hanwha"; ties broken
	// alphabetically to keep classification independent of input order.
	sort.SliceStable(c.aliases, func(i, j int) bool {
		if len(c.aliases[i].alias) != len(c.aliases[j].alias) {
			return len(c.aliases[i].alias) > len(c.aliases[j].alias)
		}
		return c.aliases[i].alias < c.aliases[j].alias
	})

	return c
}

// Classify applies the rules in priority order; the first match wins:
// empty, browse keyword, current Axis model, manufacturer name, legacy
// prefix, competitor model.
func (c *QueryClassifier) Classify(raw string) ParsedQuery {
	trimmed := strings.TrimSpace(raw)
	pq := ParsedQuery{Raw: raw}

	if trimmed == "" {
		pq.Type = QueryTypeCompetitor
		pq.IsEmpty = true
		return pq
	}

	lower := strings.ToLower(strings.Join(strings.Fields(trimmed), " "))

	if _, ok := c.browse[lower]; ok {
		pq.Type = QueryTypeAxisBrowse
		pq.Normalized = matching.NormalizeStrict(trimmed)
		return pq
	}

	if axisModelPattern.MatchString(strings.ToUpper(trimmed)) {
		pq.Type = QueryTypeAxisModel
		pq.Normalized = matching.NormalizeStrict(matching.StripBrand(trimmed))
		return pq
	}

	if canonical, ok := c.matchManufacturer(lower); ok {
		pq.Type = QueryTypeManufacturer
		pq.Manufacturer = CanonicalManufacturer(canonical)
		pq.Normalized = matching.NormalizeStrict(trimmed)
		return pq
	}

	stripped := matching.NormalizeStrict(matching.StripBrand(trimmed))
	if c.isLegacy(stripped) {
		pq.Type = QueryTypeLegacy
		pq.Normalized = stripped
		return pq
	}

	pq.Type = QueryTypeCompetitor
	pq.Normalized = matching.NormalizeStrict(trimmed)
	return pq
}

// ManufacturerAliases returns every alias of the group a canonical name
// belongs to, canonical first.
func (c *QueryClassifier) ManufacturerAliases(name string) []string {
	return c.groups[strings.ToLower(strings.TrimSpace(name))]
}

// matchManufacturer reports the canonical manufacturer when lower equals an
// alias, or starts with one followed by text that holds no digit. A digit
// after the name means a model number follows, which is not a browse.
func (c *QueryClassifier) matchManufacturer(lower string) (string, bool) {
	for _, a := range c.aliases {
		if lower == a.alias {
			return a.canonical, true
		}
		if !strings.HasPrefix(lower, a.alias) {
			continue
		}
		rest := lower[len(a.alias):]
		next := []rune(rest)[0]
		if unicode.IsLetter(next) || unicode.IsDigit(next) {
			continue
		}
		if strings.IndexFunc(rest, unicode.IsDigit) >= 0 {
			return "", false
		}
		return a.canonical, true
	}
	return "", false
}

func (c *QueryClassifier) isLegacy(normalized string) bool {
	for _, prefix := range c.prefixes {
		if !strings.HasPrefix(normalized, prefix) {
			continue
		}
		if len(normalized) == len(prefix) || !isASCIIDigit(normalized[len(prefix)]) {
			return true
		}
	}
	return false
}

func isASCIIDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
