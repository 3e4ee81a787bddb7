package crossref

import (
	"sort"
	"strings"

	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/matching"
)

const minSuggestionQueryLen = 2

type suggestion struct {
	model string
	key   string
	score int
}

// suggest proposes competitor models that start with (score 100) or contain
// (score 50) the normalized query. Results are distinct under NormalizeStrict.
func suggest(idx *catalog.Index, normalized string, limit int) []string {
	out := []string{}
	if limit <= 0 || len(normalized) < minSuggestionQueryLen {
		return out
	}

	var candidates []suggestion
	for _, m := range idx.Competitors() {
		key := matching.NormalizeStrict(m.CompetitorModel)
		switch {
		case strings.HasPrefix(key, normalized):
			candidates = append(candidates, suggestion{model: m.CompetitorModel, key: key, score: 100})
		case strings.Contains(key, normalized):
			candidates = append(candidates, suggestion{model: m.CompetitorModel, key: key, score: 50})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	seen := make(map[string]struct{}, limit)
	for _, c := range candidates {
		if _, dup := seen[c.key]; dup {
			continue
		}
		seen[c.key] = struct{}{}
		out = append(out, strings.TrimSpace(c.model))
		if len(out) == limit {
			break
		}
	}
	return out
}
