package matching

import (
	"math"
	"strings"
)

// Score thresholds shared by tier classification, the minimum-score filter
// and response confidence.
const (
	ExactThreshold   = 90
	PartialThreshold = 70
	SimilarThreshold = 50
)

// MatchType is the discrete tier derived from a similarity score.
type MatchType string

const (
	MatchExact   MatchType = "exact"
	MatchPartial MatchType = "partial"
	MatchSimilar MatchType = "similar"
	MatchNone    MatchType = "none"
)

// Priority orders tiers for sorting; lower sorts first.
func (t MatchType) Priority() int {
	switch t {
	case MatchExact:
		return 0
	case MatchPartial:
		return 1
	case MatchSimilar:
		return 2
	default:
		return 3
	}
}

// MatchScore is the result of comparing a query against a target string.
type MatchScore struct {
	Score       int       `json:"score"`
	Type        MatchType `json:"matchType"`
	IsSubstring bool      `json:"isSubstring"`
}

// ClassifyScore maps a 0-100 score onto a tier.
func ClassifyScore(score int) MatchType {
	switch {
	case score >= ExactThreshold:
		return MatchExact
	case score >= PartialThreshold:
		return MatchPartial
	case score >= SimilarThreshold:
		return MatchSimilar
	default:
		return MatchNone
	}
}

// LevenshteinDistance returns the unit-cost edit distance between a and b.
// Working memory is two rows sized to the shorter operand.
func LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	if len(rb) > len(ra) {
		ra, rb = rb, ra
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Similarity returns a 0-100 score from the edit distance of the strictly
// normalized operands.
func Similarity(a, b string) int {
	return similarityNormalized(NormalizeStrict(a), NormalizeStrict(b))
}

func similarityNormalized(na, nb string) int {
	if na == nb {
		return 100
	}
	if na == "" || nb == "" {
		return 0
	}
	longest := max(len(na), len(nb))
	d := LevenshteinDistance(na, nb)
	return int(math.Round((1 - float64(d)/float64(longest)) * 100))
}

// ScoreMatch scores target against query. Containment of one normalized
// string in the other lifts the score to at least PartialThreshold, scaled by
// how much of the longer string the shorter one covers.
func ScoreMatch(query, target string) MatchScore {
	nq, nt := NormalizeStrict(query), NormalizeStrict(target)
	if nq == nt {
		return MatchScore{Score: 100, Type: MatchExact}
	}

	// An empty side would trivially be "contained" in anything.
	isSubstring := nq != "" && nt != "" &&
		(strings.Contains(nq, nt) || strings.Contains(nt, nq))

	score := similarityNormalized(nq, nt)
	if isSubstring {
		shorter, longer := len(nq), len(nt)
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		coverage := float64(shorter) / float64(longer)
		score = max(score, int(math.Round(PartialThreshold+coverage*20)))
	}

	return MatchScore{
		Score:       score,
		Type:        ClassifyScore(score),
		IsSubstring: isSubstring,
	}
}
