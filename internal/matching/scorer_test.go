package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"kitten", "sitting", 3},
		{"", "abc", 3},
		{"abc", "", 3},
		{"", "", 0},
		{"P3265", "P3265", 0},
		{"P3265", "P3245", 1},
		{"DS2CD2143", "DS2CD2143G2I", 3},
		{"flaw", "lawn", 2},
	}

	for _, tc := range tests {
		t.Run(tc.a+"_"+tc.b, func(t *testing.T) {
			assert.Equal(t, tc.expected, LevenshteinDistance(tc.a, tc.b))
		})
	}
}

func TestLevenshteinDistance_Symmetric(t *testing.T) {
	for _, a := range normalizerSamples {
		for _, b := range normalizerSamples {
			assert.Equal(t, LevenshteinDistance(a, b), LevenshteinDistance(b, a), "%q vs %q", a, b)
		}
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 100, Similarity("ds-2cd2143g2-i", "DS 2CD2143G2 I"))
	assert.Equal(t, 0, Similarity("abc", "---"))
	assert.Equal(t, 80, Similarity("P3265", "P3245"))
	assert.Equal(t, 0, Similarity("ABC", "XYZ"))

	for _, s := range normalizerSamples {
		assert.Equal(t, 100, Similarity(s, s), "input %q", s)
	}
}

func TestClassifyScore(t *testing.T) {
	assert.Equal(t, MatchExact, ClassifyScore(100))
	assert.Equal(t, MatchExact, ClassifyScore(ExactThreshold))
	assert.Equal(t, MatchPartial, ClassifyScore(ExactThreshold-1))
	assert.Equal(t, MatchPartial, ClassifyScore(PartialThreshold))
	assert.Equal(t, MatchSimilar, ClassifyScore(PartialThreshold-1))
	assert.Equal(t, MatchSimilar, ClassifyScore(SimilarThreshold))
	assert.Equal(t, MatchNone, ClassifyScore(SimilarThreshold-1))
	assert.Equal(t, MatchNone, ClassifyScore(0))
}

func TestMatchType_Priority(t *testing.T) {
	assert.Less(t, MatchExact.Priority(), MatchPartial.Priority())
	assert.Less(t, MatchPartial.Priority(), MatchSimilar.Priority())
	assert.Less(t, MatchSimilar.Priority(), MatchNone.Priority())
}

func TestScoreMatch(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		target      string
		score       int
		matchType   MatchType
		isSubstring bool
	}{
		{"identical after normalization", "ds-2cd2143g2-i", "DS-2CD2143G2-I", 100, MatchExact, false},
		{"prefix containment", "CD6", "CD62", 85, MatchPartial, true},
		{"inner containment", "2CD2143", "DS-2CD2143G2-I", 82, MatchPartial, true},
		{"one substitution", "P3265", "P3245", 80, MatchPartial, false},
		{"unrelated", "ABC", "XYZ", 0, MatchNone, false},
		{"empty query is not contained", "---", "P3265", 0, MatchNone, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ScoreMatch(tc.query, tc.target)
			assert.Equal(t, tc.score, got.Score)
			assert.Equal(t, tc.matchType, got.Type)
			assert.Equal(t, tc.isSubstring, got.IsSubstring)
		})
	}
}

func TestScoreMatch_ContainmentNeverBelowPartial(t *testing.T) {
	targets := []string{"DS-2CD2143G2-I", "IPC-HFW2831T-ZS", "QNV-8080R", "P3265-LVE"}
	for _, target := range targets {
		n := NormalizeStrict(target)
		for i := 1; i < len(n); i++ {
			got := ScoreMatch(n[:i], target)
			assert.True(t, got.IsSubstring)
			assert.GreaterOrEqual(t, got.Score, PartialThreshold, "query %q target %q", n[:i], target)
			assert.NotEqual(t, MatchNone, got.Type)
		}
	}
}
