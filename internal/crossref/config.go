package crossref

import (
	"errors"
	"fmt"

	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/matching"
)

// ErrInvalidConfig is returned when a configuration update is rejected.
var ErrInvalidConfig = errors.New("invalid search configuration")

// BrowseSampleSize caps axis-browse results.
const BrowseSampleSize = 20

// minResultsBeforeSuggest is the result count below which suggestions are offered.
const minResultsBeforeSuggest = 3

// SearchConfig holds the runtime-tunable search settings.
type SearchConfig struct {
	MaxResults         int  `json:"maxResults" yaml:"max_results"`
	MinScore           int  `json:"minScore" yaml:"min_score"`
	FuzzyEnabled       bool `json:"fuzzyEnabled" yaml:"fuzzy_enabled"`
	SuggestionsEnabled bool `json:"suggestionsEnabled" yaml:"suggestions_enabled"`
	MaxSuggestions     int  `json:"maxSuggestions" yaml:"max_suggestions"`
}

// DefaultSearchConfig returns the settings used when none are supplied.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		MaxResults:         10,
		MinScore:           matching.SimilarThreshold,
		FuzzyEnabled:       true,
		SuggestionsEnabled: true,
		MaxSuggestions:     5,
	}
}

// Validate checks the configuration bounds.
func (c SearchConfig) Validate() error {
	if c.MaxResults <= 0 {
		return fmt.Errorf("%w: maxResults must be positive, got %d", ErrInvalidConfig, c.MaxResults)
	}
	if c.MinScore < matching.SimilarThreshold || c.MinScore > 100 {
		return fmt.Errorf("%w: minScore must be between %d and 100, got %d",
			ErrInvalidConfig, matching.SimilarThreshold, c.MinScore)
	}
	if c.MaxSuggestions < 0 {
		return fmt.Errorf("%w: maxSuggestions must not be negative, got %d", ErrInvalidConfig, c.MaxSuggestions)
	}
	return nil
}

// Fingerprint identifies the settings that influence search output.
func (c SearchConfig) Fingerprint() string {
	return fmt.Sprintf("r%d:s%d:f%t:g%t:n%d",
		c.MaxResults, c.MinScore, c.FuzzyEnabled, c.SuggestionsEnabled, c.MaxSuggestions)
}

// ConfigUpdate is a partial configuration change; nil fields keep their value.
type ConfigUpdate struct {
	MaxResults         *int  `json:"maxResults,omitempty"`
	MinScore           *int  `json:"minScore,omitempty"`
	FuzzyEnabled       *bool `json:"fuzzyEnabled,omitempty"`
	SuggestionsEnabled *bool `json:"suggestionsEnabled,omitempty"`
	MaxSuggestions     *int  `json:"maxSuggestions,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u ConfigUpdate) IsEmpty() bool {
	return u.MaxResults == nil && u.MinScore == nil && u.FuzzyEnabled == nil &&
		u.SuggestionsEnabled == nil && u.MaxSuggestions == nil
}

// Apply returns c with the supplied fields replaced.
func (u ConfigUpdate) Apply(c SearchConfig) SearchConfig {
	if u.MaxResults != nil {
		c.MaxResults = *u.MaxResults
	}
	if u.MinScore != nil {
		c.MinScore = *u.MinScore
	}
	if u.FuzzyEnabled != nil {
		c.FuzzyEnabled = *u.FuzzyEnabled
	}
	if u.SuggestionsEnabled != nil {
		c.SuggestionsEnabled = *u.SuggestionsEnabled
	}
	if u.MaxSuggestions != nil {
		c.MaxSuggestions = *u.MaxSuggestions
	}
	return c
}
