package client

import "time"

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Query string `json:"query"`
}

// Mapping is the record a result was produced from. Competitor fields are
// empty for legacy mappings and DiscontinuedYear is zero for competitors.
type Mapping struct {
	Kind             string   `json:"kind"`
	SourceModel      string   `json:"sourceModel"`
	Manufacturer     string   `json:"manufacturer"`
	Replacement      string   `json:"replacement"`
	Features         []string `json:"features,omitempty"`
	MatchConfidence  string   `json:"matchConfidence,omitempty"`
	CompetitorType   string   `json:"competitorType,omitempty"`
	Resolution       string   `json:"resolution,omitempty"`
	Notes            string   `json:"notes,omitempty"`
	DiscontinuedYear int      `json:"discontinuedYear,omitempty"`
}

// Result is one ranked replacement suggestion.
type Result struct {
	Score     int     `json:"score"`
	MatchType string  `json:"matchType"`
	IsLegacy  bool    `json:"isLegacy"`
	URL       string  `json:"url"`
	Category  string  `json:"category,omitempty"`
	Mapping   Mapping `json:"mapping"`
}

// Grouped partitions results by match tier.
type Grouped struct {
	Exact   []Result `json:"exact"`
	Partial []Result `json:"partial"`
	Similar []Result `json:"similar"`
}

// SearchResponse is the answer to one query.
type SearchResponse struct {
	Query       string   `json:"query"`
	QueryType   string   `json:"queryType"`
	Results     []Result `json:"results"`
	Grouped     Grouped  `json:"grouped"`
	Suggestions []string `json:"suggestions"`
	Confidence  string   `json:"confidence"`
	ElapsedMs   float64  `json:"elapsedMs"`
	IsBatch     bool     `json:"isBatch,omitempty"`
	Cached      bool     `json:"cached,omitempty"`
}

// BatchRequest is the body of POST /api/v1/search/batch.
type BatchRequest struct {
	Queries []string `json:"queries"`
}

// BatchItem pairs a distinct query with its response.
type BatchItem struct {
	Query    string         `json:"query"`
	Response SearchResponse `json:"response"`
}

// BatchResponse holds one item per distinct query, in first-appearance order.
type BatchResponse struct {
	BatchID   string      `json:"batchId"`
	Count     int         `json:"count"`
	LatencyMs int64       `json:"latencyMs"`
	Items     []BatchItem `json:"items"`
}

// SearchConfig mirrors the engine's tunable settings.
type SearchConfig struct {
	MaxResults         int  `json:"maxResults"`
	MinScore           int  `json:"minScore"`
	FuzzyEnabled       bool `json:"fuzzyEnabled"`
	SuggestionsEnabled bool `json:"suggestionsEnabled"`
	MaxSuggestions     int  `json:"maxSuggestions"`
}

// ConfigUpdate is a partial settings update; nil fields are left unchanged.
type ConfigUpdate struct {
	MaxResults         *int  `json:"maxResults,omitempty"`
	MinScore           *int  `json:"minScore,omitempty"`
	FuzzyEnabled       *bool `json:"fuzzyEnabled,omitempty"`
	SuggestionsEnabled *bool `json:"suggestionsEnabled,omitempty"`
	MaxSuggestions     *int  `json:"maxSuggestions,omitempty"`
}

// StatsResponse describes the catalog currently served.
type StatsResponse struct {
	Competitors      int       `json:"competitors"`
	Legacy           int       `json:"legacy"`
	Manufacturers    int       `json:"manufacturers"`
	CompetitorKeys   int       `json:"competitorKeys"`
	LegacyKeys       int       `json:"legacyKeys"`
	CurrentModelKeys int       `json:"currentModelKeys"`
	Generation       uint64    `json:"generation"`
	BuiltAt          time.Time `json:"builtAt"`
}

// HealthResponse is returned by /health and /ready.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
}

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}
