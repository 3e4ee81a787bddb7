// Package monitoring provides search audit events and catalog drift checks.
package monitoring

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/cache"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/crossref"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/observability"
)

// DefaultAuditChannel is the pub/sub channel audit events go to.
const DefaultAuditChannel = "audit.search"

// Audit actions.
const (
	ActionSearch        = "search"
	ActionBatch         = "batch"
	ActionConfigure     = "configure"
	ActionCatalogReload = "catalog_reload"
)

// AuditEvent represents an auditable action.
type AuditEvent struct {
	ID         uuid.UUID              `json:"id"`
	Action     string                 `json:"action"`
	Operator   string                 `json:"operator,omitempty"`
	Query      string                 `json:"query,omitempty"`
	QueryType  crossref.QueryType     `json:"query_type,omitempty"`
	Results    int                    `json:"results"`
	Confidence crossref.Confidence    `json:"confidence,omitempty"`
	TopModel   string                 `json:"top_model,omitempty"`
	Latency    time.Duration          `json:"latency_ns,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// SearchAuditor logs audit events and optionally publishes them.
type SearchAuditor struct {
	logger    *observability.Logger
	publisher cache.Publisher
	channel   string
}

// NewSearchAuditor creates an auditor. A nil publisher only logs.
func NewSearchAuditor(logger *observability.Logger, publisher cache.Publisher, channel string) *SearchAuditor {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if channel == "" {
		channel = DefaultAuditChannel
	}
	return &SearchAuditor{
		logger:    logger.WithOperation("audit"),
		publisher: publisher,
		channel:   channel,
	}
}

// LogEvent records an audit event. Publishing failures are logged, not
// returned, so auditing never fails a search.
func (a *SearchAuditor) LogEvent(ctx context.Context, event AuditEvent) AuditEvent {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	a.logger.WithContext(ctx).Info().
		Str("event_id", event.ID.String()).
		Str("action", event.Action).
		Str("operator", event.Operator).
		Str("query", event.Query).
		Str("query_type", string(event.QueryType)).
		Int("results", event.Results).
		Str("confidence", string(event.Confidence)).
		Msg("Audit event")

	if a.publisher != nil {
		if err := a.publisher.Publish(ctx, a.channel, event); err != nil {
			a.logger.Warn().Err(err).Str("event_id", event.ID.String()).Msg("Failed to publish audit event")
		}
	}
	return event
}

// LogSearch records a single search.
func (a *SearchAuditor) LogSearch(ctx context.Context, operator string, resp *crossref.SearchResponse) AuditEvent {
	return a.LogEvent(ctx, searchEvent(ActionSearch, operator, resp))
}

// LogBatch records a batch with one summary event.
func (a *SearchAuditor) LogBatch(ctx context.Context, operator string, batch *crossref.BatchResult) AuditEvent {
	var matched int
	byConfidence := map[string]interface{}{}
	batch.Each(func(_ string, resp *crossref.SearchResponse) {
		if len(resp.Results) > 0 {
			matched++
		}
		key := string(resp.Confidence)
		n, _ := byConfidence[key].(int)
		byConfidence[key] = n + 1
	})

	return a.LogEvent(ctx, AuditEvent{
		Action:   ActionBatch,
		Operator: operator,
		Results:  matched,
		Payload: map[string]interface{}{
			"queries":       batch.Len(),
			"by_confidence": byConfidence,
		},
	})
}

// LogConfigure records a configuration change.
func (a *SearchAuditor) LogConfigure(ctx context.Context, operator string, cfg crossref.SearchConfig) AuditEvent {
	return a.LogEvent(ctx, AuditEvent{
		Action:   ActionConfigure,
		Operator: operator,
		Payload: map[string]interface{}{
			"max_results":         cfg.MaxResults,
			"min_score":           cfg.MinScore,
			"fuzzy_enabled":       cfg.FuzzyEnabled,
			"suggestions_enabled": cfg.SuggestionsEnabled,
			"max_suggestions":     cfg.MaxSuggestions,
		},
	})
}

func searchEvent(action, operator string, resp *crossref.SearchResponse) AuditEvent {
	event := AuditEvent{
		Action:     action,
		Operator:   operator,
		Query:      resp.Query,
		QueryType:  resp.QueryType,
		Results:    len(resp.Results),
		Confidence: resp.Confidence,
		Latency:    resp.Elapsed,
	}
	if top, ok := resp.TopResult(); ok {
		event.TopModel = top.Mapping.ReplacementModel()
	}
	return event
}
