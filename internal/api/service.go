package api

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/crossref"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/monitoring"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/observability"
	"github.com/spherical-ai/spherical/libs/crossref-engine/pkg/client"
)

// Request validation errors. Both transports report them as bad requests.
var (
	ErrQueryTooLong  = errors.New("query too long")
	ErrEmptyBatch    = errors.New("batch has no queries")
	ErrBatchTooLarge = errors.New("batch too large")
	ErrEmptyUpdate   = errors.New("config update has no fields")
)

// AnonymousOperator is recorded when a request does not name its caller.
const AnonymousOperator = "anonymous"

// Limits bound what a single request may ask for.
type Limits struct {
	MaxQueryLength int
	MaxBatchSize   int
	BatchWorkers   int
	BatchTimeout   time.Duration
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxQueryLength: 100,
		MaxBatchSize:   500,
		BatchWorkers:   4,
		BatchTimeout:   30 * time.Second,
	}
}

// Service is the transport-neutral search surface behind the HTTP handlers
// and the Connect service.
type Service struct {
	cache   *crossref.ResponseCache
	auditor *monitoring.SearchAuditor
	logger  *observability.Logger
	limits  Limits
}

// NewService creates a service. auditor may be nil.
func NewService(cache *crossref.ResponseCache, auditor *monitoring.SearchAuditor, logger *observability.Logger, limits Limits) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	defaults := DefaultLimits()
	if limits.MaxQueryLength <= 0 {
		limits.MaxQueryLength = defaults.MaxQueryLength
	}
	if limits.MaxBatchSize <= 0 {
		limits.MaxBatchSize = defaults.MaxBatchSize
	}
	return &Service{
		cache:   cache,
		auditor: auditor,
		logger:  logger.WithOperation("api"),
		limits:  limits,
	}
}

// Engine returns the engine behind the cache.
func (s *Service) Engine() *crossref.Engine {
	return s.cache.Engine()
}

// Search runs one query through the response cache.
func (s *Service) Search(ctx context.Context, operator, query string) (client.SearchResponse, error) {
	if err := s.checkQuery(query); err != nil {
		return client.SearchResponse{}, err
	}

	resp, cached := s.cache.Search(ctx, query)
	if s.auditor != nil {
		s.auditor.LogSearch(ctx, operator, resp)
	}

	out := ToSearchResponse(resp)
	out.Cached = cached
	return out, nil
}

// SearchBatch runs queries concurrently, bypassing the response cache.
func (s *Service) SearchBatch(ctx context.Context, operator string, queries []string) (client.BatchResponse, error) {
	if len(queries) == 0 {
		return client.BatchResponse{}, ErrEmptyBatch
	}
	if len(queries) > s.limits.MaxBatchSize {
		return client.BatchResponse{}, fmt.Errorf("%w: %d queries, limit %d", ErrBatchTooLarge, len(queries), s.limits.MaxBatchSize)
	}
	for _, q := range queries {
		if err := s.checkQuery(q); err != nil {
			return client.BatchResponse{}, err
		}
	}

	start := time.Now()
	batchID := uuid.NewString()
	processor := crossref.NewBatchProcessor(s.Engine(), s.limits.BatchWorkers, s.limits.BatchTimeout)
	batch, err := processor.ProcessParallel(ctx, queries)
	if err != nil {
		return client.BatchResponse{}, err
	}

	if s.auditor != nil {
		s.auditor.LogBatch(ctx, operator, batch)
	}

	out := ToBatchResponse(batchID, batch)
	out.LatencyMs = time.Since(start).Milliseconds()

	s.logger.WithContext(ctx).Info().
		Str("batch_id", batchID).
		Int("queries", len(queries)).
		Int("distinct", batch.Len()).
		Int64("latency_ms", out.LatencyMs).
		Msg("Batch search completed")
	return out, nil
}

// Config returns the current search settings.
func (s *Service) Config() client.SearchConfig {
	return ToSearchConfig(s.Engine().Config())
}

// Configure applies a partial update. Invalid updates leave settings unchanged
// and return an error wrapping crossref.ErrInvalidConfig.
func (s *Service) Configure(ctx context.Context, operator string, update client.ConfigUpdate) (client.SearchConfig, error) {
	u := FromConfigUpdate(update)
	if u.IsEmpty() {
		return client.SearchConfig{}, ErrEmptyUpdate
	}

	cfg, err := s.cache.Configure(ctx, u)
	if err != nil {
		return client.SearchConfig{}, err
	}
	if s.auditor != nil {
		s.auditor.LogConfigure(ctx, operator, cfg)
	}
	return ToSearchConfig(cfg), nil
}

// Stats describes the index currently served.
func (s *Service) Stats() client.StatsResponse {
	e := s.Engine()
	return ToStats(e.Index().Stats(), e.Generation())
}

// IsInvalidInput reports whether err was caused by the request rather than
// the server.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrQueryTooLong) ||
		errors.Is(err, ErrEmptyBatch) ||
		errors.Is(err, ErrBatchTooLarge) ||
		errors.Is(err, ErrEmptyUpdate) ||
		errors.Is(err, crossref.ErrInvalidConfig)
}

func (s *Service) checkQuery(query string) error {
	if n := utf8.RuneCountInString(query); n > s.limits.MaxQueryLength {
		return fmt.Errorf("%w: %d characters, limit %d", ErrQueryTooLong, n, s.limits.MaxQueryLength)
	}
	return nil
}
