package crossref

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/cache"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/observability"
)

// ResponseCache memoizes Search responses in a cache.Client. Keys include the
// search configuration and index generation, so a Configure or SwapIndex
// never serves stale answers even before Invalidate runs.
type ResponseCache struct {
	engine *Engine
	client cache.Client
	logger *observability.Logger
	config ResponseCacheConfig
}

// ResponseCacheConfig configures the response cache.
type ResponseCacheConfig struct {
	TTL       time.Duration
	KeyPrefix string
	Enabled   bool
}

// DefaultResponseCacheConfig returns default cache configuration.
func DefaultResponseCacheConfig() ResponseCacheConfig {
	return ResponseCacheConfig{
		TTL:       10 * time.Minute,
		KeyPrefix: "search:",
		Enabled:   true,
	}
}

// CachedResponse is the stored form of a response.
type CachedResponse struct {
	Response *SearchResponse `json:"response"`
	CachedAt time.Time       `json:"cached_at"`
}

// NewResponseCache wraps engine with a cache. A nil client disables caching.
func NewResponseCache(engine *Engine, client cache.Client, logger *observability.Logger, config ResponseCacheConfig) *ResponseCache {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "search:"
	}
	if config.TTL <= 0 {
		config.TTL = 10 * time.Minute
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &ResponseCache{
		engine: engine,
		client: client,
		logger: logger,
		config: config,
	}
}

// Engine returns the wrapped engine.
func (c *ResponseCache) Engine() *Engine {
	return c.engine
}

// CacheKey derives the key for a raw query under the engine's current state.
func (c *ResponseCache) CacheKey(raw string) string {
	parts := cache.CacheKey(raw, c.engine.Config().Fingerprint(), strconv.FormatUint(c.engine.Generation(), 10))
	hash := sha256.Sum256([]byte(parts))
	return c.config.KeyPrefix + hex.EncodeToString(hash[:16])
}

// Search returns a cached response when present, otherwise runs the engine
// and stores the result. The boolean reports a cache hit.
func (c *ResponseCache) Search(ctx context.Context, raw string) (*SearchResponse, bool) {
	if !c.config.Enabled || c.client == nil {
		return c.engine.Search(raw), false
	}

	key := c.CacheKey(raw)
	if resp, ok := c.get(ctx, key); ok {
		return resp, true
	}

	resp := c.engine.Search(raw)
	if err := c.set(ctx, key, resp); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache response")
	}
	return resp, false
}

// Configure updates the engine and drops cached responses.
func (c *ResponseCache) Configure(ctx context.Context, update ConfigUpdate) (SearchConfig, error) {
	cfg, err := c.engine.Configure(update)
	if err != nil {
		return cfg, err
	}
	if err := c.Invalidate(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to invalidate response cache")
	}
	return cfg, nil
}

// Invalidate removes every cached response.
func (c *ResponseCache) Invalidate(ctx context.Context) error {
	if !c.config.Enabled || c.client == nil {
		return nil
	}
	c.logger.Info().Str("prefix", c.config.KeyPrefix).Msg("Invalidating response cache")
	return c.client.DeleteByPrefix(ctx, c.config.KeyPrefix)
}

func (c *ResponseCache) get(ctx context.Context, key string) (*SearchResponse, bool) {
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Debug().Err(err).Str("key", key).Msg("Cache get error")
		}
		return nil, false
	}

	var cached CachedResponse
	if err := json.Unmarshal(data, &cached); err != nil || cached.Response == nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to unmarshal cached response")
		return nil, false
	}

	c.logger.Debug().Str("key", key).Msg("Cache hit")
	return cached.Response, true
}

func (c *ResponseCache) set(ctx context.Context, key string, resp *SearchResponse) error {
	data, err := json.Marshal(CachedResponse{Response: resp, CachedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	return c.client.Set(ctx, key, data, c.config.TTL)
}
