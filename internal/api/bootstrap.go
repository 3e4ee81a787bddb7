package api

import (
	"context"
	"fmt"

	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/cache"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/config"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/crossref"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/monitoring"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/observability"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/productlink"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/storage"
)

// Runtime bundles the components both binaries build from configuration.
type Runtime struct {
	Source      *storage.CatalogSource
	Engine      *crossref.Engine
	DatasetHash string
}

// SearchConfigFrom extracts engine settings from the file configuration.
func SearchConfigFrom(cfg config.SearchConfig) crossref.SearchConfig {
	return crossref.SearchConfig{
		MaxResults:         cfg.MaxResults,
		MinScore:           cfg.MinScore,
		FuzzyEnabled:       cfg.FuzzyEnabled,
		SuggestionsEnabled: cfg.SuggestionsEnabled,
		MaxSuggestions:     cfg.MaxSuggestions,
	}
}

// LimitsFrom extracts request limits from the file configuration.
func LimitsFrom(cfg config.SearchConfig) Limits {
	return Limits{
		MaxQueryLength: cfg.MaxQueryLength,
		MaxBatchSize:   cfg.MaxBatchSize,
		BatchWorkers:   cfg.BatchWorkers,
		BatchTimeout:   cfg.BatchTimeout,
	}
}

// NewResolver builds the product link resolver.
func NewResolver(cfg config.ProductLinkConfig) *productlink.Resolver {
	return productlink.NewResolver(cfg.BaseURL,
		productlink.WithVerified(cfg.VerifiedLinks),
		productlink.WithAliases(cfg.Aliases),
	)
}

// NewRuntime loads the catalog and builds the engine over it.
func NewRuntime(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*Runtime, error) {
	source := storage.NewCatalogSource(cfg.Catalog)

	ds, err := source.Load(ctx)
	if err != nil {
		_ = source.Close()
		return nil, err
	}
	hash, err := monitoring.DatasetHash(ds)
	if err != nil {
		_ = source.Close()
		return nil, err
	}

	idx := catalog.BuildIndex(ds.Competitors, ds.Legacy)
	engine, err := crossref.NewEngine(idx, NewResolver(cfg.ProductLink).Resolve, logger, SearchConfigFrom(cfg.Search))
	if err != nil {
		_ = source.Close()
		return nil, fmt.Errorf("create engine: %w", err)
	}

	return &Runtime{
		Source:      source,
		Engine:      engine,
		DatasetHash: hash,
	}, nil
}

// Close releases the catalog source.
func (rt *Runtime) Close() error {
	return rt.Source.Close()
}

// NewCacheClient creates the configured response cache backend. The Redis
// client doubles as the audit publisher; the memory client has none.
func NewCacheClient(cfg config.CacheConfig) (cache.Client, cache.Publisher, error) {
	if cfg.Driver == "redis" {
		rc, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return rc, rc, nil
	}
	return cache.NewMemoryClient(cfg.MaxEntries), nil, nil
}

// ResponseCacheConfigFrom extracts response cache settings.
func ResponseCacheConfigFrom(cfg config.CacheConfig) crossref.ResponseCacheConfig {
	rc := crossref.DefaultResponseCacheConfig()
	rc.Enabled = cfg.Enabled
	if cfg.TTL > 0 {
		rc.TTL = cfg.TTL
	}
	return rc
}
