package monitoring

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/crossref"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/observability"
)

// DatasetLoader fetches the current catalog from its source.
type DatasetLoader func(ctx context.Context) (*catalog.Dataset, error)

// DriftConfig holds catalog drift check configuration.
type DriftConfig struct {
	CheckInterval time.Duration
}

// DriftCheckResult describes one check.
type DriftCheckResult struct {
	CheckedAt   time.Time `json:"checked_at"`
	OldHash     string    `json:"old_hash"`
	NewHash     string    `json:"new_hash"`
	Changed     bool      `json:"changed"`
	Competitors int       `json:"competitors"`
	Legacy      int       `json:"legacy"`
}

// DriftRunner reloads the catalog when its source content changes and swaps
// the rebuilt index into the engine.
type DriftRunner struct {
	engine  *crossref.Engine
	load    DatasetLoader
	auditor *SearchAuditor
	logger  *observability.Logger
	config  DriftConfig

	mu       sync.Mutex
	lastHash string
}

// NewDriftRunner creates a drift runner. initialHash is the hash of the
// dataset the engine was built from; pass "" to force a swap on first check.
func NewDriftRunner(engine *crossref.Engine, load DatasetLoader, auditor *SearchAuditor, logger *observability.Logger, cfg DriftConfig, initialHash string) *DriftRunner {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 5 * time.Minute
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &DriftRunner{
		engine:   engine,
		load:     load,
		auditor:  auditor,
		logger:   logger.WithOperation("catalog_drift"),
		config:   cfg,
		lastHash: initialHash,
	}
}

// DatasetHash fingerprints a dataset's content and order.
func DatasetHash(ds *catalog.Dataset) (string, error) {
	data, err := json.Marshal(ds)
	if err != nil {
		return "", fmt.Errorf("hash dataset: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// RunCheck loads the catalog once and swaps the index if it changed.
func (d *DriftRunner) RunCheck(ctx context.Context) (*DriftCheckResult, error) {
	ds, err := d.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}
	hash, err := DatasetHash(ds)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	result := &DriftCheckResult{
		CheckedAt:   time.Now().UTC(),
		OldHash:     d.lastHash,
		NewHash:     hash,
		Changed:     hash != d.lastHash,
		Competitors: len(ds.Competitors),
		Legacy:      len(ds.Legacy),
	}
	if !result.Changed {
		d.logger.Debug().Str("hash", hash).Msg("Catalog unchanged")
		return result, nil
	}

	d.engine.SwapIndex(catalog.BuildIndex(ds.Competitors, ds.Legacy))
	d.lastHash = hash

	if d.auditor != nil {
		d.auditor.LogEvent(ctx, AuditEvent{
			Action: ActionCatalogReload,
			Payload: map[string]interface{}{
				"old_hash":    result.OldHash,
				"new_hash":    result.NewHash,
				"competitors": result.Competitors,
				"legacy":      result.Legacy,
			},
		})
	}
	return result, nil
}

// Start runs checks every CheckInterval until ctx is cancelled.
func (d *DriftRunner) Start(ctx context.Context) {
	ticker := time.NewTicker(d.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.RunCheck(ctx); err != nil {
				d.logger.Warn().Err(err).Msg("Catalog drift check failed")
			}
		}
	}
}
