package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/catalog"
	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/config"
)

// CatalogSource loads the mapping dataset from wherever the configuration
// points: dataset files, SQLite or Postgres. Database connections are opened
// on first use and reused.
type CatalogSource struct {
	cfg config.CatalogConfig

	mu   sync.Mutex
	db   *sql.DB
	repo *CatalogRepository
}

// NewCatalogSource creates a catalog source.
func NewCatalogSource(cfg config.CatalogConfig) *CatalogSource {
	return &CatalogSource{cfg: cfg}
}

// Describe names the source for logs.
func (s *CatalogSource) Describe() string {
	switch s.cfg.Source {
	case config.SourceSQLite:
		return "sqlite:" + s.cfg.SQLite.Path
	case config.SourcePostgres:
		return "postgres"
	default:
		if s.cfg.DatasetPath != "" {
			return "file:" + s.cfg.DatasetPath
		}
		return "file:" + s.cfg.CompetitorsPath
	}
}

// Load reads and validates the dataset.
func (s *CatalogSource) Load(ctx context.Context) (*catalog.Dataset, error) {
	var (
		ds  *catalog.Dataset
		err error
	)
	switch s.cfg.Source {
	case config.SourceSQLite, config.SourcePostgres:
		repo, rerr := s.Repository(ctx)
		if rerr != nil {
			return nil, rerr
		}
		ds, err = repo.LoadDataset(ctx)
	default:
		if s.cfg.DatasetPath != "" {
			ds, err = catalog.LoadFile(s.cfg.DatasetPath)
		} else {
			ds, err = catalog.LoadFiles(s.cfg.CompetitorsPath, s.cfg.LegacyPath)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog from %s: %w", s.Describe(), err)
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("catalog from %s: %w", s.Describe(), err)
	}
	return ds, nil
}

// Repository opens the catalog database and migrates its schema. It fails
// for file sources.
func (s *CatalogSource) Repository(ctx context.Context) (*CatalogRepository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo != nil {
		return s.repo, nil
	}

	var (
		dialect Dialect
		dsn     string
		opts    OpenOptions
	)
	switch s.cfg.Source {
	case config.SourceSQLite:
		dialect = DialectSQLite
		dsn = s.cfg.SQLite.Path
		opts = OpenOptions{
			MaxOpenConns: s.cfg.SQLite.MaxOpenConns,
			JournalMode:  s.cfg.SQLite.JournalMode,
		}
	case config.SourcePostgres:
		dialect = DialectPostgres
		dsn = s.cfg.Postgres.DSN
		opts = OpenOptions{
			MaxOpenConns:    s.cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    s.cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: s.cfg.Postgres.ConnMaxLifetime,
		}
	default:
		return nil, fmt.Errorf("catalog source %q has no database", s.cfg.Source)
	}

	db, err := Open(ctx, dialect, dsn, opts)
	if err != nil {
		return nil, err
	}
	repo := NewCatalogRepository(db, dialect)
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.db = db
	s.repo = repo
	return repo, nil
}

// Close releases the database connection, if one was opened.
func (s *CatalogSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.repo = nil
	return err
}
