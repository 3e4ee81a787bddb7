package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/spherical-ai/spherical/libs/crossref-engine/internal/catalog"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// TxDB is a DB that can open transactions.
type TxDB interface {
	DB
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// OpenOptions tunes the connection pool.
type OpenOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// JournalMode is applied to SQLite databases, e.g. WAL.
	JournalMode string
}

// Open connects to a catalog database and verifies the connection.
func Open(ctx context.Context, dialect Dialect, dsn string, opts OpenOptions) (*sql.DB, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	if dialect == DialectSQLite && opts.JournalMode != "" {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode="+opts.JournalMode); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set journal mode: %w", err)
		}
	}
	return db, nil
}

// CatalogRepository reads and writes mapping datasets.
type CatalogRepository struct {
	db       TxDB
	dialect  Dialect
	progress func(done, total int)
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(db TxDB, dialect Dialect) *CatalogRepository {
	return &CatalogRepository{db: db, dialect: dialect}
}

// OnProgress registers a callback invoked after each row Import writes.
func (r *CatalogRepository) OnProgress(fn func(done, total int)) *CatalogRepository {
	r.progress = fn
	return r
}

// Migrate creates the catalog tables if they do not exist.
func (r *CatalogRepository) Migrate(ctx context.Context) error {
	for _, stmt := range schemaFor(r.dialect) {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Import writes a dataset in one transaction. With replace set, existing
// mappings are deleted first; otherwise the rows are appended after them.
func (r *CatalogRepository) Import(ctx context.Context, ds *catalog.Dataset, source string, replace bool) (*ImportRun, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if replace {
		for _, table := range []string{"competitor_mappings", "legacy_mappings"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return nil, fmt.Errorf("clear %s: %w", table, err)
			}
		}
	}

	total := len(ds.Competitors) + len(ds.Legacy)
	done := 0
	tick := func() {
		done++
		if r.progress != nil {
			r.progress(done, total)
		}
	}
	if err := insertCompetitors(ctx, tx, ds.Competitors, tick); err != nil {
		return nil, err
	}
	if err := insertLegacy(ctx, tx, ds.Legacy, tick); err != nil {
		return nil, err
	}

	run := &ImportRun{
		ID:          uuid.New(),
		Source:      source,
		Competitors: len(ds.Competitors),
		Legacy:      len(ds.Legacy),
		Replaced:    replace,
		CreatedAt:   time.Now().UTC(),
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO catalog_imports (id, source, competitors, legacy, replaced, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, run.ID.String(), run.Source, run.Competitors, run.Legacy, run.Replaced, run.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("record import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}
	return run, nil
}

func insertCompetitors(ctx context.Context, tx *sql.Tx, rows []catalog.CompetitorMapping, tick func()) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO competitor_mappings (competitor_model, manufacturer, axis_replacement,
			features, match_confidence, competitor_type, resolution, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`)
	if err != nil {
		return fmt.Errorf("prepare competitor insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range rows {
		features, err := encodeFeatures(m.Features)
		if err != nil {
			return fmt.Errorf("competitor %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx,
			m.CompetitorModel, m.Manufacturer, m.AxisReplacement,
			features, m.MatchConfidence, m.CompetitorType, m.Resolution, m.Notes,
		); err != nil {
			return fmt.Errorf("insert competitor %q: %w", m.CompetitorModel, err)
		}
		tick()
	}
	return nil
}

func insertLegacy(ctx context.Context, tx *sql.Tx, rows []catalog.LegacyMapping, tick func()) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO legacy_mappings (legacy_model, replacement, notes, discontinued_year)
		VALUES ($1, $2, $3, $4)
	`)
	if err != nil {
		return fmt.Errorf("prepare legacy insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range rows {
		if _, err := stmt.ExecContext(ctx, m.LegacyModel, m.Replacement, m.Notes, m.DiscontinuedYear); err != nil {
			return fmt.Errorf("insert legacy %q: %w", m.LegacyModel, err)
		}
		tick()
	}
	return nil
}

// ListCompetitors returns every competitor mapping in insertion order.
func (r *CatalogRepository) ListCompetitors(ctx context.Context) ([]catalog.CompetitorMapping, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT competitor_model, manufacturer, axis_replacement, features,
			match_confidence, competitor_type, resolution, notes
		FROM competitor_mappings
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list competitors: %w", err)
	}
	defer rows.Close()

	var out []catalog.CompetitorMapping
	for rows.Next() {
		var m catalog.CompetitorMapping
		var features string
		if err := rows.Scan(
			&m.CompetitorModel, &m.Manufacturer, &m.AxisReplacement, &features,
			&m.MatchConfidence, &m.CompetitorType, &m.Resolution, &m.Notes,
		); err != nil {
			return nil, err
		}
		if m.Features, err = decodeFeatures(features); err != nil {
			return nil, fmt.Errorf("competitor %q: %w", m.CompetitorModel, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListLegacy returns every legacy mapping in insertion order.
func (r *CatalogRepository) ListLegacy(ctx context.Context) ([]catalog.LegacyMapping, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT legacy_model, replacement, notes, discontinued_year
		FROM legacy_mappings
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list legacy: %w", err)
	}
	defer rows.Close()

	var out []catalog.LegacyMapping
	for rows.Next() {
		var m catalog.LegacyMapping
		if err := rows.Scan(&m.LegacyModel, &m.Replacement, &m.Notes, &m.DiscontinuedYear); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// LoadDataset reads both mapping lists.
func (r *CatalogRepository) LoadDataset(ctx context.Context) (*catalog.Dataset, error) {
	competitors, err := r.ListCompetitors(ctx)
	if err != nil {
		return nil, err
	}
	legacy, err := r.ListLegacy(ctx)
	if err != nil {
		return nil, err
	}
	return &catalog.Dataset{Competitors: competitors, Legacy: legacy}, nil
}

// Counts returns the number of stored mappings.
func (r *CatalogRepository) Counts(ctx context.Context) (CatalogCounts, error) {
	var c CatalogCounts
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM competitor_mappings`).Scan(&c.Competitors); err != nil {
		return c, fmt.Errorf("count competitors: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM legacy_mappings`).Scan(&c.Legacy); err != nil {
		return c, fmt.Errorf("count legacy: %w", err)
	}
	return c, nil
}

// LatestImport returns the most recent import run.
func (r *CatalogRepository) LatestImport(ctx context.Context) (*ImportRun, error) {
	run := &ImportRun{}
	var id string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, source, competitors, legacy, replaced, created_at
		FROM catalog_imports
		ORDER BY seq DESC
		LIMIT 1
	`).Scan(&id, &run.Source, &run.Competitors, &run.Legacy, &run.Replaced, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest import: %w", err)
	}
	if run.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("latest import id: %w", err)
	}
	return run, nil
}

func encodeFeatures(features []string) (string, error) {
	if len(features) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(features)
	if err != nil {
		return "", fmt.Errorf("encode features: %w", err)
	}
	return string(data), nil
}

func decodeFeatures(raw string) ([]string, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var features []string
	if err := json.Unmarshal([]byte(raw), &features); err != nil {
		return nil, fmt.Errorf("decode features: %w", err)
	}
	return features, nil
}
