// Package storage persists mapping catalogs in SQLite or Postgres so the
// engine can be loaded from a database instead of files.
package storage

import (
	"time"

	"github.com/google/uuid"
)

// Dialect selects SQL differences between supported databases.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

// ImportRun records one catalog import.
type ImportRun struct {
	ID          uuid.UUID `json:"id"`
	Source      string    `json:"source"`
	Competitors int       `json:"competitors"`
	Legacy      int       `json:"legacy"`
	Replaced    bool      `json:"replaced"`
	CreatedAt   time.Time `json:"created_at"`
}

// CatalogCounts reports row counts.
type CatalogCounts struct {
	Competitors int `json:"competitors"`
	Legacy      int `json:"legacy"`
}
