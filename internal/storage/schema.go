package storage

// Each dialect gets its own DDL; the column sets are identical.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS competitor_mappings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		competitor_model TEXT NOT NULL,
		manufacturer TEXT NOT NULL,
		axis_replacement TEXT NOT NULL,
		features TEXT NOT NULL DEFAULT '[]',
		match_confidence TEXT NOT NULL DEFAULT '',
		competitor_type TEXT NOT NULL DEFAULT '',
		resolution TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_competitor_mappings_manufacturer ON competitor_mappings (manufacturer)`,
	`CREATE TABLE IF NOT EXISTS legacy_mappings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		legacy_model TEXT NOT NULL,
		replacement TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		discontinued_year INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS catalog_imports (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		source TEXT NOT NULL,
		competitors INTEGER NOT NULL,
		legacy INTEGER NOT NULL,
		replaced BOOLEAN NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS competitor_mappings (
		id BIGSERIAL PRIMARY KEY,
		competitor_model TEXT NOT NULL,
		manufacturer TEXT NOT NULL,
		axis_replacement TEXT NOT NULL,
		features TEXT NOT NULL DEFAULT '[]',
		match_confidence TEXT NOT NULL DEFAULT '',
		competitor_type TEXT NOT NULL DEFAULT '',
		resolution TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_competitor_mappings_manufacturer ON competitor_mappings (manufacturer)`,
	`CREATE TABLE IF NOT EXISTS legacy_mappings (
		id BIGSERIAL PRIMARY KEY,
		legacy_model TEXT NOT NULL,
		replacement TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		discontinued_year INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS catalog_imports (
		seq BIGSERIAL PRIMARY KEY,
		id UUID NOT NULL UNIQUE,
		source TEXT NOT NULL,
		competitors INTEGER NOT NULL,
		legacy INTEGER NOT NULL,
		replaced BOOLEAN NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

func schemaFor(d Dialect) []string {
	if d == DialectPostgres {
		return postgresSchema
	}
	return sqliteSchema
}
