package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crossref.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100, cfg.Search.MaxQueryLength)
	assert.Equal(t, "", cfg.DatabaseDriver())
	assert.Equal(t, "0.0.0.0:8086", cfg.Addr())
}

func TestLoad_YAMLAndRelativePaths(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
catalog:
  source: file
  dataset_path: ""
  competitors_path: data/competitors.csv
  legacy_path: /abs/legacy.csv
search:
  max_results: 25
  min_score: 70
  batch_timeout: 5s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "data/competitors.csv"), cfg.Catalog.CompetitorsPath)
	assert.Equal(t, "/abs/legacy.csv", cfg.Catalog.LegacyPath)
	assert.Equal(t, 25, cfg.Search.MaxResults)
	assert.Equal(t, 70, cfg.Search.MinScore)
	assert.Equal(t, 5*time.Second, cfg.Search.BatchTimeout)
	// Unset keys keep defaults.
	assert.True(t, cfg.Search.FuzzyEnabled)
	assert.Equal(t, 5, cfg.Search.MaxSuggestions)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost/xref?sslmode=disable")
	t.Setenv("REDIS_URL", "redis://cache:6379")
	t.Setenv("CROSSREF_MIN_SCORE", "80")
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("CROSSREF_API_KEYS", "alpha, beta,")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, SourcePostgres, cfg.Catalog.Source)
	assert.Equal(t, "postgres", cfg.DatabaseDriver())
	assert.Equal(t, "postgres://u:p@localhost/xref?sslmode=disable", cfg.DatabaseDSN())
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "cache:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, 80, cfg.Search.MinScore)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, []string{"alpha", "beta"}, cfg.Auth.APIKeys)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_SQLiteEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite:/tmp/xref.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", cfg.DatabaseDriver())
	assert.Equal(t, "/tmp/xref.db", cfg.DatabaseDSN())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"unknown source", func(c *Config) { c.Catalog.Source = "s3" }},
		{"file without paths", func(c *Config) { c.Catalog.DatasetPath = "" }},
		{"postgres without dsn", func(c *Config) { c.Catalog.Source = SourcePostgres }},
		{"zero max results", func(c *Config) { c.Search.MaxResults = 0 }},
		{"min score too low", func(c *Config) { c.Search.MinScore = 40 }},
		{"negative suggestions", func(c *Config) { c.Search.MaxSuggestions = -1 }},
		{"zero query length", func(c *Config) { c.Search.MaxQueryLength = 0 }},
		{"bad cache driver", func(c *Config) { c.Cache.Driver = "memcached" }},
		{"auth without keys", func(c *Config) { c.Auth.Enabled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestResolveRelativePath(t *testing.T) {
	assert.Equal(t, "/etc/xref/data.yaml", ResolveRelativePath("/etc/xref/config.yaml", "data.yaml"))
	assert.Equal(t, "/data.yaml", ResolveRelativePath("/etc/xref/config.yaml", "/data.yaml"))
}
