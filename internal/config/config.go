// Package config provides unified configuration loading for the cross-reference
// engine binaries. Supports YAML files, environment variables, and
// programmatic overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Catalog sources.
const (
	SourceFile     = "file"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

// Config holds all configuration for the cross-reference engine.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Catalog       CatalogConfig       `yaml:"catalog"`
	Search        SearchConfig        `yaml:"search"`
	Cache         CacheConfig         `yaml:"cache"`
	Audit         AuditConfig         `yaml:"audit"`
	ProductLink   ProductLinkConfig   `yaml:"product_link"`
	Observability ObservabilityConfig `yaml:"observability"`
	Auth          AuthConfig          `yaml:"auth"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	CORSOrigins      []string      `yaml:"cors_origins"`
}

// CatalogConfig says where mapping datasets come from.
type CatalogConfig struct {
	Source string `yaml:"source"` // file, sqlite or postgres
	// DatasetPath is a single JSON/YAML file holding both lists.
	DatasetPath string `yaml:"dataset_path"`
	// CompetitorsPath and LegacyPath are used when DatasetPath is empty.
	CompetitorsPath string         `yaml:"competitors_path"`
	LegacyPath      string         `yaml:"legacy_path"`
	SQLite          SQLiteConfig   `yaml:"sqlite"`
	Postgres        PostgresConfig `yaml:"postgres"`
	ReloadInterval  time.Duration  `yaml:"reload_interval"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	Path         string `yaml:"path"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	JournalMode  string `yaml:"journal_mode"`
}

// PostgresConfig holds Postgres-specific settings.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// SearchConfig holds search tuning and request limits.
type SearchConfig struct {
	MaxResults         int           `yaml:"max_results"`
	MinScore           int           `yaml:"min_score"`
	FuzzyEnabled       bool          `yaml:"fuzzy_enabled"`
	SuggestionsEnabled bool          `yaml:"suggestions_enabled"`
	MaxSuggestions     int           `yaml:"max_suggestions"`
	MaxQueryLength     int           `yaml:"max_query_length"`
	MaxBatchSize       int           `yaml:"max_batch_size"`
	BatchWorkers       int           `yaml:"batch_workers"`
	BatchTimeout       time.Duration `yaml:"batch_timeout"`
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Driver     string        `yaml:"driver"` // memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Prefix   string `yaml:"prefix"`
}

// AuditConfig controls search audit events.
type AuditConfig struct {
	Enabled bool `yaml:"enabled"`
	// Channel is the Redis pub/sub channel; empty disables publishing.
	Channel string `yaml:"channel"`
}

// ProductLinkConfig configures the product page resolver.
type ProductLinkConfig struct {
	BaseURL       string            `yaml:"base_url"`
	VerifiedLinks map[string]string `yaml:"verified_links"`
	Aliases       map[string]string `yaml:"aliases"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// AuthConfig holds API key authentication settings.
type AuthConfig struct {
	Enabled bool     `yaml:"enabled"`
	APIKeys []string `yaml:"api_keys"`
}

// Load reads configuration from a YAML file and applies environment overrides.
// Relative catalog paths are resolved against the config file's directory.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}

		cfg.resolvePaths(path)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8086,
			ReadTimeout:      15 * time.Second,
			WriteTimeout:     30 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
			CORSOrigins:      []string{"*"},
		},
		Catalog: CatalogConfig{
			Source:      SourceFile,
			DatasetPath: "data/catalog.yaml",
			SQLite: SQLiteConfig{
				Path:         "/tmp/crossref-engine.db",
				MaxOpenConns: 1,
				JournalMode:  "WAL",
			},
			Postgres: PostgresConfig{
				MaxOpenConns:    10,
				MaxIdleConns:    2,
				ConnMaxLifetime: 5 * time.Minute,
			},
		},
		Search: SearchConfig{
			MaxResults:         10,
			MinScore:           50,
			FuzzyEnabled:       true,
			SuggestionsEnabled: true,
			MaxSuggestions:     5,
			MaxQueryLength:     100,
			MaxBatchSize:       500,
			BatchWorkers:       4,
			BatchTimeout:       30 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:    true,
			Driver:     "memory",
			TTL:        10 * time.Minute,
			MaxEntries: 10000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
				Prefix:   "xref:",
			},
		},
		Audit: AuditConfig{
			Enabled: true,
		},
		ProductLink: ProductLinkConfig{
			BaseURL: "https://www.axis.com",
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			ServiceName: "crossref-engine",
		},
		Auth: AuthConfig{
			Enabled: false,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Catalog.Source {
	case SourceFile:
		if c.Catalog.DatasetPath == "" && c.Catalog.CompetitorsPath == "" {
			return fmt.Errorf("catalog source file needs dataset_path or competitors_path")
		}
	case SourceSQLite:
		if c.Catalog.SQLite.Path == "" {
			return fmt.Errorf("catalog source sqlite needs sqlite.path")
		}
	case SourcePostgres:
		if c.Catalog.Postgres.DSN == "" {
			return fmt.Errorf("catalog source postgres needs postgres.dsn")
		}
	default:
		return fmt.Errorf("invalid catalog source: %s", c.Catalog.Source)
	}

	if c.Search.MaxResults < 1 {
		return fmt.Errorf("max_results must be positive")
	}
	if c.Search.MinScore < 50 || c.Search.MinScore > 100 {
		return fmt.Errorf("min_score must be between 50 and 100")
	}
	if c.Search.MaxSuggestions < 0 {
		return fmt.Errorf("max_suggestions must not be negative")
	}
	if c.Search.MaxQueryLength < 1 {
		return fmt.Errorf("max_query_length must be positive")
	}
	if c.Search.MaxBatchSize < 1 {
		return fmt.Errorf("max_batch_size must be positive")
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	if c.Auth.Enabled && len(c.Auth.APIKeys) == 0 {
		return fmt.Errorf("auth enabled but no api_keys configured")
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Catalog.Source != SourcePostgres || !c.Auth.Enabled
}

// DatabaseDriver returns the database/sql driver name for the catalog source,
// or "" when the catalog comes from files.
func (c *Config) DatabaseDriver() string {
	switch c.Catalog.Source {
	case SourceSQLite:
		return "sqlite3"
	case SourcePostgres:
		return "postgres"
	default:
		return ""
	}
}

// DatabaseDSN returns the appropriate database connection string.
func (c *Config) DatabaseDSN() string {
	if c.Catalog.Source == SourcePostgres {
		return c.Catalog.Postgres.DSN
	}
	return c.Catalog.SQLite.Path
}

// Addr returns host:port for the HTTP listener.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) resolvePaths(configPath string) {
	if c.Catalog.DatasetPath != "" {
		c.Catalog.DatasetPath = ResolveRelativePath(configPath, c.Catalog.DatasetPath)
	}
	if c.Catalog.CompetitorsPath != "" {
		c.Catalog.CompetitorsPath = ResolveRelativePath(configPath, c.Catalog.CompetitorsPath)
	}
	if c.Catalog.LegacyPath != "" {
		c.Catalog.LegacyPath = ResolveRelativePath(configPath, c.Catalog.LegacyPath)
	}
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		if strings.HasPrefix(v, "sqlite:") {
			cfg.Catalog.Source = SourceSQLite
			cfg.Catalog.SQLite.Path = strings.TrimPrefix(v, "sqlite:")
		} else if strings.HasPrefix(v, "postgres") {
			cfg.Catalog.Source = SourcePostgres
			cfg.Catalog.Postgres.DSN = v
		}
	}

	if v := os.Getenv("CROSSREF_CATALOG_PATH"); v != "" {
		cfg.Catalog.Source = SourceFile
		cfg.Catalog.DatasetPath = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Cache.Redis.Password = v
	}

	if v := os.Getenv("CROSSREF_MIN_SCORE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.MinScore = n
		}
	}

	if v := os.Getenv("CROSSREF_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.MaxResults = n
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}

	if v := os.Getenv("AUTH_ENABLED"); v == "true" {
		cfg.Auth.Enabled = true
	}

	if v := os.Getenv("CROSSREF_API_KEYS"); v != "" {
		var keys []string
		for _, k := range strings.Split(v, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keys = append(keys, k)
			}
		}
		cfg.Auth.APIKeys = keys
	}
}

// ResolveRelativePath resolves a path relative to the config file location.
func ResolveRelativePath(configPath, targetPath string) string {
	if filepath.IsAbs(targetPath) {
		return targetPath
	}
	configDir := filepath.Dir(configPath)
	return filepath.Join(configDir, targetPath)
}
