package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Catalog sources
const (
	CatalogPostgres = "postgres"
	CatalogMemory   = "memory"
	CatalogHTTP     = "http"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Advice    AdviceConfig    `mapstructure:"advice"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Environment     string        `mapstructure:"environment"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	ApplySchema     bool          `mapstructure:"apply_schema"`
}

// DSN returns the PostgreSQL connection string
func (c DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// CatalogConfig selects and configures the product store
type CatalogConfig struct {
	Source            string        `mapstructure:"source"` // "postgres", "memory" or "http"
	SeedFile          string        `mapstructure:"seed_file"`
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	SnapshotTTL       time.Duration `mapstructure:"snapshot_ttl"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type          string        `mapstructure:"type"` // "memory" or "redis"
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	KeyPrefix     string        `mapstructure:"key_prefix"`
	TTL           time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds per-client rate limiting configuration
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	PerIP   int  `mapstructure:"per_ip"` // requests per minute
	Burst   int  `mapstructure:"burst"`
}

// AdviceConfig holds the matching engine tunables
type AdviceConfig struct {
	Debug             bool    `mapstructure:"debug"`
	AbsoluteFloor     int     `mapstructure:"absolute_floor"`
	StrongRatio       float64 `mapstructure:"strong_ratio"`
	MaxResults        int     `mapstructure:"max_results"`
	CatalogLimit      int     `mapstructure:"catalog_limit"`
	NameMatchLimit    int     `mapstructure:"name_match_limit"`
	NarrowSearchLimit int     `mapstructure:"narrow_search_limit"`
	WideSearchLimit   int     `mapstructure:"wide_search_limit"`
	MinPoolSize       int     `mapstructure:"min_pool_size"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/electrocyb/")

	// ELECTROCYB_SERVER_PORT -> server.port
	v.SetEnvPrefix("ELECTROCYB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", "10s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "electrocyb")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "electrocyb")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.apply_schema", false)

	// Catalog defaults
	v.SetDefault("catalog.source", CatalogPostgres)
	v.SetDefault("catalog.seed_file", "")
	v.SetDefault("catalog.base_url", "")
	v.SetDefault("catalog.timeout", "10s")
	v.SetDefault("catalog.requests_per_second", 5)
	v.SetDefault("catalog.snapshot_ttl", "5s")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.key_prefix", "electrocyb:")
	v.SetDefault("cache.ttl", "10m")

	// Rate limit defaults
	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.per_ip", 60)
	v.SetDefault("ratelimit.burst", 10)

	// Matching engine defaults
	v.SetDefault("advice.debug", false)
	v.SetDefault("advice.absolute_floor", 80)
	v.SetDefault("advice.strong_ratio", 0.8)
	v.SetDefault("advice.max_results", 4)
	v.SetDefault("advice.catalog_limit", 12)
	v.SetDefault("advice.name_match_limit", 5)
	v.SetDefault("advice.narrow_search_limit", 5)
	v.SetDefault("advice.wide_search_limit", 50)
	v.SetDefault("advice.min_pool_size", 5)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Catalog.Source {
	case CatalogPostgres:
		if config.Database.Host == "" || config.Database.Name == "" {
			return fmt.Errorf("database host and name are required when catalog source is 'postgres'")
		}
	case CatalogMemory:
		if config.Catalog.SeedFile == "" {
			return fmt.Errorf("catalog seed file is required when catalog source is 'memory' (set ELECTROCYB_CATALOG_SEED_FILE)")
		}
	case CatalogHTTP:
		if config.Catalog.BaseURL == "" {
			return fmt.Errorf("catalog base URL is required when catalog source is 'http' (set ELECTROCYB_CATALOG_BASE_URL)")
		}
	default:
		return fmt.Errorf("catalog source must be 'postgres', 'memory' or 'http', got: %s", config.Catalog.Source)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisAddr == "" {
		return fmt.Errorf("redis address is required when cache type is 'redis'")
	}

	if config.RateLimit.Enabled && config.RateLimit.PerIP <= 0 {
		return fmt.Errorf("ratelimit.per_ip must be positive when rate limiting is enabled, got: %d", config.RateLimit.PerIP)
	}

	if config.Advice.StrongRatio <= 0 || config.Advice.StrongRatio > 1 {
		return fmt.Errorf("advice.strong_ratio must be in (0, 1], got: %v", config.Advice.StrongRatio)
	}

	if config.Advice.AbsoluteFloor < 1 {
		return fmt.Errorf("advice.absolute_floor must be at least 1 (1 applies only strong_ratio), got: %d", config.Advice.AbsoluteFloor)
	}

	if config.Advice.MaxResults <= 0 {
		return fmt.Errorf("advice.max_results must be positive, got: %d", config.Advice.MaxResults)
	}

	if config.Log.Format != "json" && config.Log.Format != "console" {
		return fmt.Errorf("log format must be 'json' or 'console', got: %s", config.Log.Format)
	}

	return nil
}
