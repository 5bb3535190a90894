package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const envPrefix = "MARKETING_DASH_"

// Config holds all configuration for the marketing dashboard.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Warehouse WarehouseConfig `yaml:"warehouse"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	Env             string        `yaml:"env"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
}

// WarehouseConfig describes the connection to the analytics warehouse that
// holds the gold aggregate tables.
type WarehouseConfig struct {
	Driver       string        `yaml:"driver"` // postgres or clickhouse
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	User         string        `yaml:"user"`
	Password     string        `yaml:"password"`
	DBName       string        `yaml:"name"`
	SSLMode      string        `yaml:"sslmode"`
	Schema       string        `yaml:"schema"`
	MaxConns     int           `yaml:"max_conns"`
	MinConns     int           `yaml:"min_conns"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

// DSN returns the PostgreSQL connection string.
func (w WarehouseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		w.User, w.Password, w.Host, w.Port, w.DBName, w.SSLMode,
	)
}

// Addr returns host:port for drivers that take a bare address.
func (w WarehouseConfig) Addr() string {
	return fmt.Sprintf("%s:%d", w.Host, w.Port)
}

type RedisConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	TTL       time.Duration `yaml:"ttl"`
	KeyPrefix string        `yaml:"key_prefix"`
}

type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

type DashboardConfig struct {
	Title string `yaml:"title"`
}

// ConfigurationError reports missing or invalid settings. It is fatal at
// startup: no page may be rendered with a broken configuration.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Defaults returns the configuration used when neither a file nor the
// environment provide a value.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			Env:             "development",
			ShutdownTimeout: 30 * time.Second,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
		},
		Warehouse: WarehouseConfig{
			Driver:       "postgres",
			Port:         5432,
			SSLMode:      "disable",
			Schema:       "marketing_gold",
			MaxConns:     10,
			MinConns:     1,
			QueryTimeout: 30 * time.Second,
		},
		Redis: RedisConfig{
			Enabled:   false,
			Addr:      "localhost:6379",
			TTL:       15 * time.Minute,
			KeyPrefix: "marketing-dashboard",
		},
		RateLimit: RateLimitConfig{
			Enabled: false,
			RPS:     20,
			Burst:   40,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Path:      "/metrics",
			Namespace: "marketing_dashboard",
		},
		Dashboard: DashboardConfig{
			Title: "Marketing Performance Dashboard",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in that order of precedence (environment wins). An empty path
// falls back to MARKETING_DASH_CONFIG_FILE.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		path = os.Getenv(envPrefix + "CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &ConfigurationError{Field: "config_file", Reason: err.Error()}
	}

	// Secrets are usually injected as environment variables referenced
	// from the file, e.g. password: ${WAREHOUSE_PASSWORD}.
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), c); err != nil {
		return &ConfigurationError{Field: "config_file", Reason: fmt.Sprintf("parse %s: %v", path, err)}
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Addr = getEnv("HTTP_ADDR", c.Server.Addr)
	c.Server.Env = getEnv("ENV", c.Server.Env)
	c.Server.ShutdownTimeout = getDurationEnv("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.ReadTimeout = getDurationEnv("READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getDurationEnv("WRITE_TIMEOUT", c.Server.WriteTimeout)

	c.Warehouse.Driver = strings.ToLower(getEnv("DB_DRIVER", c.Warehouse.Driver))
	c.Warehouse.Host = getEnv("DB_HOST", c.Warehouse.Host)
	c.Warehouse.Port = getIntEnv("DB_PORT", c.Warehouse.Port)
	c.Warehouse.User = getEnv("DB_USER", c.Warehouse.User)
	c.Warehouse.Password = getEnv("DB_PASSWORD", c.Warehouse.Password)
	c.Warehouse.DBName = getEnv("DB_NAME", c.Warehouse.DBName)
	c.Warehouse.SSLMode = getEnv("DB_SSLMODE", c.Warehouse.SSLMode)
	c.Warehouse.Schema = getEnv("DB_SCHEMA", c.Warehouse.Schema)
	c.Warehouse.MaxConns = getIntEnv("DB_MAX_CONNS", c.Warehouse.MaxConns)
	c.Warehouse.MinConns = getIntEnv("DB_MIN_CONNS", c.Warehouse.MinConns)
	c.Warehouse.QueryTimeout = getDurationEnv("QUERY_TIMEOUT", c.Warehouse.QueryTimeout)

	c.Redis.Enabled = getBoolEnv("REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getIntEnv("REDIS_DB", c.Redis.DB)
	c.Redis.TTL = getDurationEnv("REDIS_TTL", c.Redis.TTL)
	c.Redis.KeyPrefix = getEnv("REDIS_KEY_PREFIX", c.Redis.KeyPrefix)

	c.RateLimit.Enabled = getBoolEnv("RATE_LIMIT_ENABLED", c.RateLimit.Enabled)
	c.RateLimit.RPS = getFloatEnv("RATE_LIMIT_RPS", c.RateLimit.RPS)
	c.RateLimit.Burst = getIntEnv("RATE_LIMIT_BURST", c.RateLimit.Burst)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.Metrics.Enabled = getBoolEnv("METRICS_ENABLED", c.Metrics.Enabled)
	c.Metrics.Path = getEnv("METRICS_PATH", c.Metrics.Path)
	c.Metrics.Namespace = getEnv("METRICS_NAMESPACE", c.Metrics.Namespace)

	c.Dashboard.Title = getEnv("TITLE", c.Dashboard.Title)
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	w := c.Warehouse
	switch w.Driver {
	case "postgres", "clickhouse":
	default:
		return &ConfigurationError{Field: "warehouse.driver", Reason: fmt.Sprintf("unsupported driver %q", w.Driver)}
	}
	if w.Host == "" {
		return &ConfigurationError{Field: "warehouse.host", Reason: envPrefix + "DB_HOST is required"}
	}
	if w.Port <= 0 || w.Port > 65535 {
		return &ConfigurationError{Field: "warehouse.port", Reason: fmt.Sprintf("port %d out of range", w.Port)}
	}
	if w.User == "" {
		return &ConfigurationError{Field: "warehouse.user", Reason: envPrefix + "DB_USER is required"}
	}
	if w.DBName == "" {
		return &ConfigurationError{Field: "warehouse.name", Reason: envPrefix + "DB_NAME is required"}
	}
	if w.Schema == "" {
		return &ConfigurationError{Field: "warehouse.schema", Reason: "schema must not be empty"}
	}
	if w.QueryTimeout <= 0 {
		return &ConfigurationError{Field: "warehouse.query_timeout", Reason: "must be positive"}
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return &ConfigurationError{Field: "redis.addr", Reason: "required when redis is enabled"}
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return &ConfigurationError{Field: "rate_limit", Reason: "rps and burst must be positive"}
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// Helper functions for reading environment variables

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getFloatEnv(key string, def float64) float64 {
	if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
