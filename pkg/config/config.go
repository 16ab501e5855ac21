// Package config loads engine configuration from config.yaml with
// environment variable overrides.
package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for cercalo-engine.
// Configuration can come from YAML file (config.yaml) or environment
// variables. Environment variables always override YAML values. Secrets
// (passwords, API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8090"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Redis configuration (optional, shared rate-limit window)
	Redis RedisConfig `yaml:"redis"`

	// AI model endpoint configuration
	AI AIConfig `yaml:"ai"`

	// Engine behavior configuration
	Engine EngineConfig `yaml:"engine"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"cercalo"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"cercalo_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`

	// MigrationsPath is the directory holding SQL migration files.
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration. Redis is optional: when Host is
// empty the rate limiter keeps a process-local window instead.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// AIConfig holds the model endpoint used for intent translation and SEO
// content generation.
type AIConfig struct {
	// Provider selects the client: "openai" (default, also covers any
	// OpenAI-compatible endpoint) or "anthropic".
	Provider string `yaml:"provider" env:"AI_PROVIDER" env-default:"openai"`
	BaseURL  string `yaml:"base_url" env:"AI_BASE_URL" env-default:"https://api.openai.com/v1"`
	Model    string `yaml:"model" env:"AI_MODEL" env-default:"gpt-4o-mini"`
	APIKey   string `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML
}

// EngineConfig holds query engine behavior settings.
type EngineConfig struct {
	// MaxResults caps every result set.
	MaxResults int `yaml:"max_results" env:"ENGINE_MAX_RESULTS" env-default:"50"`

	// TranslateTimeoutSeconds bounds the translation phase including retries.
	TranslateTimeoutSeconds int `yaml:"translate_timeout_seconds" env:"ENGINE_TRANSLATE_TIMEOUT_SECONDS" env-default:"60"`

	// RateLimitPerMinute is the per-user model-call budget.
	RateLimitPerMinute int `yaml:"rate_limit_per_minute" env:"ENGINE_RATE_LIMIT_PER_MINUTE" env-default:"5"`

	// CatalogPath points at a YAML field catalog. Empty means the
	// built-in catalog.
	CatalogPath string `yaml:"catalog_path" env:"ENGINE_CATALOG_PATH" env-default:""`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.AI.Model == "" {
		return fmt.Errorf("ai.model must be set")
	}
	if c.AI.Provider != "openai" && c.AI.Provider != "anthropic" && c.AI.Provider != "" {
		return fmt.Errorf("ai.provider must be openai or anthropic, got %q", c.AI.Provider)
	}
	if c.Engine.MaxResults <= 0 {
		return fmt.Errorf("engine.max_results must be positive")
	}
	if c.Engine.RateLimitPerMinute <= 0 {
		return fmt.Errorf("engine.rate_limit_per_minute must be positive")
	}
	return nil
}
