package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v10"
)

// Slot backends.
const (
	SlotBackendMemory   = "memory"
	SlotBackendRedis    = "redis"
	SlotBackendPostgres = "postgres"
)

// Config holds all configuration for the cart service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"CART_HTTP_PORT" envDefault:"8003"`

	// Catalog/stock API
	CatalogBaseURL    string        `env:"CATALOG_BASE_URL" envDefault:"http://localhost:3333"`
	CatalogTimeout    time.Duration `env:"CATALOG_TIMEOUT" envDefault:"5s"`
	CatalogMaxRetries int           `env:"CATALOG_MAX_RETRIES" envDefault:"2"`
	CatalogRateLimit  float64       `env:"CATALOG_RATE_LIMIT" envDefault:"0"`
	CatalogRateBurst  int           `env:"CATALOG_RATE_BURST" envDefault:"10"`

	// Persisted slot
	SlotBackend string        `env:"CART_SLOT_BACKEND" envDefault:"redis"`
	SlotKey     string        `env:"CART_SLOT_KEY" envDefault:"@RocketShoes:cart"`
	SlotTTL     time.Duration `env:"CART_SLOT_TTL" envDefault:"0s"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// PostgreSQL, only used by the postgres slot backend
	PostgresDSN string `env:"POSTGRES_DSN"`

	// Run mutations one at a time instead of last-write-wins.
	SerializeMutations bool `env:"CART_SERIALIZE_MUTATIONS" envDefault:"false"`

	// Kafka; events are disabled when no broker is configured.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("load cart config: parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	u, err := url.Parse(c.CatalogBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("CATALOG_BASE_URL must be an absolute URL, got %q", c.CatalogBaseURL)
	}
	if c.CatalogTimeout <= 0 {
		return fmt.Errorf("CATALOG_TIMEOUT must be > 0, got %s", c.CatalogTimeout)
	}
	if c.CatalogMaxRetries < 0 {
		return fmt.Errorf("CATALOG_MAX_RETRIES must be >= 0, got %d", c.CatalogMaxRetries)
	}
	if c.CatalogRateLimit < 0 {
		return fmt.Errorf("CATALOG_RATE_LIMIT must be >= 0, got %f", c.CatalogRateLimit)
	}
	if c.SlotKey == "" {
		return fmt.Errorf("CART_SLOT_KEY is required")
	}
	if c.SlotTTL < 0 {
		return fmt.Errorf("CART_SLOT_TTL must be >= 0, got %s", c.SlotTTL)
	}

	switch c.SlotBackend {
	case SlotBackendMemory, SlotBackendRedis:
	case SlotBackendPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres slot backend")
		}
	default:
		return fmt.Errorf("unknown CART_SLOT_BACKEND %q", c.SlotBackend)
	}

	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// EventsEnabled reports whether cart events should be published.
func (c *Config) EventsEnabled() bool {
	for _, b := range c.KafkaBrokers {
		if b != "" {
			return true
		}
	}
	return false
}
