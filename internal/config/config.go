package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgconfig "github.com/utafrali/storefront/pkg/config"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/tracing"
)

// DefaultJWTSecret is the development secret; any other environment must
// override it.
const DefaultJWTSecret = "storefront-dev-secret-change-me"

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// PostgreSQL
	PostgresHost     string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int           `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string        `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass     string        `env:"POSTGRES_PASSWORD" envDefault:"storefront_secret"`
	PostgresDB       string        `env:"POSTGRES_DB" envDefault:"storefront"`
	PostgresSSL      string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	PostgresMaxConns int32         `env:"POSTGRES_MAX_CONNS" envDefault:"20"`
	PostgresMinConns int32         `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	SlowQuery        time.Duration `env:"POSTGRES_SLOW_QUERY_THRESHOLD" envDefault:"200ms"`
	StoreTimeout     time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`

	// Redis
	RedisEnabled   bool          `env:"REDIS_ENABLED" envDefault:"false"`
	RedisHost      string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort      int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`
	OffersCacheTTL time.Duration `env:"OFFERS_CACHE_TTL" envDefault:"30s"`

	// Kafka. An empty list disables event publishing.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// Auth
	JWTSecret string `env:"JWT_SECRET" envDefault:"storefront-dev-secret-change-me"`

	// Pricing
	TaxRate               decimal.Decimal `env:"TAX_RATE" envDefault:"0"`
	ShippingFlatFee       decimal.Decimal `env:"SHIPPING_FLAT_FEE" envDefault:"0"`
	DiscountDefaultWindow time.Duration   `env:"DISCOUNT_DEFAULT_WINDOW" envDefault:"720h"`

	// Rate limiting and CORS
	RateLimitRPS       float64  `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst     int      `env:"RATE_LIMIT_BURST" envDefault:"40"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Profiling
	PprofEnabled      bool     `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envSeparator:"," envDefault:"127.0.0.1/32,::1/128"`

	// OpenTelemetry
	OTelEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTelSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.HTTPPort >= 1 && c.HTTPPort <= 65535, "invalid HTTP port: %d", c.HTTPPort)
	check(c.PostgresPort >= 1 && c.PostgresPort <= 65535, "invalid postgres port: %d", c.PostgresPort)
	check(c.PostgresMaxConns >= 1, "POSTGRES_MAX_CONNS must be at least 1")
	check(c.PostgresMinConns >= 0 && c.PostgresMinConns <= c.PostgresMaxConns,
		"POSTGRES_MIN_CONNS must be between 0 and POSTGRES_MAX_CONNS")
	check(c.StoreTimeout > 0, "STORE_TIMEOUT must be positive")
	check(!c.RedisEnabled || (c.RedisPort >= 1 && c.RedisPort <= 65535), "invalid redis port: %d", c.RedisPort)
	check(c.OffersCacheTTL > 0, "OFFERS_CACHE_TTL must be positive")
	check(!c.TaxRate.IsNegative() && c.TaxRate.LessThanOrEqual(decimal.NewFromInt(1)),
		"TAX_RATE must be between 0 and 1, got %s", c.TaxRate)
	check(!c.ShippingFlatFee.IsNegative(), "SHIPPING_FLAT_FEE must not be negative")
	check(c.DiscountDefaultWindow > 0, "DISCOUNT_DEFAULT_WINDOW must be positive")
	check(c.RateLimitRPS > 0, "RATE_LIMIT_RPS must be positive")
	check(c.RateLimitBurst >= 1, "RATE_LIMIT_BURST must be at least 1")
	check(c.OTelSampleRate >= 0 && c.OTelSampleRate <= 1, "OTEL_SAMPLE_RATE must be between 0 and 1")
	check(c.JWTSecret != "", "JWT_SECRET is required")
	if !c.IsDevelopment() && c.JWTSecret == DefaultJWTSecret {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be changed from the default in %q", c.Environment))
	}

	return errors.Join(errs...)
}

// IsDevelopment reports whether the service runs in a development environment.
func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(c.Environment) {
	case "development", "dev", "local", "test":
		return true
	}
	return false
}

// Postgres returns the connection and pool settings.
func (c *Config) Postgres() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.PostgresMaxConns,
		MinConns:        c.PostgresMinConns,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// Redis returns the Redis client settings. Reads and writes are bounded by
// the store timeout.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:         c.RedisHost,
		Port:         c.RedisPort,
		Password:     c.RedisPassword,
		DB:           c.RedisDB,
		DialTimeout:  c.StoreTimeout,
		ReadTimeout:  c.StoreTimeout,
		WriteTimeout: c.StoreTimeout,
	}
}

// Tracing returns the OpenTelemetry settings.
func (c *Config) Tracing(serviceName, version string) tracing.Config {
	return tracing.Config{
		Enabled:        c.OTelEnabled,
		ServiceName:    serviceName,
		ServiceVersion: version,
		Environment:    c.Environment,
		OTLPEndpoint:   c.OTelEndpoint,
		SampleRate:     c.OTelSampleRate,
	}
}
