// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the meeting relay.
package server

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

const (
	defaultPort               = "8080"
	defaultOrigin             = "http://localhost:8080"
	defaultMaxMessageSize     = 512
	defaultRateLimitBurst     = 5
	defaultRefillInterval     = time.Second
	defaultLogLevel           = "INFO"
	defaultLeaseSweepInterval = 30 * time.Second
	defaultShutdownTimeout    = 10 * time.Second
)

// RateLimitConfig defines the parameters for per-connection message rate limiting.
type RateLimitConfig struct {
	Burst          int           `env:"RATE_LIMIT_BURST,default=5"`
	RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL,default=1s"`
}

// Config holds the relay configuration. It is built once at start-up and
// passed explicitly to whatever needs it.
type Config struct {
	Port           string `env:"PORT,default=8080"`
	Origins        string `env:"ALLOWED_ORIGINS,default=http://localhost:8080"`
	AllowedOrigins []string
	MaxMessageSize int64 `env:"MAX_MESSAGE_SIZE,default=512"`
	RateLimit      RateLimitConfig
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`

	PoolDBPath         string        `env:"POOL_DB_PATH"`
	LeaseTTL           time.Duration `env:"LEASE_TTL,default=0s"`
	LeaseSweepInterval time.Duration `env:"LEASE_SWEEP_INTERVAL,default=30s"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	MainServerURL      string        `env:"MAIN_SERVER_URL"`
}

// NewConfig creates a Config populated with default values for all settings.
func NewConfig() *Config {
	cfg := sanitizeConfig(Config{})
	return &cfg
}

// LoadConfig reads an optional .env file, decodes the environment and
// repairs any invalid values with defaults.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	cfg.AllowedOrigins = parseOrigins(cfg.Origins)

	sanitized := sanitizeConfig(cfg)
	return &sanitized, nil
}

// Addr returns the listen address for the configured port.
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func sanitizeConfig(cfg Config) Config {
	if strings.TrimSpace(cfg.Port) == "" {
		cfg.Port = defaultPort
	}

	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{defaultOrigin}
	}

	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultMaxMessageSize
	}

	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = defaultRateLimitBurst
	}

	if cfg.RateLimit.RefillInterval <= 0 {
		cfg.RateLimit.RefillInterval = defaultRefillInterval
	}

	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = defaultLogLevel
	}

	if cfg.LeaseTTL < 0 {
		cfg.LeaseTTL = 0
	}

	if cfg.LeaseSweepInterval <= 0 {
		cfg.LeaseSweepInterval = defaultLeaseSweepInterval
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

func parseOrigins(origins string) []string {
	if strings.TrimSpace(origins) == "" {
		return nil
	}
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
