// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Remote bookbase API
	APIBaseURL      string        `env:"API_BASE_URL" envDefault:"http://localhost:8002"`
	APITimeout      time.Duration `env:"API_TIMEOUT" envDefault:"15s"`
	APIRateLimitRPS float64       `env:"API_RATE_LIMIT_RPS" envDefault:"0"`

	// Cache (Redis): sessions, view state, login throttle
	RedisURL      string `env:"REDIS_URL,required"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`

	// Database (PostgreSQL), optional audit log
	DatabaseURL      string `env:"DATABASE_URL" envDefault:""`
	DBMaxConns       int32  `env:"DB_MAX_CONNS" envDefault:"4"`
	AuditAutoMigrate bool   `env:"AUDIT_AUTO_MIGRATE" envDefault:"false"`

	// Sessions
	SessionSecret     string        `env:"SESSION_SECRET,required"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"8h"`
	SessionCookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"bookbase_session"`
	CookieSecure      bool          `env:"COOKIE_SECURE" envDefault:"false"`
	ViewStateTTL      time.Duration `env:"VIEW_STATE_TTL" envDefault:"30m"`

	// Lists and uploads
	PageSize      int   `env:"PAGE_SIZE" envDefault:"10"`
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"5242880"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Login throttling (attempts per client IP and window)
	LoginThrottleEnabled bool          `env:"LOGIN_THROTTLE_ENABLED" envDefault:"true"`
	LoginMaxAttempts     int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	LoginAttemptWindow   time.Duration `env:"LOGIN_ATTEMPT_WINDOW" envDefault:"1m"`

	// Request body size limit in bytes for non-upload forms (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// SecureCookies reports whether the session cookie carries the Secure flag.
// Production always does.
func (c *Config) SecureCookies() bool {
	return c.CookieSecure || c.IsProduction()
}

// UploadBodyLimit is the request body limit of the cover upload form:
// the file limit plus room for the other fields.
func (c *Config) UploadBodyLimit() int64 {
	return c.MaxUploadSize + c.MaxRequestBodySize
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute http(s) URL, got %q", c.APIBaseURL)
	}
	if len(c.SessionSecret) < 16 {
		return errors.New("SESSION_SECRET must be at least 16 characters")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.PageSize <= 0 {
		return errors.New("PAGE_SIZE must be positive")
	}
	if c.LoginAttemptWindow <= 0 {
		return errors.New("LOGIN_ATTEMPT_WINDOW must be positive")
	}
	if c.MaxUploadSize <= 0 {
		return errors.New("MAX_UPLOAD_SIZE must be positive")
	}
	return nil
}

// LoadEnvFiles loads .env and .env.local when present. Variables already
// set in the environment win.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
