// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server     ServerConfig
	Validation ValidationConfig
	Session    SessionConfig
	Rate       RateLimitConfig
	Security   SecurityConfig
	Logging    LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for SSE)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for non-streaming requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// MaxBodySize caps request bodies in bytes (default: 32MiB)
	MaxBodySize int64 `env:"SERVER_MAX_BODY_SIZE" default:"33554432"`
}

// ValidationConfig holds validation run settings.
type ValidationConfig struct {
	// MaxConcurrent is the number of validation runs allowed at once (default: 4)
	MaxConcurrent int `env:"VALIDATION_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a new run waits for a free slot (default: 30s)
	MaxWaitTime time.Duration `env:"VALIDATION_MAX_WAIT_TIME" default:"30s"`

	// ProgressInterval is the minimum spacing between progress callbacks (default: 250ms)
	ProgressInterval time.Duration `env:"VALIDATION_PROGRESS_INTERVAL" default:"250ms"`

	// ChangeCap bounds recorded hook changes per chunk (default: 5000)
	ChangeCap int `env:"VALIDATION_CHANGE_CAP" default:"5000"`

	// HistorySize is the number of undoable edits kept per session (default: 100)
	HistorySize int `env:"VALIDATION_HISTORY_SIZE" default:"100"`

	// CleanupMode lets the entry hook rewrite values instead of only reporting them (default: true)
	CleanupMode bool `env:"VALIDATION_CLEANUP_MODE" default:"true"`

	// AllowedEmailDomains overrides the built-in email suffix allow-list
	AllowedEmailDomains []string `env:"VALIDATION_ALLOWED_EMAIL_DOMAINS" envAlt:"ALLOWED_EMAIL_DOMAINS"`
}

// SessionConfig holds validation session lifetime settings.
type SessionConfig struct {
	// TTL is how long an idle finished session is kept (default: 2h)
	TTL time.Duration `env:"SESSION_TTL" default:"2h"`

	// SweepInterval is how often expired sessions are removed (default: 5m)
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"5m"`

	// ResultRetention is how long failed or cancelled sessions stay readable (default: 5m)
	ResultRetention time.Duration `env:"SESSION_RESULT_RETENTION" default:"5m"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
