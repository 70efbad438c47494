// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server     ServerConfig
	Extraction ExtractionConfig
	Upload     UploadConfig
	Rate       RateLimitConfig
	Security   SecurityConfig
	Logging    LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 127.0.0.1)
	Host string `env:"SERVER_HOST" default:"127.0.0.1"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing a response (default: 0, uploads wait on the remote service)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for non-upload requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// ExtractionConfig selects and configures the remote extraction service.
type ExtractionConfig struct {
	// BaseURL is the root URL of the extraction service (required unless Mock is set)
	BaseURL string `env:"EXTRACTION_BASE_URL" envAlt:"API_BASE_URL"`

	// Mock uses the in-process fake service instead of BaseURL (default: false)
	Mock bool `env:"EXTRACTION_MOCK" envAlt:"USE_MOCK_API" default:"false"`

	// APIKey is sent as a bearer token to the service when set
	APIKey string `env:"EXTRACTION_API_KEY"`

	// Timeout bounds each HTTP call to the service (default: 2m)
	Timeout time.Duration `env:"EXTRACTION_TIMEOUT" default:"2m"`

	// TableConcurrency caps parallel table fetches per upload, 0 for no cap (default: 4)
	TableConcurrency int `env:"EXTRACTION_TABLE_CONCURRENCY" default:"4"`

	// MaxResponseSize caps the body of a successful response in bytes, 0 for the client default (default: 64MB)
	MaxResponseSize int64 `env:"EXTRACTION_MAX_RESPONSE_SIZE" default:"67108864"`
}

// UploadConfig holds upload processing settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 50MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"52428800"`

	// MaxConcurrent is the maximum number of uploads orchestrated at once (default: 2)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"2"`

	// MaxWaitTime is how long to wait for an upload slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// Timeout is the maximum duration for one upload, all phases included (default: 10m)
	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"10m"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`

	// File, when set, additionally writes JSON logs to this path
	File string `env:"LOG_FILE"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
