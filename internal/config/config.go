package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
// Following 12-factor app principles, all config is loaded from environment variables
type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Upstream  UpstreamConfig
	Session   SessionConfig
	Receipt   ReceiptConfig
	RateLimit RateLimitConfig
	Sentry    SentryConfig
	CORS      CORSConfig
	LogLevel  string
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
	DashboardURL    string
}

type AuthConfig struct {
	APIKeys []string // Valid API keys for the admin endpoints
}

type UpstreamConfig struct {
	BaseURL string
	Timeout int // seconds
}

type SessionConfig struct {
	RedisURL string // empty keeps flow sessions in memory
	TTL      int    // seconds
}

type ReceiptConfig struct {
	PollInterval int // seconds
	PollDeadline int // seconds
}

type RateLimitConfig struct {
	SubmitsPerMinute int
	Burst            int
}

type SentryConfig struct {
	DSN         string
	Environment string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	return LoadWithArgs(nil)
}

// LoadWithArgs reads the environment, then applies --host and --port from
// args, which take precedence.
func LoadWithArgs(args []string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsInt("READ_TIMEOUT", 15),
			WriteTimeout:    getEnvAsInt("WRITE_TIMEOUT", 15),
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 30),
			DashboardURL:    getEnv("DASHBOARD_URL", "/dashboard/"),
		},
		Auth: AuthConfig{
			APIKeys: getEnvAsSlice("API_KEYS", []string{"apitest"}),
		},
		Upstream: UpstreamConfig{
			BaseURL: getEnv("UPSTREAM_BASE_URL", "http://localhost:8053"),
			Timeout: getEnvAsInt("UPSTREAM_TIMEOUT", 10),
		},
		Session: SessionConfig{
			RedisURL: getEnv("REDIS_URL", ""),
			TTL:      getEnvAsInt("SESSION_TTL", 3600),
		},
		Receipt: ReceiptConfig{
			PollInterval: getEnvAsInt("RECEIPT_POLL_INTERVAL", 3),
			PollDeadline: getEnvAsInt("RECEIPT_POLL_DEADLINE", 120),
		},
		RateLimit: RateLimitConfig{
			SubmitsPerMinute: getEnvAsInt("SUBMIT_RATE_PER_MINUTE", 30),
			Burst:            getEnvAsInt("SUBMIT_BURST", 5),
		},
		Sentry: SentryConfig{
			DSN:         getEnv("SENTRY_DSN", ""),
			Environment: getEnv("SENTRY_ENVIRONMENT", "development"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.applyFlags(args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyFlags(args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&c.Server.Host, "host", c.Server.Host, "interface to listen on (overrides HOST)")
	fs.StringVar(&c.Server.Port, "port", c.Server.Port, "port to listen on (overrides PORT)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid port: %s", c.Server.Port)
	}

	if len(c.Auth.APIKeys) == 0 {
		return fmt.Errorf("at least one API key must be configured")
	}

	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("UPSTREAM_BASE_URL must be an absolute URL, got %q", c.Upstream.BaseURL)
	}

	if c.Upstream.Timeout <= 0 || c.Session.TTL <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT and SESSION_TTL must be positive")
	}

	if c.Receipt.PollInterval <= 0 || c.Receipt.PollDeadline < c.Receipt.PollInterval {
		return fmt.Errorf("RECEIPT_POLL_DEADLINE must be at least RECEIPT_POLL_INTERVAL, and both positive")
	}

	if c.RateLimit.SubmitsPerMinute <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("SUBMIT_RATE_PER_MINUTE and SUBMIT_BURST must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// UpstreamTimeout is the per-request timeout for upstream calls.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.Upstream.Timeout) * time.Second
}

// SessionTTL is how long an idle flow session is kept.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTL) * time.Second
}

// SubmitLockTTL bounds how long a crashed submission can hold a session lock.
func (c *Config) SubmitLockTTL() time.Duration {
	return 2 * c.UpstreamTimeout()
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
