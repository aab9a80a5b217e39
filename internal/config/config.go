// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the process configuration from the environment.
// Configuration is read once at start and is not reloadable.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/olegiv/agentdesk/internal/model"
)

// Session storage backends.
const (
	SessionBackendFile   = "file"
	SessionBackendSQLite = "sqlite"
	SessionBackendRedis  = "redis"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	// Backend
	APIBaseURL string `env:"AGENTDESK_API_BASE_URL,required"`

	// Creation maxima for the bounded types (0 = unbounded)
	MaxHeroSections int `env:"AGENTDESK_MAX_HERO_SECTIONS" envDefault:"10"`
	MaxBlogPosts    int `env:"AGENTDESK_MAX_BLOG_POSTS" envDefault:"10"`
	MaxTestimonials int `env:"AGENTDESK_MAX_TESTIMONIALS" envDefault:"10"`

	// Agent session
	SessionLifetime       time.Duration `env:"AGENTDESK_SESSION_LIFETIME" envDefault:"1h"`
	SessionRenewOnRestore bool          `env:"AGENTDESK_SESSION_RENEW_ON_RESTORE" envDefault:"true"`
	SessionBackend        string        `env:"AGENTDESK_SESSION_BACKEND" envDefault:"file"`
	RedisURL              string        `env:"AGENTDESK_REDIS_URL"`                            // Required for the redis backend
	RedisPrefix           string        `env:"AGENTDESK_REDIS_PREFIX" envDefault:"agentdesk:"` // Redis key prefix

	// Local state
	DataDir string `env:"AGENTDESK_DATA_DIR" envDefault:"./data"`
	DBPath  string `env:"AGENTDESK_DB_PATH"` // Defaults to <DataDir>/agentdesk.db

	// Server
	SessionSecret string `env:"AGENTDESK_SESSION_SECRET,required"`
	ServerHost    string `env:"AGENTDESK_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"AGENTDESK_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"AGENTDESK_ENV" envDefault:"development"`
	LogLevel      string `env:"AGENTDESK_LOG_LEVEL" envDefault:"info"`

	// Display
	Currency string `env:"AGENTDESK_CURRENCY" envDefault:"INR"`

	// Upstream probe schedule (cron expression or descriptor)
	ProbeSchedule string `env:"AGENTDESK_PROBE_SCHEDULE" envDefault:"@every 1m"`

	// Event log retention; zero keeps events forever
	EventRetention time.Duration `env:"AGENTDESK_EVENT_RETENTION" envDefault:"720h"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// DatabasePath returns DBPath, defaulting to a file inside DataDir.
func (c Config) DatabasePath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(c.DataDir, "agentdesk.db")
}

// QuotaLimits returns the configured creation maxima by entity type.
func (c Config) QuotaLimits() map[model.EntityType]int {
	return map[model.EntityType]int{
		model.TypeHeroSection: c.MaxHeroSections,
		model.TypeBlogPost:    c.MaxBlogPosts,
		model.TypeTestimonial: c.MaxTestimonials,
	}
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("AGENTDESK_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// Validate checks values that struct tags cannot express.
func (c *Config) Validate() error {
	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("AGENTDESK_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(c.SessionSecret))
	}
	for _, weak := range knownWeakSecrets {
		if c.SessionSecret == weak {
			return fmt.Errorf("AGENTDESK_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("AGENTDESK_API_BASE_URL must be an absolute http(s) URL, got %q", c.APIBaseURL)
	}

	if c.MaxHeroSections < 0 || c.MaxBlogPosts < 0 || c.MaxTestimonials < 0 {
		return fmt.Errorf("creation maxima must not be negative")
	}
	if c.SessionLifetime < time.Minute {
		return fmt.Errorf("AGENTDESK_SESSION_LIFETIME must be at least 1m, got %s", c.SessionLifetime)
	}

	switch c.SessionBackend {
	case SessionBackendFile, SessionBackendSQLite:
	case SessionBackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("AGENTDESK_REDIS_URL is required when AGENTDESK_SESSION_BACKEND=redis")
		}
	default:
		return fmt.Errorf("AGENTDESK_SESSION_BACKEND must be one of file, sqlite, redis; got %q", c.SessionBackend)
	}

	if c.EventRetention < 0 {
		return fmt.Errorf("AGENTDESK_EVENT_RETENTION must not be negative, got %s", c.EventRetention)
	}

	if len(c.Currency) != 3 {
		return fmt.Errorf("AGENTDESK_CURRENCY must be an ISO 4217 code, got %q", c.Currency)
	}
	c.Currency = strings.ToUpper(c.Currency)
	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
