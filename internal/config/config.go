// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads leaddesk settings from LEADDESK_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"LEADDESK_DB_PATH" envDefault:"./data/leaddesk.db"`
	SessionSecret string `env:"LEADDESK_SESSION_SECRET,required"`
	ServerHost    string `env:"LEADDESK_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"LEADDESK_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"LEADDESK_ENV" envDefault:"development"`
	LogLevel      string `env:"LEADDESK_LOG_LEVEL" envDefault:"info"`

	// BaseURL is the public origin used to build checkout return URLs.
	BaseURL string `env:"LEADDESK_BASE_URL" envDefault:"http://localhost:8080"`

	// Cache configuration
	RedisURL     string `env:"LEADDESK_REDIS_URL"`                           // Optional Redis URL for the settings cache
	CachePrefix  string `env:"LEADDESK_CACHE_PREFIX" envDefault:"leaddesk:"` // Redis key prefix
	CacheTTL     int    `env:"LEADDESK_CACHE_TTL" envDefault:"300"`          // Settings cache TTL in seconds
	CacheMaxSize int    `env:"LEADDESK_CACHE_MAX_SIZE" envDefault:"1000"`    // Max memory cache entries

	// GeoIP configuration
	GeoIPDBPath string `env:"LEADDESK_GEOIP_DB_PATH"` // Path to a GeoLite2-City.mmdb file

	// Background email delivery
	EmailWorkers   int `env:"LEADDESK_EMAIL_WORKERS" envDefault:"4"`
	EmailQueueSize int `env:"LEADDESK_EMAIL_QUEUE_SIZE" envDefault:"100"`

	// Public lead-capture and checkout endpoints, requests per minute per IP.
	PublicRateLimit int `env:"LEADDESK_PUBLIC_RATE_LIMIT" envDefault:"30"`

	// Admin login lockout
	LoginMaxAttempts    int `env:"LEADDESK_LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	LoginLockoutMinutes int `env:"LEADDESK_LOGIN_LOCKOUT_MINUTES" envDefault:"15"`

	// RequestTimeout bounds every HTTP handler, in seconds.
	RequestTimeout int `env:"LEADDESK_REQUEST_TIMEOUT" envDefault:"30"`

	// EventRetentionDays prunes the system event log. Zero keeps everything.
	EventRetentionDays int `env:"LEADDESK_EVENT_RETENTION_DAYS" envDefault:"90"`

	// Background job schedules in cron syntax. An empty value disables the job.
	PublishSchedule     string `env:"LEADDESK_PUBLISH_SCHEDULE" envDefault:"* * * * *"`
	RetrySchedule       string `env:"LEADDESK_RETRY_SCHEDULE" envDefault:"*/5 * * * *"`
	PruneSchedule       string `env:"LEADDESK_PRUNE_SCHEDULE" envDefault:"@daily"`
	GeoIPReloadSchedule string `env:"LEADDESK_GEOIP_RELOAD_SCHEDULE" envDefault:"@weekly"`

	// Seeding configuration
	DoSeed        bool   `env:"LEADDESK_DO_SEED" envDefault:"false"` // Create an admin user on an empty database
	AdminEmail    string `env:"LEADDESK_ADMIN_EMAIL"`
	AdminPassword string `env:"LEADDESK_ADMIN_PASSWORD"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if the application is running in production mode.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// CacheTTLDuration returns the settings cache TTL.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// EventRetention returns how long system events are kept, zero meaning forever.
func (c Config) EventRetention() time.Duration {
	return time.Duration(c.EventRetentionDays) * 24 * time.Hour
}

// RequestTimeoutDuration returns the per-request handler timeout.
func (c Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// LoginLockout returns the first lockout duration after failed logins.
func (c Config) LoginLockout() time.Duration {
	return time.Duration(c.LoginLockoutMinutes) * time.Minute
}

// PublicURL joins BaseURL and path.
func (c Config) PublicURL(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// MinSessionSecretLength is the minimum required length for the session secret.
// HS256 signing keys should be at least as long as the hash output.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("LEADDESK_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("LEADDESK_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("LEADDESK_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if cfg.EmailWorkers < 1 {
		cfg.EmailWorkers = 1
	}

	return cfg, nil
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
