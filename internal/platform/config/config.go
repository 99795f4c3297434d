// Copyright (c) 2026 SamaTechnicien. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct. In development a local .env file is loaded first with godotenv.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// # Configuration Schema

// Config holds all runtime configuration for the SamaTechnicien identity API.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Session slot store (Redis)
	RedisURL   string        `env:"REDIS_URL,required"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"168h"`

	// Push channel (NATS)
	NATSURL       string `env:"NATS_URL"       envDefault:"nats://127.0.0.1:4222"`
	EventsSubject string `env:"EVENTS_SUBJECT" envDefault:"auth.events"`

	// Access token signing keys
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH,required"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required"`

	// Managed auth provider (Supabase). Empty URL disables the provider path.
	SupabaseURL       string        `env:"SUPABASE_URL"`
	SupabaseAnonKey   string        `env:"SUPABASE_ANON_KEY"`
	SupabaseJWTSecret string        `env:"SUPABASE_JWT_SECRET"`
	ProviderTimeout   time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10s"`
	EmailRedirectURL  string        `env:"EMAIL_REDIRECT_URL"`

	// WebhookSecret authenticates POST /auth/events. Empty disables the endpoint.
	WebhookSecret string `env:"WEBHOOK_SECRET"`

	// Break-glass administrator credential. Disabled unless both are set.
	BreakglassEmail        string `env:"BREAKGLASS_EMAIL"`
	BreakglassPasswordHash string `env:"BREAKGLASS_PASSWORD_HASH"`

	// Cross-Origin Resource Sharing
	AllowedOriginSuffix string `env:"ALLOWED_ORIGIN_SUFFIX" envDefault:"samatechnicien.sn"`
	ExtraOrigins        string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// A missing .env file is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read .env file: %w", err)
	}

	return Parse()
}

// Parse maps the current environment into a [Config] without touching .env files.
func Parse() (*Config, error) {
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if (cfg.BreakglassEmail == "") != (cfg.BreakglassPasswordHash == "") {
		return nil, fmt.Errorf("config: BREAKGLASS_EMAIL and BREAKGLASS_PASSWORD_HASH must be set together")
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ProviderEnabled reports whether the managed auth provider is configured.
func (c *Config) ProviderEnabled() bool {
	return c.SupabaseURL != "" && c.SupabaseAnonKey != ""
}

// AllowsOrigin reports whether a browser origin may call the API with credentials.
func (c *Config) AllowsOrigin(origin string) bool {
	if c.IsDevelopment() {
		return true
	}
	if c.matchesOriginDomain(origin) {
		return true
	}
	for _, extra := range strings.Split(c.ExtraOrigins, ",") {
		if extra = strings.TrimSpace(extra); extra != "" && extra == origin {
			return true
		}
	}
	return false
}

// matchesOriginDomain accepts http(s) origins whose host is the configured
// domain itself or one of its subdomains.
func (c *Config) matchesOriginDomain(origin string) bool {
	domain := strings.ToLower(strings.TrimPrefix(c.AllowedOriginSuffix, "."))
	if domain == "" {
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil || (parsed.Scheme != "https" && parsed.Scheme != "http") {
		return false
	}
	if parsed.User != nil || (parsed.Path != "" && parsed.Path != "/") {
		return false
	}

	host := strings.ToLower(parsed.Hostname())
	return host == domain || strings.HasSuffix(host, "."+domain)
}
