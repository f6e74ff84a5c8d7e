// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

// Package config loads and validates Areamap configuration.
//
// Configuration is layered with Koanf v2: built-in defaults, then an optional
// YAML file (CONFIG_PATH or config.yaml), then environment variables. See
// LoadWithKoanf for the precedence rules and envTransformFunc for the
// supported variable names.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig    `koanf:"server"`
	Database     DatabaseConfig  `koanf:"database"`
	Outbox       OutboxConfig    `koanf:"outbox"`
	NATS         NATSConfig      `koanf:"nats"`
	Providers    ProvidersConfig `koanf:"providers"`
	Search       SearchConfig    `koanf:"search"`
	GeocodeCache CacheConfig     `koanf:"geocode_cache"`
	Redaction    RedactionConfig `koanf:"redaction"`
	Security     SecurityConfig  `koanf:"security"`
	Features     FeaturesConfig  `koanf:"features"`
	API          APIConfig       `koanf:"api"`
	Logging      LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"` // ":memory:" for an ephemeral database
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = DuckDB default
}

// OutboxConfig holds settings for the Badger-backed usage event outbox.
type OutboxConfig struct {
	Path          string        `koanf:"path"`
	InMemory      bool          `koanf:"in_memory"`
	RetryInterval time.Duration `koanf:"retry_interval"`
	MaxRetries    int           `koanf:"max_retries"`
	BatchSize     int           `koanf:"batch_size"`
	EntryTTL      time.Duration `koanf:"entry_ttl"`
}

// NATSConfig holds settings for usage event publishing.
type NATSConfig struct {
	Enabled        bool   `koanf:"enabled"`
	URL            string `koanf:"url"`
	EmbeddedServer bool   `koanf:"embedded_server"`
	StoreDir       string `koanf:"store_dir"`
	Subject        string `koanf:"subject"`
	MaxReconnects  int    `koanf:"max_reconnects"`
}

// ProvidersConfig configures the external geo data providers.
type ProvidersConfig struct {
	UserAgent      string               `koanf:"user_agent"`
	Geocoder       ProviderConfig       `koanf:"geocoder"`
	POI            ProviderConfig       `koanf:"poi"`
	Isochrone      ProviderConfig       `koanf:"isochrone"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker"`
}

// ProviderConfig configures a single HTTP provider.
type ProviderConfig struct {
	URL               string        `koanf:"url"`
	APIKey            string        `koanf:"api_key"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"` // 0 = unlimited
	Burst             int           `koanf:"burst"`
}

// CircuitBreakerConfig configures the breakers wrapping provider calls.
type CircuitBreakerConfig struct {
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio"`
}

// SearchConfig holds the per-mode speed model and search defaults.
type SearchConfig struct {
	WalkSpeedKmh       float64  `koanf:"walk_speed_kmh"`
	BicycleSpeedKmh    float64  `koanf:"bicycle_speed_kmh"`
	CarSpeedKmh        float64  `koanf:"car_speed_kmh"`
	IsochroneByDefault bool     `koanf:"isochrone_by_default"`
	DefaultCategories  []string `koanf:"default_categories"`
	MaxPOIsPerProfile  int      `koanf:"max_pois_per_profile"`
}

// CacheConfig configures a TTL LRU cache.
type CacheConfig struct {
	Size int           `koanf:"size"`
	TTL  time.Duration `koanf:"ttl"`
}

// RedactionConfig bounds the coordinate jitter applied to snapshots whose
// address is hidden.
type RedactionConfig struct {
	MinJitterMeters float64 `koanf:"min_jitter_meters"`
	MaxJitterMeters float64 `koanf:"max_jitter_meters"`
}

// SecurityConfig holds authentication and HTTP hardening settings.
type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	SessionTimeout    time.Duration `koanf:"session_timeout"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// FeaturesConfig points at optional Casbin files overriding the embedded
// plan feature policy.
type FeaturesConfig struct {
	ModelPath  string `koanf:"model_path"`
	PolicyPath string `koanf:"policy_path"`
}

// APIConfig holds API pagination settings.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
