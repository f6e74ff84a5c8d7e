// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/areamap/config.yaml",
	"/etc/areamap/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path:      "/data/areamap.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Outbox: OutboxConfig{
			Path:          "/data/outbox",
			InMemory:      false,
			RetryInterval: 30 * time.Second,
			MaxRetries:    100,
			BatchSize:     100,
			EntryTTL:      7 * 24 * time.Hour,
		},
		NATS: NATSConfig{
			Enabled:        false,
			URL:            "nats://127.0.0.1:4222",
			EmbeddedServer: true,
			StoreDir:       "/data/nats/jetstream",
			Subject:        "usage.location_search",
			MaxReconnects:  -1,
		},
		Providers: ProvidersConfig{
			UserAgent: "areamap/1.0",
			Geocoder: ProviderConfig{
				URL:               "https://nominatim.openstreetmap.org",
				Timeout:           10 * time.Second,
				RequestsPerSecond: 1, // Nominatim usage policy
				Burst:             1,
			},
			POI: ProviderConfig{
				URL:               "https://overpass-api.de/api/interpreter",
				Timeout:           30 * time.Second,
				RequestsPerSecond: 2,
				Burst:             4,
			},
			Isochrone: ProviderConfig{
				URL:               "https://graphhopper.com/api/1",
				Timeout:           20 * time.Second,
				RequestsPerSecond: 5,
				Burst:             6,
			},
			CircuitBreaker: CircuitBreakerConfig{
				MaxRequests:  3,
				Interval:     time.Minute,
				Timeout:      2 * time.Minute,
				MinRequests:  10,
				FailureRatio: 0.6,
			},
		},
		Search: SearchConfig{
			WalkSpeedKmh:       5,
			BicycleSpeedKmh:    15,
			CarSpeedKmh:        35,
			IsochroneByDefault: true,
			DefaultCategories: []string{
				"supermarket", "kindergarten", "school", "doctors", "pharmacy",
				"restaurant", "bus_stop", "station", "park", "playground",
			},
			MaxPOIsPerProfile: 500,
		},
		GeocodeCache: CacheConfig{
			Size: 5000,
			TTL:  24 * time.Hour,
		},
		Redaction: RedactionConfig{
			MinJitterMeters: 50,
			MaxJitterMeters: 150,
		},
		Security: SecurityConfig{
			JWTSecret:       "",
			SessionTimeout:  24 * time.Hour,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration from layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated env values.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"search.default_categories",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	// Server
	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	// Database
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	// Outbox
	"outbox_path":           "outbox.path",
	"outbox_in_memory":      "outbox.in_memory",
	"outbox_retry_interval": "outbox.retry_interval",
	"outbox_max_retries":    "outbox.max_retries",

	// NATS
	"nats_enabled":   "nats.enabled",
	"nats_url":       "nats.url",
	"nats_embedded":  "nats.embedded_server",
	"nats_store_dir": "nats.store_dir",
	"nats_subject":   "nats.subject",

	// Providers
	"provider_user_agent":    "providers.user_agent",
	"geocoder_url":           "providers.geocoder.url",
	"geocoder_rps":           "providers.geocoder.requests_per_second",
	"poi_provider_url":       "providers.poi.url",
	"poi_provider_rps":       "providers.poi.requests_per_second",
	"isochrone_provider_url": "providers.isochrone.url",
	"isochrone_api_key":      "providers.isochrone.api_key",
	"isochrone_provider_rps": "providers.isochrone.requests_per_second",

	// Search
	"search_walk_speed_kmh":    "search.walk_speed_kmh",
	"search_bicycle_speed_kmh": "search.bicycle_speed_kmh",
	"search_car_speed_kmh":     "search.car_speed_kmh",
	"search_categories":        "search.default_categories",

	// Geocode cache
	"geocode_cache_size": "geocode_cache.size",
	"geocode_cache_ttl":  "geocode_cache.ttl",

	// Redaction
	"redaction_min_jitter_meters": "redaction.min_jitter_meters",
	"redaction_max_jitter_meters": "redaction.max_jitter_meters",

	// Security
	"jwt_secret":          "security.jwt_secret",
	"session_timeout":     "security.session_timeout",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	// Plan features
	"features_model_path":  "features.model_path",
	"features_policy_path": "features.policy_path",

	// API
	"api_default_page_size": "api.default_page_size",
	"api_max_page_size":     "api.max_page_size",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps environment variable names to koanf paths, e.g.
// HTTP_PORT -> server.port, GEOCODER_URL -> providers.geocoder.url.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
