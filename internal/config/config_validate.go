// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// minJWTSecretLength is the minimum accepted JWT secret length.
const minJWTSecretLength = 32

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateNATS,
		c.validateProviders,
		c.validateSearch,
		c.validateRedaction,
		c.validateSecurity,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.Server.Timeout)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be >= 0, got %d", c.Database.Threads)
	}
	if !c.Outbox.InMemory && c.Outbox.Path == "" {
		return fmt.Errorf("OUTBOX_PATH is required unless OUTBOX_IN_MEMORY=true")
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if !strings.HasPrefix(c.NATS.URL, "nats://") && !strings.HasPrefix(c.NATS.URL, "tls://") {
		return fmt.Errorf("NATS_URL must use nats:// or tls:// scheme, got %q", c.NATS.URL)
	}
	if c.NATS.Subject == "" {
		return fmt.Errorf("NATS_SUBJECT is required when NATS is enabled")
	}
	return nil
}

func (c *Config) validateProviders() error {
	providers := map[string]ProviderConfig{
		"GEOCODER_URL":           c.Providers.Geocoder,
		"POI_PROVIDER_URL":       c.Providers.POI,
		"ISOCHRONE_PROVIDER_URL": c.Providers.Isochrone,
	}
	for name, p := range providers {
		if err := validateHTTPURL(p.URL, name); err != nil {
			return err
		}
		if p.RequestsPerSecond < 0 {
			return fmt.Errorf("%s rate limit must be >= 0", name)
		}
	}
	cb := c.Providers.CircuitBreaker
	if cb.FailureRatio <= 0 || cb.FailureRatio > 1 {
		return fmt.Errorf("circuit breaker failure ratio must be in (0, 1], got %v", cb.FailureRatio)
	}
	return nil
}

func (c *Config) validateSearch() error {
	speeds := map[string]float64{
		"SEARCH_WALK_SPEED_KMH":    c.Search.WalkSpeedKmh,
		"SEARCH_BICYCLE_SPEED_KMH": c.Search.BicycleSpeedKmh,
		"SEARCH_CAR_SPEED_KMH":     c.Search.CarSpeedKmh,
	}
	for name, v := range speeds {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, v)
		}
	}
	return nil
}

func (c *Config) validateRedaction() error {
	r := c.Redaction
	if r.MinJitterMeters <= 0 || r.MaxJitterMeters <= r.MinJitterMeters {
		return fmt.Errorf("redaction jitter must satisfy 0 < min < max, got min=%v max=%v",
			r.MinJitterMeters, r.MaxJitterMeters)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if len(c.Security.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if c.Security.RateLimitReqs < 1 && !c.Security.RateLimitDisabled {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.Security.RateLimitReqs)
	}
	if c.IsProduction() && slices.Contains(c.Security.CORSOrigins, "*") {
		return fmt.Errorf("CORS_ORIGINS must not contain '*' in production")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}

// validateHTTPURL accepts http(s) URLs with a host. Paths are allowed since
// provider endpoints are commonly mounted below a prefix.
func validateHTTPURL(rawURL, fieldName string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %q", fieldName, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if parsed.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters", fieldName)
	}
	return nil
}
