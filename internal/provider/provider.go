// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/areamap/internal/config"
	"github.com/tomtom215/areamap/internal/metrics"
	"github.com/tomtom215/areamap/internal/models"
)

// Geocoder resolves free-text addresses and coordinates to places.
type Geocoder interface {
	// Geocode returns the best match for address, or nil when nothing in
	// the allowed countries matches. An empty allow-list means unrestricted.
	Geocode(ctx context.Context, address string, allowedCountries []string) (*models.Place, error)
	// Reverse returns the place at coords, or nil when it lies outside the
	// allowed countries.
	Reverse(ctx context.Context, coords models.Coordinates, allowedCountries []string) (*models.Place, error)
}

// POIProvider finds points of interest around a location.
type POIProvider interface {
	FetchPOIs(ctx context.Context, center models.Coordinates, radiusMeters float64, categories []string) ([]models.PointOfInterest, error)
}

// IsochroneProvider computes reachability polygons.
type IsochroneProvider interface {
	FetchIsochrone(ctx context.Context, center models.Coordinates, means models.MeansOfTransportation, distanceMeters float64) (*models.Isochrone, error)
}

// maxErrorBodySize limits how much of an error response is read.
const maxErrorBodySize = 4 * 1024

// StatusError is returned for non-2xx provider responses.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded with status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// httpClient is the transport shared by all provider clients: rate
// limiting, 429 backoff, status checks and JSON decoding.
type httpClient struct {
	name           string
	baseURL        string
	apiKey         string
	userAgent      string
	client         *http.Client
	limiter        *rate.Limiter
	maxRetries     int
	retryBaseDelay time.Duration
}

func newHTTPClient(name, userAgent string, cfg config.ProviderConfig) *httpClient {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &httpClient{
		name:           name,
		baseURL:        cfg.URL,
		apiKey:         cfg.APIKey,
		userAgent:      userAgent,
		client:         &http.Client{Timeout: timeout},
		limiter:        rate.NewLimiter(limit, burst),
		maxRetries:     3,
		retryBaseDelay: time.Second,
	}
}

// do sends the request built by newReq and decodes a JSON response into out.
// newReq is called once per attempt because request bodies are consumed.
func (c *httpClient) do(ctx context.Context, newReq func(ctx context.Context) (*http.Request, error), out any) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordProviderCall(c.name, time.Since(start), err)
	}()

	resp, err := c.doWithBackoff(ctx, newReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Provider: c.name, StatusCode: resp.StatusCode, Body: readBodyForError(resp.Body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", c.name, err)
	}
	return nil
}

func (c *httpClient) doWithBackoff(ctx context.Context, newReq func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s rate limiter: %w", c.name, err)
		}

		req, err := newReq(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s request: %w", c.name, err)
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s request failed: %w", c.name, err)
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		_ = resp.Body.Close()

		if attempt == c.maxRetries {
			return nil, &StatusError{Provider: c.name, StatusCode: http.StatusTooManyRequests,
				Body: fmt.Sprintf("rate limited after %d retries", c.maxRetries)}
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if s, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && s >= 0 {
			delay = time.Duration(s) * time.Second
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func readBodyForError(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return "(failed to read response body)"
	}
	return string(body)
}

// IsRetryable reports whether err is a transient provider failure.
func IsRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	return !errors.Is(err, context.Canceled)
}
