// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/hashicorp/golang-lru/v2/expirable"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/areamap/internal/config"
	"github.com/tomtom215/areamap/internal/logging"
	"github.com/tomtom215/areamap/internal/metrics"
	"github.com/tomtom215/areamap/internal/models"
)

// NominatimGeocoder implements Geocoder against a Nominatim instance.
type NominatimGeocoder struct {
	http  *httpClient
	cb    *gobreaker.CircuitBreaker[any]
	cache *expirable.LRU[string, *models.Place]
}

// nominatimPlace is one entry of a Nominatim jsonv2 response.
type nominatimPlace struct {
	PlaceID     int64  `json:"place_id"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Address     struct {
		CountryCode string `json:"country_code"`
	} `json:"address"`
	Error string `json:"error"`
}

// NewNominatimGeocoder creates a geocoder with a TTL LRU cache sized by
// cacheCfg. A cache size of 0 disables caching.
func NewNominatimGeocoder(cfg *config.ProvidersConfig, cacheCfg config.CacheConfig) *NominatimGeocoder {
	g := &NominatimGeocoder{
		http: newHTTPClient("nominatim", cfg.UserAgent, cfg.Geocoder),
		cb:   newBreaker("nominatim", cfg.CircuitBreaker),
	}
	if cacheCfg.Size > 0 {
		g.cache = expirable.NewLRU[string, *models.Place](cacheCfg.Size, nil, cacheCfg.TTL)
	}
	return g
}

// Geocode implements Geocoder.
func (g *NominatimGeocoder) Geocode(ctx context.Context, address string, allowedCountries []string) (*models.Place, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, nil
	}
	countries := normalizeCountries(allowedCountries)
	key := "q:" + strings.ToLower(address) + "|" + strings.Join(countries, ",")

	return g.cached(key, func() (*models.Place, error) {
		params := url.Values{}
		params.Set("q", address)
		params.Set("format", "jsonv2")
		params.Set("addressdetails", "1")
		params.Set("limit", "1")
		if len(countries) > 0 {
			params.Set("countrycodes", strings.Join(countries, ","))
		}

		var results []nominatimPlace
		if err := g.get(ctx, "/search", params, &results); err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return nil, nil
		}
		return toPlace(results[0], countries)
	})
}

// Reverse implements Geocoder.
func (g *NominatimGeocoder) Reverse(ctx context.Context, coords models.Coordinates, allowedCountries []string) (*models.Place, error) {
	countries := normalizeCountries(allowedCountries)
	lat := strconv.FormatFloat(coords.Lat, 'f', -1, 64)
	lon := strconv.FormatFloat(coords.Lng, 'f', -1, 64)
	key := "r:" + lat + "," + lon + "|" + strings.Join(countries, ",")

	return g.cached(key, func() (*models.Place, error) {
		params := url.Values{}
		params.Set("lat", lat)
		params.Set("lon", lon)
		params.Set("format", "jsonv2")
		params.Set("addressdetails", "1")

		var result nominatimPlace
		if err := g.get(ctx, "/reverse", params, &result); err != nil {
			return nil, err
		}
		// Nominatim reports "Unable to geocode" with status 200.
		if result.Error != "" {
			return nil, nil
		}
		place, err := toPlace(result, countries)
		if place != nil {
			// The caller searched these exact coordinates.
			place.Coordinates = coords
		}
		return place, err
	})
}

func (g *NominatimGeocoder) cached(key string, fetch func() (*models.Place, error)) (*models.Place, error) {
	if g.cache != nil {
		if place, ok := g.cache.Get(key); ok {
			metrics.RecordGeocodeCache(true)
			cp := *place
			return &cp, nil
		}
		metrics.RecordGeocodeCache(false)
	}

	place, err := execute(g.cb, fetch)
	if err != nil {
		return nil, err
	}
	if place != nil && g.cache != nil {
		cp := *place
		g.cache.Add(key, &cp)
	}
	return place, nil
}

func (g *NominatimGeocoder) get(ctx context.Context, path string, params url.Values, out any) error {
	if g.http.apiKey != "" {
		params.Set("key", g.http.apiKey)
	}
	reqURL := strings.TrimRight(g.http.baseURL, "/") + path + "?" + params.Encode()
	return g.http.do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	}, out)
}

// toPlace converts a Nominatim entry, rejecting countries outside the
// allow-list.
func toPlace(p nominatimPlace, countries []string) (*models.Place, error) {
	cc := strings.ToLower(p.Address.CountryCode)
	if len(countries) > 0 && !slices.Contains(countries, cc) {
		logging.Debug().Str("country", cc).Msg("Geocoder result outside allowed countries")
		return nil, nil
	}

	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q: %w", p.Lat, err)
	}
	lng, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q: %w", p.Lon, err)
	}

	return &models.Place{
		PlaceID:     strconv.FormatInt(p.PlaceID, 10),
		DisplayName: p.DisplayName,
		Coordinates: models.Coordinates{Lat: lat, Lng: lng},
		CountryCode: cc,
	}, nil
}

func normalizeCountries(countries []string) []string {
	out := make([]string, 0, len(countries))
	for _, c := range countries {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	slices.Sort(out)
	return out
}
