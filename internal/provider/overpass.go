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

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/areamap/internal/config"
	"github.com/tomtom215/areamap/internal/models"
)

// categoryTags maps POI categories to the OpenStreetMap key that carries
// them. Unknown categories are looked up as amenities.
var categoryTags = map[string]string{
	"supermarket":      "shop",
	"bakery":           "shop",
	"convenience":      "shop",
	"kindergarten":     "amenity",
	"school":           "amenity",
	"university":       "amenity",
	"doctors":          "amenity",
	"dentist":          "amenity",
	"pharmacy":         "amenity",
	"hospital":         "amenity",
	"restaurant":       "amenity",
	"cafe":             "amenity",
	"bar":              "amenity",
	"bus_stop":         "highway",
	"station":          "railway",
	"tram_stop":        "railway",
	"park":             "leisure",
	"playground":       "leisure",
	"sports_centre":    "leisure",
	"fitness_centre":   "leisure",
	"charging_station": "amenity",
}

// OverpassPOI implements POIProvider against an Overpass API interpreter.
type OverpassPOI struct {
	http       *httpClient
	cb         *gobreaker.CircuitBreaker[any]
	maxResults int
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *overpassCenter   `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewOverpassPOI creates a POI client returning at most maxResults POIs
// per call. maxResults <= 0 means unlimited.
func NewOverpassPOI(cfg *config.ProvidersConfig, maxResults int) *OverpassPOI {
	return &OverpassPOI{
		http:       newHTTPClient("overpass", cfg.UserAgent, cfg.POI),
		cb:         newBreaker("overpass", cfg.CircuitBreaker),
		maxResults: maxResults,
	}
}

// FetchPOIs implements POIProvider. Results are sorted by distance from
// center and never farther than radiusMeters.
func (o *OverpassPOI) FetchPOIs(ctx context.Context, center models.Coordinates, radiusMeters float64, categories []string) ([]models.PointOfInterest, error) {
	if len(categories) == 0 || radiusMeters <= 0 {
		return []models.PointOfInterest{}, nil
	}
	query := buildOverpassQuery(center, radiusMeters, categories)

	resp, err := execute(o.cb, func() (*overpassResponse, error) {
		var out overpassResponse
		err := o.http.do(ctx, func(ctx context.Context) (*http.Request, error) {
			form := url.Values{"data": {query}}
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.http.baseURL, strings.NewReader(form.Encode()))
			if err != nil {
				return nil, err
			}
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			return req, nil
		}, &out)
		if err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}

	return o.toPOIs(resp, center, radiusMeters, categories), nil
}

func (o *OverpassPOI) toPOIs(resp *overpassResponse, center models.Coordinates, radius float64, categories []string) []models.PointOfInterest {
	pois := make([]models.PointOfInterest, 0, len(resp.Elements))
	seen := make(map[string]bool, len(resp.Elements))

	for _, el := range resp.Elements {
		pos := models.Coordinates{Lat: el.Lat, Lng: el.Lon}
		if el.Center != nil {
			pos = models.Coordinates{Lat: el.Center.Lat, Lng: el.Center.Lon}
		}
		category := matchCategory(el.Tags, categories)
		if category == "" {
			continue
		}
		id := el.Type + "/" + strconv.FormatInt(el.ID, 10)
		if seen[id] {
			continue
		}
		dist := models.DistanceMeters(center, pos)
		if dist > radius {
			continue
		}
		seen[id] = true

		pois = append(pois, models.PointOfInterest{
			ID:             id,
			Name:           el.Tags["name"],
			Category:       category,
			Coordinates:    pos,
			DistanceMeters: dist,
			Address:        formatAddress(el.Tags),
		})
	}

	slices.SortStableFunc(pois, func(a, b models.PointOfInterest) int {
		switch {
		case a.DistanceMeters < b.DistanceMeters:
			return -1
		case a.DistanceMeters > b.DistanceMeters:
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})
	if o.maxResults > 0 && len(pois) > o.maxResults {
		pois = pois[:o.maxResults]
	}
	return pois
}

// buildOverpassQuery groups categories by OSM key into one regex filter
// per key.
func buildOverpassQuery(center models.Coordinates, radius float64, categories []string) string {
	byKey := map[string][]string{}
	for _, c := range categories {
		key := categoryTags[c]
		if key == "" {
			key = "amenity"
		}
		if !slices.Contains(byKey[key], c) {
			byKey[key] = append(byKey[key], c)
		}
	}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	around := fmt.Sprintf("around:%d,%s,%s", int(radius+0.5),
		strconv.FormatFloat(center.Lat, 'f', -1, 64), strconv.FormatFloat(center.Lng, 'f', -1, 64))

	var b strings.Builder
	b.WriteString("[out:json][timeout:25];(")
	for _, k := range keys {
		fmt.Fprintf(&b, `nwr(%s)["%s"~"^(%s)$"];`, around, k, strings.Join(byKey[k], "|"))
	}
	b.WriteString(");out center tags;")
	return b.String()
}

func matchCategory(tags map[string]string, categories []string) string {
	for _, c := range categories {
		key := categoryTags[c]
		if key == "" {
			key = "amenity"
		}
		if tags[key] == c {
			return c
		}
	}
	return ""
}

func formatAddress(tags map[string]string) string {
	street := strings.TrimSpace(tags["addr:street"] + " " + tags["addr:housenumber"])
	city := strings.TrimSpace(tags["addr:postcode"] + " " + tags["addr:city"])
	switch {
	case street != "" && city != "":
		return street + ", " + city
	case street != "":
		return street
	default:
		return city
	}
}
