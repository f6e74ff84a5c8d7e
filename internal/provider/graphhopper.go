// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/areamap/internal/config"
	"github.com/tomtom215/areamap/internal/models"
)

// graphHopperProfiles maps means of transportation to routing profiles.
var graphHopperProfiles = map[models.MeansOfTransportation]string{
	models.MeansWalk:    "foot",
	models.MeansBicycle: "bike",
	models.MeansCar:     "car",
}

// ErrNoIsochrone is returned when the provider answers without a polygon.
var ErrNoIsochrone = errors.New("isochrone response contains no polygon")

// GraphHopperIsochrone implements IsochroneProvider against the GraphHopper
// isochrone API.
type GraphHopperIsochrone struct {
	http *httpClient
	cb   *gobreaker.CircuitBreaker[any]
}

type graphHopperResponse struct {
	Polygons []struct {
		Geometry struct {
			Type        string        `json:"type"`
			Coordinates [][][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"polygons"`
}

// NewGraphHopperIsochrone creates an isochrone client.
func NewGraphHopperIsochrone(cfg *config.ProvidersConfig) *GraphHopperIsochrone {
	return &GraphHopperIsochrone{
		http: newHTTPClient("graphhopper", cfg.UserAgent, cfg.Isochrone),
		cb:   newBreaker("graphhopper", cfg.CircuitBreaker),
	}
}

// FetchIsochrone implements IsochroneProvider. The polygon bounds the area
// reachable within distanceMeters of road network distance.
func (g *GraphHopperIsochrone) FetchIsochrone(ctx context.Context, center models.Coordinates, means models.MeansOfTransportation, distanceMeters float64) (*models.Isochrone, error) {
	profile, ok := graphHopperProfiles[means]
	if !ok {
		return nil, fmt.Errorf("unsupported means of transportation %q", means)
	}

	params := url.Values{}
	params.Set("point", strconv.FormatFloat(center.Lat, 'f', -1, 64)+","+strconv.FormatFloat(center.Lng, 'f', -1, 64))
	params.Set("profile", profile)
	params.Set("distance_limit", strconv.Itoa(int(distanceMeters+0.5)))
	params.Set("buckets", "1")
	if g.http.apiKey != "" {
		params.Set("key", g.http.apiKey)
	}
	reqURL := strings.TrimRight(g.http.baseURL, "/") + "/isochrone?" + params.Encode()

	return execute(g.cb, func() (*models.Isochrone, error) {
		var resp graphHopperResponse
		err := g.http.do(ctx, func(ctx context.Context) (*http.Request, error) {
			return http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		}, &resp)
		if err != nil {
			return nil, err
		}
		if len(resp.Polygons) == 0 || len(resp.Polygons[0].Geometry.Coordinates) == 0 {
			return nil, ErrNoIsochrone
		}
		geom := resp.Polygons[0].Geometry
		return &models.Isochrone{Type: geom.Type, Coordinates: geom.Coordinates}, nil
	})
}
