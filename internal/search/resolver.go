// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package search

import (
	"context"

	"github.com/tomtom215/areamap/internal/models"
	"github.com/tomtom215/areamap/internal/provider"
)

// LocationInput is either a free-text address or a coordinate pair.
type LocationInput struct {
	Address     string              `json:"address,omitempty" validate:"required_without=Coordinates,max=500"`
	Coordinates *models.Coordinates `json:"coordinates,omitempty" validate:"required_without=Address"`
}

// Resolver turns a LocationInput into canonical coordinates.
type Resolver struct {
	geocoder provider.Geocoder
}

// NewResolver creates a resolver backed by geocoder.
func NewResolver(geocoder provider.Geocoder) *Resolver {
	return &Resolver{geocoder: geocoder}
}

// Resolve returns the place of in, or nil when it cannot be resolved inside
// allowedCountries. Coordinates that reverse-geocode to nothing are accepted
// as-is when no country restriction applies.
func (r *Resolver) Resolve(ctx context.Context, in LocationInput, allowedCountries []string) (*models.Place, error) {
	if in.Coordinates != nil {
		place, err := r.geocoder.Reverse(ctx, *in.Coordinates, allowedCountries)
		if err != nil {
			return nil, models.ProviderFailure("The geocoder", err)
		}
		if place == nil && len(allowedCountries) == 0 {
			return &models.Place{Coordinates: *in.Coordinates}, nil
		}
		return place, nil
	}

	place, err := r.geocoder.Geocode(ctx, in.Address, allowedCountries)
	if err != nil {
		return nil, models.ProviderFailure("The geocoder", err)
	}
	return place, nil
}
