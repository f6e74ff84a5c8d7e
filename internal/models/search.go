// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package models

import "time"

// Place is a geocoded location.
type Place struct {
	PlaceID     string      `json:"placeId"`
	DisplayName string      `json:"displayName"`
	Coordinates Coordinates `json:"coordinates"`
	CountryCode string      `json:"countryCode"`
}

// SearchQuery is a normalized location search request.
type SearchQuery struct {
	Coordinates    Coordinates           `json:"coordinates" validate:"required"`
	SearchTitle    string                `json:"searchTitle,omitempty" validate:"max=500"`
	Transportation []TransportationParam `json:"meansOfTransportation" validate:"max=3,dive"`
	Categories     []string              `json:"preferredAmenities,omitempty" validate:"max=50,dive,min=1,max=64"`
	WithIsochrone  *bool                 `json:"withIsochrone,omitempty"`

	// Place is the geocoder result the coordinates were derived from, if any.
	Place *Place `json:"-"`
}

// Profiles returns the requested routing profiles in request order.
func (q *SearchQuery) Profiles() []MeansOfTransportation {
	out := make([]MeansOfTransportation, 0, len(q.Transportation))
	for _, p := range q.Transportation {
		out = append(out, p.Type)
	}
	return out
}

// PointOfInterest is a POI near the searched location.
type PointOfInterest struct {
	ID             string      `json:"id"`
	Name           string      `json:"name,omitempty"`
	Category       string      `json:"category"`
	Coordinates    Coordinates `json:"coordinates"`
	DistanceMeters float64     `json:"distanceInMeters"`
	Address        string      `json:"address,omitempty"`
}

// CenterOfInterestCategory tags the synthetic entry for the searched address.
const CenterOfInterestCategory = "property"

// Isochrone is a GeoJSON polygon of the area reachable within a profile's
// reach. Coordinates follow GeoJSON order: [lng, lat].
type Isochrone struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates"`
}

// RoutingProfile is the result for one means of transportation.
type RoutingProfile struct {
	Means          MeansOfTransportation `json:"type"`
	DistanceMeters float64               `json:"distanceInMeters"`
	Locations      []PointOfInterest     `json:"locationsOfInterest"`
	Isochrone      *Isochrone            `json:"isochrone,omitempty"`
}

// SearchResult is the output of a location search.
type SearchResult struct {
	Location         Coordinates                              `json:"centerOfLocation"`
	PlacesLocation   *Place                                   `json:"placesLocation,omitempty"`
	CenterOfInterest PointOfInterest                          `json:"centerOfInterest"`
	RoutingProfiles  map[MeansOfTransportation]RoutingProfile `json:"routingProfiles"`
}

// Clone returns a deep copy of r.
func (r *SearchResult) Clone() *SearchResult {
	out := *r
	if r.PlacesLocation != nil {
		place := *r.PlacesLocation
		out.PlacesLocation = &place
	}
	out.RoutingProfiles = make(map[MeansOfTransportation]RoutingProfile, len(r.RoutingProfiles))
	for means, profile := range r.RoutingProfiles {
		cp := profile
		cp.Locations = append([]PointOfInterest(nil), profile.Locations...)
		if profile.Isochrone != nil {
			iso := *profile.Isochrone
			cp.Isochrone = &iso
		}
		out.RoutingProfiles[means] = cp
	}
	return &out
}

// LocationSearchRecord is one persisted search call.
type LocationSearchRecord struct {
	ID          string                  `json:"id"`
	Owner       OwnerRef                `json:"owner"`
	Coordinates Coordinates             `json:"coordinates"`
	SearchTitle string                  `json:"searchTitle,omitempty"`
	Means       []MeansOfTransportation `json:"meansOfTransportation"`
	CreatedAt   time.Time               `json:"createdAt"`
	ExpiresAt   *time.Time              `json:"endsAt,omitempty"`
	IsTrial     bool                    `json:"isTrial"`
}

// Expired reports whether the record's address lifetime lapsed before now.
func (r *LocationSearchRecord) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && r.ExpiresAt.Before(now)
}
