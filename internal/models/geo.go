// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package models

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used for all distance math.
const EarthRadiusMeters = 6371008.8

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

// Equal reports exact equality. Duplicate detection and subject listing
// matching rely on exact, not approximate, comparison.
func (c Coordinates) Equal(o Coordinates) bool {
	return c.Lat == o.Lat && c.Lng == o.Lng
}

// String formats the coordinates for logs.
func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}

// DistanceMeters returns the haversine distance between a and b.
func DistanceMeters(a, b Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Offset moves c by meters along bearing (radians, clockwise from north)
// on a great circle. The result has Lat in [-90, 90] and Lng in [-180, 180).
func (c Coordinates) Offset(bearing, meters float64) Coordinates {
	lat1 := c.Lat * math.Pi / 180
	lng1 := c.Lng * math.Pi / 180
	delta := meters / EarthRadiusMeters

	sinLat2 := math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(bearing)
	lat2 := math.Asin(math.Max(-1, math.Min(1, sinLat2)))
	lng2 := lng1 + math.Atan2(
		math.Sin(bearing)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*sinLat2,
	)

	return Coordinates{
		Lat: math.Max(-90, math.Min(90, lat2*180/math.Pi)),
		Lng: wrapLongitude(lng2 * 180 / math.Pi),
	}
}

func wrapLongitude(lng float64) float64 {
	w := math.Mod(lng+180, 360)
	if w < 0 {
		w += 360
	}
	return w - 180
}
