// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package models

// MeansOfTransportation is a routing profile.
type MeansOfTransportation string

// Supported routing profiles.
const (
	MeansWalk    MeansOfTransportation = "WALK"
	MeansBicycle MeansOfTransportation = "BICYCLE"
	MeansCar     MeansOfTransportation = "CAR"
)

// AllMeans returns every supported routing profile in display order.
func AllMeans() []MeansOfTransportation {
	return []MeansOfTransportation{MeansWalk, MeansBicycle, MeansCar}
}

// Valid reports whether m is a supported profile.
func (m MeansOfTransportation) Valid() bool {
	switch m {
	case MeansWalk, MeansBicycle, MeansCar:
		return true
	}
	return false
}

// DistanceUnit is the unit a profile distance was requested in.
type DistanceUnit string

// Supported distance units.
const (
	UnitMinutes    DistanceUnit = "MINUTES"
	UnitMeters     DistanceUnit = "METERS"
	UnitKilometers DistanceUnit = "KILOMETERS"
)

// Valid reports whether u is a supported unit.
func (u DistanceUnit) Valid() bool {
	switch u {
	case UnitMinutes, UnitMeters, UnitKilometers:
		return true
	}
	return false
}

// TransportationParam requests one routing profile with a reach expressed as
// travel time or distance.
type TransportationParam struct {
	Type   MeansOfTransportation `json:"type" validate:"required,means"`
	Amount float64               `json:"amount" validate:"gt=0,lte=100000"`
	Unit   DistanceUnit          `json:"unit" validate:"required,distunit"`
}
