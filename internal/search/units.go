// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package search

import (
	"fmt"

	"github.com/tomtom215/areamap/internal/config"
	"github.com/tomtom215/areamap/internal/models"
)

// SpeedModel converts travel times to distances per means of transportation.
type SpeedModel struct {
	kmh map[models.MeansOfTransportation]float64
}

// NewSpeedModel builds the speed model from configured average speeds.
func NewSpeedModel(cfg config.SearchConfig) SpeedModel {
	return SpeedModel{kmh: map[models.MeansOfTransportation]float64{
		models.MeansWalk:    cfg.WalkSpeedKmh,
		models.MeansBicycle: cfg.BicycleSpeedKmh,
		models.MeansCar:     cfg.CarSpeedKmh,
	}}
}

// Meters returns the reach of p in meters.
func (s SpeedModel) Meters(p models.TransportationParam) (float64, error) {
	switch p.Unit {
	case models.UnitMeters:
		return p.Amount, nil
	case models.UnitKilometers:
		return p.Amount * 1000, nil
	case models.UnitMinutes:
		speed, ok := s.kmh[p.Type]
		if !ok || speed <= 0 {
			return 0, fmt.Errorf("no speed configured for %s", p.Type)
		}
		return p.Amount * speed * 1000 / 60, nil
	default:
		return 0, fmt.Errorf("unsupported distance unit %q", p.Unit)
	}
}
