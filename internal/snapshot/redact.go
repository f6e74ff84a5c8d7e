// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package snapshot

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/tomtom215/areamap/internal/config"
	"github.com/tomtom215/areamap/internal/models"
)

// Default jitter annulus in meters.
const (
	DefaultMinJitterMeters = 50.0
	DefaultMaxJitterMeters = 150.0
)

// Redactor hides the searched address of a snapshot. The jitter of a
// snapshot is derived from its id with a keyed HMAC, so every fetch returns
// the same offset and repeated fetches cannot be averaged out.
type Redactor struct {
	key      []byte
	minMeter float64
	maxMeter float64
}

// NewRedactor creates a redactor. key should come from
// config.Config.RedactionKey.
func NewRedactor(key []byte, cfg config.RedactionConfig) *Redactor {
	r := &Redactor{key: key, minMeter: cfg.MinJitterMeters, maxMeter: cfg.MaxJitterMeters}
	if r.minMeter <= 0 {
		r.minMeter = DefaultMinJitterMeters
	}
	if r.maxMeter < r.minMeter {
		r.maxMeter = math.Max(DefaultMaxJitterMeters, r.minMeter)
	}
	return r
}

// Jitter returns the bearing in radians and the distance in meters the
// location of snapshot id is moved by.
func (r *Redactor) Jitter(id string) (bearing, meters float64) {
	mac := hmac.New(sha256.New, r.key)
	mac.Write([]byte(id))
	sum := mac.Sum(nil)

	bearing = unitFloat(sum[0:8]) * 2 * math.Pi
	meters = r.minMeter + unitFloat(sum[8:16])*(r.maxMeter-r.minMeter)
	return bearing, meters
}

// unitFloat maps 8 bytes to [0, 1).
func unitFloat(b []byte) float64 {
	return float64(binary.BigEndian.Uint64(b)>>11) / (1 << 53)
}

// Redact returns a copy of s without the searched address: the geocoded
// place and the subject listing are dropped, the location is jittered and
// the center of interest loses its name and address. POI data is kept.
func (r *Redactor) Redact(s *models.Snapshot) *models.Snapshot {
	out := *s
	result := s.SearchResult.Clone()

	bearing, meters := r.Jitter(s.ID)
	jittered := result.Location.Offset(bearing, meters)

	result.Location = jittered
	result.PlacesLocation = nil
	result.CenterOfInterest.Coordinates = jittered
	result.CenterOfInterest.Name = ""
	result.CenterOfInterest.Address = ""

	out.SearchResult = *result
	out.SubjectListing = nil
	return &out
}
