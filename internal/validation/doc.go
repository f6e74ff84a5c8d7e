// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

// Package validation provides struct validation using go-playground/validator v10.
//
// The package wraps a thread-safe singleton validator with the custom tags the
// search and snapshot requests need and translates failures into the API's
// VALIDATION_ERROR format.
//
// # Custom Tags
//
//   - means: a means of transportation (WALK, BICYCLE, CAR)
//   - distunit: a distance unit (MINUTES, METERS, KILOMETERS)
//   - hexcolor6: an optional "#rrggbb" color
//
// Field names in messages use the JSON name of the field, so a failure reads
// the same way the client spelled the request:
//
//	meansOfTransportation[0].type must be one of: WALK BICYCLE CAR
//
// # Usage
//
//	var query models.SearchQuery
//	if verr := validation.ValidateStruct(&query); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, verr)
//	    return
//	}
//
// # Thread Safety
//
// The singleton is initialized once and is safe for concurrent use. The
// validator caches reflection data per struct type.
package validation
