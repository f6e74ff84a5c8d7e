// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/areamap/internal/models"
	"github.com/tomtom215/areamap/internal/search"
	"github.com/tomtom215/areamap/internal/validation"
)

// maxBodyBytes bounds request bodies. Snapshot configurations are the
// largest payloads and stay well below this.
const maxBodyBytes = 1 << 20

// LocationSearchRequest is the body of a location search. Exactly one of
// address or coordinates identifies the location.
type LocationSearchRequest struct {
	search.LocationInput
	SearchTitle    string                       `json:"searchTitle,omitempty" validate:"max=500"`
	Transportation []models.TransportationParam `json:"meansOfTransportation" validate:"max=3,dive"`
	Categories     []string                     `json:"preferredAmenities,omitempty" validate:"max=50,dive,min=1,max=64"`
	WithIsochrone  *bool                        `json:"withIsochrone,omitempty"`
}

// query builds the search query for the resolved place.
func (req *LocationSearchRequest) query(place *models.Place) *models.SearchQuery {
	title := req.SearchTitle
	if title == "" {
		title = place.DisplayName
	}
	return &models.SearchQuery{
		Coordinates:    place.Coordinates,
		SearchTitle:    title,
		Transportation: req.Transportation,
		Categories:     req.Categories,
		WithIsochrone:  req.WithIsochrone,
		Place:          place,
	}
}

// CreateSnapshotRequest searches a location and stores the result as a
// snapshot.
type CreateSnapshotRequest struct {
	LocationSearchRequest
	Description string `json:"description,omitempty" validate:"max=2000"`
	// TemplateSnapshotID copies the configuration of an existing snapshot.
	TemplateSnapshotID string `json:"templateSnapshotId,omitempty" validate:"omitempty,max=64"`
	// Config overrides the template cascade.
	Config        *models.Configuration `json:"config,omitempty"`
	IntegrationID string                `json:"integrationId,omitempty" validate:"max=128"`
}

// ExtendExpirationRequest extends the address lifetime of a location.
type ExtendExpirationRequest struct {
	Coordinates *models.Coordinates `json:"coordinates" validate:"required"`
	ExpiresAt   time.Time           `json:"endsAt" validate:"required"`
}

// IframeExpirationRequest sets or clears (null) the embed window.
type IframeExpirationRequest struct {
	ExpiresAt *time.Time `json:"iframeEndsAt"`
}

// PageRequest holds list pagination parameters.
type PageRequest struct {
	Limit  int `validate:"min=1"`
	Offset int `validate:"min=0,max=1000000"`
}

var errEmptyBody = errors.New("request body is empty")

// decodeJSON decodes a bounded JSON body into dst and validates it.
// Decoding failures are returned as plain errors, validation failures as
// *validation.RequestValidationError.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		return verr
	}
	return nil
}

// writeDecodeError reports a decodeJSON failure.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		writeServiceError(w, r, verr)
		return
	}
	NewResponseWriter(w, r).BadRequest("Invalid JSON body: " + err.Error())
}

// parsePage reads limit and offset query parameters, clamping limit to
// maxLimit.
func parsePage(r *http.Request, defaultLimit, maxLimit int) (PageRequest, error) {
	page := PageRequest{Limit: defaultLimit}
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, errors.New("limit must be an integer")
		}
		page.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return page, errors.New("offset must be an integer")
		}
		page.Offset = n
	}
	if verr := validation.ValidateStruct(&page); verr != nil {
		return page, verr
	}
	if maxLimit > 0 && page.Limit > maxLimit {
		page.Limit = maxLimit
	}
	return page, nil
}
