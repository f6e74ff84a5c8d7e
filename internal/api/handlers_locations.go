// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package api

import (
	"net/http"
)

// LocationSearch resolves a location and searches its surroundings.
//
// POST /api/v1/locations/search
func (h *Handler) LocationSearch(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var req LocationSearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	result, err := h.resolveAndSearch(r.Context(), owner, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(result)
}

// LocationHistory lists the owner's recorded searches, newest first.
//
// GET /api/v1/locations/history?limit=
func (h *Handler) LocationHistory(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	page, ok := h.page(w, r)
	if !ok {
		return
	}

	records, err := h.svc.Searcher.History(r.Context(), owner, page.Limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(records)
}

// ExtendLocationExpiration moves the address lifetime of the owner's
// records and snapshots at the given coordinates.
//
// POST /api/v1/locations/expiration
func (h *Handler) ExtendLocationExpiration(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var req ExtendExpirationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	n, err := h.svc.Manager.ExtendAddressExpiration(r.Context(), owner, *req.Coordinates, req.ExpiresAt)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(map[string]any{
		"updatedSnapshots": n,
		"endsAt":           req.ExpiresAt,
	})
}

// PurgeTrialData deletes the owner's trial searches and snapshots.
//
// DELETE /api/v1/locations/trial
func (h *Handler) PurgeTrialData(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Manager.PurgeTrialData(r.Context(), owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(res)
}
