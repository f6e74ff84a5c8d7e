// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/areamap/internal/models"
	"github.com/tomtom215/areamap/internal/snapshot"
)

// CreateSnapshot searches a location and stores the result as a snapshot.
//
// POST /api/v1/snapshots
func (h *Handler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var req CreateSnapshotRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	ctx := r.Context()

	cfg := req.Config
	if cfg == nil && req.TemplateSnapshotID != "" {
		tmpl, err := h.svc.Manager.TemplateConfig(ctx, owner, req.TemplateSnapshotID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		cfg = tmpl
	}

	result, err := h.resolveAndSearch(ctx, owner, &req.LocationSearchRequest)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s, err := h.svc.Builder.Build(ctx, owner, snapshot.BuildRequest{
		Result:        result,
		Config:        cfg,
		Description:   req.Description,
		IntegrationID: req.IntegrationID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Created(s)
}

// ListSnapshots lists the owner's snapshots, newest first.
//
// GET /api/v1/snapshots?limit=&offset=
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	page, ok := h.page(w, r)
	if !ok {
		return
	}

	items, total, err := h.svc.Manager.List(r.Context(), owner, page.Limit, page.Offset)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []models.Snapshot{}
	}
	NewResponseWriter(w, r).SuccessWithPagination(items, &PaginationMeta{
		Total:   total,
		Count:   len(items),
		Offset:  page.Offset,
		Limit:   page.Limit,
		HasMore: page.Offset+len(items) < total,
	})
}

// GetSnapshot returns one of the owner's snapshots unredacted.
//
// GET /api/v1/snapshots/{id}
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	h.fetch(w, r, snapshot.ModeOwner)
}

// GetSnapshotEmbed returns a snapshot as the owner's embedded display shows
// it: redacted when the address is hidden and bound to the iframe window.
//
// GET /api/v1/snapshots/{id}/embed
func (h *Handler) GetSnapshotEmbed(w http.ResponseWriter, r *http.Request) {
	h.fetch(w, r, snapshot.ModeEmbed)
}

func (h *Handler) fetch(w http.ResponseWriter, r *http.Request, mode snapshot.Mode) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	s, err := h.svc.Snapshots.FetchByID(r.Context(), owner, chi.URLParam(r, "id"), mode)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(s)
}

// UpdateSnapshot changes the description and/or configuration.
//
// PATCH /api/v1/snapshots/{id}
func (h *Handler) UpdateSnapshot(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var upd models.SnapshotUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if upd.Description == nil && upd.Config == nil {
		NewResponseWriter(w, r).BadRequest("Nothing to update")
		return
	}

	s, err := h.svc.Manager.Update(r.Context(), owner, chi.URLParam(r, "id"), upd)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(s)
}

// DeleteSnapshot deletes one of the owner's snapshots.
//
// DELETE /api/v1/snapshots/{id}
func (h *Handler) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	if err := h.svc.Manager.Delete(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).NoContent()
}

// MintSplitTokens replaces the snapshot's token with an address and an
// unaddress token.
//
// POST /api/v1/snapshots/{id}/tokens
func (h *Handler) MintSplitTokens(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	s, err := h.svc.Manager.MintSplitTokens(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(s)
}

// SetIframeExpiration sets or clears the embed window.
//
// PUT /api/v1/snapshots/{id}/iframe-expiration
func (h *Handler) SetIframeExpiration(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var req IframeExpirationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	s, err := h.svc.Manager.SetIframeExpiration(r.Context(), owner, chi.URLParam(r, "id"), req.ExpiresAt)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	NewResponseWriter(w, r).Success(s)
}

// EmbedByToken serves the public view a token grants. No authentication.
//
// GET /api/v1/embed/{token}
func (h *Handler) EmbedByToken(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Snapshots.FetchByToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	NewResponseWriter(w, r).Success(s)
}
