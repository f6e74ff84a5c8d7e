// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

/*
Package api exposes the location search and snapshot engine over HTTP.

Routes are served by a Chi router. Every response uses the APIResponse
envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "QUOTA_EXCEEDED", "message": "..."}}

Authenticated routes live under /api/v1/locations and /api/v1/snapshots and
require an owner token (see package auth). /api/v1/embed/{token} is public
and serves the redacted or full snapshot the token grants. Health probes
and /metrics are unauthenticated.

Domain errors map to status codes in one place (writeServiceError):

	models.ErrQuotaExceeded       429 QUOTA_EXCEEDED
	models.ErrLocationExpired     402 LOCATION_EXPIRED
	models.ErrIframeExpired       410 IFRAME_EXPIRED
	models.ErrNotFound            404 NOT_FOUND
	models.ErrFeatureUnavailable  403 FEATURE_UNAVAILABLE
	models.ErrInvalidInput        400 BAD_REQUEST
	models.ErrProvider            502 EXTERNAL_SERVICE_FAILED
*/
package api
