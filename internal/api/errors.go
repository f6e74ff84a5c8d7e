// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/areamap/internal/logging"
	"github.com/tomtom215/areamap/internal/models"
	"github.com/tomtom215/areamap/internal/validation"
)

// errorMapping maps a domain error kind to its HTTP representation.
type errorMapping struct {
	kind    error
	status  int
	code    string
	message string
}

// Order matters: a provider failure wrapped in a quota error reports quota.
var errorMappings = []errorMapping{
	{models.ErrQuotaExceeded, http.StatusTooManyRequests, ErrCodeQuotaExceeded, "Request quota exceeded"},
	{models.ErrLocationExpired, http.StatusPaymentRequired, ErrCodeLocationExpired, "The address lifetime has expired"},
	{models.ErrIframeExpired, http.StatusGone, ErrCodeIframeExpired, "The embed window has expired"},
	{models.ErrNotFound, http.StatusNotFound, ErrCodeNotFound, "Not found"},
	{models.ErrFeatureUnavailable, http.StatusForbidden, ErrCodeFeatureUnavailable, "Feature not included in the current plan"},
	{models.ErrProvider, http.StatusBadGateway, ErrCodeExternalServiceFail, "An external service is unavailable"},
	{models.ErrInvalidInput, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request"},
}

// writeServiceError translates err into an error response. Errors without a
// known kind become 500 and are logged; their text never reaches the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	rw := NewResponseWriter(w, r)

	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		apiErr := verr.ToAPIError()
		rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	for _, m := range errorMappings {
		if !errors.Is(err, m.kind) {
			continue
		}
		message := models.ReasonOf(err)
		if message == "" {
			message = m.message
		}
		event := logging.Ctx(r.Context()).Debug()
		if m.status >= http.StatusInternalServerError {
			event = logging.Ctx(r.Context()).Warn()
		}
		event.Err(err).Int("status", m.status).Msg("Request failed")
		rw.Error(m.status, m.code, message)
		return
	}

	logging.Ctx(r.Context()).Error().Err(err).
		Str("path", r.URL.Path).
		Msg("Unhandled request error")
	rw.InternalError("An internal error occurred")
}
