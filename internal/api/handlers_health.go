// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/areamap/internal/logging"
)

const readinessTimeout = 3 * time.Second

// HealthStatus is the body of the health probes.
type HealthStatus struct {
	Status string            `json:"status"`
	Uptime float64           `json:"uptime_seconds"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthLive reports that the process is serving requests.
//
// GET /api/v1/health/live
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(HealthStatus{
		Status: "alive",
		Uptime: time.Since(h.startTime).Seconds(),
	})
}

// HealthReady runs every readiness check and returns 503 if any fails.
//
// GET /api/v1/health/ready
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := HealthStatus{
		Status: "ready",
		Uptime: time.Since(h.startTime).Seconds(),
		Checks: make(map[string]string, len(h.svc.Readiness)),
	}
	for _, c := range h.svc.Readiness {
		if err := c.Check(ctx); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("check", c.Name).Msg("Readiness check failed")
			status.Status = "not_ready"
			status.Checks[c.Name] = err.Error()
			continue
		}
		status.Checks[c.Name] = "ok"
	}

	rw := NewResponseWriter(w, r)
	if status.Status != "ready" {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Service not ready", status.Checks)
		return
	}
	rw.Success(status)
}
