// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

// Package middleware provides HTTP middleware shared by all API routes.
//
//   - RequestID: propagates or generates X-Request-ID and seeds the
//     logging context with request and correlation ids.
//   - PrometheusMetrics: records request counts and latency labeled by the
//     chi route pattern, keeping label cardinality bounded.
package middleware
