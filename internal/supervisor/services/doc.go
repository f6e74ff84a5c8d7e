// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

// Package services adapts components with ListenAndServe or Shutdown
// lifecycles to suture.Service. The outbox relay implements Serve itself and
// needs no wrapper.
package services
