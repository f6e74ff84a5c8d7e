// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

/*
Package provider contains the clients of the external geo services used by a
location search.

Clients:
  - NominatimGeocoder: address and reverse geocoding with a country allow-list
    and a TTL LRU cache of resolved places
  - OverpassPOI: points of interest around a coordinate by category
  - GraphHopperIsochrone: reachability polygons per means of transportation

Resilience:
  - Every client waits on a golang.org/x/time/rate limiter before each call.
    Nominatim's public instance allows one request per second.
  - Every client runs its calls through a sony/gobreaker circuit breaker so
    that a failing provider is not hammered by concurrent searches.
  - HTTP 429 responses are retried with exponential backoff honoring
    Retry-After.

Errors are returned as-is. The search layer wraps them into provider errors
and fails the whole search; partial results are never returned.
*/
package provider
