// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

/*
Package models defines the data structures shared by the Areamap services.

Key Components:

  - Owner: the account a search or snapshot belongs to. Two variants exist,
    StandaloneUser (subscription governed, quota metered) and IntegrationUser
    (an external CRM user identified by id and integration type).
  - SearchQuery, SearchResult: input and output of a location search.
  - LocationSearchRecord: one persisted search call, used for duplicate
    detection and address expiration.
  - Snapshot, Configuration, AccessToken: a persisted, shareable map.
  - Subscription, ContingentEntry: plan and request quota of an owner.
  - UsageEvent: usage statistic emitted for integration owners.

Errors:

The error taxonomy of the engine lives in errors.go. Each kind is a sentinel
usable with errors.Is, and ReasonError attaches the user-facing message that
the API surfaces verbatim.

Thread Safety:

Model types are plain values and are not safe for concurrent mutation.
Use Clone before modifying a Configuration or SearchResult shared with
another goroutine.
*/
package models
