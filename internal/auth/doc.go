// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

/*
Package auth authenticates API requests and resolves them to owners.

Tokens are HS256 JWTs issued by the account service. A token identifies
exactly one owner: standalone users by subject, integration users by the
(integration_user_id, integration_type) pair.

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	mw := auth.NewMiddleware(jwtManager, db)
	r.With(mw.Authenticate).Post("/api/location/search", handler)

Handlers read the owner with auth.OwnerFromContext. Requests whose token is
missing, malformed, expired or references an unknown owner are rejected
with 401.
*/
package auth
