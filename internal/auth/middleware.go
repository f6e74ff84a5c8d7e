// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/areamap/internal/logging"
	"github.com/tomtom215/areamap/internal/models"
)

type contextKey string

const ownerContextKey contextKey = "owner"

// OwnerLoader loads owners by reference.
type OwnerLoader interface {
	GetOwner(ctx context.Context, ref models.OwnerRef) (models.Owner, error)
}

// Middleware authenticates requests and attaches the owner to the context.
type Middleware struct {
	jwt    *JWTManager
	owners OwnerLoader
}

// NewMiddleware creates the authentication middleware.
func NewMiddleware(jwtManager *JWTManager, owners OwnerLoader) *Middleware {
	return &Middleware{jwt: jwtManager, owners: owners}
}

// Authenticate rejects requests without a valid owner token.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, err := m.authenticate(r)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Authentication failed")
			writeUnauthorized(w, err.Error())
			return
		}

		ctx := WithOwner(r.Context(), owner)
		ctx = logging.ContextWithOwnerID(ctx, owner.ID())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) authenticate(r *http.Request) (models.Owner, error) {
	token, err := extractToken(r)
	if err != nil {
		return nil, err
	}
	claims, err := m.jwt.ValidateToken(token)
	if err != nil {
		return nil, errors.New("invalid token")
	}

	owner, err := m.owners.GetOwner(r.Context(), claims.OwnerRef())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to load owner")
		return nil, errors.New("owner lookup failed")
	}
	if owner == nil {
		return nil, errors.New("unknown owner")
	}
	return owner, nil
}

// extractToken reads the bearer token from the Authorization header or the
// token cookie.
func extractToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		cookie, err := r.Cookie("token")
		if err != nil || cookie.Value == "" {
			return "", errors.New("missing token")
		}
		return cookie.Value, nil
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", errors.New("invalid authorization header")
	}
	return token, nil
}

func writeUnauthorized(w http.ResponseWriter, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="areamap"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   map[string]string{"code": "UNAUTHORIZED", "message": reason},
	})
}

// WithOwner returns a context carrying owner.
func WithOwner(ctx context.Context, owner models.Owner) context.Context {
	return context.WithValue(ctx, ownerContextKey, owner)
}

// OwnerFromContext returns the authenticated owner.
func OwnerFromContext(ctx context.Context) (models.Owner, bool) {
	owner, ok := ctx.Value(ownerContextKey).(models.Owner)
	return owner, ok && owner != nil
}
