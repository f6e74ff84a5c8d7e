// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/areamap/internal/config"
	"github.com/tomtom215/areamap/internal/models"
)

// Claims identifies the owner of a request. Standalone users use the
// registered subject claim.
type Claims struct {
	IntegrationUserID string `json:"integration_user_id,omitempty"`
	IntegrationType   string `json:"integration_type,omitempty"`
	jwt.RegisteredClaims
}

// OwnerRef returns the owner reference carried by the claims.
func (c *Claims) OwnerRef() models.OwnerRef {
	if c.IntegrationUserID != "" {
		return models.OwnerRef{IntegrationUserID: c.IntegrationUserID, IntegrationType: c.IntegrationType}
	}
	return models.OwnerRef{UserID: c.Subject}
}

// JWTManager handles JWT token creation and validation.
type JWTManager struct {
	secret  []byte
	timeout time.Duration
}

// NewJWTManager creates a JWT manager signing with HS256.
func NewJWTManager(cfg *config.SecurityConfig) (*JWTManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but was empty")
	}
	return &JWTManager{
		secret:  []byte(cfg.JWTSecret),
		timeout: cfg.SessionTimeout,
	}, nil
}

// GenerateToken issues a token for ref. It is used by tests and the
// development seed command; production tokens come from the account service.
func (m *JWTManager) GenerateToken(ref models.OwnerRef) (string, error) {
	now := time.Now()
	claims := &Claims{
		IntegrationUserID: ref.IntegrationUserID,
		IntegrationType:   ref.IntegrationType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ref.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.timeout)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature, algorithm and time claims.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Subject == "" && (claims.IntegrationUserID == "" || claims.IntegrationType == "") {
		return nil, errors.New("token does not identify an owner")
	}
	return claims, nil
}
