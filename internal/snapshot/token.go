// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package snapshot

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/tomtom215/areamap/internal/models"
)

// tokenBytes is the entropy of a public access token.
const tokenBytes = 24

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewSingleToken mints a fresh single-form access token.
func NewSingleToken() (models.AccessToken, error) {
	t, err := newToken()
	if err != nil {
		return models.AccessToken{}, err
	}
	return models.NewSingleToken(t), nil
}

// NewSplitToken mints a fresh address/unaddress token pair.
func NewSplitToken() (models.AccessToken, error) {
	addressToken, err := newToken()
	if err != nil {
		return models.AccessToken{}, err
	}
	unaddressToken, err := newToken()
	if err != nil {
		return models.AccessToken{}, err
	}
	return models.NewSplitToken(addressToken, unaddressToken), nil
}
