// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package config

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	keyDerivationSalt = "areamap-derived-keys"

	// RedactionKeyInfo is the HKDF info for the coordinate jitter key.
	RedactionKeyInfo = "snapshot-redaction-v1"

	derivedKeySize = 32
)

// ErrEmptySecret is returned when key derivation is attempted without a secret.
var ErrEmptySecret = errors.New("JWT secret cannot be empty")

// DeriveKey derives a 256-bit purpose-bound key from the JWT secret using
// HKDF-SHA256. Different info strings yield independent keys.
func DeriveKey(secret, info string) ([]byte, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	reader := hkdf.New(sha256.New, []byte(secret), []byte(keyDerivationSalt), []byte(info))
	key := make([]byte, derivedKeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// RedactionKey derives the key used to seed deterministic coordinate jitter.
func (c *Config) RedactionKey() ([]byte, error) {
	return DeriveKey(c.Security.JWTSecret, RedactionKeyInfo)
}
