// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package models

import (
	"crypto/subtle"
	"errors"

	"github.com/goccy/go-json"
)

// TokenKind tells which form of access token matched a lookup.
type TokenKind int

// Token kinds.
const (
	TokenNone TokenKind = iota
	TokenSingle
	TokenAddress
	TokenUnaddress
)

// AccessToken grants public read access to a snapshot. It holds either a
// single token or a split pair, never both.
type AccessToken struct {
	single    string
	address   string
	unaddress string
}

// NewSingleToken returns the single-token form.
func NewSingleToken(token string) AccessToken {
	return AccessToken{single: token}
}

// NewSplitToken returns the split form. The address token discloses the
// address, the unaddress token forces redaction.
func NewSplitToken(addressToken, unaddressToken string) AccessToken {
	return AccessToken{address: addressToken, unaddress: unaddressToken}
}

// IsSplit reports whether t is the split form.
func (t AccessToken) IsSplit() bool {
	return t.single == "" && t.address != ""
}

// IsZero reports whether no token is set.
func (t AccessToken) IsZero() bool {
	return t.single == "" && t.address == "" && t.unaddress == ""
}

// Single returns the single token and whether t has that form.
func (t AccessToken) Single() (string, bool) {
	return t.single, t.single != ""
}

// Split returns the token pair and whether t has that form.
func (t AccessToken) Split() (addressToken, unaddressToken string, ok bool) {
	return t.address, t.unaddress, t.IsSplit()
}

// Match reports which form of t equals candidate.
func (t AccessToken) Match(candidate string) TokenKind {
	if candidate == "" {
		return TokenNone
	}
	switch {
	case t.single != "" && constantTimeEqual(t.single, candidate):
		return TokenSingle
	case t.address != "" && constantTimeEqual(t.address, candidate):
		return TokenAddress
	case t.unaddress != "" && constantTimeEqual(t.unaddress, candidate):
		return TokenUnaddress
	}
	return TokenNone
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

type accessTokenJSON struct {
	Token          string `json:"token,omitempty"`
	AddressToken   string `json:"addressToken,omitempty"`
	UnaddressToken string `json:"unaddressToken,omitempty"`
}

// MarshalJSON encodes the populated form only.
func (t AccessToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(accessTokenJSON{
		Token:          t.single,
		AddressToken:   t.address,
		UnaddressToken: t.unaddress,
	})
}

// ErrAmbiguousToken is returned when decoding a token carrying both forms.
var ErrAmbiguousToken = errors.New("access token must be either single or split")

// UnmarshalJSON decodes either form and rejects mixtures.
func (t *AccessToken) UnmarshalJSON(data []byte) error {
	var raw accessTokenJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	hasSplit := raw.AddressToken != "" || raw.UnaddressToken != ""
	if raw.Token != "" && hasSplit {
		return ErrAmbiguousToken
	}
	if hasSplit && (raw.AddressToken == "" || raw.UnaddressToken == "") {
		return ErrAmbiguousToken
	}
	*t = AccessToken{single: raw.Token, address: raw.AddressToken, unaddress: raw.UnaddressToken}
	return nil
}
