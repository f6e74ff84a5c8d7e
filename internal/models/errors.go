// Areamap - Location Search and Map Snapshot Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/areamap

package models

import (
	"errors"
	"fmt"
)

// Error kinds of the search and snapshot engine.
var (
	ErrQuotaExceeded      = errors.New("quota exceeded")
	ErrLocationExpired    = errors.New("location expired")
	ErrIframeExpired      = errors.New("iframe expired")
	ErrNotFound           = errors.New("not found")
	ErrFeatureUnavailable = errors.New("feature unavailable")
	ErrProvider           = errors.New("provider error")
	ErrInvalidInput       = errors.New("invalid input")
)

// ReasonError wraps an error kind with a user-facing reason.
type ReasonError struct {
	Kind   error
	Reason string
	Cause  error
}

// NewReasonError returns an error of the given kind carrying reason.
func NewReasonError(kind error, reason string) *ReasonError {
	return &ReasonError{Kind: kind, Reason: reason}
}

// ProviderFailure wraps a failed provider call.
func ProviderFailure(provider string, cause error) *ReasonError {
	return &ReasonError{
		Kind:   ErrProvider,
		Reason: fmt.Sprintf("%s is currently unavailable", provider),
		Cause:  cause,
	}
}

func (e *ReasonError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *ReasonError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// ReasonOf returns the user-facing reason carried by err, or "" when err
// carries none.
func ReasonOf(err error) string {
	var re *ReasonError
	if errors.As(err, &re) {
		return re.Reason
	}
	return ""
}
