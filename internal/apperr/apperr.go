// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package apperr defines the error kinds surfaced by the screenshot
// lifecycle engine. Every core component returns one of these kinds (wrapped
// with context via fmt.Errorf("%w", ...)) instead of ad-hoc error strings, so
// that a transport layer can map kinds to status codes without inspecting
// messages.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is a stable, conceptual error category. Names match spec.md §7.
type Kind string

const (
	InvalidPayload      Kind = "invalid-payload"
	InvalidCityName     Kind = "invalid-city-name"
	InvalidImageFormat  Kind = "invalid-image-format"
	RateLimitExceeded   Kind = "rate-limit-exceeded"
	InvalidCreatorID    Kind = "invalid-creator-id"
	InvalidCreatorName  Kind = "invalid-creator-name"
	CreatorNotFound     Kind = "creator-not-found"
	IncorrectCreatorID  Kind = "incorrect-creator-id"
	BannedIdentity      Kind = "banned-identity"
	BannedCreator       Kind = "banned-creator"
	NotFoundByID        Kind = "not-found-by-id"
	ScreenshotApproved  Kind = "screenshot-already-approved"
	AlreadyFavorited    Kind = "already-favorited"
	NotFavorited        Kind = "not-favorited"
	Conflict            Kind = "conflict"
	Unauthorized        Kind = "unauthorized"
	Forbidden           Kind = "forbidden"
)

// Error is the concrete error type returned by core components. It always
// carries a Kind and a human-readable message; it may wrap an underlying
// cause (a driver error, for instance) for logging without leaking that
// cause to the client.
type Error struct {
	Kind    Kind
	Message string
	Cause   error

	// NotBefore is populated for RateLimitExceeded: the next time the
	// caller may retry, per spec.md §4.10.1 step 1.
	NotBefore *int64

	// ConflictCreatorID is populated for IncorrectCreatorID to name the
	// conflicting account in the 403 message (spec.md §4.5).
	ConflictCreatorID string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind around a lower-level cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err is an *Error of the given kind. Mirrors the
// teacher's errors.Is-based sentinel matching (see
// internal/database/crud_media_servers.go) generalized to a Kind enum
// instead of one sentinel per condition.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf extracts the Kind from err, returning ("", false) if err is not an
// *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}
