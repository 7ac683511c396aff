// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

package auth

import "errors"

// FailedToAuthenticate is the message recorded on a Session for every
// credential failure, whatever the cause.
const FailedToAuthenticate = "Failed to authenticate"

// Error codes attached to oops errors returned by this package.
const (
	CodeAuthenticationFailed    = "AUTH_FAILED"
	CodeAuthenticationRequired  = "AUTH_REQUIRED"
	CodeAnonymousAccessRequired = "AUTH_ANONYMOUS_REQUIRED"
	CodeNotRegistered           = "AUTH_NOT_REGISTERED"
	CodeAuthError               = "AUTH_ERROR"
	CodeLookupFailed            = "AUTH_LOOKUP_FAILED"
	CodeReauthenticateFailed    = "AUTH_REAUTHENTICATE_FAILED"
)

var (
	// ErrNotFound is returned by stores when a requested account does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMultipleMatches is returned by stores when a field lookup that
	// must be unique matches more than one account.
	ErrMultipleMatches = errors.New("multiple matches")

	// ErrAuthenticationFailed is the cause of every credential mismatch.
	ErrAuthenticationFailed = errors.New("failed to authenticate")

	// ErrAuthenticationRequired is returned when an anonymous request hits a
	// protected action.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrAnonymousAccessRequired is returned when an authenticated request
	// hits an anonymous-only action.
	ErrAnonymousAccessRequired = errors.New("anonymous access required")

	// ErrNotRegistered is returned when no account type, or no type with
	// the requested name, has been registered.
	ErrNotRegistered = errors.New("account type not registered")

	// ErrAuthError is the cause of a failed Session.SaveStrict.
	ErrAuthError = errors.New("authentication error")
)
