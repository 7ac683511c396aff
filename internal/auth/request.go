// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// SessionKey is the only key the engine reads from or writes to a SessionStore.
const SessionKey = "authenticated_object_id"

// RequestContext holds the authentication state of one request. Create a new
// one per request; it is not safe for concurrent use.
//
// It is Anonymous until OptionalReauthenticate or Authenticate supplies an
// account, and returns to Anonymous on Unauthenticate.
type RequestContext struct {
	sessions SessionStore
	store    AccountStore
	typeName string
	logger   *slog.Logger

	account *Account
}

// RequestOption configures a RequestContext.
type RequestOption func(*RequestContext)

// WithAccountType sets the account type used to reload the persisted id.
// The default is the registry's default type.
func WithAccountType(typeName string) RequestOption {
	return func(rc *RequestContext) {
		rc.typeName = typeName
	}
}

// AccountType returns the account type used to reload the persisted id.
func (rc *RequestContext) AccountType() string {
	return rc.typeName
}

// PersistedAccountID returns the account id held in the session store.
func (rc *RequestContext) PersistedAccountID() (string, bool) {
	id, ok := rc.sessions.Get(SessionKey)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Authenticated returns the current account, or nil when anonymous.
func (rc *RequestContext) Authenticated() *Account {
	return rc.account
}

// IsAuthenticated reports whether an account is set.
func (rc *RequestContext) IsAuthenticated() bool {
	return rc.account != nil
}

// OptionalReauthenticate restores the account named by the persisted id.
//
// A persisted id that no longer resolves to an account is cleared and the
// request continues anonymously; this is not an error. Other store failures
// are returned and leave the state unchanged.
func (rc *RequestContext) OptionalReauthenticate(ctx context.Context) error {
	id, ok := rc.PersistedAccountID()
	if !ok {
		return nil
	}

	account, err := rc.store.FindByID(ctx, rc.typeName, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		RecordReauthentication(ResultError)
		return oops.Code(CodeReauthenticateFailed).
			With("type", rc.typeName).
			With("account_id", id).
			Wrap(err)
	}

	if account == nil {
		RecordReauthentication(ResultStale)
		rc.logger.InfoContext(ctx, "clearing stale session",
			"type", rc.typeName,
			"account_id", id,
		)
		rc.Unauthenticate()
		return nil
	}

	RecordReauthentication(ResultSuccess)
	rc.Authenticate(account)
	return nil
}

// Authenticate marks account as the authenticated account and persists its
// id. A nil account is ignored and leaves the current state as it is.
func (rc *RequestContext) Authenticate(account *Account) {
	if account == nil {
		return
	}
	rc.account = account
	rc.sessions.Set(SessionKey, account.ID)
}

// Unauthenticate clears the account and the persisted id.
func (rc *RequestContext) Unauthenticate() {
	rc.account = nil
	rc.sessions.Delete(SessionKey)
}

// RequireAuthenticated returns AUTH_REQUIRED when the request is anonymous.
func (rc *RequestContext) RequireAuthenticated() error {
	if rc.account == nil {
		return oops.Code(CodeAuthenticationRequired).Wrap(ErrAuthenticationRequired)
	}
	return nil
}

// RequireAnonymous returns AUTH_ANONYMOUS_REQUIRED when the request is
// authenticated.
func (rc *RequestContext) RequireAnonymous() error {
	if rc.account != nil {
		return oops.Code(CodeAnonymousAccessRequired).
			With("account_id", rc.account.ID).
			Wrap(ErrAnonymousAccessRequired)
	}
	return nil
}

type requestContextKey struct{}

// WithRequestContext returns a copy of ctx carrying rc.
func WithRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, rc)
}

// FromContext returns the RequestContext carried by ctx, if any.
func FromContext(ctx context.Context) (*RequestContext, bool) {
	rc, ok := ctx.Value(requestContextKey{}).(*RequestContext)
	return rc, ok && rc != nil
}
