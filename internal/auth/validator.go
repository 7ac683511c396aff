// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/oops"
)

// Credential is a login attempt. Password is plaintext and must not outlive
// the validation call.
type Credential struct {
	Login    string
	Password string
}

// String redacts the password.
func (c Credential) String() string {
	return fmt.Sprintf("Credential{Login: %q, Password: [REDACTED]}", c.Login)
}

// LogValue redacts the password when a Credential is logged through slog.
func (c Credential) LogValue() slog.Value {
	return slog.GroupValue(slog.String("login", c.Login))
}

// dummySalt and dummyHash are verified against when no usable account is
// found, so a missing login costs about as much as a wrong password. dummyHash
// is not a PHC string, so the hasher encodes with its configured cost.
//
//nolint:gosec // G101: not a credential, never matches any password.
const (
	dummySalt = "letmein-dummy-salt"
	dummyHash = "letmein-dummy-hash"
)

// Validator resolves an account by login and verifies its password.
type Validator struct {
	registry *Registry
	store    AccountStore
	hasher   Hasher
	logger   *slog.Logger
}

// NewValidator creates a Validator. All dependencies are required.
func NewValidator(registry *Registry, store AccountStore, hasher Hasher) (*Validator, error) {
	return newValidator(registry, store, hasher, slog.Default())
}

func newValidator(registry *Registry, store AccountStore, hasher Hasher, logger *slog.Logger) (*Validator, error) {
	if registry == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("registry is required")
	}
	if store == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("account store is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("logger is required")
	}
	return &Validator{registry: registry, store: store, hasher: hasher, logger: logger}, nil
}

// Validate checks cred against the account type at typeIndex and returns the
// matching account.
//
// An unknown login, an ambiguous login, an account without a stored hash and
// a wrong password all return the same AUTH_FAILED error. Store failures
// other than not-found are returned as AUTH_LOOKUP_FAILED.
func (v *Validator) Validate(ctx context.Context, cred Credential, typeIndex int) (*Account, error) {
	typeName, err := v.registry.TypeName(typeIndex)
	if err != nil {
		return nil, err
	}

	loginAttr := v.registry.AttributeFor(AttributeLogin, typeIndex)
	account, err := v.store.FindOneByField(ctx, typeName, loginAttr, cred.Login)
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrMultipleMatches) {
		RecordAuthAttempt(typeName, ResultError)
		return nil, oops.Code(CodeLookupFailed).
			With("type", typeName).
			With("attribute", loginAttr).
			Wrap(err)
	}
	if err != nil {
		account = nil
	}

	storedHash := ""
	storedSalt := ""
	if account != nil {
		storedHash = account.Field(v.registry.AttributeFor(AttributeHash, typeIndex))
		storedSalt = account.Field(v.registry.AttributeFor(AttributeSalt, typeIndex))
	}

	if account == nil || storedHash == "" {
		v.hasher.Verify(cred.Password, dummySalt, dummyHash)
		return nil, v.fail(ctx, typeName, loginAttr, account != nil)
	}

	if !v.hasher.Verify(cred.Password, storedSalt, storedHash) {
		return nil, v.fail(ctx, typeName, loginAttr, true)
	}

	RecordAuthAttempt(typeName, ResultSuccess)
	v.logger.DebugContext(ctx, "credentials verified",
		"type", typeName,
		"attribute", loginAttr,
		"account_id", account.ID,
	)
	return account, nil
}

func (v *Validator) fail(ctx context.Context, typeName, loginAttr string, found bool) error {
	RecordAuthAttempt(typeName, ResultFailure)
	v.logger.DebugContext(ctx, "credential verification failed",
		"type", typeName,
		"attribute", loginAttr,
		"account_found", found,
	)
	return oops.Code(CodeAuthenticationFailed).
		With("type", typeName).
		Wrap(ErrAuthenticationFailed)
}
