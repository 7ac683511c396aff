// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

package auth

import (
	"context"
	"maps"

	"github.com/oklog/ulid/v2"
)

// Account is a handle to an account record owned by an AccountStore.
//
// Fields are addressed by the attribute names configured in the Registry, so
// the same type serves every account schema. Password is a transient
// plaintext value: stores pass the account through Engine.EncodePassword
// before writing, which replaces it with a salt and hash and clears it.
type Account struct {
	Type     string
	ID       string
	Fields   map[string]string
	Password string
}

// NewAccount creates an Account of the given type with a fresh ULID.
func NewAccount(typeName string, fields map[string]string) *Account {
	f := make(map[string]string, len(fields))
	maps.Copy(f, fields)
	return &Account{
		Type:   typeName,
		ID:     ulid.Make().String(),
		Fields: f,
	}
}

// Field returns the value of the named field, or "" when it is unset.
func (a *Account) Field(name string) string {
	if a == nil || a.Fields == nil {
		return ""
	}
	return a.Fields[name]
}

// SetField sets the named field.
func (a *Account) SetField(name, value string) {
	if a.Fields == nil {
		a.Fields = make(map[string]string)
	}
	a.Fields[name] = value
}

// Clone returns a deep copy without the transient password.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	return &Account{
		Type:   a.Type,
		ID:     a.ID,
		Fields: maps.Clone(a.Fields),
	}
}

// AccountStore looks up account records.
//
// Both methods report a missing record as (nil, nil). Returning ErrNotFound
// (possibly wrapped) is tolerated as well, for stores that treat a missing
// record as an error.
type AccountStore interface {
	// FindOneByField returns the single account of typeName whose field
	// equals value. If more than one account matches it returns
	// ErrMultipleMatches.
	FindOneByField(ctx context.Context, typeName, field, value string) (*Account, error)

	// FindByID returns the account of typeName with the given id.
	FindByID(ctx context.Context, typeName, id string) (*Account, error)
}

// SessionStore is the caller's persisted, per-client key/value store, such as
// a cookie-backed session. The engine reads and writes only SessionKey.
type SessionStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}
