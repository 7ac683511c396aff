// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

package auth

import (
	"github.com/samber/oops"
)

// Encoder is the account encode hook. It is built from the same Registry and
// Hasher as the Engine and handed to stores, which run it before every write.
type Encoder struct {
	registry *Registry
	hasher   Hasher
}

// NewEncoder creates an Encoder.
func NewEncoder(registry *Registry, hasher Hasher) (*Encoder, error) {
	if registry == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("registry is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("password hasher is required")
	}
	return &Encoder{registry: registry, hasher: hasher}, nil
}

// EncodePassword replaces account.Password with a fresh salt and hash stored
// under the fields configured for the account's type. Stores call it just
// before writing an account.
//
// When account.Password is empty the salt and hash fields are left alone, so
// re-saving an account without a new password keeps its credentials.
func (e *Encoder) EncodePassword(account *Account) error {
	if account == nil || account.Password == "" {
		return nil
	}

	idx, err := e.registry.Lookup(account.Type)
	if err != nil {
		return err
	}

	salt, err := e.hasher.NewSalt()
	if err != nil {
		return oops.Code("AUTH_ENCODE_FAILED").
			With("type", account.Type).
			With("operation", "generate salt").
			Wrap(err)
	}

	hash, err := e.hasher.Encode(account.Password, salt)
	if err != nil {
		return oops.Code("AUTH_ENCODE_FAILED").
			With("type", account.Type).
			With("operation", "encode password").
			Wrap(err)
	}

	account.SetField(e.registry.AttributeFor(AttributeSalt, idx), salt)
	account.SetField(e.registry.AttributeFor(AttributeHash, idx), hash)
	account.Password = ""
	return nil
}

// PasswordEncoder is the hook stores run before persisting an account.
type PasswordEncoder interface {
	EncodePassword(account *Account) error
}

// Compile-time interface check.
var (
	_ PasswordEncoder = (*Encoder)(nil)
	_ PasswordEncoder = (*Engine)(nil)
)
