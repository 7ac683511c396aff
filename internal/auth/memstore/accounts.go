// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

// Package memstore provides in-process implementations of auth.AccountStore
// and auth.SessionStore.
//
// Everything lives in RAM and is lost on restart. The stores suit tests,
// command-line tools and small deployments with a bounded number of
// accounts.
package memstore

import (
	"context"
	"sync"

	"github.com/samber/oops"

	"github.com/letmein-auth/letmein/internal/auth"
)

// AccountStore keeps accounts in memory, grouped by type. It is safe for
// concurrent use. Lookups return copies, so callers cannot mutate stored
// records without going through Save.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]map[string]*auth.Account // type -> id -> account
	encoder  auth.PasswordEncoder
}

// NewAccountStore creates an empty AccountStore. encoder runs before every
// Save; it may be nil when accounts are only ever inserted pre-hashed.
func NewAccountStore(encoder auth.PasswordEncoder) *AccountStore {
	return &AccountStore{
		accounts: make(map[string]map[string]*auth.Account),
		encoder:  encoder,
	}
}

// Save stores account, running the encode hook first.
func (s *AccountStore) Save(_ context.Context, account *auth.Account) error {
	if account == nil {
		return oops.Code("ACCOUNT_INVALID").Errorf("account cannot be nil")
	}
	if account.Type == "" || account.ID == "" {
		return oops.Code("ACCOUNT_INVALID").
			With("type", account.Type).
			With("id", account.ID).
			Errorf("account type and id are required")
	}
	if s.encoder != nil {
		if err := s.encoder.EncodePassword(account); err != nil {
			return oops.Code("ACCOUNT_SAVE_FAILED").
				With("operation", "encode password").
				With("id", account.ID).
				Wrap(err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.accounts[account.Type]
	if !ok {
		byID = make(map[string]*auth.Account)
		s.accounts[account.Type] = byID
	}
	byID[account.ID] = account.Clone()
	return nil
}

// Delete removes an account. Deleting a missing account returns ErrNotFound.
func (s *AccountStore) Delete(_ context.Context, typeName, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[typeName][id]; !ok {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("type", typeName).
			With("id", id).
			Wrap(auth.ErrNotFound)
	}
	delete(s.accounts[typeName], id)
	return nil
}

// FindOneByField implements auth.AccountStore.
func (s *AccountStore) FindOneByField(_ context.Context, typeName, field, value string) (*auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *auth.Account
	for _, account := range s.accounts[typeName] {
		v, ok := account.Fields[field]
		if !ok || v != value {
			continue
		}
		if found != nil {
			return nil, oops.Code("ACCOUNT_AMBIGUOUS").
				With("type", typeName).
				With("field", field).
				Wrap(auth.ErrMultipleMatches)
		}
		found = account
	}
	return found.Clone(), nil
}

// FindByID implements auth.AccountStore.
func (s *AccountStore) FindByID(_ context.Context, typeName, id string) (*auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.accounts[typeName][id].Clone(), nil
}

// Len returns the number of stored accounts of typeName.
func (s *AccountStore) Len(typeName string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts[typeName])
}

// Compile-time interface check.
var _ auth.AccountStore = (*AccountStore)(nil)
