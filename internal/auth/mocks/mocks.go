// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

// Package mocks provides testify mocks for the auth interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/letmein-auth/letmein/internal/auth"
)

// T is the subset of testing.TB the constructors need.
type T interface {
	mock.TestingT
	Cleanup(func())
}

// MockAccountStore is a mock auth.AccountStore.
type MockAccountStore struct {
	mock.Mock
}

// NewMockAccountStore creates a MockAccountStore whose expectations are
// asserted when the test ends.
func NewMockAccountStore(t T) *MockAccountStore {
	m := &MockAccountStore{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// FindOneByField implements auth.AccountStore.
func (m *MockAccountStore) FindOneByField(ctx context.Context, typeName, field, value string) (*auth.Account, error) {
	args := m.Called(ctx, typeName, field, value)
	account, _ := args.Get(0).(*auth.Account) //nolint:errcheck // nil is a valid return
	return account, args.Error(1)
}

// FindByID implements auth.AccountStore.
func (m *MockAccountStore) FindByID(ctx context.Context, typeName, id string) (*auth.Account, error) {
	args := m.Called(ctx, typeName, id)
	account, _ := args.Get(0).(*auth.Account) //nolint:errcheck // nil is a valid return
	return account, args.Error(1)
}

// MockHasher is a mock auth.Hasher.
type MockHasher struct {
	mock.Mock
}

// NewMockHasher creates a MockHasher whose expectations are asserted when
// the test ends.
func NewMockHasher(t T) *MockHasher {
	m := &MockHasher{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Encode implements auth.Hasher.
func (m *MockHasher) Encode(password, salt string) (string, error) {
	args := m.Called(password, salt)
	return args.String(0), args.Error(1)
}

// NewSalt implements auth.Hasher.
func (m *MockHasher) NewSalt() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// Verify implements auth.Hasher.
func (m *MockHasher) Verify(password, salt, expectedHash string) bool {
	args := m.Called(password, salt, expectedHash)
	return args.Bool(0)
}

var (
	_ auth.AccountStore = (*MockAccountStore)(nil)
	_ auth.Hasher       = (*MockHasher)(nil)
)
