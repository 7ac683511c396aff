// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letmein-auth/letmein/internal/auth"
	"github.com/letmein-auth/letmein/internal/auth/memstore"
	"github.com/letmein-auth/letmein/internal/auth/mocks"
	"github.com/letmein-auth/letmein/pkg/errutil"
)

func reauths(result string) float64 {
	return testutil.ToFloat64(auth.Reauthentications.WithLabelValues(result))
}

func newRequestContext(t *testing.T, store auth.AccountStore, sessions auth.SessionStore, opts ...auth.RequestOption) *auth.RequestContext {
	t.Helper()
	registry, err := auth.NewRegistryFromOptions(auth.Options{Models: []string{"User", "Admin"}})
	require.NoError(t, err)
	engine, err := auth.NewEngine(registry, store, newTestHasher(t))
	require.NoError(t, err)
	rc, err := engine.NewRequestContext(sessions, opts...)
	require.NoError(t, err)
	return rc
}

func TestRequestContext_OptionalReauthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing persisted stays anonymous", func(t *testing.T) {
		store := mocks.NewMockAccountStore(t)
		rc := newRequestContext(t, store, memstore.NewSessionStore())

		require.NoError(t, rc.OptionalReauthenticate(ctx))
		assert.False(t, rc.IsAuthenticated())
		store.AssertNotCalled(t, "FindByID")
	})

	t.Run("empty persisted id is ignored", func(t *testing.T) {
		sessions := memstore.NewSessionStore()
		sessions.Set(auth.SessionKey, "")
		rc := newRequestContext(t, mocks.NewMockAccountStore(t), sessions)

		require.NoError(t, rc.OptionalReauthenticate(ctx))
		assert.False(t, rc.IsAuthenticated())
	})

	t.Run("persisted id restores the account", func(t *testing.T) {
		store := mocks.NewMockAccountStore(t)
		sessions := memstore.NewSessionStore()
		sessions.Set(auth.SessionKey, "u1")
		account := &auth.Account{Type: "User", ID: "u1"}
		store.On("FindByID", ctx, "User", "u1").Return(account, nil)
		before := reauths(auth.ResultSuccess)

		rc := newRequestContext(t, store, sessions)
		require.NoError(t, rc.OptionalReauthenticate(ctx))

		assert.Same(t, account, rc.Authenticated())
		id, ok := sessions.Get(auth.SessionKey)
		assert.True(t, ok)
		assert.Equal(t, "u1", id)
		assert.Equal(t, before+1, reauths(auth.ResultSuccess))
	})

	t.Run("uses the configured account type", func(t *testing.T) {
		store := mocks.NewMockAccountStore(t)
		sessions := memstore.NewSessionStore()
		sessions.Set(auth.SessionKey, "a1")
		store.On("FindByID", ctx, "Admin", "a1").Return(&auth.Account{Type: "Admin", ID: "a1"}, nil)

		rc := newRequestContext(t, store, sessions, auth.WithAccountType("Admin"))
		require.NoError(t, rc.OptionalReauthenticate(ctx))
		assert.True(t, rc.IsAuthenticated())
	})

	for name, storeErr := range map[string]error{
		"vanished account (nil)":         nil,
		"vanished account (ErrNotFound)": auth.ErrNotFound,
	} {
		t.Run(name+" clears the session", func(t *testing.T) {
			store := mocks.NewMockAccountStore(t)
			sessions := memstore.NewSessionStore()
			sessions.Set(auth.SessionKey, "gone")
			store.On("FindByID", ctx, "User", "gone").Return(nil, storeErr)
			before := reauths(auth.ResultStale)

			rc := newRequestContext(t, store, sessions)
			require.NoError(t, rc.OptionalReauthenticate(ctx))

			assert.False(t, rc.IsAuthenticated())
			_, ok := sessions.Get(auth.SessionKey)
			assert.False(t, ok, "stale id must be cleared")
			assert.Equal(t, before+1, reauths(auth.ResultStale))
		})
	}

	t.Run("store failure leaves state unchanged", func(t *testing.T) {
		store := mocks.NewMockAccountStore(t)
		sessions := memstore.NewSessionStore()
		sessions.Set(auth.SessionKey, "u1")
		storeErr := errors.New("connection refused")
		store.On("FindByID", ctx, "User", "u1").Return(nil, storeErr)

		rc := newRequestContext(t, store, sessions)
		err := rc.OptionalReauthenticate(ctx)
		errutil.AssertErrorIs(t, err, storeErr, auth.CodeReauthenticateFailed)
		errutil.AssertErrorContext(t, err, "account_id", "u1")

		assert.False(t, rc.IsAuthenticated())
		id, ok := sessions.Get(auth.SessionKey)
		assert.True(t, ok)
		assert.Equal(t, "u1", id)
	})
}

func TestRequestContext_Authenticate(t *testing.T) {
	sessions := memstore.NewSessionStore()
	rc := newRequestContext(t, mocks.NewMockAccountStore(t), sessions)

	rc.Authenticate(nil)
	assert.False(t, rc.IsAuthenticated(), "nil leaves an anonymous context anonymous")
	_, ok := sessions.Get(auth.SessionKey)
	assert.False(t, ok)

	account := &auth.Account{Type: "User", ID: "u1"}
	rc.Authenticate(account)
	assert.Same(t, account, rc.Authenticated())
	id, ok := rc.PersistedAccountID()
	assert.True(t, ok)
	assert.Equal(t, "u1", id)

	rc.Authenticate(nil)
	assert.Same(t, account, rc.Authenticated(), "nil leaves an authenticated context authenticated")
	id, _ = sessions.Get(auth.SessionKey)
	assert.Equal(t, "u1", id)
}

func TestRequestContext_Unauthenticate(t *testing.T) {
	sessions := memstore.NewSessionStore()
	rc := newRequestContext(t, mocks.NewMockAccountStore(t), sessions)

	rc.Unauthenticate()
	assert.False(t, rc.IsAuthenticated())

	rc.Authenticate(&auth.Account{Type: "User", ID: "u1"})
	rc.Unauthenticate()
	assert.Nil(t, rc.Authenticated())
	_, ok := sessions.Get(auth.SessionKey)
	assert.False(t, ok)
	_, ok = rc.PersistedAccountID()
	assert.False(t, ok)
}

func TestRequestContext_Guards(t *testing.T) {
	rc := newRequestContext(t, mocks.NewMockAccountStore(t), memstore.NewSessionStore())

	errutil.AssertErrorIs(t, rc.RequireAuthenticated(), auth.ErrAuthenticationRequired, auth.CodeAuthenticationRequired)
	require.NoError(t, rc.RequireAnonymous())

	rc.Authenticate(&auth.Account{Type: "User", ID: "u1"})

	require.NoError(t, rc.RequireAuthenticated())
	err := rc.RequireAnonymous()
	errutil.AssertErrorIs(t, err, auth.ErrAnonymousAccessRequired, auth.CodeAnonymousAccessRequired)
	errutil.AssertErrorContext(t, err, "account_id", "u1")
}

func TestRequestContext_ContextRoundTrip(t *testing.T) {
	rc := newRequestContext(t, mocks.NewMockAccountStore(t), memstore.NewSessionStore())

	_, ok := auth.FromContext(context.Background())
	assert.False(t, ok)

	ctx := auth.WithRequestContext(context.Background(), rc)
	got, ok := auth.FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, rc, got)

	_, ok = auth.FromContext(auth.WithRequestContext(context.Background(), nil))
	assert.False(t, ok)
}
