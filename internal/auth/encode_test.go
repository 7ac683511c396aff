// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

package auth_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letmein-auth/letmein/internal/auth"
	"github.com/letmein-auth/letmein/internal/auth/mocks"
	"github.com/letmein-auth/letmein/pkg/errutil"
)

func TestNewEncoder_NilDependencies(t *testing.T) {
	registry, err := auth.NewRegistryFromOptions(auth.DefaultOptions())
	require.NoError(t, err)

	_, err = auth.NewEncoder(nil, newTestHasher(t))
	errutil.AssertErrorCode(t, err, "AUTH_INVALID_DEPENDENCY")

	_, err = auth.NewEncoder(registry, nil)
	errutil.AssertErrorCode(t, err, "AUTH_INVALID_DEPENDENCY")
}

func TestEncoder_EncodePassword(t *testing.T) {
	registry, err := auth.NewRegistryFromOptions(auth.Options{
		Models:    []string{"User", "Admin"},
		Passwords: []string{"password_hash", "crypted_password"},
		Salts:     []string{"password_salt", "crypted_salt"},
	})
	require.NoError(t, err)
	hasher := newTestHasher(t)
	encoder, err := auth.NewEncoder(registry, hasher)
	require.NoError(t, err)

	t.Run("sets salt and hash and clears the password", func(t *testing.T) {
		account := auth.NewAccount("User", map[string]string{"email": "alice@example.com"})
		account.Password = "secret"

		require.NoError(t, encoder.EncodePassword(account))

		salt := account.Field("password_salt")
		hash := account.Field("password_hash")
		assert.NotEmpty(t, salt)
		assert.NotEmpty(t, hash)
		assert.Empty(t, account.Password)
		assert.True(t, hasher.Verify("secret", salt, hash))
	})

	t.Run("uses the fields of the account type", func(t *testing.T) {
		account := auth.NewAccount("Admin", nil)
		account.Password = "secret"

		require.NoError(t, encoder.EncodePassword(account))

		assert.NotEmpty(t, account.Field("crypted_salt"))
		assert.NotEmpty(t, account.Field("crypted_password"))
		assert.Empty(t, account.Field("password_hash"))
	})

	t.Run("no password leaves the fields untouched", func(t *testing.T) {
		account := auth.NewAccount("User", map[string]string{
			"password_salt": "old-salt",
			"password_hash": "old-hash",
		})

		require.NoError(t, encoder.EncodePassword(account))

		assert.Equal(t, "old-salt", account.Field("password_salt"))
		assert.Equal(t, "old-hash", account.Field("password_hash"))
	})

	t.Run("nil account", func(t *testing.T) {
		require.NoError(t, encoder.EncodePassword(nil))
	})

	t.Run("fresh salt each time", func(t *testing.T) {
		a := auth.NewAccount("User", nil)
		a.Password = "same"
		b := auth.NewAccount("User", nil)
		b.Password = "same"

		require.NoError(t, encoder.EncodePassword(a))
		require.NoError(t, encoder.EncodePassword(b))

		assert.NotEqual(t, a.Field("password_salt"), b.Field("password_salt"))
		assert.NotEqual(t, a.Field("password_hash"), b.Field("password_hash"))
	})

	t.Run("unknown type", func(t *testing.T) {
		account := auth.NewAccount("Ghost", nil)
		account.Password = "boo"

		err := encoder.EncodePassword(account)
		errutil.AssertErrorIs(t, err, auth.ErrNotRegistered, auth.CodeNotRegistered)
		assert.Equal(t, "boo", account.Password, "password kept on failure")
	})
}

func TestEncoder_HasherFailures(t *testing.T) {
	registry, err := auth.NewRegistryFromOptions(auth.DefaultOptions())
	require.NoError(t, err)

	t.Run("salt generation", func(t *testing.T) {
		hasher := mocks.NewMockHasher(t)
		hasher.On("NewSalt").Return("", errors.New("entropy exhausted"))
		encoder, err := auth.NewEncoder(registry, hasher)
		require.NoError(t, err)

		account := auth.NewAccount("User", nil)
		account.Password = "secret"
		err = encoder.EncodePassword(account)
		errutil.AssertErrorCode(t, err, "AUTH_ENCODE_FAILED")
		errutil.AssertErrorContext(t, err, "operation", "generate salt")
	})

	t.Run("encode", func(t *testing.T) {
		hasher := mocks.NewMockHasher(t)
		hasher.On("NewSalt").Return("salt", nil)
		hasher.On("Encode", "secret", "salt").Return("", errors.New("out of memory"))
		encoder, err := auth.NewEncoder(registry, hasher)
		require.NoError(t, err)

		account := auth.NewAccount("User", nil)
		account.Password = "secret"
		err = encoder.EncodePassword(account)
		errutil.AssertErrorCode(t, err, "AUTH_ENCODE_FAILED")
		assert.Empty(t, account.Field("password_salt"), "nothing written on failure")
	})
}

func TestAccount(t *testing.T) {
	fields := map[string]string{"email": "alice@example.com"}
	account := auth.NewAccount("User", fields)

	assert.Len(t, account.ID, 26, "ULID text")
	fields["email"] = "changed"
	assert.Equal(t, "alice@example.com", account.Field("email"), "fields are copied")

	account.Password = "secret"
	clone := account.Clone()
	assert.Empty(t, clone.Password)
	clone.SetField("email", "bob@example.com")
	assert.Equal(t, "alice@example.com", account.Field("email"))

	var nilAccount *auth.Account
	assert.Empty(t, nilAccount.Field("email"))
	assert.Nil(t, nilAccount.Clone())

	empty := &auth.Account{}
	empty.SetField("name", "x")
	assert.Equal(t, "x", empty.Field("name"))
}
