// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

package main

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_WithSaltIsDeterministic(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.run("hash", "--salt", "xyz", "--password", "s3cret")
	require.NoError(t, err)
	second, err := env.run("hash", "--salt", "xyz", "--password", "s3cret")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, "$argon2id$v=19$m=64,t=1,p=1$"), first)

	other, err := env.run("hash", "--salt", "xyz", "--password", "different")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestHash_GeneratesSalt(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("hash", "--password", "s3cret")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.NotEmpty(t, lines[0])
	assert.Contains(t, lines[1], "$argon2id$")
}

func TestHash_PasswordFlagsAreExclusive(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.runWithInput("x\n", "hash", "--password", "a", "--password-stdin")
	require.Error(t, err)
}

func TestSalt(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("salt")
	require.NoError(t, err)

	raw, err := base64.RawStdEncoding.DecodeString(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Len(t, raw, 8)
}
