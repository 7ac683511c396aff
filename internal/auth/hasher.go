// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// OWASP-recommended argon2id parameters.
const (
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2SaltLen = 16        // salt length in bytes
	argon2KeyLen  = 32        // output length in bytes

	// Upper bounds accepted when reading parameters back from a stored hash.
	maxStoredMemory = 4 * 1024 * 1024 // 4 GiB
	maxStoredKeyLen = 1024
)

// ErrEmptySalt is returned when encoding without a salt.
var ErrEmptySalt = oops.Code("AUTH_EMPTY_SALT").Errorf("salt cannot be empty")

// Hasher computes and checks salted password hashes.
type Hasher interface {
	// Encode derives the hash of password under salt. The same inputs always
	// produce the same output.
	Encode(password, salt string) (string, error)

	// NewSalt returns a fresh random salt.
	NewSalt() (string, error)

	// Verify reports whether Encode(password, salt) equals expectedHash. An
	// implementation may encode with the cost recorded in expectedHash.
	Verify(password, salt, expectedHash string) bool
}

// HasherParams are the argon2id cost parameters.
type HasherParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

// DefaultHasherParams returns the OWASP-recommended parameters.
func DefaultHasherParams() HasherParams {
	return HasherParams{
		Time:    argon2Time,
		Memory:  argon2Memory,
		Threads: argon2Threads,
		KeyLen:  argon2KeyLen,
		SaltLen: argon2SaltLen,
	}
}

// Validate checks that all parameters are usable.
func (p HasherParams) Validate() error {
	switch {
	case p.Time == 0:
		return oops.Code("AUTH_INVALID_HASHER").Errorf("time must be positive")
	case p.Threads == 0:
		return oops.Code("AUTH_INVALID_HASHER").Errorf("threads must be positive")
	case p.Memory < 8*uint32(p.Threads):
		return oops.Code("AUTH_INVALID_HASHER").
			With("memory", p.Memory).
			With("threads", p.Threads).
			Errorf("memory must be at least 8 KiB per thread")
	case p.KeyLen < 16:
		return oops.Code("AUTH_INVALID_HASHER").With("key_len", p.KeyLen).Errorf("key length must be at least 16 bytes")
	case p.SaltLen < 8:
		return oops.Code("AUTH_INVALID_HASHER").With("salt_len", p.SaltLen).Errorf("salt length must be at least 8 bytes")
	}
	return nil
}

// Argon2idHasher implements Hasher using argon2id keyed by an explicit salt.
type Argon2idHasher struct {
	params HasherParams
}

// NewArgon2idHasher creates an Argon2idHasher with the default parameters.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{params: DefaultHasherParams()}
}

// NewArgon2idHasherWithParams creates an Argon2idHasher with custom parameters.
func NewArgon2idHasherWithParams(params HasherParams) (*Argon2idHasher, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Argon2idHasher{params: params}, nil
}

// Params returns the cost parameters in use.
func (h *Argon2idHasher) Params() HasherParams {
	return h.params
}

// Encode derives the argon2id key of password under salt and renders it in
// PHC string format:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
func (h *Argon2idHasher) Encode(password, salt string) (string, error) {
	return encodeArgon2id(h.params, password, salt)
}

func encodeArgon2id(params HasherParams, password, salt string) (string, error) {
	if salt == "" {
		return "", ErrEmptySalt
	}

	start := time.Now()
	key := argon2.IDKey([]byte(password), []byte(salt), params.Time, params.Memory, params.Threads, params.KeyLen)
	RecordHashDuration(time.Since(start))

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		params.Memory,
		params.Time,
		params.Threads,
		base64.RawStdEncoding.EncodeToString([]byte(salt)),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// storedParams reads the cost parameters back out of a PHC string produced by
// Encode. The key length is taken from the decoded key.
func storedParams(encoded string) (HasherParams, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return HasherParams{}, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return HasherParams{}, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if version != argon2.Version {
		return HasherParams{}, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported argon2 version: %d", version)
	}

	var memory, iterations, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return HasherParams{}, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if threads > 255 {
		return HasherParams{}, oops.Code("AUTH_INVALID_HASH").Errorf("threads value %d exceeds uint8 max", threads)
	}
	if memory > maxStoredMemory {
		return HasherParams{}, oops.Code("AUTH_INVALID_HASH").Errorf("memory value %d too large", memory)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return HasherParams{}, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	if len(key) > maxStoredKeyLen {
		return HasherParams{}, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash key length: %d", len(key))
	}

	params := HasherParams{
		Time:    iterations,
		Memory:  memory,
		Threads: uint8(threads),
		KeyLen:  uint32(len(key)),
		SaltLen: argon2SaltLen,
	}
	if err := params.Validate(); err != nil {
		return HasherParams{}, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
	return params, nil
}

// NewSalt returns SaltLen random bytes, base64 encoded.
func (h *Argon2idHasher) NewSalt() (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}
	return base64.RawStdEncoding.EncodeToString(salt), nil
}

// Verify re-encodes password under salt and compares against expectedHash.
// The cost parameters recorded in expectedHash are used, so hashes written
// before a parameter change keep verifying. Anything that is not an argon2id
// PHC string is compared against an encoding with the current parameters.
func (h *Argon2idHasher) Verify(password, salt, expectedHash string) bool {
	params, err := storedParams(expectedHash)
	if err != nil {
		params = h.params
	}
	computed, err := encodeArgon2id(params, password, salt)
	if err != nil {
		return false
	}
	// Constant-time comparison
	return subtle.ConstantTimeCompare([]byte(computed), []byte(expectedHash)) == 1
}

// Compile-time interface check.
var _ Hasher = (*Argon2idHasher)(nil)
