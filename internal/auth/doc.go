// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

// Package auth provides a configurable authentication engine that can verify
// logins against several account types without a fixed account schema.
//
// # Configuration
//
// A Registry holds the ordered list of account types and, for each one, the
// names of the fields that carry the login identifier, the salted password
// hash and the salt. Build it once at startup with NewRegistryFromOptions (or
// Register) and share it read-only afterwards. Index 0 is the default type;
// empty attribute names at other indices fall back to index 0's value.
//
// # Components
//
//   - Hasher - salted, deterministic argon2id password hashing
//   - Validator - resolves an account by login and verifies its password
//   - Session - one authentication attempt, named after an account type
//   - RequestContext - per-request anonymous/authenticated state backed by
//     a persisted account id in the caller's SessionStore
//   - Engine - wires the above together and owns the encode hook used by
//     stores before an account is written
//
// Account storage is external: anything satisfying AccountStore can be used.
// See the memstore and postgres sub-packages for the implementations shipped
// with this module.
package auth
