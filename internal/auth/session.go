// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/samber/oops"
)

// SessionSuffix is stripped from a session name to find its account type,
// so "AdminSession" authenticates against "Admin".
const SessionSuffix = "Session"

// Params carries the submitted login form. The login is read from "login",
// or else from the key named after the type's login attribute (e.g. "email").
type Params map[string]string

// Param keys read by NewSession.
const (
	ParamLogin    = "login"
	ParamPassword = "password"
)

// Session is a single authentication attempt against one account type.
// It is not safe for concurrent use and should not be reused across
// attempts.
type Session struct {
	Login    string
	Password string

	name      string
	typeName  string
	typeIndex int
	validator *Validator
	registry  *Registry

	account *Account
	errs    []string
	err     error
}

// resolveSessionType maps a session name onto a registered type index,
// falling back to the default type.
func resolveSessionType(registry *Registry, name string) int {
	model := strings.TrimSuffix(name, SessionSuffix)
	if idx, err := registry.Lookup(model); err == nil {
		return idx
	}
	return 0
}

// Name returns the name the session was created under.
func (s *Session) Name() string {
	return s.name
}

// TypeName returns the account type the session authenticates against.
func (s *Session) TypeName() string {
	return s.typeName
}

// TypeIndex returns the registry index of TypeName.
func (s *Session) TypeIndex() int {
	return s.typeIndex
}

// LoginAttribute returns the field name the login is matched against.
func (s *Session) LoginAttribute() string {
	return s.registry.AttributeFor(AttributeLogin, s.typeIndex)
}

// Account returns the authenticated account, or nil.
func (s *Session) Account() *Account {
	return s.account
}

// Succeeded reports whether the last validation succeeded.
func (s *Session) Succeeded() bool {
	return s.account != nil
}

// Errors returns the messages recorded by the last validation.
func (s *Session) Errors() []string {
	out := make([]string, len(s.errs))
	copy(out, s.errs)
	return out
}

// Err returns the error from the last validation, if any.
func (s *Session) Err() error {
	return s.err
}

// Save validates the credentials and reports whether they were accepted. On
// failure a message is recorded in Errors.
func (s *Session) Save(ctx context.Context) bool {
	s.account = nil
	s.errs = s.errs[:0]
	s.err = nil

	account, err := s.validator.Validate(ctx, Credential{Login: s.Login, Password: s.Password}, s.typeIndex)
	if err != nil {
		s.err = err
		if errors.Is(err, ErrAuthenticationFailed) {
			s.errs = append(s.errs, FailedToAuthenticate)
		} else {
			s.errs = append(s.errs, err.Error())
		}
		return false
	}

	s.account = account
	return true
}

// SaveStrict is Save that returns an AUTH_ERROR carrying the recorded
// messages when validation fails.
func (s *Session) SaveStrict(ctx context.Context) error {
	if s.Save(ctx) {
		return nil
	}
	msg := strings.Join(s.errs, "; ")
	return oops.Code(CodeAuthError).
		With("type", s.typeName).
		With("messages", s.Errors()).
		Wrapf(ErrAuthError, "%s", msg)
}
