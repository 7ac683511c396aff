// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

package auth

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// Engine wires a Registry, an AccountStore and a Hasher into sessions and
// request contexts.
type Engine struct {
	registry  *Registry
	store     AccountStore
	hasher    Hasher
	encoder   *Encoder
	validator *Validator
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an Engine. The registry must contain at least one type.
func NewEngine(registry *Registry, store AccountStore, hasher Hasher, opts ...Option) (*Engine, error) {
	e := &Engine{
		registry: registry,
		store:    store,
		hasher:   hasher,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	validator, err := newValidator(registry, store, hasher, e.logger)
	if err != nil {
		return nil, err
	}
	if registry.Len() == 0 {
		return nil, oops.Code(CodeNotRegistered).Wrap(ErrNotRegistered)
	}

	encoder, err := NewEncoder(registry, hasher)
	if err != nil {
		return nil, err
	}

	e.validator = validator
	e.encoder = encoder
	return e, nil
}

// Registry returns the account type registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Validator returns the credential validator.
func (e *Engine) Validator() *Validator {
	return e.validator
}

// Encoder returns the account encode hook.
func (e *Engine) Encoder() *Encoder {
	return e.encoder
}

// Hasher returns the password hasher.
func (e *Engine) Hasher() Hasher {
	return e.hasher
}

// EncodePassword runs the encode hook on account.
func (e *Engine) EncodePassword(account *Account) error {
	return e.encoder.EncodePassword(account)
}

// NewSession builds an unvalidated Session. The account type is taken from
// name with its "Session" suffix removed, or the default type when that is
// not registered.
func (e *Engine) NewSession(name string, params Params) *Session {
	idx := resolveSessionType(e.registry, name)
	typeName, _ := e.registry.TypeName(idx) //nolint:errcheck // idx comes from the registry

	s := &Session{
		name:      name,
		typeName:  typeName,
		typeIndex: idx,
		validator: e.validator,
		registry:  e.registry,
	}

	s.Login = params[ParamLogin]
	if s.Login == "" {
		s.Login = params[s.LoginAttribute()]
	}
	s.Password = params[ParamPassword]
	return s
}

// CreateSession builds a Session and validates it immediately.
func (e *Engine) CreateSession(ctx context.Context, name string, params Params) *Session {
	s := e.NewSession(name, params)
	s.Save(ctx)
	return s
}

// CreateSessionStrict is CreateSession returning an AUTH_ERROR when the
// credentials are rejected. The session is returned in both cases.
func (e *Engine) CreateSessionStrict(ctx context.Context, name string, params Params) (*Session, error) {
	s := e.NewSession(name, params)
	if err := s.SaveStrict(ctx); err != nil {
		return s, err
	}
	return s, nil
}

// NewRequestContext creates the per-request authentication state backed by
// sessions.
func (e *Engine) NewRequestContext(sessions SessionStore, opts ...RequestOption) (*RequestContext, error) {
	if sessions == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("session store is required")
	}

	typeName, err := e.registry.DefaultType()
	if err != nil {
		return nil, err
	}

	rc := &RequestContext{
		sessions: sessions,
		store:    e.store,
		typeName: typeName,
		logger:   e.logger,
	}
	for _, opt := range opts {
		opt(rc)
	}

	if _, err := e.registry.Lookup(rc.typeName); err != nil {
		return nil, err
	}
	return rc, nil
}
