// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/letmein-auth/letmein/internal/auth"
	"github.com/letmein-auth/letmein/internal/config"
)

// app is an engine bound to an opened account store.
type app struct {
	engine *auth.Engine
	store  *StoreHandle
}

func (a *app) Close() {
	if a.store != nil && a.store.Close != nil {
		a.store.Close()
	}
}

// newHasher builds the argon2id hasher described by cfg.
func newHasher(cfg *config.Config) (*auth.Argon2idHasher, error) {
	return auth.NewArgon2idHasherWithParams(cfg.HasherParams())
}

// openApp builds the registry and hasher, opens the store with the
// encode hook attached and wires the engine on top of it.
func openApp(ctx context.Context, cfg *config.Config, deps *Deps) (*app, error) {
	registry, err := auth.NewRegistryFromOptions(cfg.RegistryOptions())
	if err != nil {
		return nil, err
	}
	hasher, err := newHasher(cfg)
	if err != nil {
		return nil, err
	}
	encoder, err := auth.NewEncoder(registry, hasher)
	if err != nil {
		return nil, err
	}

	handle, err := deps.StoreFactory(ctx, cfg, encoder)
	if err != nil {
		return nil, err
	}

	engine, err := auth.NewEngine(registry, handle.Accounts, hasher, auth.WithLogger(slog.Default()))
	if err != nil {
		if handle.Close != nil {
			handle.Close()
		}
		return nil, err
	}
	return &app{engine: engine, store: handle}, nil
}
