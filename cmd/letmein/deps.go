// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

package main

import (
	"context"

	"github.com/samber/oops"

	"github.com/letmein-auth/letmein/internal/auth"
	"github.com/letmein-auth/letmein/internal/auth/postgres"
	"github.com/letmein-auth/letmein/internal/config"
	"github.com/letmein-auth/letmein/internal/store"
)

// AccountStore is the store surface the CLI needs beyond lookups.
type AccountStore interface {
	auth.AccountStore
	Save(ctx context.Context, account *auth.Account) error
	Delete(ctx context.Context, typeName, id string) error
}

// StoreHandle is an opened account store.
type StoreHandle struct {
	Accounts AccountStore
	// Ping reports whether the backing database answers.
	Ping func(ctx context.Context) error
	// Close releases the connection.
	Close func()
}

// Migrator wraps the methods used by the migrate commands from store.Migrator.
type Migrator interface {
	Up() error
	Down() error
	Force(version int) error
	Status() (store.MigrationStatus, error)
	Close() error
}

// Deps contains injectable dependencies for the CLI.
// All fields with nil values will use their default implementations.
type Deps struct {
	// StoreFactory opens the account store. encoder runs before each Save.
	// Default: postgres.AccountStore over store.Connect
	StoreFactory func(ctx context.Context, cfg *config.Config, encoder auth.PasswordEncoder) (*StoreHandle, error)

	// MigratorFactory creates a migrator for a database URL.
	// Default: store.NewMigrator
	MigratorFactory func(databaseURL string) (Migrator, error)
}

func (d *Deps) withDefaults() *Deps {
	out := &Deps{}
	if d != nil {
		*out = *d
	}
	if out.StoreFactory == nil {
		out.StoreFactory = openPostgresStore
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(databaseURL string) (Migrator, error) {
			return store.NewMigrator(databaseURL)
		}
	}
	return out
}

// databaseURL returns the configured URL or a CONFIG_INVALID error.
func databaseURL(cfg *config.Config) (string, error) {
	if cfg.Database.URL == "" {
		return "", oops.Code("CONFIG_INVALID").
			Errorf("database.url or the %s environment variable is required", config.EnvDatabaseURL)
	}
	return cfg.Database.URL, nil
}

func openPostgresStore(ctx context.Context, cfg *config.Config, encoder auth.PasswordEncoder) (*StoreHandle, error) {
	url, err := databaseURL(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := store.Connect(ctx, url, store.DefaultConnectOptions())
	if err != nil {
		return nil, err
	}

	return &StoreHandle{
		Accounts: postgres.NewAccountStore(pool, cfg.Database.Tables, encoder),
		Ping:     pool.Ping,
		Close:    pool.Close,
	}, nil
}
