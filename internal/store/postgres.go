// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

// Package store provides the PostgreSQL connection and schema migrations for
// the account tables.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Default connection retry settings.
const (
	DefaultConnectRetries = 5
	DefaultConnectBackoff = 200 * time.Millisecond
)

// ConnectOptions controls how Connect waits for the database.
type ConnectOptions struct {
	// MaxRetries is the number of pings retried after the first failure.
	MaxRetries uint64
	// Backoff is the initial exponential backoff delay.
	Backoff time.Duration
}

// DefaultConnectOptions returns the default retry settings.
func DefaultConnectOptions() ConnectOptions {
	return ConnectOptions{
		MaxRetries: DefaultConnectRetries,
		Backoff:    DefaultConnectBackoff,
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Connect opens a pool for dsn and pings it with exponential backoff until
// the database answers or the retries run out.
func Connect(ctx context.Context, dsn string, opts ConnectOptions) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	if err := pingWithRetry(ctx, pool, opts); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func pingWithRetry(ctx context.Context, p pinger, opts ConnectOptions) error {
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultConnectBackoff
	}
	backoff := retry.WithMaxRetries(opts.MaxRetries, retry.NewExponential(opts.Backoff))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := p.Ping(ctx); err != nil {
			slog.WarnContext(ctx, "database not ready", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping database").
			With("attempts", attempt).
			Wrap(err)
	}
	return nil
}
