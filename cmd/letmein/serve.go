// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

package main

import (
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/letmein-auth/letmein/internal/auth"
	"github.com/letmein-auth/letmein/internal/observability"
	"github.com/letmein-auth/letmein/pkg/errutil"
)

// Timeouts for the metrics server.
const (
	readinessTimeout = 2 * time.Second
	shutdownTimeout  = 5 * time.Second
)

// newServeMetricsCmd creates the serve-metrics command.
func newServeMetricsCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "serve-metrics",
		Short: "Serve /metrics and health probes until interrupted",
		Long: `Serve the Prometheus metrics endpoint and the liveness and readiness
probes. When a database is configured, readiness follows the account store.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeMetrics(cmd, deps)
		},
	}
}

func runServeMetrics(cmd *cobra.Command, deps *Deps) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Metrics.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("metrics.addr is required")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []observability.Option{
		observability.WithRegistrars(auth.RegisterMetrics),
		observability.WithBuildVersion(version),
		observability.WithShutdownGrace(shutdownTimeout),
	}
	if cfg.Database.URL != "" {
		a, err := openApp(ctx, cfg, deps)
		if err != nil {
			return err
		}
		defer a.Close()
		if check := storeCheck(a.store); check != nil {
			opts = append(opts, observability.WithStoreCheck(check, readinessTimeout))
		}
	}

	server := observability.NewServer(cfg.Metrics.Addr, opts...)
	if err := server.Listen(); err != nil {
		return err
	}
	cmd.Printf("Serving metrics on %s\n", server.Addr())

	if err := server.Serve(ctx); err != nil {
		errutil.LogError(slog.Default(), "metrics server failed", err)
		return err
	}
	return nil
}

// storeCheck returns the store's ping, or nil when the store has none.
func storeCheck(h *StoreHandle) observability.StoreCheck {
	if h.Ping == nil {
		return nil
	}
	return observability.StoreCheck(h.Ping)
}
