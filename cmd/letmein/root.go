// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/letmein-auth/letmein/internal/config"
	"github.com/letmein-auth/letmein/internal/logging"
	"github.com/letmein-auth/letmein/internal/xdg"
)

// serviceName identifies this process in logs.
const serviceName = "letmein"

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the LetMeIn CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmdWithDeps(nil)
}

// newRootCmdWithDeps builds the command tree. If deps is nil, default
// implementations are used.
func newRootCmdWithDeps(deps *Deps) *cobra.Command {
	deps = deps.withDefaults()

	cmd := &cobra.Command{
		Use:   "letmein",
		Short: "LetMeIn - configurable account authentication",
		Long: `LetMeIn verifies logins against one or more configured account types,
each with its own login, password hash and salt fields.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: $XDG_CONFIG_HOME/letmein/config.yaml if present)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newMigrateCmd(deps))
	cmd.AddCommand(newAccountCmd(deps))
	cmd.AddCommand(newLoginCmd(deps))
	cmd.AddCommand(newHashCmd())
	cmd.AddCommand(newSaltCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newServeMetricsCmd(deps))

	return cmd
}

// loadConfig reads the configuration for cmd, validates it and installs the
// default logger it describes.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configFile
	if path == "" {
		found, err := xdg.FindConfigFile()
		if err != nil {
			return nil, err
		}
		path = found
	}

	cfg, err := config.Load(config.LoadOptions{File: path, Flags: cmd.Flags()})
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.SetDefault(serviceName, version, logging.Options{
		Format: cfg.Log.Format,
		Level:  cfg.Log.Level,
	})
	logger.Debug("configuration loaded", slog.String("file", path))
	return cfg, nil
}
