// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/letmein-auth/letmein/internal/auth"
)

// loginConfig holds configuration for the login command.
type loginConfig struct {
	session  string
	login    string
	password passwordInput
}

// newLoginCmd creates the login command.
func newLoginCmd(deps *Deps) *cobra.Command {
	cfg := &loginConfig{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check a login and password against the account store",
		Long: `Run one authentication attempt. The session name selects the account
type: "AdminSession" authenticates against the Admin type. Unknown names
fall back to the first configured model.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogin(cmd, deps, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.session, "session", "", "session name (default: <first model>Session)")
	cmd.Flags().StringVar(&cfg.login, "login", "", "login identifier")
	cfg.password.register(cmd)
	_ = cmd.MarkFlagRequired("login") //nolint:errcheck // flag is registered above

	return cmd
}

func runLogin(cmd *cobra.Command, deps *Deps, cfg *loginConfig) error {
	password, err := cfg.password.read(cmd)
	if err != nil {
		return err
	}

	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := openApp(cmd.Context(), conf, deps)
	if err != nil {
		return err
	}
	defer a.Close()

	name := cfg.session
	if name == "" {
		defaultType, err := a.engine.Registry().DefaultType()
		if err != nil {
			return err
		}
		name = defaultType + auth.SessionSuffix
	}

	session, err := a.engine.CreateSessionStrict(cmd.Context(), name, auth.Params{
		auth.ParamLogin:    cfg.login,
		auth.ParamPassword: password,
	})
	if err != nil {
		return err
	}

	cmd.Printf("Authenticated as %s %s\n", session.TypeName(), session.Account().ID)
	return nil
}
