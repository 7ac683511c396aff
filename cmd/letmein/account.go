// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/letmein-auth/letmein/internal/auth"
)

// accountCreateConfig holds configuration for the account create command.
type accountCreateConfig struct {
	typeName string
	login    string
	fields   map[string]string
	password passwordInput
}

// accountDeleteConfig holds configuration for the account delete command.
type accountDeleteConfig struct {
	typeName string
	id       string
}

// newAccountCmd creates the account command group.
func newAccountCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Create and delete accounts",
	}
	cmd.AddCommand(newAccountCreateCmd(deps))
	cmd.AddCommand(newAccountDeleteCmd(deps))
	return cmd
}

func newAccountCreateCmd(deps *Deps) *cobra.Command {
	cfg := &accountCreateConfig{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account with a hashed password",
		Long: `Create an account of the given type. The login is stored under the
type's configured login attribute; the password is salted and hashed into
the configured salt and hash attributes before the account is written.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAccountCreate(cmd, deps, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.typeName, "type", "", "account type (default: the first configured model)")
	cmd.Flags().StringVar(&cfg.login, "login", "", "login identifier")
	cmd.Flags().StringToStringVar(&cfg.fields, "field", nil, "extra field as name=value (repeatable)")
	cfg.password.register(cmd)
	_ = cmd.MarkFlagRequired("login") //nolint:errcheck // flag is registered above

	return cmd
}

func runAccountCreate(cmd *cobra.Command, deps *Deps, cfg *accountCreateConfig) error {
	password, err := cfg.password.read(cmd)
	if err != nil {
		return err
	}
	if password == "" {
		return oops.Code("ACCOUNT_INVALID").Errorf("a password is required")
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

	registry := a.engine.Registry()
	typeName := cfg.typeName
	if typeName == "" {
		typeName, err = registry.DefaultType()
		if err != nil {
			return err
		}
	}
	idx, err := registry.Lookup(typeName)
	if err != nil {
		return err
	}

	account := auth.NewAccount(typeName, cfg.fields)
	account.SetField(registry.AttributeFor(auth.AttributeLogin, idx), cfg.login)
	account.Password = password

	if err := a.store.Accounts.Save(cmd.Context(), account); err != nil {
		return err
	}

	cmd.Printf("Created %s %s\n", account.Type, account.ID)
	return nil
}

func newAccountDeleteCmd(deps *Deps) *cobra.Command {
	cfg := &accountDeleteConfig{}

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete an account by id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), conf, deps)
			if err != nil {
				return err
			}
			defer a.Close()

			typeName := cfg.typeName
			if typeName == "" {
				if typeName, err = a.engine.Registry().DefaultType(); err != nil {
					return err
				}
			}
			if err := a.store.Accounts.Delete(cmd.Context(), typeName, cfg.id); err != nil {
				return err
			}
			cmd.Printf("Deleted %s %s\n", typeName, cfg.id)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.typeName, "type", "", "account type (default: the first configured model)")
	cmd.Flags().StringVar(&cfg.id, "id", "", "account id")
	_ = cmd.MarkFlagRequired("id") //nolint:errcheck // flag is registered above

	return cmd
}
