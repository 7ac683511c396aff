// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

package main

import (
	"github.com/spf13/cobra"
)

// hashConfig holds configuration for the hash command.
type hashConfig struct {
	salt     string
	password passwordInput
}

// newHashCmd creates the hash command.
func newHashCmd() *cobra.Command {
	cfg := &hashConfig{}

	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Hash a password with the configured argon2id parameters",
		Long: `Print the salted hash of a password. Without --salt a fresh salt is
generated and printed on the line before the hash.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := cfg.password.read(cmd)
			if err != nil {
				return err
			}
			conf, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			hasher, err := newHasher(conf)
			if err != nil {
				return err
			}

			salt := cfg.salt
			if salt == "" {
				if salt, err = hasher.NewSalt(); err != nil {
					return err
				}
				cmd.Println(salt)
			}

			hash, err := hasher.Encode(password, salt)
			if err != nil {
				return err
			}
			cmd.Println(hash)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.salt, "salt", "", "salt to hash with (default: generate one)")
	cfg.password.register(cmd)

	return cmd
}

// newSaltCmd creates the salt command.
func newSaltCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "salt",
		Short: "Print a fresh random salt",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			hasher, err := newHasher(conf)
			if err != nil {
				return err
			}
			salt, err := hasher.NewSalt()
			if err != nil {
				return err
			}
			cmd.Println(salt)
			return nil
		},
	}
}
