// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

package main

import (
	"bufio"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// passwordInput is the --password / --password-stdin pair.
type passwordInput struct {
	value     string
	fromStdin bool
}

func (p *passwordInput) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.value, "password", "", "plaintext password (visible in the process list; prefer --password-stdin)")
	cmd.Flags().BoolVar(&p.fromStdin, "password-stdin", false, "read the password from the first line of stdin")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
}

// read returns the password, reading stdin when requested. The trailing
// newline is dropped.
func (p *passwordInput) read(cmd *cobra.Command) (string, error) {
	if !p.fromStdin {
		return p.value, nil
	}
	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", oops.Code("PASSWORD_READ_FAILED").Wrap(err)
		}
		return "", oops.Code("PASSWORD_READ_FAILED").Errorf("no password on stdin")
	}
	return strings.TrimRight(scanner.Text(), "\r"), nil
}
