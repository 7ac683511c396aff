// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/letmein-auth/letmein/internal/auth"
	"github.com/letmein-auth/letmein/internal/auth/memstore"
	"github.com/letmein-auth/letmein/internal/config"
	"github.com/letmein-auth/letmein/internal/store"
)

// cheapArgs keep argon2id fast and the logs quiet.
var cheapArgs = []string{
	"--hasher-time=1",
	"--hasher-memory=64",
	"--hasher-threads=1",
	"--hasher-key-len=16",
	"--hasher-salt-len=8",
	"--log-level=error",
}

// fakeMigrator records calls made by the migrate commands.
type fakeMigrator struct {
	status  store.MigrationStatus
	upCalls int
	down    bool
	forced  int
	closed  bool
	err     error
}

func (m *fakeMigrator) Up() error {
	m.upCalls++
	return m.err
}

func (m *fakeMigrator) Down() error {
	m.down = true
	return m.err
}

func (m *fakeMigrator) Force(version int) error {
	m.forced = version
	return m.err
}

func (m *fakeMigrator) Status() (store.MigrationStatus, error) {
	return m.status, m.err
}

func (m *fakeMigrator) Close() error {
	m.closed = true
	return nil
}

// testEnv is a CLI wired to an in-memory account store.
type testEnv struct {
	t        *testing.T
	deps     *Deps
	accounts *memstore.AccountStore
	migrator *fakeMigrator
	migrURL  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv(config.EnvDatabaseURL, "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	env := &testEnv{t: t, migrator: &fakeMigrator{}}
	env.deps = &Deps{
		StoreFactory: func(_ context.Context, _ *config.Config, encoder auth.PasswordEncoder) (*StoreHandle, error) {
			if env.accounts == nil {
				env.accounts = memstore.NewAccountStore(encoder)
			}
			return &StoreHandle{
				Accounts: env.accounts,
				Ping:     func(context.Context) error { return nil },
				Close:    func() {},
			}, nil
		},
		MigratorFactory: func(databaseURL string) (Migrator, error) {
			env.migrURL = databaseURL
			return env.migrator, nil
		},
	}
	return env
}

// run executes the CLI with args plus cheapArgs and returns its output.
func (e *testEnv) run(args ...string) (string, error) {
	return e.runWithInput("", args...)
}

func (e *testEnv) runWithInput(stdin string, args ...string) (string, error) {
	e.t.Helper()
	configFile = ""

	cmd := newRootCmdWithDeps(e.deps)
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, cheapArgs...))

	err := cmd.Execute()
	return buf.String(), err
}

// createdID extracts the id from "Created <Type> <id>".
func createdID(t *testing.T, out string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 3 && fields[0] == "Created" {
			return fields[2]
		}
	}
	require.Failf(t, "no account created", "output: %q", out)
	return ""
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "letmein.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
