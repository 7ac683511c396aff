// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

package store

import (
	"cmp"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	// Register pgx/v5 database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/samber/oops"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Migration is one embedded schema change. Each migration creates a single
// account table.
type Migration struct {
	Version uint
	Name    string   // file stem, e.g. 000001_create_users
	Table   string   // table created by the up script
	Columns []string // column names in declaration order
}

// MigrationStatus describes where a database stands against the embedded
// migrations.
type MigrationStatus struct {
	Version uint
	Dirty   bool
	Pending []Migration
}

var (
	createTableRE = regexp.MustCompile(`(?is)CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?(\w+)\s*\((.*)\)`)
	// Table-level clauses that are not columns.
	constraintPrefixes = []string{"PRIMARY", "UNIQUE", "CONSTRAINT", "CHECK", "FOREIGN"}
)

// catalog parses the embedded up scripts once.
var catalog = sync.OnceValues(parseCatalog)

// Migrations returns the embedded migrations ordered by version.
func Migrations() ([]Migration, error) {
	all, err := catalog()
	if err != nil {
		return nil, err
	}
	out := make([]Migration, len(all))
	for i, mig := range all {
		mig.Columns = slices.Clone(mig.Columns)
		out[i] = mig
	}
	return out, nil
}

func parseCatalog() ([]Migration, error) {
	entries, err := migrationsFS.ReadDir(migrationsDir)
	if err != nil {
		return nil, oops.Code("MIGRATION_LIST_FAILED").With("operation", "read migrations dir").Wrap(err)
	}

	var all []Migration
	for _, entry := range entries {
		stem, ok := strings.CutSuffix(entry.Name(), ".up.sql")
		if !ok {
			continue
		}
		var version uint
		if _, err := fmt.Sscanf(stem, "%06d_", &version); err != nil {
			slog.Warn("skipping migration with unexpected file name",
				"filename", entry.Name(),
				"expected_format", "NNNNNN_name.up.sql",
				"error", err)
			continue
		}

		body, err := migrationsFS.ReadFile(migrationsDir + "/" + entry.Name())
		if err != nil {
			return nil, oops.Code("MIGRATION_READ_FAILED").With("filename", entry.Name()).Wrap(err)
		}
		table, columns := parseCreateTable(string(body))
		all = append(all, Migration{Version: version, Name: stem, Table: table, Columns: columns})
	}

	slices.SortFunc(all, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	return all, nil
}

// parseCreateTable extracts the table name and column names from the first
// CREATE TABLE statement in sql. Column definitions must be one per line.
func parseCreateTable(sql string) (string, []string) {
	match := createTableRE.FindStringSubmatch(sql)
	if match == nil {
		return "", nil
	}

	var columns []string
	for _, line := range strings.Split(match[2], "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) == 0 {
			continue
		}
		head := strings.ToUpper(fields[0])
		if slices.ContainsFunc(constraintPrefixes, func(p string) bool { return head == p }) {
			continue
		}
		columns = append(columns, strings.Trim(fields[0], `",`))
	}
	return strings.ToLower(match[1]), columns
}

// migrateIface is the subset of *migrate.Migrate that Migrator drives.
type migrateIface interface {
	Up() error
	Down() error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Close() (source error, database error)
}

// Migrator applies the account table migrations to one database.
type Migrator struct {
	m migrateIface
}

// NewMigrator creates a Migrator for databaseURL. postgres:// and
// postgresql:// URLs are accepted alongside the pgx5:// scheme the driver
// registers.
func NewMigrator(databaseURL string) (*Migrator, error) {
	source, err := iofs.New(migrationsFS, migrationsDir)
	if err != nil {
		return nil, oops.Code("MIGRATION_SOURCE_FAILED").With("operation", "create migration source").Wrap(err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(databaseURL))
	if err != nil {
		_ = source.Close() //nolint:errcheck // init error takes precedence
		return nil, oops.Code("MIGRATION_INIT_FAILED").With("operation", "initialize migrator").Wrap(err)
	}
	return &Migrator{m: m}, nil
}

func migrateURL(databaseURL string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, found := strings.CutPrefix(databaseURL, scheme); found {
			return "pgx5://" + rest
		}
	}
	return databaseURL
}

// Up creates every account table that is not there yet.
func (m *Migrator) Up() error {
	return ignoreNoChange(m.m.Up(), "MIGRATION_UP_FAILED")
}

// Down drops every account table.
func (m *Migrator) Down() error {
	return ignoreNoChange(m.m.Down(), "MIGRATION_DOWN_FAILED")
}

func ignoreNoChange(err error, code string) error {
	if err == nil || errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return oops.Code(code).Wrap(err)
}

// Version returns the applied version and whether the last migration failed
// partway. A database with no migrations applied reports version 0.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, false, nil
	case err != nil:
		return 0, false, oops.Code("MIGRATION_VERSION_FAILED").Wrap(err)
	}
	return version, dirty, nil
}

// Status reports the applied version and the migrations Up would still run.
func (m *Migrator) Status() (MigrationStatus, error) {
	version, dirty, err := m.Version()
	if err != nil {
		return MigrationStatus{}, oops.With("operation", "migration status").Wrap(err)
	}
	all, err := Migrations()
	if err != nil {
		return MigrationStatus{}, oops.With("operation", "migration status").Wrap(err)
	}

	status := MigrationStatus{Version: version, Dirty: dirty}
	for _, mig := range all {
		if mig.Version > version {
			status.Pending = append(status.Pending, mig)
		}
	}
	return status, nil
}

// Force records version as applied without running anything. It clears the
// dirty flag left by a failed migration.
func (m *Migrator) Force(version int) error {
	if version < 0 {
		return oops.Code("INVALID_VERSION").Errorf("version must be non-negative, got %d", version)
	}
	if err := m.m.Force(version); err != nil {
		return oops.Code("MIGRATION_FORCE_FAILED").With("version", version).Wrap(err)
	}
	return nil
}

// Close releases the migration source and the database connection.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	if srcErr == nil && dbErr == nil {
		return nil
	}
	return oops.Code("MIGRATION_CLOSE_FAILED").
		With("source_failed", srcErr != nil).
		With("database_failed", dbErr != nil).
		Wrap(errors.Join(srcErr, dbErr))
}
