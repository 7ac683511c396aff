// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

// Package postgres implements auth.AccountStore over PostgreSQL tables whose
// columns are named by the registry's attribute mapping.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/letmein-auth/letmein/internal/auth"
)

// IDColumn is the primary key column every account table must have.
const IDColumn = "id"

// poolIface is the subset of pgxpool.Pool used by AccountStore. It lets
// pgxmock stand in for a database in unit tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// AccountStore implements auth.AccountStore using PostgreSQL.
//
// Each account type lives in its own table. Columns other than IDColumn are
// exposed as account fields, so the login, hash and salt columns are simply
// the attribute names configured in the registry.
type AccountStore struct {
	pool    poolIface
	tables  map[string]string
	encoder auth.PasswordEncoder
}

// NewAccountStore creates an AccountStore. tables maps account type names
// to table names; types without an entry use TableName. encoder runs before
// every Save and may be nil.
func NewAccountStore(pool poolIface, tables map[string]string, encoder auth.PasswordEncoder) *AccountStore {
	return &AccountStore{pool: pool, tables: maps.Clone(tables), encoder: encoder}
}

// TableName derives the default table for an account type: snake_case plus
// a trailing "s" ("User" -> "users", "AdminUser" -> "admin_users").
func TableName(typeName string) string {
	var b strings.Builder
	for i, r := range typeName {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String() + "s"
}

func (s *AccountStore) table(typeName string) string {
	if t, ok := s.tables[typeName]; ok && t != "" {
		return t
	}
	return TableName(typeName)
}

// FindOneByField implements auth.AccountStore. At most two rows are read so
// an ambiguous login is detected without scanning the table.
func (s *AccountStore) FindOneByField(ctx context.Context, typeName, field, value string) (*auth.Account, error) {
	query := fmt.Sprintf(`SELECT * FROM %s WHERE %s = $1 LIMIT 2`,
		pgx.Identifier{s.table(typeName)}.Sanitize(),
		pgx.Identifier{field}.Sanitize(),
	)

	accounts, err := s.query(ctx, typeName, query, value)
	if err != nil {
		return nil, oops.Code("ACCOUNT_LOOKUP_FAILED").
			With("operation", "find account by field").
			With("type", typeName).
			With("field", field).
			Wrap(err)
	}

	switch len(accounts) {
	case 0:
		return nil, nil
	case 1:
		return accounts[0], nil
	default:
		return nil, oops.Code("ACCOUNT_AMBIGUOUS").
			With("type", typeName).
			With("field", field).
			Wrap(auth.ErrMultipleMatches)
	}
}

// FindByID implements auth.AccountStore.
func (s *AccountStore) FindByID(ctx context.Context, typeName, id string) (*auth.Account, error) {
	query := fmt.Sprintf(`SELECT * FROM %s WHERE %s = $1`,
		pgx.Identifier{s.table(typeName)}.Sanitize(),
		pgx.Identifier{IDColumn}.Sanitize(),
	)

	accounts, err := s.query(ctx, typeName, query, id)
	if err != nil {
		return nil, oops.Code("ACCOUNT_LOOKUP_FAILED").
			With("operation", "find account by id").
			With("type", typeName).
			With("id", id).
			Wrap(err)
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return accounts[0], nil
}

// Save inserts or updates account after running the encode hook. Only the
// fields present on account are written.
func (s *AccountStore) Save(ctx context.Context, account *auth.Account) error {
	if account == nil || account.Type == "" || account.ID == "" {
		return oops.Code("ACCOUNT_INVALID").Errorf("account type and id are required")
	}
	if s.encoder != nil {
		if err := s.encoder.EncodePassword(account); err != nil {
			return oops.Code("ACCOUNT_SAVE_FAILED").
				With("operation", "encode password").
				With("id", account.ID).
				Wrap(err)
		}
	}

	fields := make([]string, 0, len(account.Fields))
	for name := range account.Fields {
		if name != IDColumn {
			fields = append(fields, name)
		}
	}
	slices.Sort(fields)

	cols := make([]string, 0, len(fields)+1)
	placeholders := make([]string, 0, len(fields)+1)
	updates := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)

	cols = append(cols, pgx.Identifier{IDColumn}.Sanitize())
	placeholders = append(placeholders, "$1")
	args = append(args, account.ID)
	for i, name := range fields {
		col := pgx.Identifier{name}.Sanitize()
		cols = append(cols, col)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+2))
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		args = append(args, account.Fields[name])
	}

	conflict := "DO NOTHING"
	if len(updates) > 0 {
		conflict = "DO UPDATE SET " + strings.Join(updates, ", ")
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) %s`,
		pgx.Identifier{s.table(account.Type)}.Sanitize(),
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
		pgx.Identifier{IDColumn}.Sanitize(),
		conflict,
	)

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("ACCOUNT_DUPLICATE").
				With("type", account.Type).
				With("constraint", pgErr.ConstraintName).
				Wrap(err)
		}
		return oops.Code("ACCOUNT_SAVE_FAILED").
			With("operation", "upsert account").
			With("type", account.Type).
			With("id", account.ID).
			Wrap(err)
	}
	return nil
}

// Delete removes an account.
func (s *AccountStore) Delete(ctx context.Context, typeName, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		pgx.Identifier{s.table(typeName)}.Sanitize(),
		pgx.Identifier{IDColumn}.Sanitize(),
	)

	result, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return oops.Code("ACCOUNT_DELETE_FAILED").
			With("operation", "delete account").
			With("type", typeName).
			With("id", id).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").
			With("type", typeName).
			With("id", id).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// query runs a SELECT * and decodes every row into an Account.
func (s *AccountStore) query(ctx context.Context, typeName, query string, args ...any) ([]*auth.Account, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, oops.With("operation", "query accounts").Wrap(err)
	}
	defer rows.Close()

	var accounts []*auth.Account
	for rows.Next() {
		account, err := scanAccount(typeName, rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate accounts").Wrap(err)
	}
	return accounts, nil
}

// scanAccount decodes the current row generically by column name. NULL
// columns are left out of Fields.
func scanAccount(typeName string, rows pgx.Rows) (*auth.Account, error) {
	values, err := rows.Values()
	if err != nil {
		return nil, oops.Code("ACCOUNT_SCAN_FAILED").With("operation", "scan account").Wrap(err)
	}

	account := &auth.Account{
		Type:   typeName,
		Fields: make(map[string]string, len(values)),
	}
	for i, fd := range rows.FieldDescriptions() {
		if i >= len(values) || values[i] == nil {
			continue
		}
		v := stringify(values[i])
		if fd.Name == IDColumn {
			account.ID = v
			continue
		}
		account.Fields[fd.Name] = v
	}

	if account.ID == "" {
		return nil, oops.Code("ACCOUNT_INVALID_ID").
			With("type", typeName).
			Errorf("account row has no %s column", IDColumn)
	}
	return account, nil
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Compile-time interface check.
var _ auth.AccountStore = (*AccountStore)(nil)
