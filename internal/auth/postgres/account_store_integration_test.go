// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/letmein-auth/letmein/internal/auth"
	"github.com/letmein-auth/letmein/internal/auth/postgres"
	"github.com/letmein-auth/letmein/internal/store"
	"github.com/letmein-auth/letmein/pkg/errutil"
)

var _ = Describe("AccountStore", Ordered, func() {
	var (
		ctx       context.Context
		container *tcpostgres.PostgresContainer
		pool      *pgxpool.Pool
		engine    *auth.Engine
		accounts  *postgres.AccountStore
	)

	BeforeAll(func() {
		ctx = context.Background()
		var err error
		container, err = tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("letmein_test"),
			tcpostgres.WithUsername("letmein"),
			tcpostgres.WithPassword("letmein"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		Expect(err).NotTo(HaveOccurred())

		connStr, err := container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())

		migrator, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Close()).To(Succeed())

		pool, err = store.Connect(ctx, connStr, store.DefaultConnectOptions())
		Expect(err).NotTo(HaveOccurred())

		registry, err := auth.NewRegistryFromOptions(auth.Options{
			Models:     []string{"User", "Admin"},
			Attributes: []string{"email", "username"},
			Passwords:  []string{"password_hash"},
			Salts:      []string{"password_salt"},
		})
		Expect(err).NotTo(HaveOccurred())

		hasher, err := auth.NewArgon2idHasherWithParams(auth.HasherParams{Time: 1, Memory: 64, Threads: 1, KeyLen: 16, SaltLen: 8})
		Expect(err).NotTo(HaveOccurred())

		// The store and the engine share the encoder, which needs only the
		// registry and hasher.
		encoder, err := auth.NewEncoder(registry, hasher)
		Expect(err).NotTo(HaveOccurred())
		accounts = postgres.NewAccountStore(pool, nil, encoder)

		engine, err = auth.NewEngine(registry, accounts, hasher)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if pool != nil {
			pool.Close()
		}
		if container != nil {
			_ = container.Terminate(ctx)
		}
	})

	It("authenticates a saved user", func() {
		user := auth.NewAccount("User", map[string]string{"email": "alice@example.com"})
		user.Password = "correct horse"
		Expect(accounts.Save(ctx, user)).To(Succeed())
		Expect(user.Password).To(BeEmpty())

		session := engine.CreateSession(ctx, "UserSession", auth.Params{
			auth.ParamLogin:    "alice@example.com",
			auth.ParamPassword: "correct horse",
		})
		Expect(session.Errors()).To(BeEmpty())
		Expect(session.Account()).NotTo(BeNil())
		Expect(session.Account().ID).To(Equal(user.ID))
	})

	It("rejects a wrong password", func() {
		session := engine.CreateSession(ctx, "UserSession", auth.Params{
			auth.ParamLogin:    "alice@example.com",
			auth.ParamPassword: "wrong",
		})
		Expect(session.Account()).To(BeNil())
		Expect(session.Errors()).NotTo(BeEmpty())
	})

	It("authenticates admins by username", func() {
		admin := auth.NewAccount("Admin", map[string]string{"username": "root"})
		admin.Password = "toor"
		Expect(accounts.Save(ctx, admin)).To(Succeed())

		session := engine.CreateSession(ctx, "AdminSession", auth.Params{
			auth.ParamLogin:    "root",
			auth.ParamPassword: "toor",
		})
		Expect(session.Account()).NotTo(BeNil())
		Expect(session.Account().Type).To(Equal("Admin"))
	})

	It("keeps credentials when re-saved without a password", func() {
		found, err := accounts.FindOneByField(ctx, "User", "email", "alice@example.com")
		Expect(err).NotTo(HaveOccurred())
		hash := found.Field("password_hash")

		found.SetField("name", "Alice")
		Expect(accounts.Save(ctx, found)).To(Succeed())

		again, err := accounts.FindByID(ctx, "User", found.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(again.Field("name")).To(Equal("Alice"))
		Expect(again.Field("password_hash")).To(Equal(hash))
	})

	It("reports duplicate logins", func() {
		dup := auth.NewAccount("User", map[string]string{"email": "alice@example.com"})
		err := accounts.Save(ctx, dup)
		Expect(err).To(HaveOccurred())
		Expect(errutil.Code(err)).To(Equal("ACCOUNT_DUPLICATE"))
	})

	It("deletes accounts", func() {
		user := auth.NewAccount("User", map[string]string{"email": "gone@example.com"})
		Expect(accounts.Save(ctx, user)).To(Succeed())
		Expect(accounts.Delete(ctx, "User", user.ID)).To(Succeed())

		found, err := accounts.FindByID(ctx, "User", user.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeNil())

		err = accounts.Delete(ctx, "User", user.ID)
		Expect(errors.Is(err, auth.ErrNotFound)).To(BeTrue())
	})
})
