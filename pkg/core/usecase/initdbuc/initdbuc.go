// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package initdbuc contains the database initialization UseCase which
// (re)creates the parking schema, its roles, and its tables, and fills
// them with the development or production suitable data.
package initdbuc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/momeni/parking/pkg/core/log"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/momeni/parking/pkg/core/repo"
)

// UseCase represents the database initialization use case.
type UseCase struct {
	settings   Settings    // target settings
	schemaRepo repo.Schema // schema management repo
}

// New creates a database initialization UseCase instance, using the
// ss settings in order to find the target database connection
// information and the initial configuration store contents.
func New(ss Settings) *UseCase {
	return &UseCase{
		settings:   ss,
		schemaRepo: ss.NewSchemaRepo(),
	}
}

// InitProd drops the parking schema (if it exists) and recreates it
// using the admin role. It also creates the normal role (if it does
// not exist), grants it privileges on the created schema, and renews
// the passwords of both admin and normal roles. These operations are
// performed in one transaction and are coordinated with the passwords
// files, so they may be repeated after an abrupt failure.
// Thereafter, it connects as the normal role and creates all tables,
// seeding the configuration store, in a second transaction.
// No slot is created by InitProd.
func (uc *UseCase) InitProd(ctx context.Context) error {
	return uc.initDB(
		ctx, "prod",
		func(ctx context.Context, si repo.SchemaInitializer) error {
			return si.InitProdSchema(ctx, uc.settings.InitialSettings())
		},
	)
}

// InitDev works like InitProd, but also adds a set of sample slots
// covering all compatibility classes.
func (uc *UseCase) InitDev(ctx context.Context) error {
	return uc.initDB(
		ctx, "dev",
		func(ctx context.Context, si repo.SchemaInitializer) error {
			return si.InitDevSchema(ctx, uc.settings.InitialSettings())
		},
	)
}

func (uc *UseCase) initDB(
	ctx context.Context,
	mode string,
	dbi func(ctx context.Context, si repo.SchemaInitializer) error,
) error {
	s := uc.settings.InitialSettings()
	if s == nil {
		return fmt.Errorf("initial settings: %w", model.ErrMissingSetting)
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid initial settings: %w", err)
	}
	if err := uc.dropAndCreateAgain(ctx); err != nil {
		return fmt.Errorf("dropping/recreating schema: %w", err)
	}
	p, err := uc.settings.ConnectionPool(ctx, repo.NormalRole)
	if err != nil {
		return fmt.Errorf("creating DB pool for normal role: %w", err)
	}
	defer p.Close()
	err = p.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			si := uc.settings.SchemaInitializer(tx)
			if err := dbi(ctx, si); err != nil {
				return fmt.Errorf("initializing schema: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("normal connection: %w", err)
	}
	log.Info(
		ctx, "database is initialized",
		slog.String("mode", mode),
		slog.String("schema", uc.settings.SchemaName()),
	)
	return nil
}

func (uc *UseCase) dropAndCreateAgain(ctx context.Context) error {
	p, err := uc.settings.ConnectionPool(ctx, repo.AdminRole)
	if err != nil {
		return fmt.Errorf("creating DB pool for admin: %w", err)
	}
	defer p.Close()
	var finalizer func() error
	err = p.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			q := uc.schemaRepo.Tx(tx)
			sn := uc.settings.SchemaName()
			if err := q.DropCascadeIfExists(ctx, sn); err != nil {
				return fmt.Errorf("dropping %q: %w", sn, err)
			}
			if err := q.CreateSchema(ctx, sn); err != nil {
				return fmt.Errorf("creating %q: %w", sn, err)
			}
			if err := q.CreateRoleIfNotExists(
				ctx, repo.NormalRole,
			); err != nil {
				return fmt.Errorf("creating normal role: %w", err)
			}
			if err := q.GrantPrivileges(
				ctx, sn, repo.NormalRole,
			); err != nil {
				return fmt.Errorf("granting normal role privs: %w", err)
			}
			if err := q.SetSearchPath(
				ctx, sn, repo.NormalRole,
			); err != nil {
				return fmt.Errorf(
					"setting search_path of normal role to %q: %w",
					sn, err,
				)
			}
			finalizer, err = uc.settings.RenewPasswords(
				ctx, q.ChangePasswords, repo.AdminRole, repo.NormalRole,
			)
			if err != nil {
				return fmt.Errorf("RenewPasswords: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("admin connection: %w", err)
	}
	if err := finalizer(); err != nil {
		return fmt.Errorf("finalizing passwords renewal: %w", err)
	}
	return nil
}
