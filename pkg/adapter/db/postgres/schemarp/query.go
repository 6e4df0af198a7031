// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package schemarp

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/momeni/parking/pkg/adapter/db/postgres"
	"github.com/momeni/parking/pkg/core/repo"
	"github.com/momeni/parking/pkg/core/scram"
)

// scramIterations is the PBKDF2 iterations count of role passwords,
// following the RFC 7677 recommendation.
const scramIterations = 15000

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func roleIdent(roleSuffix, role repo.Role) string {
	return ident(string(role + roleSuffix))
}

// DropCascadeIfExists drops the `schema` schema and all of its tables
// if it exists.
//
// Caller is responsible to pass a trusted schema name string.
func DropCascadeIfExists[Q postgres.Queryer](
	ctx context.Context, q Q, schema string,
) error {
	_, err := q.Exec(ctx, "DROP SCHEMA IF EXISTS "+ident(schema)+" CASCADE")
	return err
}

// CreateSchema tries to create the `schema` schema.
// There must be no other schema with the `schema` name, otherwise,
// this operation will fail.
//
// Caller is responsible to pass a trusted schema name string.
func CreateSchema[Q postgres.Queryer](
	ctx context.Context, q Q, schema string,
) error {
	_, err := q.Exec(ctx, "CREATE SCHEMA "+ident(schema))
	return err
}

// CreateRoleIfNotExists creates the `role` role if it does not
// exist right now. Although the login option is enabled for the
// created role, but no specific password will be set for it.
//
// The `role` role name may be suffixed by `roleSuffix` if it is not
// empty. This is useful to have distinct role names if repo.Role
// predefined constants are not desirable.
func CreateRoleIfNotExists[Q postgres.Queryer](
	ctx context.Context, q Q, roleSuffix repo.Role, role repo.Role,
) error {
	name := string(role + roleSuffix)
	rows, err := q.Query(
		ctx, "SELECT 1 FROM pg_roles WHERE rolname=$1", name,
	)
	if err != nil {
		return fmt.Errorf("querying pg_roles: %w", err)
	}
	exists := rows.Next()
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating pg_roles: %w", err)
	}
	if exists {
		return nil
	}
	_, err = q.Exec(ctx, "CREATE ROLE "+ident(name)+" LOGIN")
	return err
}

// GrantPrivileges grants ALL privileges on the `schema` schema
// to the `role` role, so it may create or access tables in that schema
// and run relevant queries.
func GrantPrivileges[Q postgres.Queryer](
	ctx context.Context,
	q Q,
	roleSuffix repo.Role,
	schema string,
	role repo.Role,
) error {
	_, err := q.Exec(ctx, fmt.Sprintf(
		"GRANT ALL ON SCHEMA %s TO %s",
		ident(schema), roleIdent(roleSuffix, role),
	))
	return err
}

// SetSearchPath alters the given database role and sets its default
// search_path to the given schema name alone.
func SetSearchPath[Q postgres.Queryer](
	ctx context.Context,
	q Q,
	roleSuffix repo.Role,
	schema string,
	role repo.Role,
) error {
	_, err := q.Exec(ctx, fmt.Sprintf(
		"ALTER ROLE %s SET search_path TO %s",
		roleIdent(roleSuffix, role), ident(schema),
	))
	return err
}

// ChangePasswords updates the passwords of the given roles in the
// current transaction. The roles and passwords slices must have the
// same number of entries, so they can be used in pair.
//
// The `hasher` will be used for hashing of the `passwords` before
// sending them to the DBMS (so they may not leak in plaintext, e.g.,
// by the statement logging of the server).
func ChangePasswords(
	ctx context.Context,
	tx *postgres.Tx,
	roleSuffix repo.Role,
	hasher scram.Hasher,
	roles []repo.Role,
	passwords []string,
) error {
	if n, m := len(roles), len(passwords); n != m {
		return fmt.Errorf("%d roles but %d passwords", n, m)
	}
	for i, r := range roles {
		h, err := hasher.Hash(passwords[i], "", scramIterations)
		if err != nil {
			return fmt.Errorf("hashing password of %q: %w", r, err)
		}
		_, err = tx.Exec(ctx, fmt.Sprintf(
			"ALTER ROLE %s PASSWORD '%s'",
			roleIdent(roleSuffix, r), strings.ReplaceAll(h, "'", "''"),
		))
		if err != nil {
			return fmt.Errorf("altering role %q: %w", r, err)
		}
	}
	return nil
}
