// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import (
	"context"

	"github.com/momeni/parking/pkg/core/model"
)

// SchemaInitializer interface is exposed by the tables creation logic.
// It provides two methods of InitDevSchema and InitProdSchema in order
// to create new tables and fill an existing schema with them, using the
// development and production suitable initial data rows respectively.
// Each implementation should contain the relevant information for
// finding the destination database (such as a database transaction)
// so the SchemaInitializer does not need to take such arguments.
type SchemaInitializer interface {
	// InitDevSchema creates tables in an existing database schema
	// and fills them with the given settings and a set of sample slots
	// (covering all compatibility classes).
	InitDevSchema(ctx context.Context, s *model.Settings) error

	// InitProdSchema creates tables in an existing database schema
	// and fills them with the given settings. No slot is created, so
	// they should be added using the slot management use cases.
	InitProdSchema(ctx context.Context, s *model.Settings) error
}

// Schema interface presents expectations from a repository which allows
// database schema and roles management. This repository creates schema
// and grant relevant privileges on them, so they may be filled by
// tables during a database initialization or queried during other use
// cases.
type Schema interface {
	// Conn takes a Conn interface instance, unwraps it as required,
	// and returns a SchemaConnQueryer interface which (with access to
	// the implementation-dependent connection object) can create or
	// drop schema or manage database roles.
	Conn(Conn) SchemaConnQueryer

	// Tx takes a Tx interface instance, unwraps it as required,
	// and returns a SchemaTxQueryer interface which (with access to the
	// implementation-dependent transaction object) can manage database
	// roles, change their passwords, or perform schema-level management
	// operations.
	Tx(Tx) SchemaTxQueryer
}

// SchemaConnQueryer interface lists all operations which may be taken
// with regards to database schema having an open connection with the
// auto-committed transactions.
type SchemaConnQueryer interface {
	SchemaQueryer
}

// SchemaTxQueryer interface lists all operations which may be taken
// with regards to database schema having an ongoing transaction.
type SchemaTxQueryer interface {
	SchemaQueryer

	// ChangePasswords updates the passwords of the given roles
	// in the current transaction. The roles and passwords slices must
	// have the same number of entries, so they can be used in pair.
	// These fields are not combined as a struct with two role and
	// password fields because passing items separately ensures that
	// all items are initialized explicitly in constrast to a struct
	// which its fields can be zero-initialized and are more suitable
	// to pass a set of optional fields.
	// The given roles may be suffixed automatically too, based on
	// this transaction queryer settings.
	ChangePasswords(
		ctx context.Context, roles []Role, passwords []string,
	) error
}

// SchemaQueryer interface lists common operations which may be taken
// with regards to database schema having either a connection or open
// transaction at hand.
type SchemaQueryer interface {
	// DropCascadeIfExists drops the `schema` schema with cascading if
	// it exists, dropping all of its tables too. If `schema` does not
	// exist, a nil error will be returned without any change.
	//
	// Caller is responsible to pass a trusted schema name string.
	DropCascadeIfExists(ctx context.Context, schema string) error

	// CreateSchema tries to create the `schema` schema.
	// There must be no other schema with the `schema` name, otherwise,
	// this operation will fail.
	//
	// Caller is responsible to pass a trusted schema name string.
	CreateSchema(ctx context.Context, schema string) error

	// CreateRoleIfNotExists creates the `role` role if it does not
	// exist right now. Although the login option is enabled for the
	// created role, but no specific password will be set for it.
	// The ChangePasswords method may be used for setting a password.
	//
	// The `role` role name may be suffixed automatically based on
	// this schema queryer settings.
	CreateRoleIfNotExists(ctx context.Context, role Role) error

	// GrantPrivileges grants ALL privileges on the `schema` schema
	// to the `role` role, so it may create or access tables in that
	// schema and run relevant queries.
	//
	// The `role` role name may be suffixed automatically based on
	// this schema queryer settings.
	GrantPrivileges(ctx context.Context, schema string, role Role) error

	// SetSearchPath alters the given database role and sets its default
	// search_path to the given schema name alone.
	//
	// Updated search_path will be used by default in all future
	// transactions by that role, but it may be changed using the SET
	// statement as needed.
	SetSearchPath(ctx context.Context, schema string, role Role) error
}
