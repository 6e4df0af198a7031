// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package initdbuc

import (
	"context"

	"github.com/momeni/parking/pkg/core/model"
	"github.com/momeni/parking/pkg/core/repo"
)

// Settings specifies the database connection information and the
// initial configuration store contents which are required by the
// database initialization use case. It is realized by the adapters
// layer configuration package.
type Settings interface {
	// ConnectionPool creates a database connection pool for the
	// given role. Caller is responsible to close it.
	ConnectionPool(ctx context.Context, r repo.Role) (
		repo.ClosablePool, error,
	)

	// NewSchemaRepo instantiates a fresh Schema repository which
	// hashes the role passwords as expected by the target database.
	NewSchemaRepo() repo.Schema

	// SchemaInitializer creates a repo.SchemaInitializer which creates
	// tables and fills them within the tx transaction.
	SchemaInitializer(tx repo.Tx) repo.SchemaInitializer

	// SchemaName returns the name of the database schema which should
	// be (re)created and hold the parking tables.
	SchemaName() string

	// InitialSettings returns the configuration store contents which
	// should be seeded into a freshly created schema.
	InitialSettings() *model.Settings

	// RenewPasswords generates new passwords for the roles and
	// records them in a temporary passwords file, then calls the
	// change function in order to update them in the database too.
	// The change function may run in a transaction which is not
	// committed yet, so the temporary passwords file may be moved
	// over the main passwords file only after that commitment by
	// calling the returned finalizer function. Keeping both files
	// makes it possible to connect to the database whether or not
	// the transaction could be committed.
	RenewPasswords(
		ctx context.Context,
		change func(
			ctx context.Context, roles []repo.Role, passwords []string,
		) error,
		roles ...repo.Role,
	) (finalizer func() error, err error)
}
