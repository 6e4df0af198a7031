// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package repo specifies the repository interfaces which are required
// by the use cases layer. Repositories are implemented in the adapters
// layer (e.g., by the pkg/adapter/db/postgres package and its nested
// packages) and are injected into the use cases while they are created.
//
// A repository exposes two queryer flavors: one wrapping a Conn and
// another one wrapping a Tx. Locking queries (which must hold their row
// locks until a commit or rollback) are only available on the Tx
// flavor, so they may not be executed in an auto-committed statement
// by mistake.
package repo

import "context"

// ConnHandler is a callback which takes a database connection and may
// use it as long as this callback is running.
type ConnHandler func(context.Context, Conn) error

// Pool represents a database connection pool.
type Pool interface {
	// Conn acquires a connection from the pool, passes it to the
	// handler, and releases it after the handler returns.
	Conn(ctx context.Context, handler ConnHandler) error
}

// ClosablePool is a Pool which its owner must close after use.
// Use cases which create their own pools (e.g., for connecting with
// the admin role) depend on this interface, while the long-living
// pools are closed by their creator and are passed as a Pool.
type ClosablePool interface {
	Pool

	// Close closes all idle connections of the pool.
	Close() error
}
