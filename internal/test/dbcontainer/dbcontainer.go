// Copyright (c) 2023 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package dbcontainer starts a throwaway postgres:16 container for the
// integration test suites and opens a *postgres.Pool on it.
package dbcontainer

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/bitcomplete/sqltestutil"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/momeni/parking/pkg/adapter/db/postgres"
	"github.com/stretchr/testify/assert"
)

// retryPause is the delay between two connection attempts while the
// database server is still starting up.
const retryPause = 100 * time.Millisecond

// New starts a postgres container and connects to it, passing opts
// to the postgres.NewPool function.
// The t test is skipped if no container runtime is available. With
// podman, the DOCKER_HOST environment variable should point to its
// socket, e.g., DOCKER_HOST=unix://$XDG_RUNTIME_DIR/podman/podman.sock
// The timeout bounds the start up phase only. Returned dfrs must be
// called in reverse order in order to close the pool and then remove
// the container.
func New(
	ctx context.Context, timeout time.Duration, t *testing.T,
	opts ...postgres.PoolOption,
) (
	pg *sqltestutil.PostgresContainer,
	pool *postgres.Pool,
	dfrs []func(),
	ok bool,
) {
	ctx2, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	pg, err := sqltestutil.StartPostgresContainer(ctx2, "16")
	if err != nil {
		t.Skipf("no test database container: %v", err)
	}
	ok = true
	dfrs = append(dfrs, func() {
		err := pg.Shutdown(ctx)
		assert.NoError(t, err, "failed to shutdown test database")
	})
	u := pg.ConnectionString()
	for pool == nil {
		pool, err = postgres.NewPool(ctx2, u, opts...)
		if err == nil {
			break
		}
		if startingUp(ctx2, err) {
			time.Sleep(retryPause)
			continue
		}
		ok = assert.NoError(t, err, "cannot connect to test database")
		return
	}
	dfrs = append(dfrs, func() {
		err := pool.Close()
		assert.NoError(t, err, "failed to close the connections pool")
	})
	return
}

// startingUp reports if err is caused by a server which is not ready
// to accept connections yet and ctx still permits more attempts.
func startingUp(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == postgres.CodeCannotConnectNow
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
