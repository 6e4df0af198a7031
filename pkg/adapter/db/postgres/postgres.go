// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package postgres implements the repo.Pool, repo.Conn, and repo.Tx
// interfaces using the GORM framework and its pgx based PostgreSQL
// driver. Nested packages implement the repositories (e.g., slotsrp
// and movementsrp) on top of the Conn and Tx types of this package.
//
// Transactions begin in the READ COMMITTED isolation level. When a
// lock timeout is configured for the Pool, each transaction sets it
// locally, so a blocked FOR UPDATE query fails with a lock_not_available
// error instead of waiting indefinitely. Such errors (and also the
// deadlock and serialization failures) are classified as transient
// errors using the cerr package, so use cases may retry them.
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/momeni/parking/pkg/core/cerr"
)

// SchemaName is the database schema which holds all tables.
const SchemaName = "parking"

// These SQLSTATE codes are reported by the PostgreSQL server.
// See https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	CodeSerializationFailure = "40001"
	CodeDeadlockDetected     = "40P01"
	CodeLockNotAvailable     = "55P03"
	CodeUniqueViolation      = "23505"
	CodeCannotConnectNow     = "57P03"
)

// IsTransient reports if err chain contains a PostgreSQL error which
// may disappear by running the whole transaction again.
func IsTransient(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case CodeSerializationFailure, CodeDeadlockDetected,
		CodeLockNotAvailable:
		return true
	default:
		return false
	}
}

// IsUniqueViolation reports if err chain contains a unique violation
// error. If constraint is not empty, the violated constraint (or unique
// index) name must match it too.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != CodeUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// Classify wraps err as a transient cerr.Error if it is not classified
// already and IsTransient reports it as a retryable error.
// Other errors are returned unchanged.
func Classify(err error) error {
	if err == nil || cerr.Classified(err) || !IsTransient(err) {
		return err
	}
	return cerr.Transient(err)
}
