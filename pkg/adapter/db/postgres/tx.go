// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/momeni/parking/pkg/core/repo"
	"gorm.io/gorm"
)

// Tx represents a READ-COMMITTED database transaction which is not
// safe for concurrent use. The entry, exit, and forced release use
// cases take their FOR UPDATE row locks on slots and movements in a
// Tx, so they are released together at its commit or rollback.
// Tx embeds the *gorm.DB, hence, may be used like GORM from within
// the repository packages (which can depend on frameworks).
type Tx struct {
	*gorm.DB
}

// setLockTimeout limits the time that each statement of tx may wait
// for a row lock. A statement which exceeds d fails with the 55P03
// SQLSTATE which is classified as a transient error. The setting is
// reverted at the end of tx.
func (tx *Tx) setLockTimeout(ctx context.Context, d time.Duration) error {
	// SET does not accept bind parameters
	q := fmt.Sprintf("SET LOCAL lock_timeout = %d", d.Milliseconds())
	if _, err := tx.Exec(ctx, q); err != nil {
		return fmt.Errorf("setting lock_timeout: %w", err)
	}
	return nil
}

// Exec runs sql with args and returns the number of affected rows.
// Parameters may be written as $1, $2, etc. or as the ? and @name
// GORM placeholders. Without args, sql may contain several statements.
func (tx *Tx) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tt := tx.DB.WithContext(ctx).Exec(sql, args...)
	if err := tt.Error; err != nil {
		return 0, err
	}
	return tt.RowsAffected, nil
}

// Query runs one sql statement with args and returns its result set.
// No other statement may run on tx until the returned Rows is closed.
func (tx *Tx) Query(ctx context.Context, sql string, args ...any) (repo.Rows, error) {
	rows, err := tx.DB.WithContext(ctx).Raw(sql, args...).Rows()
	return rowsAdapter{rows}, err
}

// IsTx method prevents a non-Tx object (such as a Conn) to
// mistakenly implement the Tx interface.
func (tx *Tx) IsTx() {
}

// GORM returns the embedded *gorm.DB instance, configuring it
// to operate on the given ctx context (in a gorm.Session).
func (tx *Tx) GORM(ctx context.Context) *gorm.DB {
	return tx.DB.WithContext(ctx)
}
