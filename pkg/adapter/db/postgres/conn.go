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

// Conn represents a database connection, embedding the *gorm.DB.
type Conn struct {
	*gorm.DB

	lockTimeout time.Duration
}

// TxHandler is an alias for the repo.TxHandler.
type TxHandler = repo.TxHandler

// Tx begins a transaction and passes it to f. If f returns nil, the
// transaction commits. Otherwise, or if f panics, it rolls back.
// The returned error is classified by the Classify function, so lock
// timeouts, deadlocks, and serialization failures are reported as
// transient errors.
func (c *Conn) Tx(ctx context.Context, f TxHandler) (err error) {
	defer func() {
		err = Classify(err)
	}()
	tx := c.DB.WithContext(ctx).Begin()
	if err = tx.Error; err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			err = tx.Rollback().Error
			if err == nil {
				err = fmt.Errorf("panicked: %v", r)
				return
			}
			err = fmt.Errorf("panicked: %v, rollback: %w", r, err)
			return
		}
		if err != nil {
			if err2 := tx.Rollback().Error; err2 != nil {
				err = fmt.Errorf("handler: %w, rollback: %w", err, err2)
				return
			}
			err = fmt.Errorf("handler: %w", err)
			return
		}
		err = tx.Commit().Error
		if err != nil {
			err = fmt.Errorf("commit: %w", err)
		}
	}()
	tt := &Tx{DB: tx}
	if c.lockTimeout > 0 {
		if err = tt.setLockTimeout(ctx, c.lockTimeout); err != nil {
			return err
		}
	}
	return f(ctx, tt)
}

// Exec runs sql with args in an auto-committed transaction and returns
// the number of affected rows.
func (c *Conn) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tt := c.DB.WithContext(ctx).Exec(sql, args...)
	if err := tt.Error; err != nil {
		return 0, err
	}
	return tt.RowsAffected, nil
}

// Query runs sql with args and returns its result set.
func (c *Conn) Query(ctx context.Context, sql string, args ...any) (repo.Rows, error) {
	rows, err := c.DB.WithContext(ctx).Raw(sql, args...).Rows()
	return rowsAdapter{rows}, err
}

// IsConn method prevents a non-Conn object (such as a Tx) to
// mistakenly implement the Conn interface.
func (c *Conn) IsConn() {
}

// GORM returns the embedded *gorm.DB instance, configuring it
// to operate on the given ctx context (in a gorm.Session).
func (c *Conn) GORM(ctx context.Context) *gorm.DB {
	return c.DB.WithContext(ctx)
}
