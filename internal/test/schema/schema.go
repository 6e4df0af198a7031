// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package schema provides the parking database schema verifier which
// can be used for testing purposes. The schema itself is verified by
// writing temporary rows in an uncommitted transaction, so the ledger
// constraints are checked by the DBMS instead of reading the catalog.
// Extra verifications consider the initial rows of a development or
// production database.
package schema

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/momeni/parking/pkg/core/repo"
	"github.com/stretchr/testify/assert"
)

var errRollback = errors.New("rollback the verification rows")

// Verifier wraps a database connection whose search_path starts with
// the parking schema.
type Verifier struct {
	c repo.Conn // database connection which is used for testing
}

// New instantiates a Verifier struct, wrapping the `c` database
// connection.
func New(c repo.Conn) *Verifier {
	return &Verifier{c}
}

// VerifySchema inserts a slot and its movements in a transaction which
// is rolled back eventually, ensuring that:
//  1. a plate may not have two active movements,
//  2. a slot may not have two active movements, and
//  3. the exit time and fee of a closed movement may not change.
//
// This process failures are reported using the `t` testing argument.
func (v *Verifier) VerifySchema(ctx context.Context, t *testing.T) {
	err := v.c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
		slotID, err := scanID(ctx, tx, `INSERT INTO slots (code, class, state)
VALUES ('VERIFY1', 'car', 'occupied') RETURNING id`)
		if err != nil {
			return fmt.Errorf("inserting slot: %w", err)
		}
		insert := `INSERT INTO movements
(slot_id, slot_code, vehicle_type, plate, entry_time, created_by)
VALUES ($1, 'VERIFY1', 'car', $2, now() - interval '1 hour', $3)
RETURNING id`
		mid, err := scanID(ctx, tx, insert, slotID, "VRF001", uuid.New())
		if err != nil {
			return fmt.Errorf("inserting movement: %w", err)
		}
		assert.Error(
			t, savepoint(ctx, tx, insert, slotID, "VRF002", uuid.New()),
			"duplicate active slot",
		)
		// the same plate on another slot
		otherID, err := scanID(ctx, tx, `INSERT INTO slots (code, class)
VALUES ('VERIFY2', 'car') RETURNING id`)
		if err != nil {
			return fmt.Errorf("inserting second slot: %w", err)
		}
		assert.Error(
			t, savepoint(ctx, tx, insert, otherID, "VRF001", uuid.New()),
			"duplicate active plate",
		)
		if _, err = tx.Exec(ctx, `UPDATE movements
SET exit_time = now(), fee = 10, closed_by = $2 WHERE id = $1`,
			mid, uuid.New(),
		); err != nil {
			return fmt.Errorf("closing movement: %w", err)
		}
		assert.Error(t, savepoint(
			ctx, tx, "UPDATE movements SET fee = 0 WHERE id = $1", mid,
		), "changing a closed movement fee")
		assert.NoError(t, savepoint(
			ctx, tx, insert, slotID, "VRF001", uuid.New(),
		), "entering again after the exit")
		return errRollback
	})
	assert.ErrorIs(t, err, errRollback, "verifying schema")
}

// VerifyDevData checks that the sample slots of all classes exist and
// they are free.
func (v *Verifier) VerifyDevData(ctx context.Context, t *testing.T) {
	counts := v.classCounts(ctx, t)
	assert.Equal(t, map[string]int64{
		"motorcycle": 5, "car": 10, "truck": 3,
	}, counts, "dev sample slots")
	v.verifySettings(ctx, t)
}

// VerifyProdData checks that no slot exists in a production database.
func (v *Verifier) VerifyProdData(ctx context.Context, t *testing.T) {
	assert.Empty(t, v.classCounts(ctx, t), "prod has no slot")
	v.verifySettings(ctx, t)
}

func (v *Verifier) classCounts(
	ctx context.Context, t *testing.T,
) map[string]int64 {
	rows, err := v.c.Query(ctx, `SELECT class, count(*) FROM slots
WHERE state = 'free' GROUP BY class`)
	if !assert.NoError(t, err, "counting slots") {
		return nil
	}
	defer rows.Close()
	counts := make(map[string]int64)
	for rows.Next() {
		var class string
		var n int64
		if !assert.NoError(t, rows.Scan(&class, &n)) {
			return nil
		}
		counts[class] = n
	}
	assert.NoError(t, rows.Err())
	return counts
}

func (v *Verifier) verifySettings(ctx context.Context, t *testing.T) {
	rows, err := v.c.Query(ctx, "SELECT count(*) FROM tariffs")
	if !assert.NoError(t, err, "counting tariffs") {
		return
	}
	defer rows.Close()
	var n int64
	if assert.True(t, rows.Next(), "no count row") {
		assert.NoError(t, rows.Scan(&n))
	}
	assert.EqualValues(t, 3, n, "all vehicle types need a tariff")
}

func scanID(
	ctx context.Context, q repo.Queryer, sql string, args ...any,
) (id int64, err error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return 0, err
		}
		return 0, errors.New("no row is returned")
	}
	if err = rows.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// savepoint runs sql in a nested transaction, so its failure leaves
// the tx usable.
func savepoint(
	ctx context.Context, tx repo.Tx, sql string, args ...any,
) error {
	if _, err := tx.Exec(ctx, "SAVEPOINT verify"); err != nil {
		return fmt.Errorf("creating savepoint: %w", err)
	}
	_, err := tx.Exec(ctx, sql, args...)
	if err == nil {
		_, err2 := tx.Exec(ctx, "RELEASE SAVEPOINT verify")
		return err2
	}
	if _, err2 := tx.Exec(ctx, "ROLLBACK TO SAVEPOINT verify"); err2 != nil {
		return fmt.Errorf("%w, rollback to savepoint: %w", err, err2)
	}
	return err
}
