// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/shopspring/decimal"
)

// Movements is the movements ledger repository.
type Movements interface {
	Conn(c Conn) MovementsConnQueryer
	Tx(tx Tx) MovementsTxQueryer
}

// MovementsConnQueryer lists the lock-free ledger queries.
type MovementsConnQueryer interface {
	MovementsQueryer
}

// MovementsTxQueryer lists ledger queries which require an open
// transaction, so their row locks are kept until the commit time.
type MovementsTxQueryer interface {
	MovementsQueryer

	// LockByID locks and returns the id movement, or wraps the
	// model.ErrMovementNotFound error if it does not exist.
	LockByID(ctx context.Context, id int64) (*model.Movement, error)

	// LockActiveBySlot locks and returns the active movement which
	// references the slotID slot, or wraps model.ErrNoActiveMovement.
	LockActiveBySlot(ctx context.Context, slotID int64) (
		*model.Movement, error,
	)

	// Insert appends m as an active movement and fills its ID.
	// If plate (or slot) already has an active movement, an error
	// wrapping model.ErrDuplicateActiveEntry is returned.
	Insert(ctx context.Context, m *model.Movement) error

	// Close sets the exit time and fee of the id movement if it is
	// still active. Otherwise, model.ErrAlreadyExited is wrapped.
	// The actor is recorded as the closing operator.
	Close(
		ctx context.Context,
		id int64,
		exit time.Time,
		fee decimal.Decimal,
		forced bool,
		actor uuid.UUID,
	) error
}

// MovementsQueryer lists the ledger queries for both connections and
// transactions.
type MovementsQueryer interface {
	// Get returns the id movement or wraps model.ErrMovementNotFound.
	Get(ctx context.Context, id int64) (*model.Movement, error)

	// FindActive returns the active movement whose plate or slot
	// code equals term (which must be normalized beforehand). The
	// plate match is preferred. If none exists, model.ErrNoActiveMovement
	// is wrapped.
	FindActive(ctx context.Context, term string) (*model.Movement, error)

	// HasActive reports if plate has an active movement.
	HasActive(ctx context.Context, plate string) (bool, error)

	// ListActive returns all active movements, newest entries first.
	ListActive(ctx context.Context) ([]model.Movement, error)

	// Recent returns the most recently closed movements, newest exit
	// first, at most limit items.
	Recent(ctx context.Context, limit int) ([]model.Movement, error)

	// Summary aggregates the movements which exited in [from, to).
	Summary(ctx context.Context, from, to time.Time) (
		*model.LedgerSummary, error,
	)
}
