// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import (
	"context"

	"github.com/momeni/parking/pkg/core/model"
)

// Slots is the parking slots repository.
type Slots interface {
	// Conn wraps c and returns a queryer for the non-locking reads.
	Conn(c Conn) SlotsConnQueryer

	// Tx wraps tx and returns a queryer which may lock slot rows too.
	Tx(tx Tx) SlotsTxQueryer
}

// SlotsConnQueryer lists slot queries which may run in auto-committed
// statements.
type SlotsConnQueryer interface {
	SlotsQueryer
}

// SlotsTxQueryer lists slot queries which require an open transaction.
type SlotsTxQueryer interface {
	SlotsQueryer

	// LockFirstFree finds the free slot of the class compatibility
	// class with the smallest ID, locks it with a FOR UPDATE row lock,
	// and returns it. Slots which are locked by concurrent transactions
	// are skipped, so concurrent entries take distinct slots. If no
	// free (and unlocked) slot exists, (nil, nil) is returned.
	LockFirstFree(ctx context.Context, class model.VehicleType) (
		*model.Slot, error,
	)

	// LockByID locks and returns the id slot, or wraps the
	// model.ErrSlotNotFound error if it does not exist.
	LockByID(ctx context.Context, id int64) (*model.Slot, error)

	// SetState changes the state of the id slot.
	SetState(ctx context.Context, id int64, st model.SlotState) error

	// SetClass changes the compatibility class of the id slot.
	SetClass(ctx context.Context, id int64, class model.VehicleType) error

	// Create inserts a new slot, wrapping model.ErrDuplicateSlotCode if
	// its code is already taken. Its ID field is filled in place.
	Create(ctx context.Context, s *model.Slot) error

	// Delete removes the id slot. Movements which reference it keep
	// their slot code snapshot while their slot reference is cleared.
	Delete(ctx context.Context, id int64) error
}

// SlotsQueryer lists slot queries which may run in either a connection
// or a transaction.
type SlotsQueryer interface {
	// Get returns the id slot or wraps model.ErrSlotNotFound.
	Get(ctx context.Context, id int64) (*model.Slot, error)

	// GetByCode returns a slot by its normalized code or wraps the
	// model.ErrSlotNotFound error.
	GetByCode(ctx context.Context, code string) (*model.Slot, error)

	// List returns the slots matching f, ordered by their IDs.
	List(ctx context.Context, f model.SlotFilter) ([]model.Slot, error)

	// Count returns the number of slots, regardless of their states.
	Count(ctx context.Context) (int64, error)

	// Availability counts the slots per class and state. All classes
	// are reported, even if they have no slots.
	Availability(ctx context.Context) ([]model.Availability, error)
}
