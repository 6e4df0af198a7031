// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package slotsuc contains the slot registry UseCase which lets the
// operators list, create, delete, activate, deactivate, and convert
// the parking slots.
// Occupied slots belong to the parking use case, so they may not be
// deleted, deactivated, or converted here.
package slotsuc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/momeni/parking/pkg/core/cerr"
	"github.com/momeni/parking/pkg/core/log"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/momeni/parking/pkg/core/repo"
)

// UseCase represents the slot registry use case.
type UseCase struct {
	pool     repo.Pool
	slots    repo.Slots
	settings repo.Settings
}

// New instantiates a slot registry use case.
func New(p repo.Pool, s repo.Slots, st repo.Settings) *UseCase {
	return &UseCase{pool: p, slots: s, settings: st}
}

// ListSlots returns the slots which match with f, ordered by code.
// Zero fields of f match everything.
func (uc *UseCase) ListSlots(
	ctx context.Context, f model.SlotFilter,
) (ss []model.Slot, err error) {
	if f.Class != model.VehicleTypeInvalid {
		if err = f.Class.Validate(); err != nil {
			return nil, cerr.Validation(err)
		}
	}
	if f.State != model.SlotStateInvalid {
		if err = f.State.Validate(); err != nil {
			return nil, cerr.Validation(err)
		}
	}
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		ss, err = uc.slots.Conn(c).List(ctx, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ss, nil
}

// Availability returns the number of free, occupied, and inactive
// slots of each compatibility class.
func (uc *UseCase) Availability(
	ctx context.Context,
) (as []model.Availability, err error) {
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		as, err = uc.slots.Conn(c).Availability(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return as, nil
}

// CanAddSlot reports if the current number of slots is below the
// configured slot capacity limit. It is advisory; CreateSlot checks
// the limit again while holding its lock.
func (uc *UseCase) CanAddSlot(ctx context.Context) (ok bool, err error) {
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		s, err := uc.settings.Conn(c).Fetch(ctx)
		if err != nil {
			return fmt.Errorf("fetching settings: %w", err)
		}
		n, err := uc.slots.Conn(c).Count(ctx)
		if err != nil {
			return fmt.Errorf("counting slots: %w", err)
		}
		ok = n < int64(s.SlotCapacityLimit)
		return nil
	})
	return ok, err
}

// CreateSlot adds a free slot with the given code and class.
// The code is normalized to upper case and must be unique.
// Creation fails with an error matching model.ErrCapacityReached if
// the slot capacity limit is reached.
func (uc *UseCase) CreateSlot(
	ctx context.Context, actor uuid.UUID, code string, class model.VehicleType,
) (*model.Slot, error) {
	code, err := model.ParseSlotCode(code)
	if err != nil {
		return nil, cerr.Validation(err)
	}
	if err = class.Validate(); err != nil {
		return nil, cerr.Validation(err)
	}
	sl := &model.Slot{Code: code, Class: class, State: model.SlotStateFree}
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			limit, err := uc.settings.Tx(tx).LockCapacityLimit(ctx)
			if err != nil {
				return fmt.Errorf("locking capacity limit: %w", err)
			}
			sq := uc.slots.Tx(tx)
			n, err := sq.Count(ctx)
			if err != nil {
				return fmt.Errorf("counting slots: %w", err)
			}
			if n >= int64(limit) {
				return cerr.Conflict(fmt.Errorf(
					"%d of %d slots: %w", n, limit, model.ErrCapacityReached,
				))
			}
			return sq.Create(ctx, sl)
		})
	})
	if err != nil {
		return nil, err
	}
	log.Info(
		ctx, "slot created",
		log.Actor(actor),
		log.SlotID(sl.ID),
		log.SlotCode(sl.Code),
		log.VehicleType("class", class),
	)
	return sl, nil
}

// lockIdle locks the id slot and ensures that it is not occupied.
func lockIdle(
	ctx context.Context, sq repo.SlotsTxQueryer, id int64,
) (*model.Slot, error) {
	sl, err := sq.LockByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("locking slot: %w", err)
	}
	if sl.State == model.SlotStateOccupied {
		return nil, cerr.Conflict(fmt.Errorf(
			"slot %q: %w", sl.Code, model.ErrSlotOccupied,
		))
	}
	return sl, nil
}

// DeleteSlot removes the id slot unless it is occupied.
// Historical movements of the slot keep its code.
func (uc *UseCase) DeleteSlot(
	ctx context.Context, actor uuid.UUID, id int64,
) error {
	var code string
	err := uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			sq := uc.slots.Tx(tx)
			sl, err := lockIdle(ctx, sq, id)
			if err != nil {
				return err
			}
			code = sl.Code
			return sq.Delete(ctx, id)
		})
	})
	if err != nil {
		return err
	}
	log.Info(
		ctx, "slot deleted",
		log.Actor(actor), log.SlotID(id), log.SlotCode(code),
	)
	return nil
}

// Deactivate takes the id free slot out of service, so it will not
// be assigned to entering vehicles. Deactivating an inactive slot is
// a no-op.
func (uc *UseCase) Deactivate(
	ctx context.Context, actor uuid.UUID, id int64,
) (*model.Slot, error) {
	return uc.setState(ctx, actor, id, model.SlotStateInactive)
}

// Activate brings the id inactive slot back into service.
// Activating a free slot is a no-op.
func (uc *UseCase) Activate(
	ctx context.Context, actor uuid.UUID, id int64,
) (*model.Slot, error) {
	return uc.setState(ctx, actor, id, model.SlotStateFree)
}

func (uc *UseCase) setState(
	ctx context.Context, actor uuid.UUID, id int64, st model.SlotState,
) (sl *model.Slot, err error) {
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			sq := uc.slots.Tx(tx)
			sl, err = lockIdle(ctx, sq, id)
			if err != nil {
				return err
			}
			if sl.State == st {
				return nil
			}
			if err = sq.SetState(ctx, id, st); err != nil {
				return fmt.Errorf("setting state: %w", err)
			}
			sl.State = st
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	log.Info(
		ctx, "slot state changed",
		log.Actor(actor),
		log.SlotID(id),
		log.SlotCode(sl.Code),
		slog.String("state", st.String()),
	)
	return sl, nil
}

// ConvertSlot changes the compatibility class of the id slot.
// Occupied slots may not be converted, and converting a slot to its
// current class fails with an error matching model.ErrSameSlotClass.
func (uc *UseCase) ConvertSlot(
	ctx context.Context, actor uuid.UUID, id int64, class model.VehicleType,
) (sl *model.Slot, err error) {
	if err = class.Validate(); err != nil {
		return nil, cerr.Validation(err)
	}
	var old model.VehicleType
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			sq := uc.slots.Tx(tx)
			sl, err = lockIdle(ctx, sq, id)
			if err != nil {
				return err
			}
			if sl.Class == class {
				return cerr.Conflict(fmt.Errorf(
					"slot %q: %w", sl.Code, model.ErrSameSlotClass,
				))
			}
			if err = sq.SetClass(ctx, id, class); err != nil {
				return fmt.Errorf("setting class: %w", err)
			}
			old, sl.Class = sl.Class, class
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	log.Info(
		ctx, "slot converted",
		log.Actor(actor),
		log.SlotID(id),
		log.SlotCode(sl.Code),
		log.VehicleType("from", old),
		log.VehicleType("to", class),
	)
	return sl, nil
}
