// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package slotsrp

import (
	"context"
	"fmt"

	"github.com/momeni/parking/pkg/adapter/db/postgres"
	"github.com/momeni/parking/pkg/adapter/db/postgres/migration"
	"github.com/momeni/parking/pkg/core/cerr"
	"github.com/momeni/parking/pkg/core/model"
	"gorm.io/gorm/clause"
)

type gSlot struct {
	ID    int64 `gorm:"primaryKey"`
	Code  string
	Class string
	State string
}

func (gs *gSlot) TableName() string {
	return "slots"
}

func (gs *gSlot) Model() (*model.Slot, error) {
	class, err := model.ParseVehicleType(gs.Class)
	if err != nil {
		return nil, fmt.Errorf("slot %d class %q: %w", gs.ID, gs.Class, err)
	}
	st, err := model.ParseSlotState(gs.State)
	if err != nil {
		return nil, fmt.Errorf("slot %d state %q: %w", gs.ID, gs.State, err)
	}
	return &model.Slot{ID: gs.ID, Code: gs.Code, Class: class, State: st}, nil
}

func models(gss []gSlot) ([]model.Slot, error) {
	slots := make([]model.Slot, 0, len(gss))
	for i := range gss {
		s, err := gss[i].Model()
		if err != nil {
			return nil, err
		}
		slots = append(slots, *s)
	}
	return slots, nil
}

func notFound(id int64) error {
	return cerr.NotFound(fmt.Errorf("slot %d: %w", id, model.ErrSlotNotFound))
}

// Get returns the id slot.
func Get[Q postgres.Queryer](
	ctx context.Context, q Q, id int64,
) (*model.Slot, error) {
	var gss []gSlot
	if err := q.GORM(ctx).Where("id = ?", id).Limit(1).Find(&gss).Error; err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	if len(gss) == 0 {
		return nil, notFound(id)
	}
	return gss[0].Model()
}

// GetByCode returns the slot which has the normalized code.
func GetByCode[Q postgres.Queryer](
	ctx context.Context, q Q, code string,
) (*model.Slot, error) {
	var gss []gSlot
	if err := q.GORM(ctx).Where("code = ?", code).Limit(1).Find(&gss).Error; err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	if len(gss) == 0 {
		return nil, cerr.NotFound(
			fmt.Errorf("slot %q: %w", code, model.ErrSlotNotFound),
		)
	}
	return gss[0].Model()
}

// List returns the slots which match f, ordered by their IDs.
func List[Q postgres.Queryer](
	ctx context.Context, q Q, f model.SlotFilter,
) ([]model.Slot, error) {
	gdb := q.GORM(ctx).Order("id")
	if f.Class != model.VehicleTypeInvalid {
		gdb = gdb.Where("class = ?", f.Class.String())
	}
	if f.State != model.SlotStateInvalid {
		gdb = gdb.Where("state = ?", f.State.String())
	}
	var gss []gSlot
	if err := gdb.Find(&gss).Error; err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return models(gss)
}

// Count returns the number of all slots.
func Count[Q postgres.Queryer](ctx context.Context, q Q) (int64, error) {
	var n int64
	if err := q.GORM(ctx).Model(&gSlot{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("query: %w", err)
	}
	return n, nil
}

// Availability counts slots per class and state.
func Availability[Q postgres.Queryer](
	ctx context.Context, q Q,
) ([]model.Availability, error) {
	var counts []struct {
		Class string
		State string
		N     int64
	}
	err := q.GORM(ctx).Model(&gSlot{}).Select(
		"class, state, count(*) AS n",
	).Group("class, state").Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	byClass := make(map[model.VehicleType]*model.Availability)
	var avs []model.Availability
	for _, vt := range model.VehicleTypes() {
		avs = append(avs, model.Availability{Class: vt})
	}
	for i := range avs {
		byClass[avs[i].Class] = &avs[i]
	}
	for _, c := range counts {
		vt, err := model.ParseVehicleType(c.Class)
		if err != nil {
			return nil, fmt.Errorf("class %q: %w", c.Class, err)
		}
		a := byClass[vt]
		switch st, _ := model.ParseSlotState(c.State); st {
		case model.SlotStateFree:
			a.Free = c.N
		case model.SlotStateOccupied:
			a.Occupied = c.N
		case model.SlotStateInactive:
			a.Inactive = c.N
		default:
			return nil, fmt.Errorf("unknown slot state %q", c.State)
		}
	}
	return avs, nil
}

// LockFirstFree locks the free slot of class with the smallest ID.
// Slots which are locked by concurrent transactions are skipped, so
// two entries never wait for the same slot. Otherwise, the waiting
// transaction would find the slot occupied after the lock release and
// LIMIT 1 would return no row even if other free slots exist.
func LockFirstFree(
	ctx context.Context, tx *postgres.Tx, class model.VehicleType,
) (*model.Slot, error) {
	var gss []gSlot
	err := tx.GORM(ctx).Clauses(
		clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"},
	).Where(
		"class = ? AND state = ?", class.String(), model.SlotStateFree.String(),
	).Order("id").Limit(1).Find(&gss).Error
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	if len(gss) == 0 {
		return nil, nil
	}
	return gss[0].Model()
}

// LockByID locks and returns the id slot.
func LockByID(
	ctx context.Context, tx *postgres.Tx, id int64,
) (*model.Slot, error) {
	var gss []gSlot
	err := tx.GORM(ctx).Clauses(
		clause.Locking{Strength: "UPDATE"},
	).Where("id = ?", id).Limit(1).Find(&gss).Error
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	if len(gss) == 0 {
		return nil, notFound(id)
	}
	return gss[0].Model()
}

// SetState changes the state of the id slot.
func SetState(
	ctx context.Context, tx *postgres.Tx, id int64, st model.SlotState,
) error {
	res := tx.GORM(ctx).Model(&gSlot{}).Where("id = ?", id).Update(
		"state", st.String(),
	)
	if err := res.Error; err != nil {
		return fmt.Errorf("query: %w", err)
	}
	if res.RowsAffected != 1 {
		return notFound(id)
	}
	return nil
}

// SetClass changes the compatibility class of the id slot.
func SetClass(
	ctx context.Context, tx *postgres.Tx, id int64, class model.VehicleType,
) error {
	res := tx.GORM(ctx).Model(&gSlot{}).Where("id = ?", id).Update(
		"class", class.String(),
	)
	if err := res.Error; err != nil {
		return fmt.Errorf("query: %w", err)
	}
	if res.RowsAffected != 1 {
		return notFound(id)
	}
	return nil
}

// Create inserts s and fills its ID.
func Create(ctx context.Context, tx *postgres.Tx, s *model.Slot) error {
	gs := gSlot{Code: s.Code, Class: s.Class.String(), State: s.State.String()}
	if err := tx.GORM(ctx).Create(&gs).Error; err != nil {
		if postgres.IsUniqueViolation(err, migration.SlotsCodeKey) {
			return cerr.Conflict(fmt.Errorf(
				"slot %q: %w", s.Code, model.ErrDuplicateSlotCode,
			))
		}
		return fmt.Errorf("query: %w", err)
	}
	s.ID = gs.ID
	return nil
}

// Delete removes the id slot.
func Delete(ctx context.Context, tx *postgres.Tx, id int64) error {
	res := tx.GORM(ctx).Where("id = ?", id).Delete(&gSlot{})
	if err := res.Error; err != nil {
		return fmt.Errorf("query: %w", err)
	}
	if res.RowsAffected != 1 {
		return notFound(id)
	}
	return nil
}
