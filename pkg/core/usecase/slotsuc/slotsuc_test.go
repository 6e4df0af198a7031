// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package slotsuc_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/momeni/parking/internal/test/memrp"
	"github.com/momeni/parking/pkg/core/cerr"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/momeni/parking/pkg/core/usecase/slotsuc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUseCase(limit int) (*memrp.Store, *slotsuc.UseCase) {
	store := memrp.New(&model.Settings{
		Billing: model.BillingPolicy{
			RoundingMinutes: 15,
			MinimumHours:    decimal.NewFromInt(1),
		},
		Tariffs:           model.Tariffs{},
		SlotCapacityLimit: limit,
	})
	uc := slotsuc.New(store, store.SlotsRepo(), store.SettingsRepo())
	return store, uc
}

func TestCreateSlotRespectsCapacity(t *testing.T) {
	ctx := context.Background()
	actor := uuid.New()
	_, uc := newUseCase(2)

	ok, err := uc.CanAddSlot(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	sl, err := uc.CreateSlot(ctx, actor, " c1 ", model.VehicleTypeCar)
	require.NoError(t, err)
	assert.Equal(t, "C1", sl.Code)
	assert.Equal(t, model.SlotStateFree, sl.State)
	assert.NotZero(t, sl.ID)

	_, err = uc.CreateSlot(ctx, actor, "C1", model.VehicleTypeTruck)
	assert.ErrorIs(t, err, model.ErrDuplicateSlotCode)
	assert.Equal(t, cerr.KindConflict, cerr.KindOf(err))

	_, err = uc.CreateSlot(ctx, actor, "M1", model.VehicleTypeMotorcycle)
	require.NoError(t, err)

	ok, err = uc.CanAddSlot(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = uc.CreateSlot(ctx, actor, "T1", model.VehicleTypeTruck)
	assert.ErrorIs(t, err, model.ErrCapacityReached)
	assert.Equal(t, cerr.KindConflict, cerr.KindOf(err))
}

func TestCreateSlotValidation(t *testing.T) {
	ctx := context.Background()
	store, uc := newUseCase(10)
	for _, code := range []string{"", "A-1", "ABCDEFGHIJKLMNOPQRSTU"} {
		_, err := uc.CreateSlot(ctx, uuid.New(), code, model.VehicleTypeCar)
		assert.ErrorIs(t, err, model.ErrInvalidSlotCode, "code %q", code)
		assert.Equal(t, cerr.KindValidation, cerr.KindOf(err))
	}
	_, err := uc.CreateSlot(ctx, uuid.New(), "X1", model.VehicleTypeInvalid)
	assert.Equal(t, cerr.KindValidation, cerr.KindOf(err))
	assert.Zero(t, store.TxCount())
}

func TestSlotStateChanges(t *testing.T) {
	ctx := context.Background()
	actor := uuid.New()
	store, uc := newUseCase(10)
	ss := store.AddSlots(model.VehicleTypeCar, "C1", "C2")

	sl, err := uc.Deactivate(ctx, actor, ss[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStateInactive, sl.State)
	sl, err = uc.Deactivate(ctx, actor, ss[0].ID)
	require.NoError(t, err, "deactivation is idempotent")
	assert.Equal(t, model.SlotStateInactive, sl.State)

	as, err := uc.Availability(ctx)
	require.NoError(t, err)
	for _, a := range as {
		if a.Class == model.VehicleTypeCar {
			assert.Equal(t, model.Availability{
				Class: model.VehicleTypeCar, Free: 1, Inactive: 1,
			}, a)
			assert.EqualValues(t, 2, a.Total())
		}
	}

	sl, err = uc.Activate(ctx, actor, ss[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStateFree, sl.State)

	require.True(t, store.SetSlotState(ss[1].ID, model.SlotStateOccupied))
	_, err = uc.Deactivate(ctx, actor, ss[1].ID)
	assert.ErrorIs(t, err, model.ErrSlotOccupied)
	_, err = uc.Activate(ctx, actor, ss[1].ID)
	assert.ErrorIs(t, err, model.ErrSlotOccupied)
	got, _ := store.Slot(ss[1].ID)
	assert.Equal(t, model.SlotStateOccupied, got.State)

	_, err = uc.Activate(ctx, actor, 404)
	assert.ErrorIs(t, err, model.ErrSlotNotFound)
	assert.Equal(t, cerr.KindNotFound, cerr.KindOf(err))
}

func TestConvertSlot(t *testing.T) {
	ctx := context.Background()
	actor := uuid.New()
	store, uc := newUseCase(10)
	ss := store.AddSlots(model.VehicleTypeCar, "C1", "C2")

	sl, err := uc.ConvertSlot(ctx, actor, ss[0].ID, model.VehicleTypeTruck)
	require.NoError(t, err)
	assert.Equal(t, model.VehicleTypeTruck, sl.Class)

	_, err = uc.ConvertSlot(ctx, actor, ss[0].ID, model.VehicleTypeTruck)
	assert.ErrorIs(t, err, model.ErrSameSlotClass)

	require.True(t, store.SetSlotState(ss[1].ID, model.SlotStateOccupied))
	_, err = uc.ConvertSlot(ctx, actor, ss[1].ID, model.VehicleTypeMotorcycle)
	assert.ErrorIs(t, err, model.ErrSlotOccupied)

	_, err = uc.ConvertSlot(ctx, actor, ss[1].ID, model.VehicleTypeInvalid)
	assert.Equal(t, cerr.KindValidation, cerr.KindOf(err))
}

func TestDeleteSlot(t *testing.T) {
	ctx := context.Background()
	actor := uuid.New()
	store, uc := newUseCase(10)
	ss := store.AddSlots(model.VehicleTypeMotorcycle, "M1", "M2")

	require.NoError(t, uc.DeleteSlot(ctx, actor, ss[0].ID))
	_, ok := store.Slot(ss[0].ID)
	assert.False(t, ok)
	err := uc.DeleteSlot(ctx, actor, ss[0].ID)
	assert.ErrorIs(t, err, model.ErrSlotNotFound)

	require.True(t, store.SetSlotState(ss[1].ID, model.SlotStateOccupied))
	err = uc.DeleteSlot(ctx, actor, ss[1].ID)
	assert.ErrorIs(t, err, model.ErrSlotOccupied)
	_, ok = store.Slot(ss[1].ID)
	assert.True(t, ok)
}

func TestListSlots(t *testing.T) {
	ctx := context.Background()
	store, uc := newUseCase(10)
	store.AddSlots(model.VehicleTypeCar, "C2", "C1")
	ms := store.AddSlots(model.VehicleTypeMotorcycle, "M1")
	require.True(t, store.SetSlotState(ms[0].ID, model.SlotStateInactive))

	ss, err := uc.ListSlots(ctx, model.SlotFilter{})
	require.NoError(t, err)
	require.Len(t, ss, 3)
	assert.Equal(t, "C1", ss[0].Code)

	ss, err = uc.ListSlots(ctx, model.SlotFilter{Class: model.VehicleTypeCar})
	require.NoError(t, err)
	assert.Len(t, ss, 2)

	ss, err = uc.ListSlots(ctx, model.SlotFilter{State: model.SlotStateInactive})
	require.NoError(t, err)
	require.Len(t, ss, 1)
	assert.Equal(t, "M1", ss[0].Code)

	_, err = uc.ListSlots(ctx, model.SlotFilter{State: model.SlotState(42)})
	assert.Equal(t, cerr.KindValidation, cerr.KindOf(err))
}

func TestCanAddSlotMissingSettings(t *testing.T) {
	store := memrp.New(nil)
	uc := slotsuc.New(store, store.SlotsRepo(), store.SettingsRepo())
	_, err := uc.CanAddSlot(context.Background())
	assert.ErrorIs(t, err, model.ErrMissingSetting)
	assert.Equal(t, cerr.KindConfiguration, cerr.KindOf(err))
}
