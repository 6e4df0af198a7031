// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package ledgeruc_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parking/internal/test/memrp"
	"github.com/momeni/parking/pkg/core/cerr"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/momeni/parking/pkg/core/usecase/ledgeruc"
	"github.com/momeni/parking/pkg/core/usecase/parkinguc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger(t *testing.T) {
	ctx := context.Background()
	actor := uuid.New()
	now := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	store := memrp.New(&model.Settings{
		Billing: model.BillingPolicy{
			RoundingMinutes: 60,
			MinimumHours:    decimal.NewFromInt(1),
		},
		Tariffs: model.Tariffs{
			model.VehicleTypeCar: decimal.RequireFromString("12.50"),
		},
		SlotCapacityLimit: 10,
	})
	slots := store.AddSlots(model.VehicleTypeCar, "C1", "C2", "C3")
	puc, err := parkinguc.New(
		store, store.SlotsRepo(), store.MovementsRepo(),
		store.SettingsRepo(),
		parkinguc.WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)
	uc := ledgeruc.New(store, store.MovementsRepo())

	var ids []int64
	for _, p := range []string{"AAA111", "BBB222", "CCC333"} {
		r, err := puc.RegisterEntry(ctx, actor, model.VehicleTypeCar, p, nil)
		require.NoError(t, err)
		ids = append(ids, r.MovementID)
		now = now.Add(10 * time.Minute)
	}

	active, err := uc.ActiveMovements(ctx)
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, "CCC333", active[0].Plate, "newest entry first")

	now = now.Add(2 * time.Hour)
	_, err = puc.RegisterExit(ctx, actor, ids[0])
	require.NoError(t, err)
	now = now.Add(time.Minute)
	_, err = puc.RegisterExit(ctx, actor, ids[1])
	require.NoError(t, err)
	now = now.Add(time.Minute)
	_, err = puc.ForceRelease(ctx, actor, slots[2].ID)
	require.NoError(t, err)

	active, err = uc.ActiveMovements(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	recent, err := uc.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "CCC333", recent[0].Plate)
	assert.Equal(t, "BBB222", recent[1].Plate)

	m, err := uc.Movement(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "37.50", m.Fee.StringFixed(2))

	from := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	sum, err := uc.Summary(ctx, from, from.Add(24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 3, sum.Exits)
	assert.EqualValues(t, 1, sum.Forced)
	assert.Equal(t, "75.00", sum.Revenue.StringFixed(2))

	sum, err = uc.Summary(ctx, from.Add(24*time.Hour), from.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, sum.Exits)
	assert.True(t, sum.Revenue.IsZero())
}

func TestLedgerValidation(t *testing.T) {
	ctx := context.Background()
	store := memrp.New(nil)
	uc := ledgeruc.New(store, store.MovementsRepo())

	for _, limit := range []int{0, -1, ledgeruc.MaxRecent + 1} {
		_, err := uc.Recent(ctx, limit)
		assert.Equal(t, cerr.KindValidation, cerr.KindOf(err), "limit %d", limit)
	}
	now := time.Now()
	_, err := uc.Summary(ctx, now, now)
	assert.ErrorIs(t, err, ledgeruc.ErrInvalidRange)
	_, err = uc.Movement(ctx, 7)
	assert.ErrorIs(t, err, model.ErrMovementNotFound)
}
