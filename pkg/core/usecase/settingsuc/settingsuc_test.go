// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package settingsuc_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/momeni/parking/internal/test/memrp"
	"github.com/momeni/parking/pkg/core/cerr"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/momeni/parking/pkg/core/usecase/settingsuc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUseCase() (*memrp.Store, *settingsuc.UseCase) {
	store := memrp.New(&model.Settings{
		Billing: model.BillingPolicy{
			RoundingMinutes: 15,
			MinimumHours:    decimal.NewFromInt(1),
		},
		Tariffs: model.Tariffs{
			model.VehicleTypeCar: decimal.NewFromInt(2000),
		},
		SlotCapacityLimit: 50,
	})
	return store, settingsuc.New(store, store.SettingsRepo())
}

func TestUpdateBilling(t *testing.T) {
	ctx := context.Background()
	store, uc := newUseCase()

	s, err := uc.UpdateBilling(ctx, uuid.New(), model.BillingPolicy{
		RoundingMinutes: 30,
		MinimumHours:    decimal.RequireFromString("0.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, 30, s.Billing.RoundingMinutes)
	assert.Equal(t, "0.5", s.Billing.MinimumHours.String())
	assert.Equal(t, 30, store.Settings().Billing.RoundingMinutes)

	for _, bp := range []model.BillingPolicy{
		{RoundingMinutes: 7, MinimumHours: decimal.NewFromInt(1)},
		{RoundingMinutes: 0, MinimumHours: decimal.NewFromInt(1)},
		{RoundingMinutes: 15, MinimumHours: decimal.Zero},
		{RoundingMinutes: 15, MinimumHours: decimal.NewFromInt(-2)},
	} {
		_, err = uc.UpdateBilling(ctx, uuid.New(), bp)
		assert.ErrorIs(t, err, model.ErrInvalidSetting)
		assert.Equal(t, cerr.KindValidation, cerr.KindOf(err))
	}
	assert.Equal(t, 30, store.Settings().Billing.RoundingMinutes)
}

func TestUpdateTariff(t *testing.T) {
	ctx := context.Background()
	store, uc := newUseCase()

	s, err := uc.UpdateTariff(
		ctx, uuid.New(), model.VehicleTypeTruck,
		decimal.RequireFromString("4500.555"),
	)
	require.NoError(t, err)
	rate, err := s.Tariffs.HourlyRate(model.VehicleTypeTruck)
	require.NoError(t, err)
	assert.Equal(t, "4500.56", rate.StringFixed(2))
	assert.Len(t, store.Settings().Tariffs, 2)

	for _, r := range []string{"0", "-1", "0.001"} {
		_, err = uc.UpdateTariff(
			ctx, uuid.New(), model.VehicleTypeCar, decimal.RequireFromString(r),
		)
		assert.ErrorIs(t, err, model.ErrInvalidSetting, "rate %s", r)
	}
	_, err = uc.UpdateTariff(
		ctx, uuid.New(), model.VehicleTypeInvalid, decimal.NewFromInt(1),
	)
	assert.Equal(t, cerr.KindValidation, cerr.KindOf(err))
}

func TestUpdateCapacity(t *testing.T) {
	ctx := context.Background()
	_, uc := newUseCase()

	s, err := uc.UpdateCapacity(ctx, uuid.New(), 1000)
	require.NoError(t, err)
	assert.Equal(t, 1000, s.SlotCapacityLimit)

	for _, limit := range []int{0, -5, 1001} {
		_, err = uc.UpdateCapacity(ctx, uuid.New(), limit)
		assert.ErrorIs(t, err, model.ErrInvalidSetting, "limit %d", limit)
	}
	s, err = uc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1000, s.SlotCapacityLimit)
}

func TestSnapshotMissingSettings(t *testing.T) {
	store := memrp.New(nil)
	uc := settingsuc.New(store, store.SettingsRepo())
	_, err := uc.Snapshot(context.Background())
	assert.Equal(t, cerr.KindConfiguration, cerr.KindOf(err))
}
