// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/momeni/parking/pkg/core/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVehicleType(t *testing.T) {
	for s, want := range map[string]model.VehicleType{
		"motorcycle": model.VehicleTypeMotorcycle,
		" Car ":      model.VehicleTypeCar,
		"TRUCK":      model.VehicleTypeTruck,
	} {
		vt, err := model.ParseVehicleType(s)
		require.NoError(t, err, "parsing %q", s)
		assert.Equal(t, want, vt, "parsing %q", s)
		b, err := vt.MarshalText()
		require.NoError(t, err)
		var back model.VehicleType
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, vt, back)
	}
	vt, err := model.ParseVehicleType("bus")
	assert.ErrorIs(t, err, model.ErrUnknownVehicleType)
	assert.Equal(t, model.VehicleTypeInvalid, vt)

	var vte model.VehicleTypeError
	assert.True(t, errors.As(model.VehicleType(42).Validate(), &vte))
	assert.Panics(t, func() { _ = model.VehicleTypeInvalid.String() })
}

func TestParseSlotState(t *testing.T) {
	st, err := model.ParseSlotState("Inactive")
	require.NoError(t, err)
	assert.Equal(t, model.SlotStateInactive, st)
	_, err = model.ParseSlotState("reserved")
	assert.ErrorIs(t, err, model.ErrUnknownSlotState)
}

func TestParsePlate(t *testing.T) {
	p, err := model.ParsePlate("  abc123 ")
	require.NoError(t, err)
	assert.Equal(t, "ABC123", p)

	for _, bad := range []string{"", "abc", "ABC-123", "ABCDEFGHI", "ab 12"} {
		_, err := model.ParsePlate(bad)
		assert.ErrorIs(t, err, model.ErrInvalidPlate, "plate %q", bad)
	}
}

func TestParseSlotCode(t *testing.T) {
	c, err := model.ParseSlotCode(" m1")
	require.NoError(t, err)
	assert.Equal(t, "M1", c)
	_, err = model.ParseSlotCode("M-1")
	assert.ErrorIs(t, err, model.ErrInvalidSlotCode)
}

func TestParseColor(t *testing.T) {
	c, err := model.ParseColor(nil)
	require.NoError(t, err)
	assert.Nil(t, c)
	blank := "   "
	c, err = model.ParseColor(&blank)
	require.NoError(t, err)
	assert.Nil(t, c)
	red := " red "
	c, err = model.ParseColor(&red)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "red", *c)
}

func TestNewElapsed(t *testing.T) {
	e := model.NewElapsed(2*time.Hour + 5*time.Minute + 59*time.Second)
	assert.Equal(t, model.Elapsed{Hours: 2, Minutes: 5}, e)
	assert.Equal(t, "2h 5m", e.String())
	assert.Equal(t, model.Elapsed{}, model.NewElapsed(-time.Minute))
}

func TestBillingPolicyValidate(t *testing.T) {
	ok := model.BillingPolicy{
		RoundingMinutes: 15, MinimumHours: decimal.NewFromInt(1),
	}
	assert.NoError(t, ok.Validate())

	bad := ok
	bad.RoundingMinutes = 7
	assert.ErrorIs(t, bad.Validate(), model.ErrInvalidSetting)

	bad = ok
	bad.MinimumHours = decimal.Zero
	assert.ErrorIs(t, bad.Validate(), model.ErrInvalidSetting)

	assert.NoError(t, model.ValidateCapacityLimit(1000))
	assert.ErrorIs(
		t, model.ValidateCapacityLimit(0), model.ErrInvalidSetting,
	)
}

func TestTariffsHourlyRate(t *testing.T) {
	tr := model.Tariffs{
		model.VehicleTypeCar:   decimal.NewFromInt(2000),
		model.VehicleTypeTruck: decimal.Zero,
	}
	r, err := tr.HourlyRate(model.VehicleTypeCar)
	require.NoError(t, err)
	assert.True(t, r.Equal(decimal.NewFromInt(2000)))

	_, err = tr.HourlyRate(model.VehicleTypeMotorcycle)
	assert.ErrorIs(t, err, model.ErrMissingTariff)
	_, err = tr.HourlyRate(model.VehicleTypeTruck)
	assert.ErrorIs(t, err, model.ErrMissingTariff)
}

func TestNoSlotAvailableError(t *testing.T) {
	err := error(model.NoSlotAvailableError(model.VehicleTypeTruck))
	assert.ErrorIs(t, err, model.ErrNoSlotAvailable)
	assert.Equal(t, "no slot available for truck", err.Error())
}

func TestSettingsValidate(t *testing.T) {
	s := &model.Settings{
		Billing: model.BillingPolicy{
			RoundingMinutes: 30, MinimumHours: decimal.NewFromInt(2),
		},
		Tariffs: model.Tariffs{
			model.VehicleTypeMotorcycle: decimal.NewFromInt(4),
			model.VehicleTypeCar:        decimal.NewFromInt(8),
			model.VehicleTypeTruck:      decimal.NewFromInt(16),
		},
		SlotCapacityLimit: 200,
	}
	require.NoError(t, s.Validate())

	s.SlotCapacityLimit = 1001
	assert.ErrorIs(t, s.Validate(), model.ErrInvalidSetting)
	s.SlotCapacityLimit = 200

	delete(s.Tariffs, model.VehicleTypeTruck)
	assert.ErrorIs(t, s.Validate(), model.ErrMissingTariff)
	s.Tariffs[model.VehicleTypeTruck] = decimal.NewFromInt(16)

	s.Billing.RoundingMinutes = 0
	assert.ErrorIs(t, s.Validate(), model.ErrInvalidSetting)

	assert.NoError(t, model.ValidateRate(decimal.RequireFromString("0.01")))
	assert.ErrorIs(
		t, model.ValidateRate(decimal.NewFromInt(-1)), model.ErrInvalidSetting,
	)
}
