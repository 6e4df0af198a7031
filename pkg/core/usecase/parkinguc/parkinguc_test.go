// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package parkinguc_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parking/internal/test/memrp"
	"github.com/momeni/parking/pkg/core/cerr"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/momeni/parking/pkg/core/usecase/parkinguc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func settings() *model.Settings {
	return &model.Settings{
		Billing: model.BillingPolicy{
			RoundingMinutes: 15,
			MinimumHours:    decimal.NewFromInt(1),
		},
		Tariffs: model.Tariffs{
			model.VehicleTypeMotorcycle: decimal.NewFromInt(1000),
			model.VehicleTypeCar:        decimal.NewFromInt(2000),
			model.VehicleTypeTruck:      decimal.NewFromInt(4000),
		},
		SlotCapacityLimit: 100,
	}
}

type recorder struct {
	mu        sync.Mutex
	entries   int
	fallbacks int
	exits     int
	retries   int
}

func (r *recorder) Entry(_ model.VehicleType, fallback bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		r.entries++
		if fallback {
			r.fallbacks++
		}
	}
}

func (r *recorder) Exit(model.VehicleType, decimal.Decimal, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exits++
}

func (r *recorder) Retry(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retries++
}

type fixture struct {
	store *memrp.Store
	clk   *clock
	rec   *recorder
	uc    *parkinguc.UseCase
	actor uuid.UUID
}

func newFixture(t *testing.T, s *model.Settings, opts ...parkinguc.Option) *fixture {
	t.Helper()
	f := &fixture{
		store: memrp.New(s),
		clk:   &clock{t: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)},
		rec:   &recorder{},
		actor: uuid.New(),
	}
	opts = append([]parkinguc.Option{
		parkinguc.WithClock(f.clk.Now),
		parkinguc.WithRecorder(f.rec),
		parkinguc.WithRetryDelay(time.Millisecond),
	}, opts...)
	uc, err := parkinguc.New(
		f.store, f.store.SlotsRepo(), f.store.MovementsRepo(),
		f.store.SettingsRepo(), opts...,
	)
	require.NoError(t, err, "failed to create parking use case")
	f.uc = uc
	return f
}

func (f *fixture) enter(vt model.VehicleType, plate string) (*model.EntryReceipt, error) {
	return f.uc.RegisterEntry(context.Background(), f.actor, vt, plate, nil)
}

func TestRegisterEntryPicksExactClass(t *testing.T) {
	f := newFixture(t, settings())
	f.store.AddSlots(model.VehicleTypeMotorcycle, "M1")
	cars := f.store.AddSlots(model.VehicleTypeCar, "C1", "C2")

	color := "  red "
	r, err := f.uc.RegisterEntry(
		context.Background(), f.actor, model.VehicleTypeCar, " ab123cd ", &color,
	)
	require.NoError(t, err)
	assert.Equal(t, cars[0].ID, r.SlotID)
	assert.Equal(t, "C1", r.SlotCode)
	assert.Equal(t, "AB123CD", r.Plate)
	assert.False(t, r.Fallback)
	assert.Equal(t, f.clk.Now(), r.EntryTime)

	sl, ok := f.store.Slot(cars[0].ID)
	require.True(t, ok)
	assert.Equal(t, model.SlotStateOccupied, sl.State)

	ms := f.store.Movements()
	require.Len(t, ms, 1)
	assert.Equal(t, r.MovementID, ms[0].ID)
	assert.Equal(t, f.actor, ms[0].CreatedBy)
	require.NotNil(t, ms[0].Color)
	assert.Equal(t, "red", *ms[0].Color)
	assert.True(t, ms[0].Active())
}

func TestRegisterEntryFallback(t *testing.T) {
	f := newFixture(t, settings())
	f.store.AddSlots(model.VehicleTypeMotorcycle, "M1")
	f.store.AddSlots(model.VehicleTypeCar, "C1")

	r, err := f.enter(model.VehicleTypeMotorcycle, "MOTO1")
	require.NoError(t, err)
	assert.Equal(t, "M1", r.SlotCode)
	assert.False(t, r.Fallback)

	r, err = f.enter(model.VehicleTypeMotorcycle, "MOTO2")
	require.NoError(t, err)
	assert.Equal(t, "C1", r.SlotCode)
	assert.Equal(t, model.VehicleTypeCar, r.SlotClass)
	assert.True(t, r.Fallback)
	assert.Equal(t, 1, f.rec.fallbacks)

	_, err = f.enter(model.VehicleTypeMotorcycle, "MOTO3")
	assert.ErrorIs(t, err, model.ErrNoSlotAvailable)
	assert.Equal(t, cerr.KindConflict, cerr.KindOf(err))
	assert.Len(t, f.store.Movements(), 2)
}

func TestRegisterEntryNoFallbackForLargerVehicles(t *testing.T) {
	f := newFixture(t, settings())
	f.store.AddSlots(model.VehicleTypeMotorcycle, "M1")
	f.store.AddSlots(model.VehicleTypeCar, "C1")

	_, err := f.enter(model.VehicleTypeTruck, "TRUCK1")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNoSlotAvailable)
	assert.ErrorContains(t, err, "no slot available for truck")

	_, err = f.enter(model.VehicleTypeCar, "CAR1")
	require.NoError(t, err)
	_, err = f.enter(model.VehicleTypeCar, "CAR2")
	assert.ErrorIs(t, err, model.ErrNoSlotAvailable)
}

func TestRegisterEntryConfigurableFallbacks(t *testing.T) {
	f := newFixture(t, settings(), parkinguc.WithFallbacks(
		map[model.VehicleType][]model.VehicleType{
			model.VehicleTypeMotorcycle: {
				model.VehicleTypeCar, model.VehicleTypeTruck,
			},
		},
	))
	f.store.AddSlots(model.VehicleTypeTruck, "T1")

	r, err := f.enter(model.VehicleTypeMotorcycle, "MOTO1")
	require.NoError(t, err)
	assert.Equal(t, "T1", r.SlotCode)
	assert.True(t, r.Fallback)
}

func TestRegisterEntryIgnoresInactiveSlots(t *testing.T) {
	f := newFixture(t, settings())
	cars := f.store.AddSlots(model.VehicleTypeCar, "C1", "C2")
	require.True(t, f.store.SetSlotState(cars[0].ID, model.SlotStateInactive))

	r, err := f.enter(model.VehicleTypeCar, "CAR1")
	require.NoError(t, err)
	assert.Equal(t, "C2", r.SlotCode)
}

func TestRegisterEntryDuplicatePlate(t *testing.T) {
	f := newFixture(t, settings())
	f.store.AddSlots(model.VehicleTypeCar, "C1", "C2")

	_, err := f.enter(model.VehicleTypeCar, "DUP123")
	require.NoError(t, err)
	_, err = f.enter(model.VehicleTypeCar, "dup123")
	assert.ErrorIs(t, err, model.ErrDuplicateActiveEntry)
	assert.Equal(t, cerr.KindConflict, cerr.KindOf(err))
	assert.Len(t, f.store.Movements(), 1)

	sl, ok := f.store.Slot(2)
	require.True(t, ok)
	assert.Equal(t, model.SlotStateFree, sl.State, "rolled back slot")
}

func TestRegisterEntryValidation(t *testing.T) {
	f := newFixture(t, settings())
	f.store.AddSlots(model.VehicleTypeCar, "C1")
	long := "a very long color name which exceeds thirty runes"
	for _, tc := range []struct {
		name  string
		actor uuid.UUID
		vt    model.VehicleType
		plate string
		color *string
		err   error
	}{
		{"no actor", uuid.Nil, model.VehicleTypeCar, "ABC123", nil, model.ErrMissingActor},
		{"short plate", f.actor, model.VehicleTypeCar, "AB1", nil, model.ErrInvalidPlate},
		{"symbol plate", f.actor, model.VehicleTypeCar, "AB-123", nil, model.ErrInvalidPlate},
		{"long color", f.actor, model.VehicleTypeCar, "ABC123", &long, model.ErrInvalidColor},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.RegisterEntry(
				context.Background(), tc.actor, tc.vt, tc.plate, tc.color,
			)
			assert.ErrorIs(t, err, tc.err)
			assert.Equal(t, cerr.KindValidation, cerr.KindOf(err))
		})
	}
	_, err := f.uc.RegisterEntry(
		context.Background(), f.actor, model.VehicleTypeInvalid, "ABC123", nil,
	)
	var vte model.VehicleTypeError
	assert.ErrorAs(t, err, &vte)
	assert.Equal(t, cerr.KindValidation, cerr.KindOf(err))
	assert.Zero(t, f.store.TxCount(), "validation must precede the tx")
}

func TestRegisterExitComputesFee(t *testing.T) {
	f := newFixture(t, settings())
	cars := f.store.AddSlots(model.VehicleTypeCar, "C1")

	in, err := f.enter(model.VehicleTypeCar, "CAR123")
	require.NoError(t, err)
	f.clk.Advance(80*time.Minute + 20*time.Second)

	out, err := f.uc.RegisterExit(context.Background(), f.actor, in.MovementID)
	require.NoError(t, err)
	assert.Equal(t, "3000.00", out.Fee.StringFixed(2))
	assert.Equal(t, model.Elapsed{Hours: 1, Minutes: 20}, out.Elapsed)
	assert.Equal(t, "1h 20m", out.Elapsed.String())
	assert.Equal(t, "CAR123", out.Plate)
	assert.Equal(t, in.EntryTime, out.EntryTime)
	assert.Equal(t, f.clk.Now(), out.ExitTime)

	sl, _ := f.store.Slot(cars[0].ID)
	assert.Equal(t, model.SlotStateFree, sl.State)
	ms := f.store.Movements()
	require.Len(t, ms, 1)
	require.NotNil(t, ms[0].Fee)
	assert.True(t, out.Fee.Equal(*ms[0].Fee))
	require.NotNil(t, ms[0].ClosedBy)
	assert.Equal(t, f.actor, *ms[0].ClosedBy)
	assert.False(t, ms[0].ForcedRelease)

	_, err = f.uc.RegisterExit(context.Background(), f.actor, in.MovementID)
	assert.ErrorIs(t, err, model.ErrAlreadyExited)
	assert.Equal(t, cerr.KindConflict, cerr.KindOf(err))
	ms = f.store.Movements()
	assert.True(t, out.Fee.Equal(*ms[0].Fee), "fee must not change")
}

func TestRegisterExitMinimumHours(t *testing.T) {
	f := newFixture(t, settings())
	f.store.AddSlots(model.VehicleTypeMotorcycle, "M1")

	in, err := f.enter(model.VehicleTypeMotorcycle, "MOTO1")
	require.NoError(t, err)
	out, err := f.uc.RegisterExit(context.Background(), f.actor, in.MovementID)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", out.Fee.StringFixed(2))
	assert.Equal(t, model.Elapsed{}, out.Elapsed)
}

func TestRegisterExitBillsByVehicleTypeOnFallback(t *testing.T) {
	f := newFixture(t, settings())
	f.store.AddSlots(model.VehicleTypeCar, "C1")

	in, err := f.enter(model.VehicleTypeMotorcycle, "MOTO1")
	require.NoError(t, err)
	require.True(t, in.Fallback)
	f.clk.Advance(2 * time.Hour)
	out, err := f.uc.RegisterExit(context.Background(), f.actor, in.MovementID)
	require.NoError(t, err)
	assert.Equal(t, "2000.00", out.Fee.StringFixed(2), "motorcycle rate")
}

func TestRegisterExitMissingTariff(t *testing.T) {
	s := settings()
	delete(s.Tariffs, model.VehicleTypeCar)
	f := newFixture(t, s)
	f.store.AddSlots(model.VehicleTypeCar, "C1")

	in, err := f.enter(model.VehicleTypeCar, "CAR123")
	require.NoError(t, err)
	_, err = f.uc.RegisterExit(context.Background(), f.actor, in.MovementID)
	assert.ErrorIs(t, err, model.ErrMissingTariff)
	assert.Equal(t, cerr.KindConfiguration, cerr.KindOf(err))

	ms := f.store.Movements()
	require.Len(t, ms, 1)
	assert.True(t, ms[0].Active(), "movement must stay open")
	sl, _ := f.store.Slot(1)
	assert.Equal(t, model.SlotStateOccupied, sl.State)
}

func TestRegisterExitMissingMovement(t *testing.T) {
	f := newFixture(t, settings())
	for _, id := range []int64{0, -1, 42} {
		_, err := f.uc.RegisterExit(context.Background(), f.actor, id)
		assert.ErrorIs(t, err, model.ErrMovementNotFound)
		assert.Equal(t, cerr.KindNotFound, cerr.KindOf(err))
	}
}

func TestForceRelease(t *testing.T) {
	f := newFixture(t, settings())
	cars := f.store.AddSlots(model.VehicleTypeCar, "C1", "C2")

	in, err := f.enter(model.VehicleTypeCar, "CAR123")
	require.NoError(t, err)
	f.clk.Advance(3 * time.Hour)
	admin := uuid.New()

	m, err := f.uc.ForceRelease(context.Background(), admin, cars[0].ID)
	require.NoError(t, err)
	assert.Equal(t, in.MovementID, m.ID)
	assert.True(t, m.ForcedRelease)
	require.NotNil(t, m.Fee)
	assert.True(t, m.Fee.IsZero())

	ms := f.store.Movements()
	require.Len(t, ms, 1)
	assert.False(t, ms[0].Active())
	assert.True(t, ms[0].Fee.IsZero())
	assert.Equal(t, admin, *ms[0].ClosedBy)
	sl, _ := f.store.Slot(cars[0].ID)
	assert.Equal(t, model.SlotStateFree, sl.State)

	_, err = f.uc.ForceRelease(context.Background(), admin, cars[1].ID)
	assert.ErrorIs(t, err, model.ErrNoActiveMovement)
	assert.Equal(t, cerr.KindConflict, cerr.KindOf(err))

	_, err = f.uc.ForceRelease(context.Background(), admin, 99)
	assert.ErrorIs(t, err, model.ErrSlotNotFound)
	assert.Equal(t, cerr.KindNotFound, cerr.KindOf(err))

	_, err = f.uc.RegisterExit(context.Background(), f.actor, in.MovementID)
	assert.ErrorIs(t, err, model.ErrAlreadyExited)
}

func TestTransientErrorsAreRetried(t *testing.T) {
	f := newFixture(t, settings(), parkinguc.WithMaxAttempts(3))
	f.store.AddSlots(model.VehicleTypeCar, "C1")
	failures := 2
	f.store.BeforeTx = func() error {
		if failures > 0 {
			failures--
			return cerr.Transient(errors.New("lock timeout"))
		}
		return nil
	}

	r, err := f.enter(model.VehicleTypeCar, "CAR123")
	require.NoError(t, err)
	assert.Equal(t, "C1", r.SlotCode)
	assert.Equal(t, 3, f.store.TxCount())
	assert.Equal(t, 2, f.rec.retries)
}

func TestTransientRetriesAreBounded(t *testing.T) {
	f := newFixture(t, settings(), parkinguc.WithMaxAttempts(3))
	f.store.AddSlots(model.VehicleTypeCar, "C1")
	f.store.BeforeTx = func() error {
		return cerr.Transient(errors.New("deadlock"))
	}

	_, err := f.enter(model.VehicleTypeCar, "CAR123")
	require.Error(t, err)
	assert.True(t, cerr.IsTransient(err))
	assert.Equal(t, 3, f.store.TxCount())
	assert.Empty(t, f.store.Movements())
}

func TestNonTransientErrorsAreNotRetried(t *testing.T) {
	f := newFixture(t, settings(), parkinguc.WithMaxAttempts(5))
	_, err := f.enter(model.VehicleTypeCar, "CAR123")
	assert.ErrorIs(t, err, model.ErrNoSlotAvailable)
	assert.Equal(t, 1, f.store.TxCount())
	assert.Zero(t, f.rec.retries)
}

func TestEstimateFee(t *testing.T) {
	f := newFixture(t, settings())
	f.store.AddSlots(model.VehicleTypeCar, "C1")
	ctx := context.Background()

	_, err := f.uc.EstimateFee(ctx, f.clk.Now().Add(time.Minute), model.VehicleTypeCar)
	assert.ErrorIs(t, err, model.ErrEntryInFuture)
	assert.Equal(t, cerr.KindValidation, cerr.KindOf(err))

	_, err = f.uc.EstimateFee(ctx, f.clk.Now(), model.VehicleTypeInvalid)
	assert.Equal(t, cerr.KindValidation, cerr.KindOf(err))

	in, err := f.enter(model.VehicleTypeCar, "CAR123")
	require.NoError(t, err)
	f.clk.Advance(95 * time.Minute)

	est, err := f.uc.EstimateFee(ctx, in.EntryTime, model.VehicleTypeCar)
	require.NoError(t, err)
	m, est2, err := f.uc.EstimateMovementFee(ctx, in.MovementID)
	require.NoError(t, err)
	assert.Equal(t, in.MovementID, m.ID)
	out, err := f.uc.RegisterExit(ctx, f.actor, in.MovementID)
	require.NoError(t, err)
	assert.Equal(t, "3500.00", est.StringFixed(2))
	assert.True(t, est.Equal(out.Fee), "estimate must match the exit fee")
	assert.True(t, est2.Equal(out.Fee))

	_, _, err = f.uc.EstimateMovementFee(ctx, in.MovementID)
	assert.ErrorIs(t, err, model.ErrAlreadyExited)
}

func TestEstimateFeeMissingSettings(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.uc.EstimateFee(
		context.Background(), f.clk.Now(), model.VehicleTypeCar,
	)
	assert.ErrorIs(t, err, model.ErrMissingSetting)
	assert.Equal(t, cerr.KindConfiguration, cerr.KindOf(err))
}

func TestFindActiveMovement(t *testing.T) {
	f := newFixture(t, settings())
	f.store.AddSlots(model.VehicleTypeCar, "C1", "C2")
	ctx := context.Background()

	first, err := f.enter(model.VehicleTypeCar, "CAR111")
	require.NoError(t, err)
	// a plate which looks like the slot code of the first vehicle
	second, err := f.enter(model.VehicleTypeCar, "C1C1")
	require.NoError(t, err)

	m, err := f.uc.FindActiveMovement(ctx, " car111 ")
	require.NoError(t, err)
	assert.Equal(t, first.MovementID, m.ID)

	m, err = f.uc.FindActiveMovement(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, second.MovementID, m.ID)

	m, err = f.uc.FindActiveMovement(ctx, "C1C1")
	require.NoError(t, err)
	assert.Equal(t, second.MovementID, m.ID, "plate match is preferred")

	_, err = f.uc.RegisterExit(ctx, f.actor, first.MovementID)
	require.NoError(t, err)
	_, err = f.uc.FindActiveMovement(ctx, "CAR111")
	assert.ErrorIs(t, err, model.ErrNoActiveMovement)
	assert.Equal(t, cerr.KindNotFound, cerr.KindOf(err))

	_, err = f.uc.FindActiveMovement(ctx, "   ")
	assert.Equal(t, cerr.KindValidation, cerr.KindOf(err))
}

func TestConcurrentEntriesNeverShareSlots(t *testing.T) {
	f := newFixture(t, settings())
	f.store.AddSlots(model.VehicleTypeCar, "C1", "C2", "C3", "C4", "C5")

	plates := []string{
		"CAR001", "CAR002", "CAR003", "CAR004", "CAR005",
		"CAR006", "CAR007", "CAR008", "CAR009", "CAR010",
	}
	var wg sync.WaitGroup
	errs := make([]error, len(plates))
	for i, p := range plates {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.enter(model.VehicleTypeCar, p)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, model.ErrNoSlotAvailable)
	}
	assert.Equal(t, 5, succeeded)
	seen := map[int64]bool{}
	for _, m := range f.store.Movements() {
		require.NotNil(t, m.SlotID)
		assert.False(t, seen[*m.SlotID], "slot %d is shared", *m.SlotID)
		seen[*m.SlotID] = true
	}
}

func TestOptions(t *testing.T) {
	store := memrp.New(settings())
	for _, tc := range []struct {
		name string
		opt  parkinguc.Option
	}{
		{"zero attempts", parkinguc.WithMaxAttempts(0)},
		{"negative delay", parkinguc.WithRetryDelay(-time.Second)},
		{"nil clock", parkinguc.WithClock(nil)},
		{"nil recorder", parkinguc.WithRecorder(nil)},
		{"nil tracer", parkinguc.WithTracer(nil)},
		{"self fallback", parkinguc.WithFallbacks(
			map[model.VehicleType][]model.VehicleType{
				model.VehicleTypeCar: {model.VehicleTypeCar},
			},
		)},
		{"invalid fallback", parkinguc.WithFallbacks(
			map[model.VehicleType][]model.VehicleType{
				model.VehicleTypeCar: {model.VehicleTypeInvalid},
			},
		)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parkinguc.New(
				store, store.SlotsRepo(), store.MovementsRepo(),
				store.SettingsRepo(), tc.opt,
			)
			assert.Error(t, err)
		})
	}
}
