// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package parkinguc contains the parking UseCase which assigns free
// slots to entering vehicles, bills the exiting vehicles, and lets
// operators release an occupied slot manually.
//
// Each state changing operation runs in one database transaction.
// Slots and movements are locked with SELECT FOR UPDATE in a fixed
// order (movement before slot for exits and releases, and one free
// slot per entry), so concurrent requests cannot assign the same slot
// or close the same movement twice. Transactions which fail with
// transient errors (lock timeouts, deadlocks, or serialization
// failures) are retried a bounded number of times.
package parkinguc

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parking/pkg/core/billing"
	"github.com/momeni/parking/pkg/core/cerr"
	"github.com/momeni/parking/pkg/core/log"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/momeni/parking/pkg/core/repo"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of the use case spans.
const TracerName = "github.com/momeni/parking/pkg/core/usecase/parkinguc"

// DefaultFallbacks returns the default slot class compatibility table.
// Motorcycles may take a car slot when motorcycle slots are full.
// Cars and trucks have no fallback.
func DefaultFallbacks() map[model.VehicleType][]model.VehicleType {
	return map[model.VehicleType][]model.VehicleType{
		model.VehicleTypeMotorcycle: {model.VehicleTypeCar},
	}
}

// UseCase represents the parking use case. It holds a database
// connection pool, the slots, movements, and settings repositories,
// and the use case specific settings.
type UseCase struct {
	pool      repo.Pool
	slots     repo.Slots
	movements repo.Movements
	settings  repo.Settings

	fallbacks   map[model.VehicleType][]model.VehicleType
	maxAttempts int
	retryDelay  time.Duration
	now         func() time.Time
	recorder    Recorder
	tracer      trace.Tracer
}

// New instantiates a parking use case.
// Required parameters are passed individually and optional ones as
// a series of functional options.
func New(
	p repo.Pool,
	s repo.Slots,
	m repo.Movements,
	st repo.Settings,
	opts ...Option,
) (*UseCase, error) {
	uc := &UseCase{pool: p, slots: s, movements: m, settings: st}
	for _, opt := range opts {
		if err := opt(uc); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	// now, deal with defaults
	if uc.fallbacks == nil {
		uc.fallbacks = DefaultFallbacks()
	}
	if uc.maxAttempts == 0 {
		uc.maxAttempts = 3
	}
	if uc.retryDelay == 0 {
		uc.retryDelay = 50 * time.Millisecond
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	if uc.recorder == nil {
		uc.recorder = nopRecorder{}
	}
	if uc.tracer == nil {
		uc.tracer = otel.Tracer(TracerName)
	}
	return uc, nil
}

// classes returns the slot classes which may host vt, exact class
// first and then its fallbacks in the configured order.
func (uc *UseCase) classes(vt model.VehicleType) []model.VehicleType {
	fb := uc.fallbacks[vt]
	cs := make([]model.VehicleType, 0, 1+len(fb))
	return append(append(cs, vt), fb...)
}

func (uc *UseCase) clock() time.Time {
	return uc.now().UTC().Truncate(time.Second)
}

func validateActor(actor uuid.UUID) error {
	if actor == uuid.Nil {
		return cerr.Validation(model.ErrMissingActor)
	}
	return nil
}

// endSpan records err (if any) on span and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(
			attribute.String("error.kind", cerr.KindOf(err).String()),
		)
	}
	span.End()
}

// RegisterEntry use case assigns a free slot to a vehicle of the vt
// type with the given plate and optional color, and opens an active
// movement for it on behalf of the actor operator.
//
// Inputs are validated before any database access. The exact slot
// class is preferred; if all of its slots are taken, the fallback
// classes of vt are probed in order. If no slot can be found, an
// error matching model.ErrNoSlotAvailable is returned. A plate may
// not have two active movements at the same time.
func (uc *UseCase) RegisterEntry(
	ctx context.Context,
	actor uuid.UUID,
	vt model.VehicleType,
	plate string,
	color *string,
) (r *model.EntryReceipt, err error) {
	ctx, span := uc.tracer.Start(ctx, "parking.register_entry")
	fallback := false
	defer func() {
		uc.recorder.Entry(vt, fallback, err)
		endSpan(span, err)
	}()
	if err = validateActor(actor); err != nil {
		return nil, err
	}
	if err = vt.Validate(); err != nil {
		return nil, cerr.Validation(err)
	}
	if plate, err = model.ParsePlate(plate); err != nil {
		return nil, cerr.Validation(err)
	}
	if color, err = model.ParseColor(color); err != nil {
		return nil, cerr.Validation(err)
	}
	span.SetAttributes(
		attribute.String("parking.vehicle_type", vt.String()),
		attribute.String("parking.plate", plate),
	)
	r, err = retry(ctx, uc, "register_entry", func(
		ctx context.Context,
	) (*model.EntryReceipt, error) {
		return uc.registerEntry(ctx, actor, vt, plate, color)
	})
	if err != nil {
		return nil, err
	}
	fallback = r.Fallback
	span.SetAttributes(
		attribute.String("parking.slot_code", r.SlotCode),
		attribute.Int64("parking.movement_id", r.MovementID),
		attribute.Bool("parking.fallback", r.Fallback),
	)
	log.Info(
		ctx, "vehicle entered",
		log.Actor(actor),
		log.Plate(plate),
		log.VehicleType("vehicle_type", vt),
		log.SlotCode(r.SlotCode),
		log.MovementID(r.MovementID),
	)
	return r, nil
}

func (uc *UseCase) registerEntry(
	ctx context.Context,
	actor uuid.UUID,
	vt model.VehicleType,
	plate string,
	color *string,
) (r *model.EntryReceipt, err error) {
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			sq, mq := uc.slots.Tx(tx), uc.movements.Tx(tx)
			active, err := mq.HasActive(ctx, plate)
			if err != nil {
				return fmt.Errorf("checking active movements: %w", err)
			}
			if active {
				return cerr.Conflict(fmt.Errorf(
					"plate %q: %w", plate, model.ErrDuplicateActiveEntry,
				))
			}
			var slot *model.Slot
			classes := uc.classes(vt)
			for _, class := range classes {
				slot, err = sq.LockFirstFree(ctx, class)
				if err != nil {
					return fmt.Errorf("locking a free %v slot: %w", class, err)
				}
				if slot != nil {
					break
				}
			}
			if slot == nil {
				return cerr.Conflict(model.NoSlotAvailableError(vt))
			}
			if err = sq.SetState(ctx, slot.ID, model.SlotStateOccupied); err != nil {
				return fmt.Errorf("occupying slot %q: %w", slot.Code, err)
			}
			m := &model.Movement{
				SlotID:      &slot.ID,
				SlotCode:    slot.Code,
				VehicleType: vt,
				Plate:       plate,
				Color:       color,
				EntryTime:   uc.clock(),
				CreatedBy:   actor,
			}
			if err = mq.Insert(ctx, m); err != nil {
				return fmt.Errorf("inserting movement: %w", err)
			}
			r = &model.EntryReceipt{
				MovementID:  m.ID,
				SlotID:      slot.ID,
				SlotCode:    slot.Code,
				SlotClass:   slot.Class,
				VehicleType: vt,
				Plate:       plate,
				EntryTime:   m.EntryTime,
				Fallback:    slot.Class != vt,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// RegisterExit use case closes the movementID active movement on
// behalf of the actor operator, computes its fee using the billing
// settings and tariffs which are read in the same transaction, and
// frees its slot.
// Closing an already closed movement fails with an error matching
// model.ErrAlreadyExited, so a movement is never billed twice.
func (uc *UseCase) RegisterExit(
	ctx context.Context,
	actor uuid.UUID,
	movementID int64,
) (r *model.ExitReceipt, err error) {
	ctx, span := uc.tracer.Start(
		ctx, "parking.register_exit",
		trace.WithAttributes(attribute.Int64("parking.movement_id", movementID)),
	)
	vt := model.VehicleTypeInvalid
	fee := decimal.Zero
	defer func() {
		uc.recorder.Exit(vt, fee, false, err)
		endSpan(span, err)
	}()
	if err = validateActor(actor); err != nil {
		return nil, err
	}
	if movementID <= 0 {
		return nil, cerr.NotFound(fmt.Errorf(
			"movement %d: %w", movementID, model.ErrMovementNotFound,
		))
	}
	r, err = retry(ctx, uc, "register_exit", func(
		ctx context.Context,
	) (*model.ExitReceipt, error) {
		return uc.registerExit(ctx, actor, movementID)
	})
	if err != nil {
		return nil, err
	}
	vt, fee = r.VehicleType, r.Fee
	span.SetAttributes(
		attribute.String("parking.slot_code", r.SlotCode),
		attribute.String("parking.fee", r.Fee.StringFixed(2)),
	)
	log.Info(
		ctx, "vehicle exited",
		log.Actor(actor),
		log.Plate(r.Plate),
		log.MovementID(r.MovementID),
		log.SlotCode(r.SlotCode),
		log.Amount("fee", r.Fee),
	)
	return r, nil
}

func (uc *UseCase) registerExit(
	ctx context.Context,
	actor uuid.UUID,
	movementID int64,
) (r *model.ExitReceipt, err error) {
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			sq, mq := uc.slots.Tx(tx), uc.movements.Tx(tx)
			m, err := mq.LockByID(ctx, movementID)
			if err != nil {
				return fmt.Errorf("locking movement: %w", err)
			}
			if !m.Active() {
				return cerr.Conflict(fmt.Errorf(
					"movement %d: %w", movementID, model.ErrAlreadyExited,
				))
			}
			s, err := uc.settings.Tx(tx).Fetch(ctx)
			if err != nil {
				return fmt.Errorf("fetching settings: %w", err)
			}
			exit := uc.clock()
			fee, err := computeFee(m.EntryTime, exit, m.VehicleType, s)
			if err != nil {
				return err
			}
			err = mq.Close(ctx, m.ID, exit, fee, false, actor)
			if err != nil {
				return fmt.Errorf("closing movement: %w", err)
			}
			if m.SlotID != nil {
				err = sq.SetState(ctx, *m.SlotID, model.SlotStateFree)
				if err != nil {
					return fmt.Errorf("freeing slot %q: %w", m.SlotCode, err)
				}
			}
			r = &model.ExitReceipt{
				MovementID:  m.ID,
				SlotCode:    m.SlotCode,
				VehicleType: m.VehicleType,
				Plate:       m.Plate,
				EntryTime:   m.EntryTime,
				ExitTime:    exit,
				Elapsed:     model.NewElapsed(exit.Sub(m.EntryTime)),
				Fee:         fee,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// computeFee computes the fee of a stay from entry to exit for the vt
// vehicle type. Broken settings are reported as configuration errors.
func computeFee(
	entry, exit time.Time, vt model.VehicleType, s *model.Settings,
) (decimal.Decimal, error) {
	rate, err := s.Tariffs.HourlyRate(vt)
	if err != nil {
		return decimal.Zero, cerr.Configuration(err)
	}
	amount, err := billing.Compute(entry, exit, rate, s.Billing)
	if err != nil {
		return decimal.Zero, cerr.Configuration(err)
	}
	return amount, nil
}

// ForceRelease use case closes the active movement of the slotID slot
// with a zero fee and frees the slot, on behalf of the actor operator.
// It is meant for correcting the ledger when a vehicle left without
// registering its exit. The closed movement is returned.
func (uc *UseCase) ForceRelease(
	ctx context.Context,
	actor uuid.UUID,
	slotID int64,
) (m *model.Movement, err error) {
	ctx, span := uc.tracer.Start(
		ctx, "parking.force_release",
		trace.WithAttributes(attribute.Int64("parking.slot_id", slotID)),
	)
	vt := model.VehicleTypeInvalid
	defer func() {
		uc.recorder.Exit(vt, decimal.Zero, true, err)
		endSpan(span, err)
	}()
	if err = validateActor(actor); err != nil {
		return nil, err
	}
	m, err = retry(ctx, uc, "force_release", func(
		ctx context.Context,
	) (*model.Movement, error) {
		return uc.forceRelease(ctx, actor, slotID)
	})
	if err != nil {
		return nil, err
	}
	vt = m.VehicleType
	log.Warn(
		ctx, "slot released manually",
		log.Actor(actor),
		log.SlotID(slotID),
		log.SlotCode(m.SlotCode),
		log.Plate(m.Plate),
		log.MovementID(m.ID),
	)
	return m, nil
}

func (uc *UseCase) forceRelease(
	ctx context.Context,
	actor uuid.UUID,
	slotID int64,
) (m *model.Movement, err error) {
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			sq, mq := uc.slots.Tx(tx), uc.movements.Tx(tx)
			if _, err := sq.Get(ctx, slotID); err != nil {
				return fmt.Errorf("getting slot: %w", err)
			}
			am, err := mq.LockActiveBySlot(ctx, slotID)
			if err != nil {
				return fmt.Errorf("locking active movement: %w", err)
			}
			if _, err = sq.LockByID(ctx, slotID); err != nil {
				return fmt.Errorf("locking slot: %w", err)
			}
			exit := uc.clock()
			err = mq.Close(ctx, am.ID, exit, decimal.Zero, true, actor)
			if err != nil {
				return fmt.Errorf("closing movement: %w", err)
			}
			if err = sq.SetState(ctx, slotID, model.SlotStateFree); err != nil {
				return fmt.Errorf("freeing slot: %w", err)
			}
			zero := decimal.Zero
			am.ExitTime, am.Fee = &exit, &zero
			am.ClosedBy, am.ForcedRelease = &actor, true
			m = am
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}
