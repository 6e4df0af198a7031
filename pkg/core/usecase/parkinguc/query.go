// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package parkinguc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/momeni/parking/pkg/core/cerr"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/momeni/parking/pkg/core/repo"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

// EstimateFee use case previews the fee of a vt vehicle which entered
// at the entry time, as if it exits right now. It uses the same fee
// computation as RegisterExit and changes nothing.
func (uc *UseCase) EstimateFee(
	ctx context.Context, entry time.Time, vt model.VehicleType,
) (fee decimal.Decimal, err error) {
	ctx, span := uc.tracer.Start(ctx, "parking.estimate_fee")
	defer func() {
		endSpan(span, err)
	}()
	if err = vt.Validate(); err != nil {
		return decimal.Zero, cerr.Validation(err)
	}
	now := uc.clock()
	entry = entry.UTC().Truncate(time.Second)
	if entry.After(now) {
		return decimal.Zero, cerr.Validation(model.ErrEntryInFuture)
	}
	span.SetAttributes(attribute.String("parking.vehicle_type", vt.String()))
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		s, err := uc.settings.Conn(c).Fetch(ctx)
		if err != nil {
			return fmt.Errorf("fetching settings: %w", err)
		}
		fee, err = computeFee(entry, now, vt, s)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	return fee, nil
}

// EstimateMovementFee use case previews the fee of the movementID
// movement as if it exits right now. The movement must be active.
func (uc *UseCase) EstimateMovementFee(
	ctx context.Context, movementID int64,
) (m *model.Movement, fee decimal.Decimal, err error) {
	ctx, span := uc.tracer.Start(ctx, "parking.estimate_movement_fee")
	defer func() {
		endSpan(span, err)
	}()
	now := uc.clock()
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		m, err = uc.movements.Conn(c).Get(ctx, movementID)
		if err != nil {
			return fmt.Errorf("getting movement: %w", err)
		}
		if !m.Active() {
			return cerr.Conflict(fmt.Errorf(
				"movement %d: %w", movementID, model.ErrAlreadyExited,
			))
		}
		s, err := uc.settings.Conn(c).Fetch(ctx)
		if err != nil {
			return fmt.Errorf("fetching settings: %w", err)
		}
		exit := now
		if exit.Before(m.EntryTime) {
			exit = m.EntryTime
		}
		fee, err = computeFee(m.EntryTime, exit, m.VehicleType, s)
		return err
	})
	if err != nil {
		return nil, decimal.Zero, err
	}
	return m, fee, nil
}

// FindActiveMovement use case looks up the active movement whose plate
// or slot code equals term, ignoring the surrounding spaces and letter
// case. A plate match is preferred over a slot code match.
// If nothing matches, an error matching model.ErrNoActiveMovement is
// returned.
func (uc *UseCase) FindActiveMovement(
	ctx context.Context, term string,
) (m *model.Movement, err error) {
	term = strings.ToUpper(strings.TrimSpace(term))
	if term == "" {
		return nil, cerr.Validation(fmt.Errorf(
			"empty search term: %w", model.ErrNoActiveMovement,
		))
	}
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		m, err = uc.movements.Conn(c).FindActive(ctx, term)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}
