// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package settingsuc contains the facility settings UseCase which
// lets the administrators read and update the billing policy, the
// hourly tariffs, and the slot capacity limit.
//
// Settings are stored in the database and are read by the other use
// cases inside their own transactions, so an update takes effect for
// the next entry, exit, or slot creation without any reload.
// Fees of the closed movements are never recomputed.
package settingsuc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/momeni/parking/pkg/core/cerr"
	"github.com/momeni/parking/pkg/core/log"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/momeni/parking/pkg/core/repo"
	"github.com/shopspring/decimal"
)

// UseCase represents the settings use case.
type UseCase struct {
	pool     repo.Pool
	settings repo.Settings
}

// New instantiates a settings use case.
func New(p repo.Pool, s repo.Settings) *UseCase {
	return &UseCase{pool: p, settings: s}
}

// Snapshot returns the current settings.
func (uc *UseCase) Snapshot(ctx context.Context) (s *model.Settings, err error) {
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		s, err = uc.settings.Conn(c).Fetch(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// update runs f in a transaction and returns the resulting settings.
func (uc *UseCase) update(
	ctx context.Context,
	f func(ctx context.Context, q repo.SettingsTxQueryer) error,
) (s *model.Settings, err error) {
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		return c.Tx(ctx, func(ctx context.Context, tx repo.Tx) error {
			q := uc.settings.Tx(tx)
			if err := f(ctx, q); err != nil {
				return err
			}
			s, err = q.Fetch(ctx)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// UpdateBilling replaces the rounding interval and minimum billable
// hours together. The rounding must be one of the
// model.RoundingIntervals and the minimum hours must be positive.
func (uc *UseCase) UpdateBilling(
	ctx context.Context, actor uuid.UUID, bp model.BillingPolicy,
) (*model.Settings, error) {
	if err := bp.Validate(); err != nil {
		return nil, cerr.Validation(err)
	}
	s, err := uc.update(ctx, func(
		ctx context.Context, q repo.SettingsTxQueryer,
	) error {
		return q.UpdateBilling(ctx, bp)
	})
	if err != nil {
		return nil, err
	}
	log.Info(
		ctx, "billing policy updated",
		log.Actor(actor),
		slog.Int("rounding_minutes", bp.RoundingMinutes),
		slog.String("minimum_hours", bp.MinimumHours.String()),
	)
	return s, nil
}

// UpdateTariff sets the hourly rate of the vt vehicle type.
// The rate must be positive and is rounded to 2 decimal places.
func (uc *UseCase) UpdateTariff(
	ctx context.Context,
	actor uuid.UUID,
	vt model.VehicleType,
	rate decimal.Decimal,
) (*model.Settings, error) {
	if err := vt.Validate(); err != nil {
		return nil, cerr.Validation(err)
	}
	rate = rate.Round(2)
	if err := model.ValidateRate(rate); err != nil {
		return nil, cerr.Validation(err)
	}
	s, err := uc.update(ctx, func(
		ctx context.Context, q repo.SettingsTxQueryer,
	) error {
		return q.UpdateTariff(ctx, vt, rate)
	})
	if err != nil {
		return nil, err
	}
	log.Info(
		ctx, "tariff updated",
		log.Actor(actor),
		log.VehicleType("vehicle_type", vt),
		log.Amount("hourly_rate", rate),
	)
	return s, nil
}

// UpdateCapacity replaces the slot capacity limit. A limit below the
// current number of slots is accepted; it only blocks new slots.
func (uc *UseCase) UpdateCapacity(
	ctx context.Context, actor uuid.UUID, limit int,
) (*model.Settings, error) {
	if err := model.ValidateCapacityLimit(limit); err != nil {
		return nil, cerr.Validation(err)
	}
	s, err := uc.update(ctx, func(
		ctx context.Context, q repo.SettingsTxQueryer,
	) error {
		if err := q.UpdateCapacityLimit(ctx, limit); err != nil {
			return fmt.Errorf("updating capacity limit: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info(
		ctx, "slot capacity limit updated",
		log.Actor(actor), slog.Int("limit", limit),
	)
	return s, nil
}
