// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package settingsrp

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/momeni/parking/pkg/adapter/db/postgres"
	"github.com/momeni/parking/pkg/core/cerr"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/momeni/parking/pkg/core/repo"
	"github.com/shopspring/decimal"
)

// Keys of the settings table rows.
const (
	KeyRoundingMinutes   = "rounding_minutes"
	KeyMinimumHours      = "minimum_hours"
	KeySlotCapacityLimit = "slot_capacity_limit"
)

const upsertSQL = `INSERT INTO settings (name, value) VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value`

// configErr wraps err (which describes a broken stored setting) as a
// configuration error.
func configErr(key string, err error) error {
	return cerr.Configuration(fmt.Errorf(
		"setting %q: %w: %w", key, model.ErrMissingSetting, err,
	))
}

var errAbsent = errors.New("absent")

// Fetch reads the settings and tariffs tables as one snapshot.
// Missing or malformed settings are reported as configuration errors.
func Fetch[Q postgres.Queryer](
	ctx context.Context, q Q,
) (*model.Settings, error) {
	kv, err := loadKeyValues(ctx, q)
	if err != nil {
		return nil, err
	}
	s := &model.Settings{Tariffs: model.Tariffs{}}
	if s.Billing.RoundingMinutes, err = intSetting(
		kv, KeyRoundingMinutes,
	); err != nil {
		return nil, err
	}
	mh, ok := kv[KeyMinimumHours]
	if !ok {
		return nil, configErr(KeyMinimumHours, errAbsent)
	}
	if s.Billing.MinimumHours, err = decimal.NewFromString(mh); err != nil {
		return nil, configErr(KeyMinimumHours, err)
	}
	if err := s.Billing.Validate(); err != nil {
		return nil, cerr.Configuration(
			fmt.Errorf("%w: %w", model.ErrMissingSetting, err),
		)
	}
	if s.SlotCapacityLimit, err = intSetting(
		kv, KeySlotCapacityLimit,
	); err != nil {
		return nil, err
	}
	rows, err := q.Query(
		ctx, "SELECT vehicle_type, hourly_rate FROM tariffs",
	)
	if err != nil {
		return nil, fmt.Errorf("querying tariffs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			vts  string
			rate decimal.Decimal
		)
		if err := rows.Scan(&vts, &rate); err != nil {
			return nil, fmt.Errorf("scanning tariff: %w", err)
		}
		vt, err := model.ParseVehicleType(vts)
		if err != nil {
			return nil, configErr("tariffs."+vts, err)
		}
		s.Tariffs[vt] = rate
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tariffs: %w", err)
	}
	return s, nil
}

func loadKeyValues[Q postgres.Queryer](
	ctx context.Context, q Q,
) (map[string]string, error) {
	rows, err := q.Query(ctx, "SELECT name, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("querying settings: %w", err)
	}
	defer rows.Close()
	kv := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scanning setting: %w", err)
		}
		kv[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating settings: %w", err)
	}
	return kv, nil
}

func intSetting(kv map[string]string, key string) (int, error) {
	v, ok := kv[key]
	if !ok {
		return 0, configErr(key, errAbsent)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, configErr(key, err)
	}
	return n, nil
}

// UpdateBilling stores the rounding interval and minimum hours.
func UpdateBilling(
	ctx context.Context, tx *postgres.Tx, bp model.BillingPolicy,
) error {
	_, err := tx.Exec(
		ctx, upsertSQL, KeyRoundingMinutes, strconv.Itoa(bp.RoundingMinutes),
	)
	if err != nil {
		return fmt.Errorf("storing %s: %w", KeyRoundingMinutes, err)
	}
	_, err = tx.Exec(
		ctx, upsertSQL, KeyMinimumHours, bp.MinimumHours.String(),
	)
	if err != nil {
		return fmt.Errorf("storing %s: %w", KeyMinimumHours, err)
	}
	return nil
}

// UpdateTariff inserts or updates the hourly rate of vt.
func UpdateTariff(
	ctx context.Context,
	tx *postgres.Tx,
	vt model.VehicleType,
	rate decimal.Decimal,
) error {
	_, err := tx.Exec(ctx, `INSERT INTO tariffs (vehicle_type, hourly_rate)
VALUES ($1, $2)
ON CONFLICT (vehicle_type) DO UPDATE SET hourly_rate = EXCLUDED.hourly_rate`,
		vt.String(), rate,
	)
	return err
}

// UpdateCapacityLimit stores the slot capacity limit.
func UpdateCapacityLimit(
	ctx context.Context, tx *postgres.Tx, limit int,
) error {
	_, err := tx.Exec(
		ctx, upsertSQL, KeySlotCapacityLimit, strconv.Itoa(limit),
	)
	return err
}

// LockCapacityLimit reads the slot capacity limit with a FOR UPDATE
// row lock.
func LockCapacityLimit(ctx context.Context, tx *postgres.Tx) (int, error) {
	rows, err := tx.Query(
		ctx,
		"SELECT value FROM settings WHERE name=$1 FOR UPDATE",
		KeySlotCapacityLimit,
	)
	if err != nil {
		return 0, fmt.Errorf("locking %s: %w", KeySlotCapacityLimit, err)
	}
	defer rows.Close()
	kv := make(map[string]string, 1)
	if rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return 0, fmt.Errorf("scanning %s: %w", KeySlotCapacityLimit, err)
		}
		kv[KeySlotCapacityLimit] = v
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterating %s: %w", KeySlotCapacityLimit, err)
	}
	return intSetting(kv, KeySlotCapacityLimit)
}

// Seed stores all of the s settings and tariffs using q.
// It is used while a fresh database is being initialized.
func Seed(ctx context.Context, q repo.Queryer, s *model.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	pairs := [][2]string{
		{KeyRoundingMinutes, strconv.Itoa(s.Billing.RoundingMinutes)},
		{KeyMinimumHours, s.Billing.MinimumHours.String()},
		{KeySlotCapacityLimit, strconv.Itoa(s.SlotCapacityLimit)},
	}
	for _, p := range pairs {
		if _, err := q.Exec(ctx, upsertSQL, p[0], p[1]); err != nil {
			return fmt.Errorf("storing %s: %w", p[0], err)
		}
	}
	for _, vt := range model.VehicleTypes() {
		rate, err := s.Tariffs.HourlyRate(vt)
		if err != nil {
			return err
		}
		_, err = q.Exec(
			ctx,
			"INSERT INTO tariffs (vehicle_type, hourly_rate) VALUES ($1, $2)",
			vt.String(), rate,
		)
		if err != nil {
			return fmt.Errorf("storing %s tariff: %w", vt, err)
		}
	}
	return nil
}
