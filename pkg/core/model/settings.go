// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Settings contains the facility-wide configuration which is kept in
// the database and may be updated by administrators at runtime.
// It is fetched as a whole at the beginning of each fee computation,
// so a running transaction observes one consistent snapshot.
type Settings struct {
	Billing BillingPolicy `json:"billing"`
	Tariffs Tariffs       `json:"tariffs"`

	// SlotCapacityLimit is the maximum number of slots (of all classes
	// and states) which may exist in the facility.
	SlotCapacityLimit int `json:"slot_capacity_limit"`
}

// Valid values for the BillingPolicy.RoundingMinutes field.
var RoundingIntervals = []int{5, 10, 15, 30, 60}

// Bounds of the Settings.SlotCapacityLimit field.
const (
	MinSlotCapacityLimit = 1
	MaxSlotCapacityLimit = 1000
)

// BillingPolicy controls how an elapsed stay is converted to a fee.
// Elapsed minutes are rounded up to the next multiple of the
// RoundingMinutes and then at least MinimumHours are billed.
type BillingPolicy struct {
	RoundingMinutes int             `json:"rounding_minutes"`
	MinimumHours    decimal.Decimal `json:"minimum_hours"`
}

// Validate ensures that the rounding interval is one of the supported
// RoundingIntervals and the minimum billed hours is positive.
// Returned errors wrap ErrInvalidSetting.
func (bp BillingPolicy) Validate() error {
	if !validRounding(bp.RoundingMinutes) {
		return fmt.Errorf(
			"rounding minutes %d not in %v: %w",
			bp.RoundingMinutes, RoundingIntervals, ErrInvalidSetting,
		)
	}
	if !bp.MinimumHours.IsPositive() {
		return fmt.Errorf(
			"minimum hours %s must be positive: %w",
			bp.MinimumHours, ErrInvalidSetting,
		)
	}
	return nil
}

func validRounding(m int) bool {
	for _, r := range RoundingIntervals {
		if r == m {
			return true
		}
	}
	return false
}

// ValidateCapacityLimit checks the bounds of a slot capacity limit.
func ValidateCapacityLimit(limit int) error {
	if limit < MinSlotCapacityLimit || limit > MaxSlotCapacityLimit {
		return fmt.Errorf(
			"slot capacity limit %d not in [%d, %d]: %w",
			limit, MinSlotCapacityLimit, MaxSlotCapacityLimit,
			ErrInvalidSetting,
		)
	}
	return nil
}

// Tariffs maps each vehicle type to its hourly rate.
type Tariffs map[VehicleType]decimal.Decimal

// HourlyRate returns the hourly rate of the vt vehicle type.
// A missing or non-positive rate is a configuration problem which
// is reported by wrapping the ErrMissingTariff error.
func (t Tariffs) HourlyRate(vt VehicleType) (decimal.Decimal, error) {
	r, ok := t[vt]
	if !ok {
		return decimal.Zero, fmt.Errorf(
			"hourly rate of %v: %w", vt, ErrMissingTariff,
		)
	}
	if !r.IsPositive() {
		return decimal.Zero, fmt.Errorf(
			"hourly rate of %v is %s: %w", vt, r, ErrMissingTariff,
		)
	}
	return r, nil
}

// ValidateRate ensures that an hourly rate is positive.
func ValidateRate(rate decimal.Decimal) error {
	if !rate.IsPositive() {
		return fmt.Errorf(
			"hourly rate %s must be positive: %w", rate, ErrInvalidSetting,
		)
	}
	return nil
}

// Validate checks the billing policy, the capacity limit, and ensures
// that every vehicle type has a positive hourly rate. It is used when
// a complete Settings is going to be stored, e.g., while a fresh
// database is being initialized.
func (s *Settings) Validate() error {
	if err := s.Billing.Validate(); err != nil {
		return err
	}
	if err := ValidateCapacityLimit(s.SlotCapacityLimit); err != nil {
		return err
	}
	for _, vt := range VehicleTypes() {
		if _, err := s.Tariffs.HourlyRate(vt); err != nil {
			return err
		}
	}
	return nil
}
