// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package billing computes parking fees. Its functions are pure, so
// the same entry and exit timestamps, hourly rate, and billing policy
// always produce the same amount. Both exit registrations and fee
// estimations must use the Compute function, so a shown estimate and
// the charged fee never diverge.
package billing

import (
	"fmt"
	"time"

	"github.com/momeni/parking/pkg/core/model"
	"github.com/shopspring/decimal"
)

var sixty = decimal.NewFromInt(60)

// ElapsedMinutes returns the exit-entry duration, truncated to whole
// minutes. A negative duration is a programming error (exit times are
// taken from the clock after the entry was committed) and causes a
// panic, so the surrounding transaction is rolled back.
func ElapsedMinutes(entry, exit time.Time) int64 {
	d := exit.Sub(entry)
	if d < 0 {
		panic(fmt.Sprintf(
			"exit time %v is before the entry time %v", exit, entry,
		))
	}
	return int64(d / time.Minute)
}

// RoundedMinutes rounds the elapsed minutes up to the next multiple of
// the rounding interval. A multiple is kept as is, while any positive
// remainder (even one minute) adds a whole interval.
func RoundedMinutes(elapsed int64, rounding int) int64 {
	r := int64(rounding)
	return (elapsed + r - 1) / r * r
}

// Compute returns the fee of a stay from entry to exit, charged with
// the hourly rate. Elapsed minutes are rounded up by the policy
// rounding interval and then the policy minimum hours are enforced as
// a floor. The resulting amount is rounded to 2 decimal places.
//
// An invalid policy or a non-positive rate returns an error which
// wraps model.ErrInvalidSetting or model.ErrMissingTariff.
func Compute(
	entry, exit time.Time,
	rate decimal.Decimal,
	policy model.BillingPolicy,
) (decimal.Decimal, error) {
	if err := policy.Validate(); err != nil {
		return decimal.Zero, err
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf(
			"hourly rate %s: %w", rate, model.ErrMissingTariff,
		)
	}
	elapsed := ElapsedMinutes(entry, exit)
	rounded := decimal.NewFromInt(
		RoundedMinutes(elapsed, policy.RoundingMinutes),
	)
	billed := decimal.Max(rounded, policy.MinimumHours.Mul(sixty))
	return billed.Mul(rate).Div(sixty).Round(2), nil
}
