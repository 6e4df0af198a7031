// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import (
	"context"

	"github.com/momeni/parking/pkg/core/model"
	"github.com/shopspring/decimal"
)

// Settings is the repository of the facility settings (billing policy,
// tariffs, and the slot capacity limit) which are kept in the database
// and may be changed by administrators at runtime.
type Settings interface {
	Conn(c Conn) SettingsConnQueryer
	Tx(tx Tx) SettingsTxQueryer
}

// SettingsConnQueryer lists settings queries for connections.
type SettingsConnQueryer interface {
	SettingsQueryer
}

// SettingsTxQueryer lists settings queries for transactions.
type SettingsTxQueryer interface {
	SettingsQueryer

	// UpdateBilling replaces the billing policy.
	UpdateBilling(ctx context.Context, bp model.BillingPolicy) error

	// UpdateTariff sets (inserts or updates) the hourly rate of vt.
	UpdateTariff(
		ctx context.Context, vt model.VehicleType, rate decimal.Decimal,
	) error

	// UpdateCapacityLimit replaces the slot capacity limit.
	UpdateCapacityLimit(ctx context.Context, limit int) error

	// LockCapacityLimit reads the slot capacity limit and locks it
	// until the end of the transaction. Slot creations lock it before
	// counting the existing slots, so two concurrent creations may not
	// exceed the limit together.
	LockCapacityLimit(ctx context.Context) (int, error)
}

// SettingsQueryer lists settings queries for both connections and
// transactions.
type SettingsQueryer interface {
	// Fetch reads all settings as one snapshot. Missing or malformed
	// keys are reported by wrapping model.ErrMissingSetting, since they
	// may not be replaced by a guessed default value.
	// Missing tariffs are not reported here and are detected by the
	// Tariffs.HourlyRate method, when a fee is going to be computed.
	Fetch(ctx context.Context) (*model.Settings, error)
}
