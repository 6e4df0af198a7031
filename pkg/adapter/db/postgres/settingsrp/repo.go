// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package settingsrp is the adapter for the settings repository.
// It exposes the settingsrp.Repo type in order to allow use cases
// to update the facility settings or query them from the database.
// Scalar settings are kept as name/value rows of the settings table,
// while hourly rates are kept in the tariffs table.
package settingsrp

import (
	"context"

	"github.com/momeni/parking/pkg/adapter/db/postgres"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/momeni/parking/pkg/core/repo"
	"github.com/shopspring/decimal"
)

// Repo represents the settings repository instance.
type Repo struct {
}

// New instantiates a settings Repo struct.
func New() *Repo {
	return &Repo{}
}

type connQueryer struct {
	*postgres.Conn
}

// Conn takes a Conn interface instance, unwraps it as required,
// and returns a SettingsConnQueryer interface which (with access to
// the implementation-dependent connection object) can run different
// permitted operations on settings.
// The connQueryer itself is not mentioned as the return value since
// it is not exported. Otherwise, the general rule is to take interfaces
// as arguments and return exported structs.
func (settings *Repo) Conn(c repo.Conn) repo.SettingsConnQueryer {
	cc := c.(*postgres.Conn)
	return connQueryer{Conn: cc}
}

func (cq connQueryer) Fetch(ctx context.Context) (*model.Settings, error) {
	return Fetch(ctx, cq.Conn)
}

type txQueryer struct {
	*postgres.Tx
}

// Tx takes a Tx interface instance, unwraps it as required,
// and returns a SettingsTxQueryer interface which (with access to the
// implementation-dependent transaction object) can run different
// permitted operations on settings.
func (settings *Repo) Tx(tx repo.Tx) repo.SettingsTxQueryer {
	tt := tx.(*postgres.Tx)
	return txQueryer{Tx: tt}
}

func (tq txQueryer) Fetch(ctx context.Context) (*model.Settings, error) {
	return Fetch(ctx, tq.Tx)
}

func (tq txQueryer) UpdateBilling(
	ctx context.Context, bp model.BillingPolicy,
) error {
	return UpdateBilling(ctx, tq.Tx, bp)
}

func (tq txQueryer) UpdateTariff(
	ctx context.Context, vt model.VehicleType, rate decimal.Decimal,
) error {
	return UpdateTariff(ctx, tq.Tx, vt, rate)
}

func (tq txQueryer) UpdateCapacityLimit(
	ctx context.Context, limit int,
) error {
	return UpdateCapacityLimit(ctx, tq.Tx, limit)
}

func (tq txQueryer) LockCapacityLimit(ctx context.Context) (int, error) {
	return LockCapacityLimit(ctx, tq.Tx)
}
