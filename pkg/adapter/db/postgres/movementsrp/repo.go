// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package movementsrp is the adapter for the movements ledger
// repository, reifying the repo.Movements interface using GORM.
// Movements are never deleted by this repository.
package movementsrp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parking/pkg/adapter/db/postgres"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/momeni/parking/pkg/core/repo"
	"github.com/shopspring/decimal"
)

type Repo struct {
}

func New() *Repo {
	return &Repo{}
}

type connQueryer struct {
	*postgres.Conn
}

func (movements *Repo) Conn(c repo.Conn) repo.MovementsConnQueryer {
	cc := c.(*postgres.Conn)
	return connQueryer{Conn: cc}
}

func (cq connQueryer) Get(ctx context.Context, id int64) (*model.Movement, error) {
	return Get(ctx, cq.Conn, id)
}

func (cq connQueryer) FindActive(ctx context.Context, term string) (*model.Movement, error) {
	return FindActive(ctx, cq.Conn, term)
}

func (cq connQueryer) HasActive(ctx context.Context, plate string) (bool, error) {
	return HasActive(ctx, cq.Conn, plate)
}

func (cq connQueryer) ListActive(ctx context.Context) ([]model.Movement, error) {
	return ListActive(ctx, cq.Conn)
}

func (cq connQueryer) Recent(ctx context.Context, limit int) ([]model.Movement, error) {
	return Recent(ctx, cq.Conn, limit)
}

func (cq connQueryer) Summary(ctx context.Context, from, to time.Time) (*model.LedgerSummary, error) {
	return Summary(ctx, cq.Conn, from, to)
}

type txQueryer struct {
	*postgres.Tx
}

func (movements *Repo) Tx(tx repo.Tx) repo.MovementsTxQueryer {
	tt := tx.(*postgres.Tx)
	return txQueryer{Tx: tt}
}

func (tq txQueryer) Get(ctx context.Context, id int64) (*model.Movement, error) {
	return Get(ctx, tq.Tx, id)
}

func (tq txQueryer) FindActive(ctx context.Context, term string) (*model.Movement, error) {
	return FindActive(ctx, tq.Tx, term)
}

func (tq txQueryer) HasActive(ctx context.Context, plate string) (bool, error) {
	return HasActive(ctx, tq.Tx, plate)
}

func (tq txQueryer) ListActive(ctx context.Context) ([]model.Movement, error) {
	return ListActive(ctx, tq.Tx)
}

func (tq txQueryer) Recent(ctx context.Context, limit int) ([]model.Movement, error) {
	return Recent(ctx, tq.Tx, limit)
}

func (tq txQueryer) Summary(ctx context.Context, from, to time.Time) (*model.LedgerSummary, error) {
	return Summary(ctx, tq.Tx, from, to)
}

func (tq txQueryer) LockByID(ctx context.Context, id int64) (*model.Movement, error) {
	return LockByID(ctx, tq.Tx, id)
}

func (tq txQueryer) LockActiveBySlot(ctx context.Context, slotID int64) (*model.Movement, error) {
	return LockActiveBySlot(ctx, tq.Tx, slotID)
}

func (tq txQueryer) Insert(ctx context.Context, m *model.Movement) error {
	return Insert(ctx, tq.Tx, m)
}

func (tq txQueryer) Close(
	ctx context.Context,
	id int64,
	exit time.Time,
	fee decimal.Decimal,
	forced bool,
	actor uuid.UUID,
) error {
	return Close(ctx, tq.Tx, id, exit, fee, forced, actor)
}
