// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package slotsrp is the adapter for the slots repository, reifying
// the repo.Slots interface using GORM.
package slotsrp

import (
	"context"

	"github.com/momeni/parking/pkg/adapter/db/postgres"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/momeni/parking/pkg/core/repo"
)

type Repo struct {
}

func New() *Repo {
	return &Repo{}
}

type connQueryer struct {
	*postgres.Conn
}

func (slots *Repo) Conn(c repo.Conn) repo.SlotsConnQueryer {
	cc := c.(*postgres.Conn)
	return connQueryer{Conn: cc}
}

func (cq connQueryer) Get(ctx context.Context, id int64) (*model.Slot, error) {
	return Get(ctx, cq.Conn, id)
}

func (cq connQueryer) GetByCode(ctx context.Context, code string) (*model.Slot, error) {
	return GetByCode(ctx, cq.Conn, code)
}

func (cq connQueryer) List(ctx context.Context, f model.SlotFilter) ([]model.Slot, error) {
	return List(ctx, cq.Conn, f)
}

func (cq connQueryer) Count(ctx context.Context) (int64, error) {
	return Count(ctx, cq.Conn)
}

func (cq connQueryer) Availability(ctx context.Context) ([]model.Availability, error) {
	return Availability(ctx, cq.Conn)
}

type txQueryer struct {
	*postgres.Tx
}

func (slots *Repo) Tx(tx repo.Tx) repo.SlotsTxQueryer {
	tt := tx.(*postgres.Tx)
	return txQueryer{Tx: tt}
}

func (tq txQueryer) Get(ctx context.Context, id int64) (*model.Slot, error) {
	return Get(ctx, tq.Tx, id)
}

func (tq txQueryer) GetByCode(ctx context.Context, code string) (*model.Slot, error) {
	return GetByCode(ctx, tq.Tx, code)
}

func (tq txQueryer) List(ctx context.Context, f model.SlotFilter) ([]model.Slot, error) {
	return List(ctx, tq.Tx, f)
}

func (tq txQueryer) Count(ctx context.Context) (int64, error) {
	return Count(ctx, tq.Tx)
}

func (tq txQueryer) Availability(ctx context.Context) ([]model.Availability, error) {
	return Availability(ctx, tq.Tx)
}

func (tq txQueryer) LockFirstFree(ctx context.Context, class model.VehicleType) (*model.Slot, error) {
	return LockFirstFree(ctx, tq.Tx, class)
}

func (tq txQueryer) LockByID(ctx context.Context, id int64) (*model.Slot, error) {
	return LockByID(ctx, tq.Tx, id)
}

func (tq txQueryer) SetState(ctx context.Context, id int64, st model.SlotState) error {
	return SetState(ctx, tq.Tx, id, st)
}

func (tq txQueryer) SetClass(ctx context.Context, id int64, class model.VehicleType) error {
	return SetClass(ctx, tq.Tx, id, class)
}

func (tq txQueryer) Create(ctx context.Context, s *model.Slot) error {
	return Create(ctx, tq.Tx, s)
}

func (tq txQueryer) Delete(ctx context.Context, id int64) error {
	return Delete(ctx, tq.Tx, id)
}
