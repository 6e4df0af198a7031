// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package ledgeruc contains the read-only movements ledger UseCase.
package ledgeruc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/momeni/parking/pkg/core/cerr"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/momeni/parking/pkg/core/repo"
)

// MaxRecent is the largest number of movements which may be asked
// from the Recent method.
const MaxRecent = 500

// ErrInvalidRange indicates that a summary range is empty or reversed.
var ErrInvalidRange = errors.New("range start must precede its end")

// UseCase represents the movements ledger use case.
type UseCase struct {
	pool      repo.Pool
	movements repo.Movements
}

// New instantiates a movements ledger use case.
func New(p repo.Pool, m repo.Movements) *UseCase {
	return &UseCase{pool: p, movements: m}
}

// ActiveMovements returns the movements of the vehicles which are in
// the facility, newest entries first.
func (uc *UseCase) ActiveMovements(
	ctx context.Context,
) (ms []model.Movement, err error) {
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		ms, err = uc.movements.Conn(c).ListActive(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ms, nil
}

// Recent returns at most limit closed movements, newest exits first.
// The limit must be in [1, MaxRecent].
func (uc *UseCase) Recent(
	ctx context.Context, limit int,
) (ms []model.Movement, err error) {
	if limit < 1 || limit > MaxRecent {
		return nil, cerr.Validation(fmt.Errorf(
			"limit %d is not in [1, %d]", limit, MaxRecent,
		))
	}
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		ms, err = uc.movements.Conn(c).Recent(ctx, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ms, nil
}

// Movement returns the id movement, whether it is active or not.
func (uc *UseCase) Movement(
	ctx context.Context, id int64,
) (m *model.Movement, err error) {
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		m, err = uc.movements.Conn(c).Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Summary aggregates the movements which exited in [from, to).
func (uc *UseCase) Summary(
	ctx context.Context, from, to time.Time,
) (s *model.LedgerSummary, err error) {
	if !from.Before(to) {
		return nil, cerr.Validation(ErrInvalidRange)
	}
	err = uc.pool.Conn(ctx, func(ctx context.Context, c repo.Conn) error {
		s, err = uc.movements.Conn(c).Summary(ctx, from, to)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
