// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package movementsrp

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parking/pkg/adapter/db/postgres"
	"github.com/momeni/parking/pkg/adapter/db/postgres/migration"
	"github.com/momeni/parking/pkg/core/cerr"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

type gMovement struct {
	ID            int64 `gorm:"primaryKey"`
	SlotID        *int64
	SlotCode      string
	VehicleType   string
	Plate         string
	Color         *string
	EntryTime     time.Time
	ExitTime      *time.Time
	Fee           decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	CreatedBy     uuid.UUID           `gorm:"type:uuid"`
	ClosedBy      uuid.NullUUID       `gorm:"type:uuid"`
	ForcedRelease bool
}

func (gm *gMovement) TableName() string {
	return "movements"
}

func (gm *gMovement) Model() (*model.Movement, error) {
	vt, err := model.ParseVehicleType(gm.VehicleType)
	if err != nil {
		return nil, fmt.Errorf(
			"movement %d type %q: %w", gm.ID, gm.VehicleType, err,
		)
	}
	m := &model.Movement{
		ID:            gm.ID,
		SlotID:        gm.SlotID,
		SlotCode:      gm.SlotCode,
		VehicleType:   vt,
		Plate:         gm.Plate,
		Color:         gm.Color,
		EntryTime:     gm.EntryTime,
		ExitTime:      gm.ExitTime,
		CreatedBy:     gm.CreatedBy,
		ForcedRelease: gm.ForcedRelease,
	}
	if gm.ClosedBy.Valid {
		actor := gm.ClosedBy.UUID
		m.ClosedBy = &actor
	}
	if gm.Fee.Valid {
		fee := gm.Fee.Decimal
		m.Fee = &fee
	}
	return m, nil
}

func models(gms []gMovement) ([]model.Movement, error) {
	ms := make([]model.Movement, 0, len(gms))
	for i := range gms {
		m, err := gms[i].Model()
		if err != nil {
			return nil, err
		}
		ms = append(ms, *m)
	}
	return ms, nil
}

func notFound(id int64) error {
	return cerr.NotFound(
		fmt.Errorf("movement %d: %w", id, model.ErrMovementNotFound),
	)
}

// Get returns the id movement.
func Get[Q postgres.Queryer](
	ctx context.Context, q Q, id int64,
) (*model.Movement, error) {
	var gms []gMovement
	if err := q.GORM(ctx).Where("id = ?", id).Limit(1).Find(&gms).Error; err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	if len(gms) == 0 {
		return nil, notFound(id)
	}
	return gms[0].Model()
}

// FindActive returns the active movement of a plate, or the active
// movement of a slot code if no plate matches term.
func FindActive[Q postgres.Queryer](
	ctx context.Context, q Q, term string,
) (*model.Movement, error) {
	for _, col := range []string{"plate", "slot_code"} {
		var gms []gMovement
		err := q.GORM(ctx).Where(
			col+" = ? AND exit_time IS NULL", term,
		).Order("id").Limit(1).Find(&gms).Error
		if err != nil {
			return nil, fmt.Errorf("query by %s: %w", col, err)
		}
		if len(gms) == 1 {
			return gms[0].Model()
		}
	}
	return nil, cerr.NotFound(
		fmt.Errorf("%q: %w", term, model.ErrNoActiveMovement),
	)
}

// HasActive reports if plate has an active movement.
func HasActive[Q postgres.Queryer](
	ctx context.Context, q Q, plate string,
) (bool, error) {
	var n int64
	err := q.GORM(ctx).Model(&gMovement{}).Where(
		"plate = ? AND exit_time IS NULL", plate,
	).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("query: %w", err)
	}
	return n > 0, nil
}

// ListActive returns the active movements, newest entries first.
func ListActive[Q postgres.Queryer](
	ctx context.Context, q Q,
) ([]model.Movement, error) {
	var gms []gMovement
	err := q.GORM(ctx).Where("exit_time IS NULL").Order(
		"entry_time DESC, id DESC",
	).Find(&gms).Error
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return models(gms)
}

// Recent returns at most limit closed movements, newest exits first.
func Recent[Q postgres.Queryer](
	ctx context.Context, q Q, limit int,
) ([]model.Movement, error) {
	var gms []gMovement
	err := q.GORM(ctx).Where("exit_time IS NOT NULL").Order(
		"exit_time DESC, id DESC",
	).Limit(limit).Find(&gms).Error
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return models(gms)
}

// Summary aggregates the movements which exited in [from, to).
func Summary[Q postgres.Queryer](
	ctx context.Context, q Q, from, to time.Time,
) (*model.LedgerSummary, error) {
	rows, err := q.Query(ctx, `SELECT count(*),
    count(*) FILTER (WHERE forced_release),
    COALESCE(sum(fee), 0)
FROM movements
WHERE exit_time >= $1 AND exit_time < $2`, from, to)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	s := &model.LedgerSummary{From: from, To: to}
	if rows.Next() {
		if err := rows.Scan(&s.Exits, &s.Forced, &s.Revenue); err != nil {
			return nil, fmt.Errorf("scanning: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating: %w", err)
	}
	return s, nil
}

// LockByID locks and returns the id movement.
func LockByID(
	ctx context.Context, tx *postgres.Tx, id int64,
) (*model.Movement, error) {
	var gms []gMovement
	err := tx.GORM(ctx).Clauses(
		clause.Locking{Strength: "UPDATE"},
	).Where("id = ?", id).Limit(1).Find(&gms).Error
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	if len(gms) == 0 {
		return nil, notFound(id)
	}
	return gms[0].Model()
}

// LockActiveBySlot locks and returns the active movement of slotID.
func LockActiveBySlot(
	ctx context.Context, tx *postgres.Tx, slotID int64,
) (*model.Movement, error) {
	var gms []gMovement
	err := tx.GORM(ctx).Clauses(
		clause.Locking{Strength: "UPDATE"},
	).Where(
		"slot_id = ? AND exit_time IS NULL", slotID,
	).Limit(1).Find(&gms).Error
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	if len(gms) == 0 {
		return nil, cerr.Conflict(fmt.Errorf(
			"slot %d: %w", slotID, model.ErrNoActiveMovement,
		))
	}
	return gms[0].Model()
}

// Insert appends m as an active movement and fills its ID.
func Insert(ctx context.Context, tx *postgres.Tx, m *model.Movement) error {
	gm := gMovement{
		SlotID:      m.SlotID,
		SlotCode:    m.SlotCode,
		VehicleType: m.VehicleType.String(),
		Plate:       m.Plate,
		Color:       m.Color,
		EntryTime:   m.EntryTime,
		CreatedBy:   m.CreatedBy,
	}
	if err := tx.GORM(ctx).Create(&gm).Error; err != nil {
		switch {
		case postgres.IsUniqueViolation(err, migration.ActivePlateIndex):
			return cerr.Conflict(fmt.Errorf(
				"plate %q: %w", m.Plate, model.ErrDuplicateActiveEntry,
			))
		case postgres.IsUniqueViolation(err, migration.ActiveSlotIndex):
			return cerr.Conflict(fmt.Errorf(
				"slot %q: %w", m.SlotCode, model.ErrSlotOccupied,
			))
		}
		return fmt.Errorf("query: %w", err)
	}
	m.ID = gm.ID
	return nil
}

// Close finalizes the id movement if it is still active.
func Close(
	ctx context.Context,
	tx *postgres.Tx,
	id int64,
	exit time.Time,
	fee decimal.Decimal,
	forced bool,
	actor uuid.UUID,
) error {
	res := tx.GORM(ctx).Model(&gMovement{}).Where(
		"id = ? AND exit_time IS NULL", id,
	).Updates(map[string]any{
		"exit_time":      exit,
		"fee":            fee,
		"forced_release": forced,
		"closed_by":      actor,
	})
	if err := res.Error; err != nil {
		return fmt.Errorf("query: %w", err)
	}
	if res.RowsAffected != 1 {
		return cerr.Conflict(
			fmt.Errorf("movement %d: %w", id, model.ErrAlreadyExited),
		)
	}
	return nil
}
