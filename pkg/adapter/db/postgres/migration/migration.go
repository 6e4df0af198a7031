// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package migration creates the database tables of the parking schema
// and fills them with their initial rows. It realizes the
// repo.SchemaInitializer interface, so the database initialization use
// case may prepare a development or production database.
//
// The tables enforce the ledger rules on their own: each plate
// and each slot may have at most one active movement (by two partial
// unique indexes) and the exit time and fee of a movement may not
// change after they are set (by a trigger).
package migration

import (
	"context"
	"fmt"

	"github.com/momeni/parking/pkg/adapter/db/postgres/settingsrp"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/momeni/parking/pkg/core/repo"
)

// Names of the unique constraints and indexes which are detected by
// the repositories in order to report business-level conflicts.
const (
	SlotsCodeKey        = "slots_code_key"
	ActivePlateIndex    = "movements_active_plate_idx"
	ActiveSlotIndex     = "movements_active_slot_idx"
	vehicleTypesCheckIn = "('motorcycle', 'car', 'truck')"
)

var ddl = []string{
	`CREATE TABLE slots (
    id bigserial PRIMARY KEY,
    code varchar(20) NOT NULL CONSTRAINT ` + SlotsCodeKey + ` UNIQUE,
    class varchar(16) NOT NULL CHECK (class IN ` + vehicleTypesCheckIn + `),
    state varchar(16) NOT NULL DEFAULT 'free'
        CHECK (state IN ('free', 'occupied', 'inactive'))
)`,
	`CREATE INDEX slots_class_state_idx ON slots (class, state, id)`,
	`CREATE TABLE movements (
    id bigserial PRIMARY KEY,
    slot_id bigint REFERENCES slots (id) ON DELETE SET NULL,
    slot_code varchar(20) NOT NULL,
    vehicle_type varchar(16) NOT NULL
        CHECK (vehicle_type IN ` + vehicleTypesCheckIn + `),
    plate varchar(8) NOT NULL,
    color varchar(30),
    entry_time timestamptz NOT NULL,
    exit_time timestamptz,
    fee numeric(12, 2),
    created_by uuid NOT NULL,
    closed_by uuid,
    forced_release boolean NOT NULL DEFAULT false,
    CHECK (exit_time IS NULL OR exit_time >= entry_time),
    CHECK ((exit_time IS NULL) = (fee IS NULL)),
    CHECK (fee IS NULL OR fee >= 0)
)`,
	`CREATE UNIQUE INDEX ` + ActivePlateIndex + `
    ON movements (plate) WHERE exit_time IS NULL`,
	`CREATE UNIQUE INDEX ` + ActiveSlotIndex + `
    ON movements (slot_id) WHERE exit_time IS NULL`,
	`CREATE INDEX movements_exit_time_idx
    ON movements (exit_time DESC) WHERE exit_time IS NOT NULL`,
	`CREATE FUNCTION movements_freeze_exit() RETURNS trigger AS $$
BEGIN
    IF OLD.exit_time IS NOT NULL AND (
        NEW.exit_time IS DISTINCT FROM OLD.exit_time
        OR NEW.fee IS DISTINCT FROM OLD.fee
    ) THEN
        RAISE EXCEPTION 'movement % has already exited', OLD.id;
    END IF;
    RETURN NEW;
END;
$$ LANGUAGE plpgsql`,
	`CREATE TRIGGER movements_freeze_exit
    BEFORE UPDATE ON movements
    FOR EACH ROW EXECUTE FUNCTION movements_freeze_exit()`,
	`CREATE TABLE settings (
    name varchar(64) PRIMARY KEY,
    value text NOT NULL
)`,
	`CREATE TABLE tariffs (
    vehicle_type varchar(16) PRIMARY KEY
        CHECK (vehicle_type IN ` + vehicleTypesCheckIn + `),
    hourly_rate numeric(12, 2) NOT NULL CHECK (hourly_rate > 0)
)`,
}

// devSlots lists the sample slots of a development database, per class.
var devSlots = []struct {
	prefix string
	class  model.VehicleType
	count  int
}{
	{"M", model.VehicleTypeMotorcycle, 5},
	{"C", model.VehicleTypeCar, 10},
	{"T", model.VehicleTypeTruck, 3},
}

// Initializer creates and fills the tables in the wrapped transaction.
// The caller is responsible to commit that transaction.
type Initializer struct {
	tx repo.Tx
}

// NewInitializer creates an Initializer instance, wrapping tx. The
// target schema must exist and be the first item in the search_path
// of the tx connection role.
func NewInitializer(tx repo.Tx) *Initializer {
	return &Initializer{tx: tx}
}

// InitDevSchema creates all tables, stores s settings, and adds the
// sample slots M1-M5, C1-C10, and T1-T3.
func (in *Initializer) InitDevSchema(
	ctx context.Context, s *model.Settings,
) error {
	if err := in.InitProdSchema(ctx, s); err != nil {
		return err
	}
	for _, ds := range devSlots {
		for i := 1; i <= ds.count; i++ {
			_, err := in.tx.Exec(
				ctx,
				"INSERT INTO slots (code, class) VALUES ($1, $2)",
				fmt.Sprintf("%s%d", ds.prefix, i), ds.class.String(),
			)
			if err != nil {
				return fmt.Errorf("inserting %s slots: %w", ds.class, err)
			}
		}
	}
	return nil
}

// InitProdSchema creates all tables and stores s settings.
func (in *Initializer) InitProdSchema(
	ctx context.Context, s *model.Settings,
) error {
	for i, stmt := range ddl {
		if _, err := in.tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("running DDL statement #%d: %w", i, err)
		}
	}
	if err := settingsrp.Seed(ctx, in.tx, s); err != nil {
		return fmt.Errorf("seeding settings: %w", err)
	}
	return nil
}
