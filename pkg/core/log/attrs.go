// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package log

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/shopspring/decimal"
)

// Valuer returns an Attr for the given slog.LogValuer value.
func Valuer(key string, value slog.LogValuer) slog.Attr {
	return slog.Any(key, value)
}

// Err returns an Attr for the given error value.
// The error value is resolved as a string by its Error() method.
// If error value is nil, the constant "no-error" value will be used.
func Err(key string, value error) slog.Attr {
	if value == nil {
		return slog.String(key, "no-error")
	}
	return slog.String(key, value.Error())
}

// Actor returns the "actor" Attr for the operator identifier.
func Actor(id uuid.UUID) slog.Attr {
	return slog.String("actor", id.String())
}

// Plate returns the "plate" Attr.
func Plate(p string) slog.Attr {
	return slog.String("plate", p)
}

// SlotCode returns the "slot_code" Attr.
func SlotCode(code string) slog.Attr {
	return slog.String("slot_code", code)
}

// SlotID returns the "slot_id" Attr.
func SlotID(id int64) slog.Attr {
	return slog.Int64("slot_id", id)
}

// MovementID returns the "movement_id" Attr.
func MovementID(id int64) slog.Attr {
	return slog.Int64("movement_id", id)
}

// VehicleType returns the "vehicle_type" Attr. Invalid vehicle types
// are logged by their numeric value instead of panicking.
func VehicleType(key string, vt model.VehicleType) slog.Attr {
	if vt.Validate() != nil {
		return slog.Int(key, int(vt))
	}
	return slog.String(key, vt.String())
}

// Amount returns an Attr for a money amount with two decimal places.
func Amount(key string, d decimal.Decimal) slog.Attr {
	return slog.String(key, d.StringFixed(2))
}

// Time returns an Attr for t in the UTC time zone.
func Time(key string, t time.Time) slog.Attr {
	return slog.Time(key, t.UTC())
}
