// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Movement is the stay record of one vehicle in the facility.
// A movement is active while its ExitTime is nil. The SlotCode is a
// snapshot of the slot code at the entry time, so historical movements
// remain readable even if their slot is converted or deleted later
// (and SlotID becomes nil).
type Movement struct {
	ID          int64            `json:"id"`
	SlotID      *int64           `json:"slot_id"`
	SlotCode    string           `json:"slot_code"`
	VehicleType VehicleType      `json:"vehicle_type"`
	Plate       string           `json:"plate"`
	Color       *string          `json:"color,omitempty"`
	EntryTime   time.Time        `json:"entry_time"`
	ExitTime    *time.Time       `json:"exit_time,omitempty"`
	Fee         *decimal.Decimal `json:"fee,omitempty"`
	CreatedBy   uuid.UUID        `json:"created_by"`
	ClosedBy    *uuid.UUID       `json:"closed_by,omitempty"`

	// ForcedRelease is true if the movement was closed by a manual
	// slot release instead of a regular exit registration.
	// Such movements are always closed with a zero fee.
	ForcedRelease bool `json:"forced_release"`
}

// Active reports if the vehicle of m is still inside the facility.
func (m *Movement) Active() bool {
	return m.ExitTime == nil
}

// EntryReceipt is returned after a successful entry registration.
type EntryReceipt struct {
	MovementID  int64       `json:"movement_id"`
	SlotID      int64       `json:"slot_id"`
	SlotCode    string      `json:"slot_code"`
	SlotClass   VehicleType `json:"slot_class"`
	VehicleType VehicleType `json:"vehicle_type"`
	Plate       string      `json:"plate"`
	EntryTime   time.Time   `json:"entry_time"`

	// Fallback is true when the vehicle was placed in a slot of
	// another (compatible) class because its own class was full.
	Fallback bool `json:"fallback"`
}

// ExitReceipt is returned after a successful exit registration.
type ExitReceipt struct {
	MovementID  int64           `json:"movement_id"`
	SlotCode    string          `json:"slot_code"`
	VehicleType VehicleType     `json:"vehicle_type"`
	Plate       string          `json:"plate"`
	EntryTime   time.Time       `json:"entry_time"`
	ExitTime    time.Time       `json:"exit_time"`
	Elapsed     Elapsed         `json:"elapsed"`
	Fee         decimal.Decimal `json:"fee"`
}

// Elapsed is a stay duration, truncated to whole minutes.
type Elapsed struct {
	Hours   int64 `json:"hours"`
	Minutes int64 `json:"minutes"`
}

// NewElapsed splits d into whole hours and remaining whole minutes.
// Negative durations are reported as zero.
func NewElapsed(d time.Duration) Elapsed {
	if d < 0 {
		d = 0
	}
	m := int64(d / time.Minute)
	return Elapsed{Hours: m / 60, Minutes: m % 60}
}

// String formats e like "2h 5m".
func (e Elapsed) String() string {
	return fmt.Sprintf("%dh %dm", e.Hours, e.Minutes)
}

// LedgerSummary aggregates the closed movements of a time range.
type LedgerSummary struct {
	From    time.Time       `json:"from"`
	To      time.Time       `json:"to"`
	Exits   int64           `json:"exits"`
	Forced  int64           `json:"forced"`
	Revenue decimal.Decimal `json:"revenue"`
}

var plateRegexp = regexp.MustCompile(`^[A-Z0-9]{4,8}$`)

// ParsePlate normalizes a license plate by trimming its surrounding
// spaces and converting it to uppercase. Normalized plates must have
// 4 to 8 letters or digits, otherwise, ErrInvalidPlate is returned.
func ParsePlate(plate string) (string, error) {
	p := strings.ToUpper(strings.TrimSpace(plate))
	if !plateRegexp.MatchString(p) {
		return "", ErrInvalidPlate
	}
	return p, nil
}

// ParseColor trims the optional vehicle color, returning nil for
// empty colors. Colors longer than 30 characters are rejected.
func ParseColor(color *string) (*string, error) {
	if color == nil {
		return nil, nil
	}
	c := strings.TrimSpace(*color)
	if c == "" {
		return nil, nil
	}
	if len([]rune(c)) > 30 {
		return nil, ErrInvalidColor
	}
	return &c, nil
}
