// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"errors"
	"fmt"
)

// Business-level errors. They are wrapped by the cerr package in order
// to be classified, so callers should use errors.Is for detection.
var (
	ErrInvalidPlate         = errors.New("invalid plate")
	ErrInvalidColor         = errors.New("invalid color")
	ErrInvalidSlotCode      = errors.New("invalid slot code")
	ErrInvalidSetting       = errors.New("invalid setting")
	ErrEntryInFuture        = errors.New("entry time is in the future")
	ErrDuplicateActiveEntry = errors.New("plate has an active movement")
	ErrNoSlotAvailable      = errors.New("no slot available")
	ErrMovementNotFound     = errors.New("movement not found")
	ErrAlreadyExited        = errors.New("movement has already exited")
	ErrNoActiveMovement     = errors.New("no active movement")
	ErrSlotNotFound         = errors.New("slot not found")
	ErrSlotOccupied         = errors.New("slot is occupied")
	ErrSlotNotOccupied      = errors.New("slot is not occupied")
	ErrCapacityReached      = errors.New("slot capacity limit is reached")
	ErrDuplicateSlotCode    = errors.New("slot code already exists")
	ErrSameSlotClass        = errors.New("slot already has this class")
	ErrMissingTariff        = errors.New("missing hourly rate")
	ErrMissingSetting       = errors.New("missing setting")
	ErrMissingActor         = errors.New("missing actor id")
)

// NoSlotAvailableError reports that no free slot could be found for
// a vehicle type, neither in its own class nor in its fallbacks.
// It matches ErrNoSlotAvailable using errors.Is.
type NoSlotAvailableError VehicleType

// Error implements the error interface.
func (e NoSlotAvailableError) Error() string {
	return fmt.Sprintf("no slot available for %v", VehicleType(e))
}

// Is reports if target is the ErrNoSlotAvailable sentinel error.
func (e NoSlotAvailableError) Is(target error) bool {
	return target == ErrNoSlotAvailable
}
