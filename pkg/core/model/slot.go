// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// SlotState enumerates the lifecycle states of a parking slot.
// The free and occupied states are switched by the assignment engine
// while the free and inactive states are switched by slot management.
type SlotState int

// Valid values for the SlotState enum.
const (
	SlotStateInvalid SlotState = iota // zero value is invalid

	SlotStateFree
	SlotStateOccupied
	SlotStateInactive
)

// ErrUnknownSlotState indicates that a string is not a known state.
var ErrUnknownSlotState = errors.New("unknown slot state")

// SlotStateError indicates an invalid numeric slot state.
type SlotStateError int

// Error implements the error interface.
func (e SlotStateError) Error() string {
	return fmt.Sprintf("invalid slot state: %d", e)
}

// Validate returns nil if SlotState value is valid.
func (s SlotState) Validate() error {
	switch s {
	case SlotStateFree, SlotStateOccupied, SlotStateInactive:
		return nil
	default:
		return SlotStateError(s)
	}
}

// String converts the SlotState to its storage representation.
// Invalid states cause a panic.
func (s SlotState) String() string {
	switch s {
	case SlotStateFree:
		return "free"
	case SlotStateOccupied:
		return "occupied"
	case SlotStateInactive:
		return "inactive"
	default:
		panic(SlotStateError(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s SlotState) MarshalText() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SlotState) UnmarshalText(text []byte) error {
	st, err := ParseSlotState(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// ParseSlotState parses a case-insensitive slot state string.
func ParseSlotState(s string) (SlotState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "free":
		return SlotStateFree, nil
	case "occupied":
		return SlotStateOccupied, nil
	case "inactive":
		return SlotStateInactive, nil
	default:
		return SlotStateInvalid, ErrUnknownSlotState
	}
}

// Slot models a single physical parking space.
type Slot struct {
	ID    int64       `json:"id"`
	Code  string      `json:"code"`  // unique and human-readable, e.g. M1
	Class VehicleType `json:"class"` // compatibility class
	State SlotState   `json:"state"`
}

// SlotFilter restricts a slots listing. Zero values match everything.
type SlotFilter struct {
	Class VehicleType
	State SlotState
}

// Availability counts the slots of one compatibility class per state.
type Availability struct {
	Class    VehicleType `json:"class"`
	Free     int64       `json:"free"`
	Occupied int64       `json:"occupied"`
	Inactive int64       `json:"inactive"`
}

// Total returns the number of slots in the a compatibility class.
func (a Availability) Total() int64 {
	return a.Free + a.Occupied + a.Inactive
}

var slotCodeRegexp = regexp.MustCompile(`^[A-Z0-9]{1,20}$`)

// ParseSlotCode trims and uppercases the given code and ensures that
// it consists of 1 to 20 letters or digits.
// ErrInvalidSlotCode is returned otherwise.
func ParseSlotCode(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if !slotCodeRegexp.MatchString(c) {
		return "", ErrInvalidSlotCode
	}
	return c, nil
}
