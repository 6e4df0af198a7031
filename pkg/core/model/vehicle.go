// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package model defines the inner most layer of the Clean Architecture
// containing the business-level models, also called entities or domain.
// This layer may not depend on outter layers, while all other layers
// may depend on it.
//
// The parking facility is modeled by slots (physical spaces which are
// typed by a VehicleType compatibility class) and movements (the stay
// records of vehicles from their entry to their exit). Fees are kept as
// decimal.Decimal amounts, so they may be reproduced exactly from the
// stored timestamps and the BillingPolicy.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// VehicleType specifies the closed set of compatibility classes. It is
// used both as the type of an incoming vehicle and as the class of a
// slot. Although this enum is numeric, it is (de)serialized as a string
// in the adapter layer for readability.
type VehicleType int

// Valid values for the VehicleType enum. They are sorted by size, so
// a larger class has a larger value.
const (
	VehicleTypeInvalid VehicleType = iota // zero value is invalid

	VehicleTypeMotorcycle
	VehicleTypeCar
	VehicleTypeTruck
)

// ErrUnknownVehicleType indicates that a given string may not be parsed
// as a known vehicle type. The invalid string itself is not included
// because the caller of ParseVehicleType already knows about it.
var ErrUnknownVehicleType = errors.New("unknown vehicle type")

// VehicleTypeError indicates an invalid numeric vehicle type.
type VehicleTypeError int

// Error implements the error interface, returning a string
// representation of the VehicleTypeError.
func (e VehicleTypeError) Error() string {
	return fmt.Sprintf("invalid vehicle type: %d", e)
}

// VehicleTypes returns all valid vehicle types, smallest class first.
func VehicleTypes() []VehicleType {
	return []VehicleType{
		VehicleTypeMotorcycle, VehicleTypeCar, VehicleTypeTruck,
	}
}

// Validate returns nil if VehicleType value is valid. For invalid
// values, an instance of the VehicleTypeError will be returned.
func (v VehicleType) Validate() error {
	switch v {
	case VehicleTypeMotorcycle, VehicleTypeCar, VehicleTypeTruck:
		return nil
	default:
		return VehicleTypeError(v)
	}
}

// String converts the VehicleType enum to a string, helping to
// serialize it for storage and transmission. Invalid vehicle types
// cause a panic.
func (v VehicleType) String() string {
	switch v {
	case VehicleTypeMotorcycle:
		return "motorcycle"
	case VehicleTypeCar:
		return "car"
	case VehicleTypeTruck:
		return "truck"
	default:
		panic(VehicleTypeError(v))
	}
}

// MarshalText implements encoding.TextMarshaler, so vehicle types are
// encoded as strings in JSON and YAML documents.
func (v VehicleType) MarshalText() ([]byte, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using the
// ParseVehicleType function. In case of errors, v remains unchanged.
func (v *VehicleType) UnmarshalText(text []byte) error {
	vt, err := ParseVehicleType(string(text))
	if err != nil {
		return err
	}
	*v = vt
	return nil
}

// ParseVehicleType parses the given string (ignoring its case and its
// surrounding spaces) and returns a VehicleType.
// For invalid strings, VehicleTypeInvalid and ErrUnknownVehicleType
// will be returned.
func ParseVehicleType(s string) (VehicleType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "motorcycle":
		return VehicleTypeMotorcycle, nil
	case "car":
		return VehicleTypeCar, nil
	case "truck":
		return VehicleTypeTruck, nil
	default:
		return VehicleTypeInvalid, ErrUnknownVehicleType
	}
}
