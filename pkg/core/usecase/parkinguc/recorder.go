// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package parkinguc

import (
	"github.com/momeni/parking/pkg/core/model"
	"github.com/shopspring/decimal"
)

// Recorder observes the outcome of parking operations.
// Implementations must be safe for concurrent use.
type Recorder interface {
	// Entry is called once per RegisterEntry call. The fallback is
	// true if the vehicle was placed in another slot class.
	// A non-nil err reports that the entry was rejected.
	Entry(vt model.VehicleType, fallback bool, err error)

	// Exit is called once per RegisterExit or ForceRelease call.
	Exit(vt model.VehicleType, fee decimal.Decimal, forced bool, err error)

	// Retry is called whenever a transaction of the op operation is
	// going to be repeated because of a transient error.
	Retry(op string)
}

type nopRecorder struct{}

func (nopRecorder) Entry(model.VehicleType, bool, error) {}
func (nopRecorder) Exit(model.VehicleType, decimal.Decimal, bool, error) {}
func (nopRecorder) Retry(string) {}
