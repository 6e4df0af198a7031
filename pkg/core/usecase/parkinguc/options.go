// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package parkinguc

import (
	"errors"
	"fmt"
	"time"

	"github.com/momeni/parking/pkg/core/model"
	"go.opentelemetry.io/otel/trace"
)

// Option represents a functional option for the parking UseCase.
type Option func(uc *UseCase) error

// WithMaxAttempts limits the number of times that a transaction may
// run when it fails due to transient database errors. The n must be
// at least one; n == 1 disables retrying.
func WithMaxAttempts(n int) Option {
	return func(uc *UseCase) error {
		if n < 1 {
			return fmt.Errorf("max attempts must be positive: %d", n)
		}
		uc.maxAttempts = n
		return nil
	}
}

// WithRetryDelay sets the initial wait time between two attempts.
// Subsequent waits grow exponentially.
func WithRetryDelay(d time.Duration) Option {
	return func(uc *UseCase) error {
		if d <= 0 {
			return fmt.Errorf("retry delay must be positive: %v", d)
		}
		uc.retryDelay = d
		return nil
	}
}

// WithFallbacks replaces the slot class compatibility table.
// For each requested vehicle type, its slot classes are probed in
// order after the exact class is found full. A vehicle type may not
// fall back to its own class, and repeated classes are rejected.
func WithFallbacks(fb map[model.VehicleType][]model.VehicleType) Option {
	return func(uc *UseCase) error {
		table := make(map[model.VehicleType][]model.VehicleType, len(fb))
		for vt, classes := range fb {
			if err := vt.Validate(); err != nil {
				return fmt.Errorf("fallback source: %w", err)
			}
			seen := map[model.VehicleType]bool{vt: true}
			for _, c := range classes {
				if err := c.Validate(); err != nil {
					return fmt.Errorf("fallback of %v: %w", vt, err)
				}
				if seen[c] {
					return fmt.Errorf(
						"fallback of %v: %w: %v", vt, errRepeatedClass, c,
					)
				}
				seen[c] = true
			}
			table[vt] = append([]model.VehicleType(nil), classes...)
		}
		uc.fallbacks = table
		return nil
	}
}

var errRepeatedClass = errors.New("repeated slot class")

// WithClock replaces the wall clock which provides the entry and exit
// times. The returned times are truncated to seconds in UTC.
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) error {
		if now == nil {
			return errors.New("clock must not be nil")
		}
		uc.now = now
		return nil
	}
}

// WithRecorder sets the Recorder which observes the outcomes of the
// parking operations, e.g., for exporting metrics.
func WithRecorder(r Recorder) Option {
	return func(uc *UseCase) error {
		if r == nil {
			return errors.New("recorder must not be nil")
		}
		uc.recorder = r
		return nil
	}
}

// WithTracer sets the tracer which starts the use case spans.
// By default, the tracer of the global otel provider is used.
func WithTracer(t trace.Tracer) Option {
	return func(uc *UseCase) error {
		if t == nil {
			return errors.New("tracer must not be nil")
		}
		uc.tracer = t
		return nil
	}
}
