// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"cmp"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// Duration is a time.Duration which is written in the configuration
// file with the time.ParseDuration format, e.g., 50ms or 1m30s.
type Duration time.Duration

// UnmarshalText parses data as a time.Duration string.
func (d *Duration) UnmarshalText(data []byte) error {
	dd, err := time.ParseDuration(string(data))
	if err != nil {
		return err
	}
	*d = Duration(dd)
	return nil
}

// MarshalText formats d without its trailing zero units, so 2m is
// written instead of 2m0s.
func (d Duration) MarshalText() ([]byte, error) {
	s := time.Duration(d).String()
	if strings.HasSuffix(s, "m0s") {
		s = s[:len(s)-2]
	}
	if strings.HasSuffix(s, "h0m") {
		s = s[:len(s)-2]
	}
	return []byte(s), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// LogValue implements slog.LogValuer.
func (d *Duration) LogValue() slog.Value {
	if d == nil {
		return slog.StringValue("nil-duration")
	}
	return slog.DurationValue(time.Duration(*d))
}

// errInvalidRange indicates that a minimum bound exceeds its maximum.
var errInvalidRange = errors.New("min is greater than max")

// OutOfRangeError reports that a setting was clamped to its bounds.
type OutOfRangeError[T cmp.Ordered] struct {
	Value       T    // the original out-of-range value
	LessThanMin bool // true if the minimum bound was violated
}

func (e *OutOfRangeError[T]) Error() string {
	if e.LessThanMin {
		return "value is less than min"
	}
	return "value is greater than max"
}

// verifyRange checks that *value lies in the inclusive [minb, maxb]
// range. Nil bounds are ignored and a nil *value is accepted since
// it will take its default value. An out-of-range value is replaced
// by its violated bound and reported with an *OutOfRangeError, so
// the caller may decide to warn or fail.
func verifyRange[T cmp.Ordered](value **T, minb, maxb *T) error {
	if minb != nil && maxb != nil && *minb > *maxb {
		return errInvalidRange
	}
	if *value == nil {
		return nil
	}
	switch v := **value; {
	case minb != nil && v < *minb:
		**value = *minb
		return &OutOfRangeError[T]{Value: v, LessThanMin: true}
	case maxb != nil && v > *maxb:
		**value = *maxb
		return &OutOfRangeError[T]{Value: v}
	}
	return nil
}

// orDefault fills a nil *t with a copy of def.
func orDefault[T any](t **T, def T) {
	if *t == nil {
		*t = &def
	}
}
