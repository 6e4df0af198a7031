// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package cerr classifies the errors which are returned by use cases.
// Each classified error carries a Kind, letting callers decide whether
// to fix their input, to retry later, or to escalate the problem to an
// operator, and a suggested HTTP status code for the restful adapters.
package cerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind enumerates the error categories.
type Kind int

// Valid error kinds. KindUnknown is reported for errors which are not
// wrapped by an *Error instance.
const (
	KindUnknown Kind = iota

	// KindValidation means that a caller input was malformed.
	KindValidation

	// KindConflict means that a well-formed request violates the
	// current facility state, e.g., no slot is available.
	KindConflict

	// KindNotFound means that a referenced entity does not exist.
	KindNotFound

	// KindTransient means that the request may succeed if retried,
	// e.g., a lock wait timed out or a serialization failure happened.
	KindTransient

	// KindConfiguration means that the facility settings are broken,
	// e.g., a tariff is missing, and an operator must fix them.
	KindConfiguration
)

// String returns a lowercase name of the k error kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// Error is a classified error, wrapping Err.
type Error struct {
	Err            error
	Kind           Kind
	HTTPStatusCode int
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%d] %s", e.HTTPStatusCode, e.Err.Error())
}

func Validation(err error) *Error {
	return &Error{
		Err: err, Kind: KindValidation,
		HTTPStatusCode: http.StatusBadRequest,
	}
}

func Conflict(err error) *Error {
	return &Error{
		Err: err, Kind: KindConflict,
		HTTPStatusCode: http.StatusConflict,
	}
}

func NotFound(err error) *Error {
	return &Error{
		Err: err, Kind: KindNotFound,
		HTTPStatusCode: http.StatusNotFound,
	}
}

func Transient(err error) *Error {
	return &Error{
		Err: err, Kind: KindTransient,
		HTTPStatusCode: http.StatusServiceUnavailable,
	}
}

func Configuration(err error) *Error {
	return &Error{
		Err: err, Kind: KindConfiguration,
		HTTPStatusCode: http.StatusInternalServerError,
	}
}

// KindOf returns the Kind of the outermost *Error in the err chain,
// or KindUnknown if err was never classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsTransient reports if err was classified as a transient error.
func IsTransient(err error) bool {
	return KindOf(err) == KindTransient
}

// Classified reports if err chain contains an *Error instance.
func Classified(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
