// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package serdser contains the request deserialization and response
// serialization helpers which are shared by all resources.
// Failed deserializations are responded right away, so the handlers
// may return as soon as a helper reports a false ok flag.
package serdser

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/momeni/parking/pkg/core/cerr"
	"github.com/shopspring/decimal"
)

// ActorHeader is the request header which identifies the operator who
// is performing a state changing operation.
const ActorHeader = "X-Actor-ID"

func Bind(c *gin.Context, req any, b binding.Binding) bool {
	switch err := c.ShouldBindWith(req, b).(type) {
	case *validator.InvalidValidationError:
		c.JSON(http.StatusInternalServerError, gin.H{
			"detail": err.Error(),
		})
	case validator.ValidationErrors:
		var nameToErrs map[string][]string
		for _, ferr := range err {
			AddErr(&nameToErrs, ferr.Field(), ferr.Error())
		}
		c.JSON(http.StatusBadRequest, nameToErrs)
	default:
		if err == nil {
			return true
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": err.Error(),
		})
	}
	return false
}

func AddErr(errs *map[string][]string, name string, msgs ...string) {
	if (*errs) == nil {
		*errs = make(map[string][]string)
	}
	(*errs)[name] = append((*errs)[name], msgs...)
}

func Assert(errs *map[string][]string, ok bool, name string, msgs ...string) bool {
	if ok {
		return true
	}
	AddErr(errs, name, msgs...)
	return false
}

// BadRequest responds with the errs field errors if there is any and
// reports if the request was acceptable.
func BadRequest(c *gin.Context, errs map[string][]string) bool {
	if errs == nil {
		return false
	}
	c.JSON(http.StatusBadRequest, errs)
	return true
}

// SerErr responds with the status code of the err kind. Errors which
// were not classified by the core layer are reported with the 500
// status code.
func SerErr(c *gin.Context, err error) {
	var ce *cerr.Error
	if errors.As(err, &ce) {
		c.JSON(ce.HTTPStatusCode, gin.H{
			"detail": ce.Err.Error(),
			"kind":   ce.Kind.String(),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"detail": err.Error(),
	})
}

// Actor parses the ActorHeader of the request.
func Actor(c *gin.Context, errs *map[string][]string) uuid.UUID {
	h := c.GetHeader(ActorHeader)
	if !Assert(errs, h != "", ActorHeader, "The actor header is required.") {
		return uuid.Nil
	}
	id, err := uuid.Parse(h)
	if !Assert(errs, err == nil, ActorHeader, "The actor header is not UUID.") {
		return uuid.Nil
	}
	return id
}

// ID parses the name path parameter as a positive integer.
func ID(c *gin.Context, name string, errs *map[string][]string) int64 {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	Assert(
		errs, err == nil && id > 0, name,
		"Path param "+name+" is not a positive integer.",
	)
	return id
}

// Time parses s as an RFC 3339 timestamp.
func Time(s, name string, errs *map[string][]string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	Assert(errs, err == nil, name, "The "+name+" is not an RFC 3339 time.")
	return t
}

// Decimal parses s as a decimal number.
func Decimal(s, name string, errs *map[string][]string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	Assert(errs, err == nil, name, "The "+name+" is not a decimal number.")
	return d
}

// Money formats an amount with exactly two decimal places.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
