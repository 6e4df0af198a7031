// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package parkingrs realizes the parking resource, allowing the entry,
// exit, fee estimation, active movement search, and forced release
// REST APIs to be accepted and delegated to the parking use case.
package parkingrs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/momeni/parking/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/parking/pkg/core/usecase/parkinguc"
)

type resource struct {
	parking *parkinguc.UseCase
}

// Register instantiates a resource adapting the parking use case
// instance with the relevant REST APIs including:
//  1. POST request to /entries in order to register a vehicle entry,
//  2. POST request to /exits/:mid in order to register an exit,
//  3. GET request to /movements/active?q=term in order to find the
//     active movement of a plate or slot code,
//  4. GET request to /movements/:mid/fee in order to preview the fee
//     of an active movement,
//  5. GET request to /fees/estimate in order to preview a fee, and
//  6. POST request to /slots/:sid/release in order to close the open
//     movement of an occupied slot without a fee.
func Register(r *gin.RouterGroup, parking *parkinguc.UseCase) {
	rs := &resource{parking: parking}
	r.POST("entries", rs.RegisterEntry)
	r.POST("exits/:mid", rs.RegisterExit)
	r.GET("movements/active", rs.FindActiveMovement)
	r.GET("movements/:mid/fee", rs.EstimateMovementFee)
	r.GET("fees/estimate", rs.EstimateFee)
	r.POST("slots/:sid/release", rs.ForceRelease)
}

func (rs *resource) RegisterEntry(c *gin.Context) {
	req := rs.DserEntryReq(c)
	if req == nil {
		return
	}
	rcpt, err := rs.parking.RegisterEntry(
		c, req.Actor, req.VehicleType, req.Plate, req.Color,
	)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, rcpt)
}

func (rs *resource) RegisterExit(c *gin.Context) {
	req := rs.DserExitReq(c)
	if req == nil {
		return
	}
	rcpt, err := rs.parking.RegisterExit(c, req.Actor, req.MovementID)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, SerExitReceipt(rcpt))
}

func (rs *resource) FindActiveMovement(c *gin.Context) {
	m, err := rs.parking.FindActiveMovement(c, c.Query("q"))
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (rs *resource) EstimateMovementFee(c *gin.Context) {
	var errs map[string][]string
	id := serdser.ID(c, "mid", &errs)
	if serdser.BadRequest(c, errs) {
		return
	}
	m, fee, err := rs.parking.EstimateMovementFee(c, id)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"movement": m,
		"fee":      serdser.Money(fee),
	})
}

func (rs *resource) EstimateFee(c *gin.Context) {
	req := rs.DserEstimateReq(c)
	if req == nil {
		return
	}
	fee, err := rs.parking.EstimateFee(c, req.EntryTime, req.VehicleType)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fee": serdser.Money(fee)})
}

func (rs *resource) ForceRelease(c *gin.Context) {
	var errs map[string][]string
	actor := serdser.Actor(c, &errs)
	id := serdser.ID(c, "sid", &errs)
	if serdser.BadRequest(c, errs) {
		return
	}
	m, err := rs.parking.ForceRelease(c, actor, id)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}
