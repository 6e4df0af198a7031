// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package parkingrs

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/momeni/parking/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/parking/pkg/core/model"
)

type rawEntryReq struct {
	VehicleType string  `form:"vehicle_type" binding:"required,oneof=motorcycle car truck"`
	Plate       string  `form:"plate" binding:"required"`
	Color       *string `form:"color"`
}

type entryReq struct {
	Actor       uuid.UUID
	VehicleType model.VehicleType
	Plate       string
	Color       *string
}

// DserEntryReq binds the entry form. The plate format and the color
// length are checked by the use case, so they are reported verbatim.
func (rs *resource) DserEntryReq(c *gin.Context) *entryReq {
	req := &rawEntryReq{}
	if ok := serdser.Bind(c, req, binding.Form); !ok {
		return nil
	}
	var errs map[string][]string
	val := &entryReq{Plate: req.Plate, Color: req.Color}
	val.Actor = serdser.Actor(c, &errs)
	vt, err := model.ParseVehicleType(req.VehicleType)
	if serdser.Assert(&errs, err == nil, "vehicle_type", "Unknown vehicle type.") {
		val.VehicleType = vt
	}
	if serdser.BadRequest(c, errs) {
		return nil
	}
	return val
}

type exitReq struct {
	Actor      uuid.UUID
	MovementID int64
}

func (rs *resource) DserExitReq(c *gin.Context) *exitReq {
	var errs map[string][]string
	val := &exitReq{}
	val.Actor = serdser.Actor(c, &errs)
	val.MovementID = serdser.ID(c, "mid", &errs)
	if serdser.BadRequest(c, errs) {
		return nil
	}
	return val
}

type rawEstimateReq struct {
	EntryTime   string `form:"entry_time" binding:"required"`
	VehicleType string `form:"vehicle_type" binding:"required,oneof=motorcycle car truck"`
}

type estimateReq struct {
	EntryTime   time.Time
	VehicleType model.VehicleType
}

func (rs *resource) DserEstimateReq(c *gin.Context) *estimateReq {
	req := &rawEstimateReq{}
	if ok := serdser.Bind(c, req, binding.Query); !ok {
		return nil
	}
	var errs map[string][]string
	val := &estimateReq{}
	val.EntryTime = serdser.Time(req.EntryTime, "entry_time", &errs)
	val.VehicleType, _ = model.ParseVehicleType(req.VehicleType)
	if serdser.BadRequest(c, errs) {
		return nil
	}
	return val
}

// ExitReceipt is the response of a registered exit. Its fee has two
// decimal places and its elapsed time is also formatted like 1h 20m.
type ExitReceipt struct {
	*model.ExitReceipt
	Fee            string `json:"fee"`
	ElapsedDisplay string `json:"elapsed_display"`
}

func SerExitReceipt(r *model.ExitReceipt) *ExitReceipt {
	return &ExitReceipt{
		ExitReceipt:    r,
		Fee:            serdser.Money(r.Fee),
		ElapsedDisplay: r.Elapsed.String(),
	}
}
