// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package slotsrs

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/momeni/parking/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/parking/pkg/core/model"
)

type rawSlotFilter struct {
	Class string `form:"class" binding:"omitempty,oneof=motorcycle car truck"`
	State string `form:"state" binding:"omitempty,oneof=free occupied inactive"`
}

func (rs *resource) DserSlotFilter(c *gin.Context) *model.SlotFilter {
	req := &rawSlotFilter{}
	if ok := serdser.Bind(c, req, binding.Query); !ok {
		return nil
	}
	f := &model.SlotFilter{}
	if req.Class != "" {
		f.Class, _ = model.ParseVehicleType(req.Class)
	}
	if req.State != "" {
		f.State, _ = model.ParseSlotState(req.State)
	}
	return f
}

type rawCreateSlotReq struct {
	Code  string `form:"code" binding:"required"`
	Class string `form:"class" binding:"required,oneof=motorcycle car truck"`
}

type createSlotReq struct {
	Actor uuid.UUID
	Code  string
	Class model.VehicleType
}

func (rs *resource) DserCreateSlotReq(c *gin.Context) *createSlotReq {
	req := &rawCreateSlotReq{}
	if ok := serdser.Bind(c, req, binding.Form); !ok {
		return nil
	}
	var errs map[string][]string
	val := &createSlotReq{Code: req.Code}
	val.Actor = serdser.Actor(c, &errs)
	val.Class, _ = model.ParseVehicleType(req.Class)
	if serdser.BadRequest(c, errs) {
		return nil
	}
	return val
}

type rawUpdateSlotReq struct {
	Op    string `form:"op" binding:"required,oneof=activate deactivate convert"`
	Class string `form:"class" binding:"omitempty,oneof=motorcycle car truck"`
}

type updateSlotReq struct {
	Actor  uuid.UUID
	SlotID int64
	Op     string
	Class  model.VehicleType
}

func (rs *resource) DserUpdateSlotReq(c *gin.Context) *updateSlotReq {
	req := &rawUpdateSlotReq{}
	if ok := serdser.Bind(c, req, binding.Form); !ok {
		return nil
	}
	var errs map[string][]string
	val := &updateSlotReq{Op: req.Op}
	val.Actor = serdser.Actor(c, &errs)
	val.SlotID = serdser.ID(c, "sid", &errs)
	if req.Op == "convert" {
		if serdser.Assert(&errs, req.Class != "", "class", "The op=convert requires class.") {
			val.Class, _ = model.ParseVehicleType(req.Class)
		}
	} else {
		serdser.Assert(&errs, req.Class == "", "class", "The op="+req.Op+" does not need class.")
	}
	if serdser.BadRequest(c, errs) {
		return nil
	}
	return val
}
