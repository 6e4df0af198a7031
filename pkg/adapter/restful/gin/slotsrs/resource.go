// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package slotsrs realizes the slots resource, allowing the slot
// management REST APIs to be accepted and delegated to the slot
// registry use case.
package slotsrs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/momeni/parking/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/momeni/parking/pkg/core/usecase/slotsuc"
)

type resource struct {
	slots *slotsuc.UseCase
}

// Register instantiates a resource adapting the slots use case
// instance with the relevant REST APIs including:
//  1. GET request to /slots in order to list slots, optionally
//     filtered by class and state query params,
//  2. GET request to /slots/availability in order to count the slots
//     of each class and state,
//  3. POST request to /slots in order to create a slot,
//  4. PATCH request to /slots/:sid in order to activate, deactivate,
//     or convert a slot, and
//  5. DELETE request to /slots/:sid in order to delete a slot.
func Register(r *gin.RouterGroup, slots *slotsuc.UseCase) {
	rs := &resource{slots: slots}
	r.GET("slots", rs.ListSlots)
	r.GET("slots/availability", rs.Availability)
	r.POST("slots", rs.CreateSlot)
	r.PATCH("slots/:sid", rs.UpdateSlot)
	r.DELETE("slots/:sid", rs.DeleteSlot)
}

func (rs *resource) ListSlots(c *gin.Context) {
	f := rs.DserSlotFilter(c)
	if f == nil {
		return
	}
	ss, err := rs.slots.ListSlots(c, *f)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	if ss == nil {
		ss = []model.Slot{}
	}
	c.JSON(http.StatusOK, ss)
}

func (rs *resource) Availability(c *gin.Context) {
	as, err := rs.slots.Availability(c)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	ok, err := rs.slots.CanAddSlot(c)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"classes":      as,
		"can_add_slot": ok,
	})
}

func (rs *resource) CreateSlot(c *gin.Context) {
	req := rs.DserCreateSlotReq(c)
	if req == nil {
		return
	}
	sl, err := rs.slots.CreateSlot(c, req.Actor, req.Code, req.Class)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, sl)
}

func (rs *resource) UpdateSlot(c *gin.Context) {
	req := rs.DserUpdateSlotReq(c)
	if req == nil {
		return
	}
	var sl *model.Slot
	var err error
	switch req.Op {
	case "activate":
		sl, err = rs.slots.Activate(c, req.Actor, req.SlotID)
	case "deactivate":
		sl, err = rs.slots.Deactivate(c, req.Actor, req.SlotID)
	case "convert":
		sl, err = rs.slots.ConvertSlot(c, req.Actor, req.SlotID, req.Class)
	default:
		panic("unexpected op: " + req.Op)
	}
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, sl)
}

func (rs *resource) DeleteSlot(c *gin.Context) {
	var errs map[string][]string
	actor := serdser.Actor(c, &errs)
	id := serdser.ID(c, "sid", &errs)
	if serdser.BadRequest(c, errs) {
		return
	}
	if err := rs.slots.DeleteSlot(c, actor, id); err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
