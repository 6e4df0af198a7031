// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package settingsrs

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/momeni/parking/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/shopspring/decimal"
)

type rawBillingReq struct {
	RoundingMinutes int    `form:"rounding_minutes" binding:"required"`
	MinimumHours    string `form:"minimum_hours" binding:"required"`
}

type billingReq struct {
	Actor  uuid.UUID
	Policy model.BillingPolicy
}

func (rs *resource) DserBillingReq(c *gin.Context) *billingReq {
	req := &rawBillingReq{}
	if ok := serdser.Bind(c, req, binding.Form); !ok {
		return nil
	}
	var errs map[string][]string
	val := &billingReq{}
	val.Actor = serdser.Actor(c, &errs)
	val.Policy.RoundingMinutes = req.RoundingMinutes
	val.Policy.MinimumHours = serdser.Decimal(
		req.MinimumHours, "minimum_hours", &errs,
	)
	if serdser.BadRequest(c, errs) {
		return nil
	}
	return val
}

type rawTariffReq struct {
	VehicleType string `form:"-" binding:"required,oneof=motorcycle car truck"`
	HourlyRate  string `form:"hourly_rate" binding:"required"`
}

type tariffReq struct {
	Actor       uuid.UUID
	VehicleType model.VehicleType
	HourlyRate  decimal.Decimal
}

func (rs *resource) DserTariffReq(c *gin.Context) *tariffReq {
	req := &rawTariffReq{VehicleType: c.Param("vt")}
	if ok := serdser.Bind(c, req, binding.Form); !ok {
		return nil
	}
	var errs map[string][]string
	val := &tariffReq{}
	val.Actor = serdser.Actor(c, &errs)
	val.VehicleType, _ = model.ParseVehicleType(req.VehicleType)
	val.HourlyRate = serdser.Decimal(req.HourlyRate, "hourly_rate", &errs)
	if serdser.BadRequest(c, errs) {
		return nil
	}
	return val
}

type rawCapacityReq struct {
	Limit int `form:"slot_capacity_limit" binding:"required"`
}

type capacityReq struct {
	Actor uuid.UUID
	Limit int
}

func (rs *resource) DserCapacityReq(c *gin.Context) *capacityReq {
	req := &rawCapacityReq{}
	if ok := serdser.Bind(c, req, binding.Form); !ok {
		return nil
	}
	var errs map[string][]string
	val := &capacityReq{Limit: req.Limit}
	val.Actor = serdser.Actor(c, &errs)
	if serdser.BadRequest(c, errs) {
		return nil
	}
	return val
}

// SettingsResp publishes the current settings along with their
// acceptable values, so the frontend may validate its forms:
//  1. The settings field reports the billing policy, the hourly rates
//     (with two decimal places), and the slot capacity limit,
//  2. The rounding_intervals field lists the valid rounding minutes,
//  3. The min_bounds and max_bounds fields report the inclusive range
//     of the slot capacity limit.
type SettingsResp struct {
	Settings          SettingsView `json:"settings"`
	RoundingIntervals []int        `json:"rounding_intervals"`
	MinBounds         Bounds       `json:"min_bounds"`
	MaxBounds         Bounds       `json:"max_bounds"`
}

type SettingsView struct {
	RoundingMinutes   int               `json:"rounding_minutes"`
	MinimumHours      string            `json:"minimum_hours"`
	HourlyRates       map[string]string `json:"hourly_rates"`
	SlotCapacityLimit int               `json:"slot_capacity_limit"`
}

type Bounds struct {
	SlotCapacityLimit int `json:"slot_capacity_limit"`
}

func SerSettings(s *model.Settings) *SettingsResp {
	rates := make(map[string]string, len(s.Tariffs))
	for vt, r := range s.Tariffs {
		rates[vt.String()] = serdser.Money(r)
	}
	return &SettingsResp{
		Settings: SettingsView{
			RoundingMinutes:   s.Billing.RoundingMinutes,
			MinimumHours:      s.Billing.MinimumHours.String(),
			HourlyRates:       rates,
			SlotCapacityLimit: s.SlotCapacityLimit,
		},
		RoundingIntervals: model.RoundingIntervals,
		MinBounds:         Bounds{model.MinSlotCapacityLimit},
		MaxBounds:         Bounds{model.MaxSlotCapacityLimit},
	}
}
