// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package settingsrs realizes the settings resource, allowing the
// settings fetching and update REST APIs to be accepted and delegated
// to the settings use case properly.
package settingsrs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/momeni/parking/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/momeni/parking/pkg/core/usecase/settingsuc"
)

type resource struct {
	settings *settingsuc.UseCase
}

// Register instantiates a resource adapting the settings use case
// instance with the relevant REST APIs including:
//  1. GET request to /settings in order to fetch the current settings
//     and their acceptable bounds,
//  2. PUT request to /settings/billing in order to update the rounding
//     interval and the minimum billable hours together,
//  3. PUT request to /settings/tariffs/:vt in order to update the
//     hourly rate of the vt vehicle type, and
//  4. PUT request to /settings/capacity in order to update the slot
//     capacity limit.
func Register(r *gin.RouterGroup, settings *settingsuc.UseCase) {
	rs := &resource{settings: settings}
	r.GET("settings", rs.FetchSettings)
	r.PUT("settings/billing", rs.UpdateBilling)
	r.PUT("settings/tariffs/:vt", rs.UpdateTariff)
	r.PUT("settings/capacity", rs.UpdateCapacity)
}

func serSettings(c *gin.Context, s *model.Settings, err error) {
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, SerSettings(s))
}

func (rs *resource) FetchSettings(c *gin.Context) {
	s, err := rs.settings.Snapshot(c)
	serSettings(c, s, err)
}

func (rs *resource) UpdateBilling(c *gin.Context) {
	req := rs.DserBillingReq(c)
	if req == nil {
		return
	}
	s, err := rs.settings.UpdateBilling(c, req.Actor, req.Policy)
	serSettings(c, s, err)
}

func (rs *resource) UpdateTariff(c *gin.Context) {
	req := rs.DserTariffReq(c)
	if req == nil {
		return
	}
	s, err := rs.settings.UpdateTariff(
		c, req.Actor, req.VehicleType, req.HourlyRate,
	)
	serSettings(c, s, err)
}

func (rs *resource) UpdateCapacity(c *gin.Context) {
	req := rs.DserCapacityReq(c)
	if req == nil {
		return
	}
	s, err := rs.settings.UpdateCapacity(c, req.Actor, req.Limit)
	serSettings(c, s, err)
}
