// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package ledgerrs realizes the read-only movement ledger resource.
package ledgerrs

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/momeni/parking/pkg/adapter/restful/gin/serdser"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/momeni/parking/pkg/core/usecase/ledgeruc"
)

// defaultRecent is the number of returned movements when the limit
// query param is missing.
const defaultRecent = 50

type resource struct {
	ledger *ledgeruc.UseCase
}

// Register instantiates a resource adapting the ledger use case
// instance with the relevant REST APIs including:
//  1. GET request to /ledger/active for the vehicles in the facility,
//  2. GET request to /ledger/recent?limit=N for the last exits,
//  3. GET request to /ledger/movements/:mid for one movement, and
//  4. GET request to /ledger/summary?from=T1&to=T2 for the number of
//     exits and the revenue in the [T1, T2) range.
func Register(r *gin.RouterGroup, ledger *ledgeruc.UseCase) {
	rs := &resource{ledger: ledger}
	r.GET("ledger/active", rs.ActiveMovements)
	r.GET("ledger/recent", rs.Recent)
	r.GET("ledger/movements/:mid", rs.Movement)
	r.GET("ledger/summary", rs.Summary)
}

func serMovements(c *gin.Context, ms []model.Movement, err error) {
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	if ms == nil {
		ms = []model.Movement{}
	}
	c.JSON(http.StatusOK, ms)
}

func (rs *resource) ActiveMovements(c *gin.Context) {
	ms, err := rs.ledger.ActiveMovements(c)
	serMovements(c, ms, err)
}

func (rs *resource) Recent(c *gin.Context) {
	limit := defaultRecent
	if s, ok := c.GetQuery("limit"); ok {
		var err error
		if limit, err = strconv.Atoi(s); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"limit": []string{"The limit is not an integer."},
			})
			return
		}
	}
	ms, err := rs.ledger.Recent(c, limit)
	serMovements(c, ms, err)
}

func (rs *resource) Movement(c *gin.Context) {
	var errs map[string][]string
	id := serdser.ID(c, "mid", &errs)
	if serdser.BadRequest(c, errs) {
		return
	}
	m, err := rs.ledger.Movement(c, id)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (rs *resource) Summary(c *gin.Context) {
	var errs map[string][]string
	from := serdser.Time(c.Query("from"), "from", &errs)
	to := serdser.Time(c.Query("to"), "to", &errs)
	if serdser.BadRequest(c, errs) {
		return
	}
	s, err := rs.ledger.Summary(c, from, to)
	if err != nil {
		serdser.SerErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"from":    s.From,
		"to":      s.To,
		"exits":   s.Exits,
		"forced":  s.Forced,
		"revenue": serdser.Money(s.Revenue),
	})
}
