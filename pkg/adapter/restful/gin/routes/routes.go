// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package routes contains all resource packages and facilitates
// instantiation and registration of all repo, use case, and resource
// packages based on the user provided configuration settings.
package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/momeni/parking/pkg/adapter/config"
	"github.com/momeni/parking/pkg/adapter/db/postgres/movementsrp"
	"github.com/momeni/parking/pkg/adapter/db/postgres/settingsrp"
	"github.com/momeni/parking/pkg/adapter/db/postgres/slotsrp"
	"github.com/momeni/parking/pkg/adapter/restful/gin/ledgerrs"
	"github.com/momeni/parking/pkg/adapter/restful/gin/parkingrs"
	"github.com/momeni/parking/pkg/adapter/restful/gin/settingsrs"
	"github.com/momeni/parking/pkg/adapter/restful/gin/slotsrs"
	"github.com/momeni/parking/pkg/adapter/telemetry"
	"github.com/momeni/parking/pkg/core/repo"
	"github.com/momeni/parking/pkg/core/usecase/ledgeruc"
	"github.com/momeni/parking/pkg/core/usecase/parkinguc"
	"github.com/momeni/parking/pkg/core/usecase/settingsuc"
	"github.com/momeni/parking/pkg/core/usecase/slotsuc"
)

// Register instantiates relevant repositories and use cases based on
// the c configuration settings. The p connections pool is passed to
// the use case instances, so they may acquire/release connections
// and transactions on demand. These connections/transactions will be
// passed to the repositories later in order to run relevant queries on
// them and accomplish those use cases. Each use case package is named
// like slotsuc and each repository package is named like slotsrp.
// Register instantiates a series of "resource" structs, from packages
// which are named like slotsrs, in order to adapt the use cases
// interfaces with the REST APIs. These resources are registered as
// request handlers using the e gin-gonic engine instance.
// The parking outcomes are recorded by the m metrics which are also
// exposed on the configured metrics path.
func Register(
	e *gin.Engine, p repo.Pool, c *config.Config, m *telemetry.Metrics,
) error {
	slotsRepo := slotsrp.New()
	movementsRepo := movementsrp.New()
	settingsRepo := settingsrp.New()

	parkingUseCase, err := c.Usecases.Parking.NewUseCase(
		p, slotsRepo, movementsRepo, settingsRepo,
		parkinguc.WithRecorder(m),
	)
	if err != nil {
		return fmt.Errorf("creating parking use case: %w", err)
	}
	r := e.Group("/api/parking/v1")
	parkingrs.Register(r, parkingUseCase)
	slotsrs.Register(r, slotsuc.New(p, slotsRepo, settingsRepo))
	ledgerrs.Register(r, ledgeruc.New(p, movementsRepo))
	settingsrs.Register(r, settingsuc.New(p, settingsRepo))

	e.GET(*c.Telemetry.MetricsPath, gin.WrapH(m.Handler()))
	return nil
}
