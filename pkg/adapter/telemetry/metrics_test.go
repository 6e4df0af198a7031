// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package telemetry_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/momeni/parking/pkg/adapter/telemetry"
	"github.com/momeni/parking/pkg/core/cerr"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *telemetry.Metrics) string {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	m.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	b, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	return string(b)
}

func TestMetricsRecordOutcomes(t *testing.T) {
	m := telemetry.NewMetrics()
	m.Entry(model.VehicleTypeMotorcycle, true, nil)
	m.Entry(model.VehicleTypeCar, false, cerr.Conflict(
		model.ErrNoSlotAvailable,
	))
	m.Entry(model.VehicleTypeInvalid, false, cerr.Validation(
		model.ErrUnknownVehicleType,
	))
	m.Exit(model.VehicleTypeCar, decimal.RequireFromString("3000.00"), false, nil)
	m.Exit(model.VehicleTypeTruck, decimal.Zero, true, nil)
	m.Exit(model.VehicleTypeInvalid, decimal.Zero, false, errors.New("boom"))
	m.Retry("register_entry")
	m.Retry("register_entry")

	body := scrape(t, m)
	for _, line := range []string{
		`parking_entries_total{fallback="true",result="ok",vehicle_type="motorcycle"} 1`,
		`parking_entries_total{fallback="false",result="conflict",vehicle_type="car"} 1`,
		`parking_entries_total{fallback="false",result="validation",vehicle_type="unknown"} 1`,
		`parking_exits_total{forced="false",result="ok",vehicle_type="car"} 1`,
		`parking_exits_total{forced="true",result="ok",vehicle_type="truck"} 1`,
		`parking_exits_total{forced="false",result="unknown",vehicle_type="unknown"} 1`,
		`parking_fees_total{vehicle_type="car"} 3000`,
		`parking_retries_total{operation="register_entry"} 2`,
	} {
		assert.Contains(t, body, line)
	}
	assert.NotContains(t, body, `parking_fees_total{vehicle_type="truck"}`)
	assert.Contains(t, body, "go_goroutines")
}
