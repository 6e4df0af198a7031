// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config_test

import (
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/momeni/parking/pkg/adapter/config"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const minimal = `
database:
  host: 127.0.0.1
  port: 5432
  name: parking
`

func ExampleDuration() {
	ds := []config.Duration{
		config.Duration(time.Hour),
		config.Duration(90 * time.Second),
		config.Duration(2 * time.Minute),
		config.Duration(50 * time.Millisecond),
	}
	b, err := yaml.Marshal(map[string][]config.Duration{"delays": ds})
	fmt.Println(err)
	fmt.Print(string(b))
	// Output:
	// <nil>
	// delays:
	//     - 1h
	//     - 1m30s
	//     - 2m
	//     - 50ms
}

func TestParseDefaults(t *testing.T) {
	c, err := config.Parse([]byte(minimal))
	require.NoError(t, err)
	assert.Equal(t, "scram-sha-256", c.Database.AuthMethod)
	assert.Equal(t, ":8080", *c.Gin.Address)
	assert.False(t, *c.Gin.Logger)
	assert.Equal(t, slog.LevelInfo, *c.Logging.Level)
	assert.Equal(t, "text", *c.Logging.Format)
	assert.Equal(t, "parkweb", *c.Telemetry.ServiceName)
	assert.Equal(t, "/metrics", *c.Telemetry.MetricsPath)
	assert.Equal(t, 1.0, *c.Telemetry.SampleRatio)
	assert.Nil(t, c.Usecases.Parking.MaxAttempts)
	assert.Nil(t, c.InitialSettings(), "initial settings are optional")
}

func TestParseSampleConfig(t *testing.T) {
	c, err := config.Load("../../../configs/sample-config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 3, *c.Usecases.Parking.MaxAttempts)
	assert.Equal(t, 2*time.Second, c.Usecases.Parking.LockTimeout.Std())
	assert.Equal(t, slog.LevelInfo, *c.Logging.Level)

	s := c.InitialSettings()
	require.NotNil(t, s)
	assert.Equal(t, 15, s.Billing.RoundingMinutes)
	assert.Equal(t, 200, s.SlotCapacityLimit)
	rate, err := s.Tariffs.HourlyRate(model.VehicleTypeTruck)
	require.NoError(t, err)
	assert.Equal(t, "20.00", rate.StringFixed(2))
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		yaml string
	}{
		{"not a mapping", "- a\n- b\n"},
		{"empty host", "database: {port: 5432, name: parking}"},
		{"invalid port", "database: {host: h, port: 70000, name: p}"},
		{"unknown auth method", minimal + "  auth-method: md5\n"},
		{"unknown log format", minimal + "logging: {format: xml}\n"},
		{"sample ratio", minimal + "telemetry: {sample-ratio: 1.5}\n"},
		{
			"too many attempts",
			minimal + "usecases: {parking: {max-attempts: 11}}\n",
		},
		{
			"negative retry delay",
			minimal + "usecases: {parking: {retry-delay: -1s}}\n",
		},
		{
			"lock timeout bounds",
			minimal + `usecases:
  parking:
    lock-timeout: 20s
    lock-timeout-maximum: 10s
`,
		},
		{
			"inverted bounds",
			minimal + `usecases:
  parking:
    retry-delay: 1s
    retry-delay-minimum: 2s
    retry-delay-maximum: 1s
`,
		},
		{
			"unknown fallback class",
			minimal + "usecases: {parking: {fallbacks: {motorcycle: [bus]}}}\n",
		},
		{
			"missing hourly rate",
			minimal + `initial-settings:
  rounding-minutes: 15
  minimum-hours: "1"
  slot-capacity-limit: 10
  hourly-rates: {car: "10"}
`,
		},
		{
			"invalid rounding",
			minimal + `initial-settings:
  rounding-minutes: 7
  minimum-hours: "1"
  slot-capacity-limit: 10
  hourly-rates: {motorcycle: "5", car: "10", truck: "20"}
`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestOutOfRangeIsReported(t *testing.T) {
	_, err := config.Parse([]byte(
		minimal + "usecases: {parking: {max-attempts: 0}}\n",
	))
	var oore *config.OutOfRangeError[int]
	require.True(t, errors.As(err, &oore), "err: %v", err)
	assert.True(t, oore.LessThanMin)
	assert.Equal(t, 0, oore.Value)
}

func TestParseFallbacks(t *testing.T) {
	c, err := config.Parse([]byte(minimal + `usecases:
  parking:
    max-attempts: 4
    retry-delay: 20ms
    fallbacks:
      motorcycle: [car, truck]
      car: [truck]
`))
	require.NoError(t, err)
	assert.Equal(t, 4, *c.Usecases.Parking.MaxAttempts)
	assert.Equal(t, 20*time.Millisecond, c.Usecases.Parking.RetryDelay.Std())
	assert.Equal(t, []string{"car", "truck"}, c.Usecases.Parking.Fallbacks["motorcycle"])
}
