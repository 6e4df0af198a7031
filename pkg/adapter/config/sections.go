// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/momeni/parking/pkg/adapter/restful/gin"
	"github.com/momeni/parking/pkg/adapter/telemetry"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/momeni/parking/pkg/core/repo"
	"github.com/momeni/parking/pkg/core/usecase/parkinguc"
	"github.com/shopspring/decimal"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Gin contains the gin-gonic related configuration settings.
// Fields are defined as pointers, so missing settings may be detected
// and filled by their default values.
type Gin struct {
	Logger   *bool   // Whether to log requests with slog
	Recovery *bool   // Whether to recover (and log) from panics
	Address  *string // Listening address, e.g., :8080
}

func (g *Gin) normalize() {
	orDefault(&g.Logger, false)
	orDefault(&g.Recovery, false)
	orDefault(&g.Address, ":8080")
}

// NewEngine instantiates a new gin-gonic engine instance based on
// the g settings, logging with the l logger. Requests are traced as
// the service spans.
func (g Gin) NewEngine(l *slog.Logger, service string) *gin.Engine {
	middlewares := make([]gin.HandlerFunc, 0, 3)
	middlewares = append(middlewares, gin.Tracing(service))
	if *g.Logger {
		middlewares = append(middlewares, gin.Logger(l))
	}
	if *g.Recovery {
		middlewares = append(middlewares, gin.Recovery(l))
	}
	return gin.New(middlewares...)
}

// Logging contains the log/slog handler settings.
type Logging struct {
	Level  *slog.Level // debug, info, warn, or error
	Format *string     // text or json
}

// ValidateAndNormalize defaults to info level and text format.
func (l *Logging) ValidateAndNormalize() error {
	orDefault(&l.Level, slog.LevelInfo)
	orDefault(&l.Format, "text")
	switch *l.Format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("unsupported log format: %q", *l.Format)
	}
}

// NewLogger creates a logger which writes to w.
func (l Logging) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: *l.Level}
	if *l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Telemetry contains the tracing and metrics settings.
type Telemetry struct {
	ServiceName *string  `yaml:"service-name"`
	SampleRatio *float64 `yaml:"sample-ratio"`
	MetricsPath *string  `yaml:"metrics-path"`

	// Endpoint is the OTLP/HTTP collector URL, e.g.,
	// http://localhost:4318. Spans are not exported if it is empty,
	// but they are still created and used for logs correlation.
	Endpoint string `yaml:"otlp-endpoint,omitempty"`
}

// ValidateAndNormalize fills the defaults and checks the sample ratio.
func (t *Telemetry) ValidateAndNormalize() error {
	orDefault(&t.ServiceName, "parkweb")
	orDefault(&t.MetricsPath, "/metrics")
	orDefault(&t.SampleRatio, 1.0)
	zero, one := 0.0, 1.0
	if err := verifyRange(&t.SampleRatio, &zero, &one); err != nil {
		return fmt.Errorf("sample-ratio: %w", err)
	}
	return nil
}

// NewTracerProvider creates and globally registers a tracer provider.
func (t Telemetry) NewTracerProvider(
	ctx context.Context,
) (*sdktrace.TracerProvider, error) {
	return telemetry.NewTracerProvider(
		ctx, *t.ServiceName, t.Endpoint, *t.SampleRatio,
	)
}

// Usecases contains the configuration settings for all use cases.
type Usecases struct {
	Parking Parking // parking use case related settings
}

// Bounds of the Parking.MaxAttempts setting.
var (
	minAttempts = 1
	maxAttempts = 10
)

// Parking contains the configuration settings for the parking use
// case. Nil fields leave the use case defaults in effect.
type Parking struct {
	// MaxAttempts is the number of times that a transaction which
	// fails with a transient error is tried.
	MaxAttempts *int `yaml:"max-attempts"`

	// RetryDelay is the initial wait time between two attempts.
	RetryDelay    *Duration `yaml:"retry-delay"`
	MinRetryDelay *Duration `yaml:"retry-delay-minimum"`
	MaxRetryDelay *Duration `yaml:"retry-delay-maximum"`

	// LockTimeout limits the time that a transaction waits for a
	// locked row before failing with a transient error.
	LockTimeout    *Duration `yaml:"lock-timeout"`
	MinLockTimeout *Duration `yaml:"lock-timeout-minimum"`
	MaxLockTimeout *Duration `yaml:"lock-timeout-maximum"`

	// Fallbacks maps a vehicle type to the ordered list of slot
	// classes which it may take when its own class has no free slot.
	// A nil map keeps the default motorcycle to car fallback.
	Fallbacks map[string][]string `yaml:"fallbacks,omitempty"`

	fallbacks map[model.VehicleType][]model.VehicleType
}

// ValidateAndNormalize checks the bounds and parses the fallbacks.
func (p *Parking) ValidateAndNormalize() error {
	if err := verifyRange(
		&p.MaxAttempts, &minAttempts, &maxAttempts,
	); err != nil {
		return fmt.Errorf(
			"max-attempts not in [%d, %d]: %w",
			minAttempts, maxAttempts, err,
		)
	}
	if err := verifyRange(
		&p.RetryDelay, p.MinRetryDelay, p.MaxRetryDelay,
	); err != nil {
		return fmt.Errorf(
			"retry-delay (minb=%v, maxb=%v): %w",
			p.MinRetryDelay, p.MaxRetryDelay, err,
		)
	}
	if err := verifyRange(
		&p.LockTimeout, p.MinLockTimeout, p.MaxLockTimeout,
	); err != nil {
		return fmt.Errorf(
			"lock-timeout (minb=%v, maxb=%v): %w",
			p.MinLockTimeout, p.MaxLockTimeout, err,
		)
	}
	if p.RetryDelay != nil && *p.RetryDelay <= 0 {
		return fmt.Errorf("retry-delay must be positive")
	}
	if p.LockTimeout != nil && *p.LockTimeout <= 0 {
		return fmt.Errorf("lock-timeout must be positive")
	}
	if p.Fallbacks == nil {
		return nil
	}
	p.fallbacks = make(map[model.VehicleType][]model.VehicleType)
	for from, tos := range p.Fallbacks {
		vt, err := model.ParseVehicleType(from)
		if err != nil {
			return fmt.Errorf("fallbacks: %w", err)
		}
		classes := make([]model.VehicleType, 0, len(tos))
		for _, to := range tos {
			c, err := model.ParseVehicleType(to)
			if err != nil {
				return fmt.Errorf("fallbacks of %s: %w", vt, err)
			}
			classes = append(classes, c)
		}
		p.fallbacks[vt] = classes
	}
	return nil
}

// NewUseCase instantiates a new parking use case based on the
// settings in the p struct. The extra options are applied after the
// options which are derived from p.
func (p Parking) NewUseCase(
	pool repo.Pool,
	slots repo.Slots,
	movements repo.Movements,
	settings repo.Settings,
	extra ...parkinguc.Option,
) (*parkinguc.UseCase, error) {
	opts := make([]parkinguc.Option, 0, 3+len(extra))
	if p.MaxAttempts != nil {
		opts = append(opts, parkinguc.WithMaxAttempts(*p.MaxAttempts))
	}
	if p.RetryDelay != nil {
		opts = append(opts, parkinguc.WithRetryDelay(p.RetryDelay.Std()))
	}
	if p.fallbacks != nil {
		opts = append(opts, parkinguc.WithFallbacks(p.fallbacks))
	}
	opts = append(opts, extra...)
	return parkinguc.New(pool, slots, movements, settings, opts...)
}

// Initial contains the initial configuration store contents, i.e.,
// the billing policy, hourly rates, and the slot capacity limit.
type Initial struct {
	RoundingMinutes   int                        `yaml:"rounding-minutes"`
	MinimumHours      decimal.Decimal            `yaml:"minimum-hours"`
	SlotCapacityLimit int                        `yaml:"slot-capacity-limit"`
	HourlyRates       map[string]decimal.Decimal `yaml:"hourly-rates"`

	settings *model.Settings
}

// ValidateAndNormalize converts the initial settings to a model and
// ensures that every vehicle type has a positive hourly rate.
// Empty initial settings are accepted since only the db init-dev and
// db init-prod commands need them. Those commands fail later.
func (in *Initial) ValidateAndNormalize() error {
	if in.RoundingMinutes == 0 && len(in.HourlyRates) == 0 {
		return nil
	}
	s := &model.Settings{
		Billing: model.BillingPolicy{
			RoundingMinutes: in.RoundingMinutes,
			MinimumHours:    in.MinimumHours,
		},
		Tariffs:           model.Tariffs{},
		SlotCapacityLimit: in.SlotCapacityLimit,
	}
	for name, rate := range in.HourlyRates {
		vt, err := model.ParseVehicleType(name)
		if err != nil {
			return fmt.Errorf("hourly-rates: %w", err)
		}
		s.Tariffs[vt] = rate.Round(2)
	}
	if err := s.Validate(); err != nil {
		return err
	}
	in.settings = s
	return nil
}
