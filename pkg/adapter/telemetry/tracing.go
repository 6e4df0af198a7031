// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package telemetry provides the OpenTelemetry tracer provider and the
// Prometheus metrics of the parkweb program.
package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ServiceVersion is reported as the service.version resource attribute.
const ServiceVersion = "1.0.0"

// NewTracerProvider creates a tracer provider for the serviceName
// service which samples the given ratio of the root spans, and
// registers it globally along with the W3C trace context propagator.
// Spans are exported to the endpoint OTLP/HTTP collector, e.g.,
// http://localhost:4318, unless endpoint is empty. Caller should call
// the Shutdown method of the returned provider in order to flush the
// pending spans.
func NewTracerProvider(
	ctx context.Context, serviceName, endpoint string, ratio float64,
) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(
		ctx,
		resource.WithFromEnv(),
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(
			sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio)),
		),
	}
	if endpoint != "" {
		exp, err := otlptracehttp.New(
			ctx,
			otlptracehttp.WithEndpointURL(
				strings.TrimSuffix(endpoint, "/")+"/v1/traces",
			),
		)
		if err != nil {
			return nil, fmt.Errorf("creating OTLP exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp, nil
}
