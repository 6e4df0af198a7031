// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package telemetry

import (
	"net/http"
	"strconv"

	"github.com/momeni/parking/pkg/core/cerr"
	"github.com/momeni/parking/pkg/core/model"
	"github.com/momeni/parking/pkg/core/usecase/parkinguc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const namespace = "parking"

// Metrics keeps the Prometheus collectors of the parking operations
// in a dedicated registry. It implements the parkinguc.Recorder.
type Metrics struct {
	registry *prometheus.Registry
	entries  *prometheus.CounterVec
	exits    *prometheus.CounterVec
	fees     *prometheus.CounterVec
	retries  *prometheus.CounterVec
}

var _ parkinguc.Recorder = (*Metrics)(nil)

// NewMetrics creates and registers the parking collectors together
// with the Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entries_total",
			Help:      "Number of entry registrations by outcome.",
		}, []string{"vehicle_type", "result", "fallback"}),
		exits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exits_total",
			Help:      "Number of exits and forced releases by outcome.",
		}, []string{"vehicle_type", "result", "forced"}),
		fees: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fees_total",
			Help:      "Sum of the fees of the registered exits.",
		}, []string{"vehicle_type"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Number of transactions retried after transient errors.",
		}, []string{"operation"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.entries, m.exits, m.fees, m.retries,
	)
	return m
}

// Handler serves the registered metrics in the Prometheus format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func vehicleLabel(vt model.VehicleType) string {
	if vt.Validate() != nil {
		return "unknown"
	}
	return vt.String()
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return cerr.KindOf(err).String()
}

// Entry implements parkinguc.Recorder.
func (m *Metrics) Entry(vt model.VehicleType, fallback bool, err error) {
	m.entries.WithLabelValues(
		vehicleLabel(vt), resultLabel(err), strconv.FormatBool(fallback),
	).Inc()
}

// Exit implements parkinguc.Recorder.
func (m *Metrics) Exit(
	vt model.VehicleType, fee decimal.Decimal, forced bool, err error,
) {
	l := vehicleLabel(vt)
	m.exits.WithLabelValues(
		l, resultLabel(err), strconv.FormatBool(forced),
	).Inc()
	if err == nil && fee.IsPositive() {
		m.fees.WithLabelValues(l).Add(fee.InexactFloat64())
	}
}

// Retry implements parkinguc.Recorder.
func (m *Metrics) Retry(op string) {
	m.retries.WithLabelValues(op).Inc()
}
