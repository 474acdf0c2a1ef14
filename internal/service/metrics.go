// SPDX-FileCopyrightText: The ridecast authors
//
// SPDX-License-Identifier: MIT

package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"

	sourceRow      = "row"
	sourceManual   = "manual"
	sourceForecast = "forecast"
)

type metrics struct {
	registry *prometheus.Registry

	fetches        *prometheus.CounterVec
	fetchDuration  prometheus.Histogram
	lastRefresh    prometheus.Gauge
	predictions    *prometheus.CounterVec
	coercionErrors *prometheus.CounterVec
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &metrics{
		registry: registry,
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ridecast_forecast_fetches_total",
			Help: "Total number of weather forecast fetches by result.",
		}, []string{"result"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ridecast_forecast_fetch_duration_seconds",
			Help:    "Duration of weather forecast fetches.",
			Buckets: prometheus.DefBuckets,
		}),
		lastRefresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ridecast_forecast_last_refresh_timestamp_seconds",
			Help: "Unix time of the last successful forecast fetch.",
		}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ridecast_predictions_total",
			Help: "Total number of ridership predictions by input source and result.",
		}, []string{"source", "result"}),
		coercionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ridecast_input_coercion_errors_total",
			Help: "Total number of rejected manual input fields.",
		}, []string{"field"}),
	}

	registry.MustRegister(m.fetches)
	registry.MustRegister(m.fetchDuration)
	registry.MustRegister(m.lastRefresh)
	registry.MustRegister(m.predictions)
	registry.MustRegister(m.coercionErrors)

	return m
}
