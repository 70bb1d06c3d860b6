// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for Mission Control.
//
// # Description
//
// Metrics cover the HTTP surface (request counts and latency), the
// agent fleet (heartbeats, provisioning outcomes), gateway calls, and
// background jobs. Exposed via the /metrics endpoint for Prometheus +
// Grafana.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal
// locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "missioncontrol"

// Metrics holds all Prometheus metrics for the service. Initialize once
// at startup via InitMetrics().
type Metrics struct {
	// RequestsTotal counts HTTP requests by route and status class.
	// Labels: route, status
	RequestsTotal *prometheus.CounterVec

	// RequestDurationSeconds measures handler latency.
	// Labels: route
	RequestDurationSeconds *prometheus.HistogramVec

	// AgentHeartbeatsTotal counts accepted agent heartbeats.
	// Labels: status (the status the agent reported)
	AgentHeartbeatsTotal *prometheus.CounterVec

	// LeadProvisionsTotal counts lead-agent ensure outcomes.
	// Labels: outcome (created, reconciled)
	LeadProvisionsTotal *prometheus.CounterVec

	// GatewayFailuresTotal counts best-effort gateway calls that failed
	// and were swallowed.
	GatewayFailuresTotal prometheus.Counter

	// CascadeDeletesTotal counts tenant cascade deletions.
	// Labels: scope (organization, board, board_group)
	CascadeDeletesTotal *prometheus.CounterVec

	// JobsEnqueuedTotal counts background jobs submitted.
	// Labels: queue, kind
	JobsEnqueuedTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance, set by InitMetrics().
var DefaultMetrics *Metrics

// InitMetrics creates and registers all metrics against the default
// registry. Idempotent: repeated calls return the already-registered
// instance.
func InitMetrics() *Metrics {
	if DefaultMetrics != nil {
		return DefaultMetrics
	}
	DefaultMetrics = &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests by route and status",
			},
			[]string{"route", "status"},
		),

		RequestDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Handler latency in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"route"},
		),

		AgentHeartbeatsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "agents",
				Name:      "heartbeats_total",
				Help:      "Accepted agent heartbeats by reported status",
			},
			[]string{"status"},
		),

		LeadProvisionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "agents",
				Name:      "lead_provisions_total",
				Help:      "Lead-agent ensure outcomes",
			},
			[]string{"outcome"},
		),

		GatewayFailuresTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "gateway",
				Name:      "failures_total",
				Help:      "Best-effort gateway calls that failed and were swallowed",
			},
		),

		CascadeDeletesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "store",
				Name:      "cascade_deletes_total",
				Help:      "Cascade deletions by scope",
			},
			[]string{"scope"},
		),

		JobsEnqueuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "jobs",
				Name:      "enqueued_total",
				Help:      "Background jobs submitted by queue and kind",
			},
			[]string{"queue", "kind"},
		),
	}

	return DefaultMetrics
}
