// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the console
// service: answer-flow outcomes, limit-check accounting, and tenant
// configuration cache activity. Metrics are exposed on /metrics; all
// operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "questdesk"

const flowSubsystem = "answerflow"

// FlowMetrics holds the console's Prometheus metrics. Initialize once at
// startup via InitMetrics; registering twice panics (duplicate
// registration in the default registry).
type FlowMetrics struct {
	// FlowsTotal counts confirmation flows by terminal outcome.
	// Labels: outcome (done, cancelled, validation_failed, limit_blocked,
	// dispatch_failed, nothing_selected)
	FlowsTotal *prometheus.CounterVec

	// FlowDurationSeconds measures Prepare-to-terminal flow duration.
	// Labels: outcome
	FlowDurationSeconds *prometheus.HistogramVec

	// SubJobsPerFlow observes the group count of flows that reached
	// confirmation.
	SubJobsPerFlow prometheus.Histogram

	// QuestionsPerFlow observes the row count of flows that reached
	// confirmation.
	QuestionsPerFlow prometheus.Histogram

	// LimitChecksTotal counts limit-gate decisions.
	// Labels: meter, result (allowed, warned, blocked), source (cache,
	// remote, error)
	LimitChecksTotal *prometheus.CounterVec

	// PendingFlows tracks flows currently awaiting a user decision.
	PendingFlows prometheus.Gauge

	// ConfigInvalidationsTotal counts tenant configuration invalidation
	// signals.
	ConfigInvalidationsTotal prometheus.Counter

	// ConfigRefreshesTotal counts completed tenant configuration
	// refreshes.
	ConfigRefreshesTotal prometheus.Counter

	// EventClients tracks connected websocket event subscribers.
	EventClients prometheus.Gauge
}

// DefaultMetrics is the singleton instance, populated by InitMetrics.
var DefaultMetrics *FlowMetrics

// InitMetrics creates and registers all console metrics in the default
// registry and stores the result in DefaultMetrics.
func InitMetrics() *FlowMetrics {
	DefaultMetrics = &FlowMetrics{
		FlowsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: flowSubsystem,
				Name:      "flows_total",
				Help:      "Confirmation flows by terminal outcome",
			},
			[]string{"outcome"},
		),
		FlowDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: flowSubsystem,
				Name:      "flow_duration_seconds",
				Help:      "Duration from flow preparation to terminal state",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"outcome"},
		),
		SubJobsPerFlow: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: flowSubsystem,
				Name:      "sub_jobs_per_flow",
				Help:      "Sub-job group count of flows reaching confirmation",
				Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
			},
		),
		QuestionsPerFlow: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: flowSubsystem,
				Name:      "questions_per_flow",
				Help:      "Row count of flows reaching confirmation",
				Buckets:   []float64{1, 5, 10, 30, 50, 100, 250, 500},
			},
		),
		LimitChecksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "license",
				Name:      "limit_checks_total",
				Help:      "Limit-gate decisions by meter, result and source",
			},
			[]string{"meter", "result", "source"},
		),
		PendingFlows: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: flowSubsystem,
				Name:      "pending_flows",
				Help:      "Flows currently awaiting a user decision",
			},
		),
		ConfigInvalidationsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "tenantcfg",
				Name:      "invalidations_total",
				Help:      "Tenant configuration invalidation signals",
			},
		),
		ConfigRefreshesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "tenantcfg",
				Name:      "refreshes_total",
				Help:      "Completed tenant configuration refreshes",
			},
		),
		EventClients: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: "events",
				Name:      "clients",
				Help:      "Connected websocket event subscribers",
			},
		),
	}
	return DefaultMetrics
}
