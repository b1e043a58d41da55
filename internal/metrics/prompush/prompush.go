// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// This package adapts the generic metrics.Backend interface to Prometheus by:
//
//   - Using client_golang CounterVec, SummaryVec and GaugeVec collectors.
//   - Mapping the common dataguard labels (step, status, kind, column, rule)
//     onto Prometheus labels. The table label is not recorded: series from
//     every table share the same label set.
//   - Pushing collected metrics to a Prometheus Pushgateway instance instead of
//     exposing an HTTP scrape endpoint.
//
// The package intentionally contains all Prometheus-specific dependencies so
// that the rest of the project remains decoupled from Prometheus and can swap
// to alternative backends (e.g. Datadog, StatsD) without changes to the core
// validation engine.
package prompush

import (
	"fmt"

	"github.com/GrGLeo/dataguard/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	// Step-level metrics
	stepCounter  *prometheus.CounterVec // "dataguard_step_total"
	stepDuration *prometheus.SummaryVec // "dataguard_step_duration_seconds"

	// Row/batch-level metrics
	rowCounter   *prometheus.CounterVec // "dataguard_rows_total"
	batchCounter prometheus.Counter     // "dataguard_batches_total"

	// Rule-level metrics, one series per (column, rule) pair; the table
	// label is not recorded. column is the empty string for relation
	// rules, which span two columns rather than belonging to one.
	ruleViolations *prometheus.CounterVec // "dataguard_rule_violations_total"
	rulePercent    *prometheus.GaugeVec   // "dataguard_rule_violation_percent"
	ruleFailures   *prometheus.CounterVec // "dataguard_rule_failures_total"
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name (often the table name).
// gatewayURL: base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "dataguard"
	}

	reg := prometheus.NewRegistry()

	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataguard_step_total",
			Help: "Total number of engine step executions, partitioned by step and status.",
		},
		[]string{"step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "dataguard_step_duration_seconds",
			Help:       "Duration of engine steps in seconds, partitioned by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step", "status"},
	)

	// ROW metrics: kind (validated, rule_violation, type_check_rejected, ...).
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataguard_rows_total",
			Help: "Row-level counts per kind (validated, rule_violation, type_check_rejected, etc.).",
		},
		[]string{"kind"},
	)

	// BATCH metrics: one counter shared by every table (no table label).
	batchCounter := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dataguard_batches_total",
			Help: "Total number of batches processed across all tables.",
		},
	)

	ruleViolations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataguard_rule_violations_total",
			Help: "Cumulative count of rows failing a compiled rule, partitioned by column and rule.",
		},
		[]string{"column", "rule"},
	)
	rulePercent := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dataguard_rule_violation_percent",
			Help: "Violation percentage of the most recent validation run for a rule, partitioned by column and rule.",
		},
		[]string{"column", "rule"},
	)
	ruleFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataguard_rule_failures_total",
			Help: "Number of validation runs in which a rule exceeded its threshold, partitioned by column and rule.",
		},
		[]string{"column", "rule"},
	)

	if err := reg.Register(stepCounter); err != nil {
		return nil, fmt.Errorf("prompush: register step counter: %w", err)
	}
	if err := reg.Register(stepDuration); err != nil {
		return nil, fmt.Errorf("prompush: register step summary: %w", err)
	}
	if err := reg.Register(rowCounter); err != nil {
		return nil, fmt.Errorf("prompush: register row counter: %w", err)
	}
	if err := reg.Register(batchCounter); err != nil {
		return nil, fmt.Errorf("prompush: register batch counter: %w", err)
	}
	if err := reg.Register(ruleViolations); err != nil {
		return nil, fmt.Errorf("prompush: register rule violations counter: %w", err)
	}
	if err := reg.Register(rulePercent); err != nil {
		return nil, fmt.Errorf("prompush: register rule violation percent gauge: %w", err)
	}
	if err := reg.Register(ruleFailures); err != nil {
		return nil, fmt.Errorf("prompush: register rule failures counter: %w", err)
	}

	return &Backend{
		gatewayURL:     gatewayURL,
		jobName:        jobName,
		reg:            reg,
		stepCounter:    stepCounter,
		stepDuration:   stepDuration,
		rowCounter:     rowCounter,
		batchCounter:   batchCounter,
		ruleViolations: ruleViolations,
		rulePercent:    rulePercent,
		ruleFailures:   ruleFailures,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "dataguard_step_total":
		if b.stepCounter == nil {
			return
		}
		step := labels["step"]
		status := labels["status"]
		b.stepCounter.WithLabelValues(step, status).Add(delta)

	case "dataguard_rows_total":
		if b.rowCounter == nil {
			return
		}
		kind := labels["kind"]
		b.rowCounter.WithLabelValues(kind).Add(delta)

	case "dataguard_batches_total":
		if b.batchCounter == nil {
			return
		}
		b.batchCounter.Add(delta)

	case "dataguard_rule_violations_total":
		if b.ruleViolations == nil {
			return
		}
		b.ruleViolations.WithLabelValues(labels["column"], labels["rule"]).Add(delta)

	case "dataguard_rule_failures_total":
		if b.ruleFailures == nil {
			return
		}
		b.ruleFailures.WithLabelValues(labels["column"], labels["rule"]).Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != "dataguard_step_duration_seconds" || b.stepDuration == nil {
		return
	}
	step := labels["step"]
	status := labels["status"]
	b.stepDuration.WithLabelValues(step, status).Observe(value)
}

// SetGauge records a point-in-time value. The only gauge dataguard
// currently reports is the per-rule violation percentage.
func (b *Backend) SetGauge(name string, value float64, labels metrics.Labels) {
	if name != "dataguard_rule_violation_percent" || b.rulePercent == nil {
		return
	}
	b.rulePercent.WithLabelValues(labels["column"], labels["rule"]).Set(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
