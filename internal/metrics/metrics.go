// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the validation engine.
//
// The package is intentionally minimal and opinionated:
//
//   - It exposes a narrow interface (Backend) focused on counters and timing
//     data (histograms).
//   - It provides a global, pluggable backend that defaults to a no-op
//     implementation, so metrics are always safe to call even when no real
//     backend is configured.
//   - It lets the rest of the codebase depend only on this interface while
//     keeping concrete metric systems isolated in subpackages.
//
// The primary use case is instrumentation of the engine's Validate runs
// (run duration, batch and row counts, per-rule results) without coupling
// the core validation logic to a specific metrics system such as Prometheus
// or Datadog.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
// It is intentionally generic so we can plug in Prometheus, Datadog, etc.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// SetGauge records a point-in-time value, e.g. a per-rule violation
	// percentage, which replaces rather than accumulates on every call
	// (unlike IncCounter). The validation engine has no analog in a batch
	// ETL job: a rule's violation percentage is a snapshot recomputed
	// after every Validate call, never a running total.
	SetGauge(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) SetGauge(name string, value float64, labels Labels)        {}
func (nopBackend) Flush() error                                              { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep is a convenience for the common pattern: measure latency +
// success/failure per named step. The engine records one "validate" step
// per Validate call.
func RecordStep(table, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"table":  table,
		"step":   step,
		"status": status,
	}

	backend.IncCounter("dataguard_step_total", 1, lbls)
	backend.ObserveHistogram("dataguard_step_duration_seconds", d.Seconds(), lbls)
}

// RecordRows increments a row-level counter for the given table and kind.
//
// Typical kinds:
//   - "validated"
//   - "rule_violation"
//   - "type_check_rejected"
func RecordRows(table, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("dataguard_rows_total", float64(delta), Labels{
		"table": table,
		"kind":  kind,
	})
}

// RecordBatches increments a batch-level counter for the given table.
func RecordBatches(table string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("dataguard_batches_total", float64(delta), Labels{
		"table": table,
	})
}

// RecordRuleResult reports one compiled rule's outcome for a table:
// the raw violation count (accumulated across every Validate call, useful
// for long-running watch mode), and the current violation percentage and
// pass/fail state (a snapshot, since percent is recomputed from scratch
// every run rather than accumulated). column is empty for a relation rule.
// This has no equivalent in a row-processing ETL job, which tracks
// success/failure per record but never a fractional tolerance threshold.
func RecordRuleResult(table, column, rule string, violations uint64, percent float64, passed bool) {
	lbls := Labels{"table": table, "column": column, "rule": rule}

	backend.IncCounter("dataguard_rule_violations_total", float64(violations), lbls)
	backend.SetGauge("dataguard_rule_violation_percent", percent, lbls)
	if !passed {
		backend.IncCounter("dataguard_rule_failures_total", 1, lbls)
	}
}
