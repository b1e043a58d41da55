package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu sync.Mutex

	callsCounters   []counterCall
	callsHistograms []histCall
	callsGauges     []gaugeCall
	flushCount      int
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

type gaugeCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsCounters = append(f.callsCounters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsHistograms = append(f.callsHistograms, histCall{name, value, labels})
}

func (f *fakeBackend) SetGauge(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsGauges = append(f.callsGauges, gaugeCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

func TestRecordStep_SuccessAndFailure(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	backend = fb

	// Success case.
	RecordStep("orders", "pass1", nil, 2*time.Second)

	// Failure case.
	err := errors.New("boom")
	RecordStep("customers", "compile", err, 1500*time.Millisecond)

	if len(fb.callsCounters) != 2 {
		t.Fatalf("expected 2 counter calls, got %d", len(fb.callsCounters))
	}
	if len(fb.callsHistograms) != 2 {
		t.Fatalf("expected 2 histogram calls, got %d", len(fb.callsHistograms))
	}

	// First call: success.
	cc0 := fb.callsCounters[0]
	if cc0.name != "dataguard_step_total" || cc0.delta != 1 {
		t.Fatalf("counter[0] = %#v; want name=dataguard_step_total, delta=1", cc0)
	}
	if got := cc0.labels["table"]; got != "orders" {
		t.Fatalf("counter[0].labels[table]=%q; want %q", got, "orders")
	}
	if got := cc0.labels["step"]; got != "pass1" {
		t.Fatalf("counter[0].labels[step]=%q; want %q", got, "pass1")
	}
	if got := cc0.labels["status"]; got != "success" {
		t.Fatalf("counter[0].labels[status]=%q; want %q", got, "success")
	}

	h0 := fb.callsHistograms[0]
	if h0.name != "dataguard_step_duration_seconds" {
		t.Fatalf("hist[0].name=%q; want dataguard_step_duration_seconds", h0.name)
	}
	if h0.value < 2.0-0.001 || h0.value > 2.0+0.001 {
		t.Fatalf("hist[0].value=%v; want ~2.0", h0.value)
	}

	// Second call: failure.
	cc1 := fb.callsCounters[1]
	if cc1.labels["table"] != "customers" || cc1.labels["step"] != "compile" {
		t.Fatalf("counter[1] labels table/step = %v; want customers/compile", cc1.labels)
	}
	if cc1.labels["status"] != "failure" {
		t.Fatalf("counter[1].labels[status]=%q; want %q", cc1.labels["status"], "failure")
	}

	h1 := fb.callsHistograms[1]
	if h1.value < 1.5-0.001 || h1.value > 1.5+0.001 {
		t.Fatalf("hist[1].value=%v; want ~1.5", h1.value)
	}
}

func TestRecordRowsAndBatches(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	backend = fb

	RecordRows("orders", "validated", 3)
	RecordRows("orders", "validated", 0) // should be ignored
	RecordRows("customers", "rule_violation", 5)
	RecordBatches("orders", 2)

	if len(fb.callsCounters) != 3 {
		t.Fatalf("expected 3 counter calls, got %d", len(fb.callsCounters))
	}

	c0 := fb.callsCounters[0]
	if c0.name != "dataguard_rows_total" || c0.delta != 3 {
		t.Fatalf("counter[0] = %#v; want name=dataguard_rows_total, delta=3", c0)
	}
	if c0.labels["table"] != "orders" || c0.labels["kind"] != "validated" {
		t.Fatalf("counter[0] labels = %v; want table=orders, kind=validated", c0.labels)
	}

	c1 := fb.callsCounters[1]
	if c1.name != "dataguard_rows_total" || c1.delta != 5 {
		t.Fatalf("counter[1] = %#v; want name=dataguard_rows_total, delta=5", c1)
	}
	if c1.labels["table"] != "customers" || c1.labels["kind"] != "rule_violation" {
		t.Fatalf("counter[1] labels = %v; want table=customers, kind=rule_violation", c1.labels)
	}

	c2 := fb.callsCounters[2]
	if c2.name != "dataguard_batches_total" || c2.delta != 2 {
		t.Fatalf("counter[2] = %#v; want name=dataguard_batches_total, delta=2", c2)
	}
	if c2.labels["table"] != "orders" {
		t.Fatalf("counter[2].labels[table]=%q; want %q", c2.labels["table"], "orders")
	}
}

func TestSetBackendAndFlush(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	SetBackend(fb)

	if backend != fb {
		t.Fatal("SetBackend did not replace global backend")
	}

	if err := Flush(); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if fb.flushCount != 1 {
		t.Fatalf("expected flushCount=1, got %d", fb.flushCount)
	}

	// SetBackend(nil) should not nil out the backend.
	SetBackend(nil)
	if backend != fb {
		t.Fatal("SetBackend(nil) should not change backend")
	}
}

func TestRecordRuleResult(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	backend = fb

	RecordRuleResult("orders", "order_id", "unicity", 3, 1.5, false)

	if len(fb.callsCounters) != 2 {
		t.Fatalf("expected 2 counter calls, got %d", len(fb.callsCounters))
	}
	if len(fb.callsGauges) != 1 {
		t.Fatalf("expected 1 gauge call, got %d", len(fb.callsGauges))
	}

	vc := fb.callsCounters[0]
	if vc.name != "dataguard_rule_violations_total" || vc.delta != 3 {
		t.Fatalf("counter[0] = %#v; want name=dataguard_rule_violations_total, delta=3", vc)
	}
	if vc.labels["table"] != "orders" || vc.labels["column"] != "order_id" || vc.labels["rule"] != "unicity" {
		t.Fatalf("counter[0] labels = %v; want table/column/rule = orders/order_id/unicity", vc.labels)
	}

	g := fb.callsGauges[0]
	if g.name != "dataguard_rule_violation_percent" || g.value != 1.5 {
		t.Fatalf("gauge[0] = %#v; want name=dataguard_rule_violation_percent, value=1.5", g)
	}

	fc := fb.callsCounters[1]
	if fc.name != "dataguard_rule_failures_total" || fc.delta != 1 {
		t.Fatalf("counter[1] = %#v; want name=dataguard_rule_failures_total, delta=1", fc)
	}

	// A passing rule must not increment the failure counter.
	fb2 := &fakeBackend{}
	backend = fb2
	RecordRuleResult("orders", "order_id", "unicity", 0, 0, true)
	if len(fb2.callsCounters) != 1 {
		t.Fatalf("expected 1 counter call for a passing rule, got %d", len(fb2.callsCounters))
	}
	if fb2.callsCounters[0].name != "dataguard_rule_violations_total" {
		t.Fatalf("counter[0].name = %q; want dataguard_rule_violations_total", fb2.callsCounters[0].name)
	}
}
