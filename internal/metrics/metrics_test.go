package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type call struct {
	name   string
	value  float64
	labels Labels
}

// fakeBackend records every call for inspection.
type fakeBackend struct {
	mu       sync.Mutex
	counters []call
	hists    []call
	gauges   []call
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, call{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hists = append(f.hists, call{name, value, labels})
}

func (f *fakeBackend) SetGauge(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gauges = append(f.gauges, call{name, value, labels})
}

func install(t *testing.T) *fakeBackend {
	t.Helper()
	orig := current()
	t.Cleanup(func() { SetBackend(orig) })

	fb := &fakeBackend{}
	SetBackend(fb)
	return fb
}

func TestRecordStep(t *testing.T) {
	fb := install(t)

	RecordStep("clean", nil, 2*time.Second)
	RecordStep("ingest", errors.New("boom"), 500*time.Millisecond)

	if len(fb.counters) != 2 {
		t.Fatalf("counters = %d, want 2", len(fb.counters))
	}
	if len(fb.hists) != 2 {
		t.Fatalf("histograms = %d, want 2", len(fb.hists))
	}

	tests := []struct {
		idx    int
		step   string
		status string
		secs   float64
	}{
		{0, "clean", "success", 2},
		{1, "ingest", "failure", 0.5},
	}
	for _, tt := range tests {
		c := fb.counters[tt.idx]
		if c.name != StepTotal || c.value != 1 {
			t.Errorf("counter[%d] = %s/%v, want %s/1", tt.idx, c.name, c.value, StepTotal)
		}
		if c.labels["step"] != tt.step || c.labels["status"] != tt.status {
			t.Errorf("counter[%d] labels = %v, want step=%s status=%s", tt.idx, c.labels, tt.step, tt.status)
		}
		h := fb.hists[tt.idx]
		if h.name != StepDuration || h.value != tt.secs {
			t.Errorf("histogram[%d] = %s/%v, want %s/%v", tt.idx, h.name, h.value, StepDuration, tt.secs)
		}
	}
}

func TestRecordRows_IgnoresNonPositive(t *testing.T) {
	fb := install(t)

	RecordRows("duplicate", 0)
	RecordRows("duplicate", -3)
	RecordRows("incomplete", 4)

	if len(fb.counters) != 1 {
		t.Fatalf("counters = %d, want 1", len(fb.counters))
	}
	c := fb.counters[0]
	if c.name != RowsDroppedTotal || c.value != 4 || c.labels["reason"] != "incomplete" {
		t.Errorf("counter = %+v, want %s 4 reason=incomplete", c, RowsDroppedTotal)
	}
}

func TestSetSessions(t *testing.T) {
	fb := install(t)

	SetSessions(3)

	if len(fb.gauges) != 1 || fb.gauges[0].name != SessionsActive || fb.gauges[0].value != 3 {
		t.Errorf("gauges = %+v, want one %s=3", fb.gauges, SessionsActive)
	}
}

func TestSetBackend_NilKeepsCurrent(t *testing.T) {
	fb := install(t)

	SetBackend(nil)
	RecordRows("duplicate", 1)

	if len(fb.counters) != 1 {
		t.Errorf("counters = %d, want 1 (nil must not replace backend)", len(fb.counters))
	}
}
