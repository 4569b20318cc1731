// Package metrics records pipeline activity behind a small backend interface.
//
// Callers use the package-level helpers (RecordStep, RecordRows, SetSessions).
// The default backend discards everything, so instrumentation is always safe
// to call; cmd/server installs the Prometheus backend from package prom.
package metrics

import (
	"sync"
	"time"
)

// Metric names shared by every backend.
const (
	StepTotal        = "cleanlytics_step_total"
	StepDuration     = "cleanlytics_step_duration_seconds"
	RowsDroppedTotal = "cleanlytics_rows_dropped_total"
	SessionsActive   = "cleanlytics_sessions_active"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface a metrics system must implement.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a duration style value.
	ObserveHistogram(name string, value float64, labels Labels)
	// SetGauge sets a gauge to value.
	SetGauge(name string, value float64, labels Labels)
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) SetGauge(string, float64, Labels)         {}

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs a concrete backend. Passing nil keeps the current one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// RecordStep counts one execution of a pipeline step and its duration.
// Steps are ingest, clean, rename, map, replay, export and load.
func RecordStep(step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"step": step, "status": status}

	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRows counts rows removed for a reason such as "duplicate" or
// "incomplete". Non-positive deltas are ignored.
func RecordRows(reason string, delta int) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RowsDroppedTotal, float64(delta), Labels{"reason": reason})
}

// SetSessions publishes the number of live sessions.
func SetSessions(n int) {
	current().SetGauge(SessionsActive, float64(n), nil)
}
