// Package prom implements a Prometheus scrape backend for package metrics.
//
// The backend owns its registry; Handler serves it for the /metrics route.
package prom

import (
	"fmt"
	"net/http"

	"github.com/JonMunkholm/cleanlytics/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Backend is a metrics.Backend backed by client_golang collectors.
type Backend struct {
	reg *prometheus.Registry

	stepCounter  *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	rowsDropped  *prometheus.CounterVec
	sessions     prometheus.Gauge
}

// NewBackend registers the pipeline collectors, plus the Go runtime and
// process collectors, on a fresh registry.
func NewBackend() (*Backend, error) {
	reg := prometheus.NewRegistry()

	b := &Backend{
		reg: reg,
		stepCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metrics.StepTotal,
				Help: "Pipeline step executions, partitioned by step and status.",
			},
			[]string{"step", "status"},
		),
		stepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metrics.StepDuration,
				Help:    "Duration of pipeline steps in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"step", "status"},
		),
		rowsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metrics.RowsDroppedTotal,
				Help: "Rows removed by the cleaning stage, partitioned by reason.",
			},
			[]string{"reason"},
		),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metrics.SessionsActive,
			Help: "Number of live sessions.",
		}),
	}

	for name, c := range map[string]prometheus.Collector{
		"step counter":      b.stepCounter,
		"step histogram":    b.stepDuration,
		"rows counter":      b.rowsDropped,
		"sessions gauge":    b.sessions,
		"go collector":      collectors.NewGoCollector(),
		"process collector": collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prom: register %s: %w", name, err)
		}
	}
	return b, nil
}

// IncCounter implements metrics.Backend. Unknown names are ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)
	case metrics.RowsDroppedTotal:
		b.rowsDropped.WithLabelValues(labels["reason"]).Add(delta)
	}
}

// ObserveHistogram implements metrics.Backend.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDuration {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// SetGauge implements metrics.Backend.
func (b *Backend) SetGauge(name string, value float64, _ metrics.Labels) {
	if name == metrics.SessionsActive {
		b.sessions.Set(value)
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (b *Backend) Handler() http.Handler {
	return promhttp.HandlerFor(b.reg, promhttp.HandlerOpts{Registry: b.reg})
}
