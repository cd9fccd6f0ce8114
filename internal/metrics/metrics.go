// Package metrics exposes engine activity as Prometheus collectors.
//
// All methods are safe on a nil *Metrics, so the engine can run without them.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rxtech-lab/argo-setups/internal/types"
)

const namespace = "setup_monitor"

var allStatuses = []types.EngineStatus{
	types.EngineStatusStopped,
	types.EngineStatusStarting,
	types.EngineStatusRunning,
	types.EngineStatusError,
}

// Metrics owns a registry and the engine collectors registered on it.
type Metrics struct {
	registry   *prometheus.Registry
	bars       *prometheus.CounterVec
	signals    *prometheus.CounterVec
	runs       prometheus.Counter
	failures   prometheus.Counter
	status     *prometheus.GaugeVec
	lastPrice  *prometheus.GaugeVec
	barLatency prometheus.Histogram
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		bars: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "bars_total", Help: "Bars consumed by the engine"},
			[]string{"symbol"},
		),
		signals: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "signals_total", Help: "Advisory signals emitted"},
			[]string{"setup", "side"},
		),
		runs: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: namespace, Name: "runs_total", Help: "Engine runs started"},
		),
		failures: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: namespace, Name: "run_failures_total", Help: "Engine runs ended in error"},
		),
		status: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Name: "status", Help: "1 for the current engine status"},
			[]string{"status"},
		),
		lastPrice: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Namespace: namespace, Name: "last_price", Help: "Close of the latest bar"},
			[]string{"symbol"},
		),
		barLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bar_process_seconds",
			Help:      "Time spent evaluating one bar",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
	}

	m.registry.MustRegister(m.bars, m.signals, m.runs, m.failures, m.status, m.lastPrice, m.barLatency)
	m.SetStatus(types.EngineStatusStopped)

	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveBar records one evaluated bar.
func (m *Metrics) ObserveBar(bar types.Bar, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.bars.WithLabelValues(bar.Symbol).Inc()
	m.lastPrice.WithLabelValues(bar.Symbol).Set(bar.Close)
	m.barLatency.Observe(elapsed.Seconds())
}

// ObserveSignal records one emitted signal.
func (m *Metrics) ObserveSignal(sig types.Signal) {
	if m == nil {
		return
	}

	m.signals.WithLabelValues(string(sig.Setup), string(sig.Side)).Inc()
}

// RunStarted counts a new run.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}

	m.runs.Inc()
}

// RunFailed counts a run that ended in error.
func (m *Metrics) RunFailed() {
	if m == nil {
		return
	}

	m.failures.Inc()
}

// SetStatus marks status as current and clears the others.
func (m *Metrics) SetStatus(status types.EngineStatus) {
	if m == nil {
		return
	}

	for _, s := range allStatuses {
		value := 0.0
		if s == status {
			value = 1
		}

		m.status.WithLabelValues(string(s)).Set(value)
	}
}
