// Package metrics defines the Prometheus collectors the supervisor exports
// on its /metrics endpoint. All methods are safe on a nil *Metrics, so
// components can be built without a registry in tests.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lockstep"

// Pool acquire results, used as the "result" label.
const (
	AcquireCacheHit = "cache_hit"
	AcquireFresh    = "fresh"
	AcquireError    = "error"
)

// Metrics holds every collector. Build it with New.
type Metrics struct {
	reclaims      *prometheus.CounterVec
	kills         *prometheus.CounterVec
	watchdogProbe *prometheus.CounterVec
	acquires      *prometheus.CounterVec
	releases      prometheus.Counter
	connected     prometheus.Gauge
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests usually want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reclaims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "port_reclaims_total",
			Help:      "Port reclamation attempts by outcome.",
		}, []string{"outcome"}),
		kills: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "port_owner_kills_total",
			Help:      "Kill commands issued against port owners by result.",
		}, []string{"result"}),
		watchdogProbe: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watchdog_probes_total",
			Help:      "Parent liveness probes by result.",
		}, []string{"result"}),
		acquires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_acquires_total",
			Help:      "Connection pool acquire calls by result.",
		}, []string{"result"}),
		releases: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_releases_total",
			Help:      "Connection pool releases that closed a live connection.",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connected",
			Help:      "1 while the pooled database connection is established.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.reclaims, m.kills, m.watchdogProbe, m.acquires, m.releases, m.connected)
	}
	return m
}

// Reclaim records a finished reclamation with its outcome label.
func (m *Metrics) Reclaim(outcome string) {
	if m == nil {
		return
	}
	m.reclaims.WithLabelValues(outcome).Inc()
}

// Kill records one kill command; ok is false when it failed for a process
// that was still alive afterwards.
func (m *Metrics) Kill(ok bool) {
	if m == nil {
		return
	}
	m.kills.WithLabelValues(resultLabel(ok)).Inc()
}

// WatchdogProbe records one parent liveness probe.
func (m *Metrics) WatchdogProbe(alive bool) {
	if m == nil {
		return
	}
	label := "alive"
	if !alive {
		label = "gone"
	}
	m.watchdogProbe.WithLabelValues(label).Inc()
}

// Acquire records one pool acquire with one of the Acquire* results.
func (m *Metrics) Acquire(result string) {
	if m == nil {
		return
	}
	m.acquires.WithLabelValues(result).Inc()
	if result == AcquireFresh {
		m.connected.Set(1)
	}
}

// Release records a release that closed a live connection.
func (m *Metrics) Release() {
	if m == nil {
		return
	}
	m.releases.Inc()
	m.connected.Set(0)
}

func resultLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
