// Package observability provides the metrics and tracing plumbing for
// the protocol engine: a prometheus-backed metrics sink and an
// OTLP-exporting trace provider. Both are optional; the engine runs
// with nil sinks and skips instrumentation entirely.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mcpwire/mcpwire/pkg/protocol"
)

// EngineMetrics aggregates the engine's prometheus collectors. All
// record methods are nil-receiver safe so call sites need no guards.
type EngineMetrics struct {
	messagesParsed  *prometheus.CounterVec
	parseErrors     prometheus.Counter
	handshakes      *prometheus.CounterVec
	dispatchTotal   *prometheus.CounterVec
	dispatchSeconds *prometheus.HistogramVec
	transitions     *prometheus.CounterVec
	activeSessions  prometheus.Gauge
}

// NewEngineMetrics creates and registers the engine collectors. A nil
// registerer falls back to the default registry.
func NewEngineMetrics(namespace string, reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &EngineMetrics{
		messagesParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_parsed_total",
			Help:      "Messages successfully parsed, by kind.",
		}, []string{"kind"}),
		parseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_errors_total",
			Help:      "Inputs rejected by the codec.",
		}),
		handshakes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshakes_total",
			Help:      "Initialize attempts, by outcome.",
		}, []string{"outcome"}),
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Dispatched method calls, by method and status.",
		}, []string{"method", "status"}),
		dispatchSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Handler latency, by method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_transitions_total",
			Help:      "Session state transitions, by source state and event.",
		}, []string{"from", "event"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently tracked by the manager.",
		}),
	}

	reg.MustRegister(
		m.messagesParsed,
		m.parseErrors,
		m.handshakes,
		m.dispatchTotal,
		m.dispatchSeconds,
		m.transitions,
		m.activeSessions,
	)
	return m
}

// RecordParse counts one successfully parsed message.
func (m *EngineMetrics) RecordParse(kind protocol.MessageKind) {
	if m == nil {
		return
	}
	m.messagesParsed.WithLabelValues(kind.String()).Inc()
}

// RecordParseError counts one rejected input.
func (m *EngineMetrics) RecordParseError() {
	if m == nil {
		return
	}
	m.parseErrors.Inc()
}

// RecordHandshake counts one initialize attempt.
func (m *EngineMetrics) RecordHandshake(ok bool) {
	if m == nil {
		return
	}
	m.handshakes.WithLabelValues(outcome(ok)).Inc()
}

// RecordDispatch counts one dispatched call and observes its latency.
func (m *EngineMetrics) RecordDispatch(method string, ok bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(method, outcome(ok)).Inc()
	m.dispatchSeconds.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordTransition counts one session state transition.
func (m *EngineMetrics) RecordTransition(from, event string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, event).Inc()
}

// SetActiveSessions publishes the current session count.
func (m *EngineMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
