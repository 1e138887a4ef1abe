// Package metrics holds the Prometheus collectors for the checkpoint engine.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Proof event outcomes.
const (
	OutcomeStored    = "stored"
	OutcomeDuplicate = "duplicate"
	OutcomeBuffered  = "buffered"
	OutcomeAbandoned = "abandoned"
)

// Metrics groups the engine's collectors.
type Metrics struct {
	exchanges    *prometheus.CounterVec
	checkpoints  prometheus.Counter
	validations  *prometheus.CounterVec
	proofEvents  *prometheus.CounterVec
	retryBuffer  prometheus.Gauge
	turnDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers the collectors with reg. Use prometheus.NewRegistry in
// tests so runs don't collide on the default registry.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		exchanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "proofloop_exchanges_total",
			Help: "Assistant turns classified, by whether they counted as teaching",
		}, []string{"teaching"}),
		checkpoints: f.NewCounter(prometheus.CounterOpts{
			Name: "proofloop_checkpoints_triggered_total",
			Help: "Checkpoints entered",
		}),
		validations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "proofloop_validations_total",
			Help: "Explain-back responses validated, by classification",
		}, []string{"classification"}),
		proofEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "proofloop_proof_events_total",
			Help: "Proof event writes, by outcome",
		}, []string{"outcome"}),
		retryBuffer: f.NewGauge(prometheus.GaugeOpts{
			Name: "proofloop_retry_buffer_entries",
			Help: "Proof events waiting in the retry buffer",
		}),
		turnDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "proofloop_turn_duration_seconds",
			Help:    "ProcessMessage latency by mode",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		}, []string{"mode"}),
		gatherer: reg,
	}
}

// Exchange records a classified assistant turn.
func (m *Metrics) Exchange(teaching bool) {
	if m == nil {
		return
	}
	label := "false"
	if teaching {
		label = "true"
	}
	m.exchanges.WithLabelValues(label).Inc()
}

// CheckpointTriggered records a checkpoint entry.
func (m *Metrics) CheckpointTriggered() {
	if m == nil {
		return
	}
	m.checkpoints.Inc()
}

// Validation records a validation verdict.
func (m *Metrics) Validation(classification string) {
	if m == nil {
		return
	}
	m.validations.WithLabelValues(classification).Inc()
}

// ProofEvent records a proof event write outcome.
func (m *Metrics) ProofEvent(outcome string) {
	if m == nil {
		return
	}
	m.proofEvents.WithLabelValues(outcome).Inc()
}

// RetryBufferSize sets the retry buffer gauge.
func (m *Metrics) RetryBufferSize(n int) {
	if m == nil {
		return
	}
	m.retryBuffer.Set(float64(n))
}

// ObserveTurn records how long a turn took in mode.
func (m *Metrics) ObserveTurn(mode string, d time.Duration) {
	if m == nil {
		return
	}
	m.turnDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
