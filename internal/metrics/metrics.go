// Package metrics defines the Prometheus instrumentation for the debate
// engine. The teacher's pkg/metrics/server.go documented a Metrics type
// exposing agentpipe_* counters/histograms but the type itself was never
// checked in with the retrieved package; this file supplies it, adapted
// to the debate engine's own metric surface, and is consumed by the
// adapted server in internal/metrics/server.go.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every Prometheus collector the debate engine records
// against. Names follow the teacher's agentpipe_* convention, rebased to
// the debate_engine_ namespace.
type Metrics struct {
	RoundsTotal        *prometheus.CounterVec
	AgentTokensTotal   *prometheus.CounterVec
	AgentErrorsTotal   *prometheus.CounterVec
	RetryAttemptsTotal *prometheus.CounterVec
	ActiveDebates      prometheus.Gauge
	RoundDuration      *prometheus.HistogramVec
	InterTokenLatency  *prometheus.HistogramVec
	RestartsTotal      prometheus.Counter
}

// NewMetrics registers and returns the full collector set against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RoundsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "debate_engine_rounds_total",
			Help: "Total rounds executed, by round name and outcome.",
		}, []string{"round_name", "outcome"}),

		AgentTokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "debate_engine_agent_tokens_total",
			Help: "Total completion tokens produced, by agent id.",
		}, []string{"agent_id"}),

		AgentErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "debate_engine_agent_errors_total",
			Help: "Total terminal agent errors, by agent id.",
		}, []string{"agent_id"}),

		RetryAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "debate_engine_retry_attempts_total",
			Help: "Total fallback-model retries, by agent id.",
		}, []string{"agent_id"}),

		ActiveDebates: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "debate_engine_active_debates",
			Help: "Current number of in-flight debates.",
		}),

		RoundDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "debate_engine_round_duration_seconds",
			Help:    "Wall-clock duration of a completed round.",
			Buckets: prometheus.DefBuckets,
		}, []string{"round_name"}),

		InterTokenLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "debate_engine_inter_token_latency_seconds",
			Help:    "Per-agent inter-token latency samples.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}, []string{"agent_id"}),

		RestartsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "debate_engine_round_restarts_total",
			Help: "Total rounds restarted due to an interrupt.",
		}),
	}

	reg.MustRegister(
		m.RoundsTotal,
		m.AgentTokensTotal,
		m.AgentErrorsTotal,
		m.RetryAttemptsTotal,
		m.ActiveDebates,
		m.RoundDuration,
		m.InterTokenLatency,
		m.RestartsTotal,
	)

	return m
}

// ObserveRound records one round's terminal outcome and wall duration. A
// nil *Metrics is a valid no-op receiver, so callers that run without a
// configured metrics server (tests, cmd/bench) don't need a separate
// code path.
func (m *Metrics) ObserveRound(name, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RoundsTotal.WithLabelValues(name, outcome).Inc()
	if outcome == "completed" {
		m.RoundDuration.WithLabelValues(name).Observe(duration.Seconds())
	}
	if outcome == "restart" {
		m.RestartsTotal.Inc()
	}
}

// AddTokens records n completion tokens produced by agentID.
func (m *Metrics) AddTokens(agentID string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.AgentTokensTotal.WithLabelValues(agentID).Add(float64(n))
}

// IncAgentError records one terminal agent error for agentID.
func (m *Metrics) IncAgentError(agentID string) {
	if m == nil {
		return
	}
	m.AgentErrorsTotal.WithLabelValues(agentID).Inc()
}

// IncRetry records one fallback-model retry for agentID.
func (m *Metrics) IncRetry(agentID string) {
	if m == nil {
		return
	}
	m.RetryAttemptsTotal.WithLabelValues(agentID).Inc()
}

// ObserveITL records one inter-token-latency sample for agentID.
func (m *Metrics) ObserveITL(agentID string, seconds float64) {
	if m == nil {
		return
	}
	m.InterTokenLatency.WithLabelValues(agentID).Observe(seconds)
}

// IncActiveDebates records a debate starting.
func (m *Metrics) IncActiveDebates() {
	if m == nil {
		return
	}
	m.ActiveDebates.Inc()
}

// DecActiveDebates records a debate ending (completed, aborted, or
// superseded by a new one).
func (m *Metrics) DecActiveDebates() {
	if m == nil {
		return
	}
	m.ActiveDebates.Dec()
}
