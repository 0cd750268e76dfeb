// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// ConnectionsActive tracks currently registered hub connections.
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_connections_active",
			Help: "Number of active hub connections",
		},
	)

	// FramesTotal tracks inbound frames routed by the hub, by type tag.
	FramesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_frames_total",
			Help: "Total inbound frames routed",
		},
		[]string{"type"},
	)

	// FramesDropped tracks frames dropped by the router (missing target,
	// malformed, unknown tag).
	FramesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_frames_dropped_total",
			Help: "Total frames dropped by the router",
		},
		[]string{"reason"},
	)

	// CallSessionsActive tracks live call sessions.
	CallSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_call_sessions_active",
			Help: "Number of call sessions not yet ended",
		},
	)

	// ChatRepliesTotal tracks generated chat replies by risk level.
	ChatRepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_replies_total",
			Help: "Total chat replies generated",
		},
		[]string{"risk_level"},
	)

	// RiskEvaluationsTotal tracks risk evaluations by outcome.
	RiskEvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_evaluations_total",
			Help: "Total risk evaluations performed",
		},
		[]string{"source", "outcome"},
	)

	// CrisisAlertsTotal tracks crisis alerts published.
	CrisisAlertsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crisis_alerts_total",
			Help: "Total crisis alerts published",
		},
	)

	// TrainingDuration tracks personality extraction duration.
	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "personality_training_duration_seconds",
			Help:    "Transcript parse and extraction duration",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	// ProfilesTrained tracks personality profiles created.
	ProfilesTrained = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "personality_profiles_trained_total",
			Help: "Total personality profiles trained",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordFrame records a routed inbound frame.
func RecordFrame(frameType string) {
	FramesTotal.WithLabelValues(frameType).Inc()
}

// RecordDrop records a dropped frame.
func RecordDrop(reason string) {
	FramesDropped.WithLabelValues(reason).Inc()
}
