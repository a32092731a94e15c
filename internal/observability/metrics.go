// Package observability provides metrics and logger construction for the
// chat relay.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "supportiq"

// Path labels.
const (
	PathRelay    = "relay"
	PathFallback = "fallback"
)

// Metrics holds the Prometheus collectors for chat turns.
type Metrics struct {
	// ChatTurnsTotal counts finished turns.
	// Labels: path (relay, fallback), outcome (completed, interrupted, aborted, failed)
	ChatTurnsTotal *prometheus.CounterVec

	// FallbacksTotal counts relay failures that switched to the fallback.
	// Labels: reason (unreachable, status)
	FallbacksTotal *prometheus.CounterVec

	// FirstFrameSeconds measures latency from request to first forwarded frame.
	// Labels: path
	FirstFrameSeconds *prometheus.HistogramVec

	// ActiveStreams tracks in-flight chat streams.
	ActiveStreams prometheus.Gauge

	EscalationsTotal     prometheus.Counter
	PersistFailuresTotal prometheus.Counter
	DocumentUpdatesTotal *prometheus.CounterVec
}

// NewMetrics registers all collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ChatTurnsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Chat turns by generation path and outcome.",
		}, []string{"path", "outcome"}),
		FallbacksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "fallbacks_total",
			Help:      "Turns served by the fallback generator because the relay was unavailable.",
		}, []string{"reason"}),
		FirstFrameSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "chat",
			Name:      "first_frame_seconds",
			Help:      "Time from request to the first frame written to the client.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"path"}),
		ActiveStreams: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "chat",
			Name:      "active_streams",
			Help:      "Chat streams currently open.",
		}),
		EscalationsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "escalations_total",
			Help:      "Turns that matched a human handoff phrase.",
		}),
		PersistFailuresTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "persist_failures_total",
			Help:      "Assistant messages that could not be saved.",
		}),
		DocumentUpdatesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "document_status_updates_total",
			Help:      "Ingestion status callbacks by result.",
		}, []string{"result"}),
	}
}

// NewNopMetrics returns metrics bound to a private registry.
func NewNopMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
