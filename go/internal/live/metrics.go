package live

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector defines the interface for collecting live sync metrics
type MetricsCollector interface {
	RecordPoll(success bool, duration time.Duration)
	RecordStale(stale bool)
	RecordEffectEnqueued(kind EffectKind)
	RecordEffectDismissed()
}

// NoOpMetricsCollector is a no-op implementation for when metrics aren't needed
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordPoll(success bool, duration time.Duration) {}
func (NoOpMetricsCollector) RecordStale(stale bool)                          {}
func (NoOpMetricsCollector) RecordEffectEnqueued(kind EffectKind)            {}
func (NoOpMetricsCollector) RecordEffectDismissed()                          {}

// PrometheusMetrics implements MetricsCollector using Prometheus
type PrometheusMetrics struct {
	polls        *prometheus.CounterVec
	pollDuration prometheus.Histogram
	stale        prometheus.Gauge
	effects      *prometheus.CounterVec
	dismissed    prometheus.Counter
}

// NewPrometheusMetrics creates the collectors and registers them with reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pickem",
			Subsystem: "live",
			Name:      "polls_total",
			Help:      "Game state polls by result.",
		}, []string{"result"}),
		pollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pickem",
			Subsystem: "live",
			Name:      "poll_duration_seconds",
			Help:      "Duration of game state polls.",
			Buckets:   prometheus.DefBuckets,
		}),
		stale: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pickem",
			Subsystem: "live",
			Name:      "stale",
			Help:      "1 when the last successful poll is older than the staleness threshold.",
		}),
		effects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pickem",
			Subsystem: "live",
			Name:      "effects_enqueued_total",
			Help:      "Fullscreen effects enqueued by kind.",
		}, []string{"kind"}),
		dismissed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pickem",
			Subsystem: "live",
			Name:      "effects_dismissed_total",
			Help:      "Effects dismissed before they expired.",
		}),
	}
	reg.MustRegister(m.polls, m.pollDuration, m.stale, m.effects, m.dismissed)
	return m
}

func (m *PrometheusMetrics) RecordPoll(success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.polls.WithLabelValues(result).Inc()
	m.pollDuration.Observe(duration.Seconds())
}

func (m *PrometheusMetrics) RecordStale(stale bool) {
	if stale {
		m.stale.Set(1)
		return
	}
	m.stale.Set(0)
}

func (m *PrometheusMetrics) RecordEffectEnqueued(kind EffectKind) {
	m.effects.WithLabelValues(string(kind)).Inc()
}

func (m *PrometheusMetrics) RecordEffectDismissed() {
	m.dismissed.Inc()
}
