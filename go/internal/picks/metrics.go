package picks

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector defines the interface for collecting save metrics
type MetricsCollector interface {
	RecordSave(op Operation, kind NoticeKind)
	RecordReload(success bool)
}

// NoOpMetricsCollector is a no-op implementation for when metrics aren't needed
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordSave(op Operation, kind NoticeKind) {}
func (NoOpMetricsCollector) RecordReload(success bool)               {}

// PrometheusMetrics implements MetricsCollector using Prometheus
type PrometheusMetrics struct {
	saves   *prometheus.CounterVec
	reloads *prometheus.CounterVec
}

// NewPrometheusMetrics creates the collectors and registers them with reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pickem",
			Subsystem: "picks",
			Name:      "saves_total",
			Help:      "Save and submit outcomes by operation and notice kind.",
		}, []string{"operation", "outcome"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pickem",
			Subsystem: "picks",
			Name:      "conflict_reloads_total",
			Help:      "Full reloads after a save conflict.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.saves, m.reloads)
	return m
}

func (m *PrometheusMetrics) RecordSave(op Operation, kind NoticeKind) {
	m.saves.WithLabelValues(string(op), string(kind)).Inc()
}

func (m *PrometheusMetrics) RecordReload(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.reloads.WithLabelValues(result).Inc()
}
