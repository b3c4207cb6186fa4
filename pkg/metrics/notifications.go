package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Delivery outcomes for a dispatched notification.
const (
	OutcomeLive       = "live"
	OutcomeStoredOnly = "stored_only"
)

// DispatchMetrics records notification fan-out and live connection counts.
type DispatchMetrics struct {
	dispatched  *prometheus.CounterVec
	connections prometheus.Gauge
}

// NewDispatchMetrics registers the notification metrics on the provided registerer.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	dispatched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_dispatched_total",
		Help: "Notifications persisted, labelled by category and delivery outcome.",
	}, []string{"category", "outcome"})
	connections := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "live_connections",
		Help: "Currently registered live channel connections.",
	})
	reg.MustRegister(dispatched, connections)
	return &DispatchMetrics{
		dispatched:  dispatched,
		connections: connections,
	}
}

// IncDispatched counts one notification for category with the given outcome.
func (m *DispatchMetrics) IncDispatched(category, outcome string) {
	if m == nil || m.dispatched == nil {
		return
	}
	m.dispatched.WithLabelValues(normalizeLabel(category), normalizeLabel(outcome)).Inc()
}

// SetConnections publishes the live connection count.
func (m *DispatchMetrics) SetConnections(n int) {
	if m == nil || m.connections == nil {
		return
	}
	m.connections.Set(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
