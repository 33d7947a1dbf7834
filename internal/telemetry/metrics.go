package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SyncMetrics is the Prometheus implementation for document-sync metrics.
type SyncMetrics struct {
	documentsActive    prometheus.Gauge
	updatesTotal       *prometheus.CounterVec
	connectionInFlight *prometheus.GaugeVec
	reconnectAttempts  *prometheus.CounterVec
	transportFallback  *prometheus.CounterVec
}

// NewSyncMetrics creates a new Prometheus-backed SyncMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called). Callers
// should pass nil to docstore/connection components, which results in zero
// overhead via the nil-receiver-safe Record methods below.
func NewSyncMetrics() *SyncMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &SyncMetrics{
		documentsActive: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "relaydoc_documents_active",
				Help: "Number of documents currently held in the document store",
			},
		),
		updatesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "relaydoc_updates_total",
				Help: "Total number of updates processed, by outcome",
			},
			[]string{"outcome", "error_code"}, // outcome: "accepted" | "rejected"; error_code empty on accept
		),
		connectionInFlight: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "relaydoc_connection_inflight_messages",
				Help: "Number of messages queued or in flight on a connection core instance",
			},
			[]string{"transport"},
		),
		reconnectAttempts: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "relaydoc_reconnect_attempts_total",
				Help: "Total number of reconnect attempts made by connection core instances",
			},
			[]string{"transport"},
		),
		transportFallback: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "relaydoc_transport_fallback_total",
				Help: "Total number of times a client fell back from one transport to another",
			},
			[]string{"from", "to"},
		),
	}
}

// SetDocumentsActive records the current number of documents held in the store.
func (m *SyncMetrics) SetDocumentsActive(count int) {
	if m == nil {
		return
	}
	m.documentsActive.Set(float64(count))
}

// RecordUpdateAccepted records a successfully applied update.
func (m *SyncMetrics) RecordUpdateAccepted() {
	if m == nil {
		return
	}
	m.updatesTotal.WithLabelValues("accepted", "").Inc()
}

// RecordUpdateRejected records an update rejected with the given error code.
func (m *SyncMetrics) RecordUpdateRejected(errorCode string) {
	if m == nil {
		return
	}
	m.updatesTotal.WithLabelValues("rejected", errorCode).Inc()
}

// SetInFlightMessages records the current in-flight/queued message count
// for a connection core instance on the given transport.
func (m *SyncMetrics) SetInFlightMessages(transport string, count int) {
	if m == nil {
		return
	}
	m.connectionInFlight.WithLabelValues(transport).Set(float64(count))
}

// RecordReconnectAttempt records one reconnect attempt on the given transport.
func (m *SyncMetrics) RecordReconnectAttempt(transport string) {
	if m == nil {
		return
	}
	m.reconnectAttempts.WithLabelValues(transport).Inc()
}

// RecordTransportFallback records a client falling back from one transport
// to another, e.g. "websocket" to "sse" or "sse" to "durable".
func (m *SyncMetrics) RecordTransportFallback(from, to string) {
	if m == nil {
		return
	}
	m.transportFallback.WithLabelValues(from, to).Inc()
}
