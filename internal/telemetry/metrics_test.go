package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSyncMetrics_DisabledReturnsNil(t *testing.T) {
	resetRegistry()

	m := NewSyncMetrics()
	assert.Nil(t, m)
}

func TestNewSyncMetrics_EnabledReturnsInstance(t *testing.T) {
	resetRegistry()
	InitRegistry()
	defer resetRegistry()

	m := NewSyncMetrics()
	require.NotNil(t, m)

	require.NotPanics(t, func() {
		m.SetDocumentsActive(3)
		m.RecordUpdateAccepted()
		m.RecordUpdateRejected("snapshot_mismatch")
		m.SetInFlightMessages("websocket", 2)
		m.RecordReconnectAttempt("sse")
		m.RecordTransportFallback("websocket", "sse")
	})
}

func TestSyncMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *SyncMetrics

	require.NotPanics(t, func() {
		m.SetDocumentsActive(1)
		m.RecordUpdateAccepted()
		m.RecordUpdateRejected("boom")
		m.SetInFlightMessages("durable", 1)
		m.RecordReconnectAttempt("durable")
		m.RecordTransportFallback("sse", "durable")
	})
}

func TestGetRegistry_CreatesOnFirstUse(t *testing.T) {
	resetRegistry()
	defer resetRegistry()

	reg := GetRegistry()
	require.NotNil(t, reg)
	assert.True(t, IsEnabled())
}

func TestNewMetricsServer_ServesRegistry(t *testing.T) {
	resetRegistry()
	InitRegistry()
	defer resetRegistry()

	srv := NewMetricsServer(":0")
	require.NotNil(t, srv)
	assert.NotNil(t, srv.Handler)
}
