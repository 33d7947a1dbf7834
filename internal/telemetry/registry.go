package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registryMu sync.RWMutex
	registry   *prometheus.Registry
	enabledMu  sync.RWMutex
	metricsOn  bool
)

// InitRegistry creates the process-wide Prometheus registry and marks
// metrics as enabled. Call once during startup when MetricsConfig.Enabled
// is true; until then IsEnabled reports false and every metrics
// constructor in this package returns nil, so instrumented code pays
// nothing for metrics it never collects.
func InitRegistry() *prometheus.Registry {
	registryMu.Lock()
	defer registryMu.Unlock()

	registry = prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	enabledMu.Lock()
	metricsOn = true
	enabledMu.Unlock()

	return registry
}

// GetRegistry returns the process-wide registry, creating it on first use.
func GetRegistry() *prometheus.Registry {
	registryMu.RLock()
	reg := registry
	registryMu.RUnlock()

	if reg != nil {
		return reg
	}

	return InitRegistry()
}

// IsEnabled reports whether InitRegistry has run.
func IsEnabled() bool {
	enabledMu.RLock()
	defer enabledMu.RUnlock()
	return metricsOn
}

// resetRegistry clears registry state. Test-only.
func resetRegistry() {
	registryMu.Lock()
	registry = nil
	registryMu.Unlock()

	enabledMu.Lock()
	metricsOn = false
	enabledMu.Unlock()
}
