package config

import (
	"strings"
	"time"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields. Called after loading from file and environment to fill in
// anything still at its zero value.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyConnectionDefaults(&cfg.Connection)
	applyStorageDefaults(&cfg.Storage)
	applyMetricsDefaults(&cfg.Metrics)
	cfg.ControlPlane.applyDefaults()

	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	applyProfilingDefaults(&cfg.Profiling)
}

func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu", "alloc_objects", "alloc_space",
			"inuse_objects", "inuse_space", "goroutines",
		}
	}
}

// applyConnectionDefaults mirrors pkg/connection.DefaultConfig: 10 /
// 100ms / 30s / 0 / 30s / 2s / true / true.
func applyConnectionDefaults(cfg *ConnectionDefaults) {
	if cfg.MaxReconnectAttempts == 0 {
		cfg.MaxReconnectAttempts = 10
	}
	if cfg.InitialReconnectDelay == 0 {
		cfg.InitialReconnectDelay = 100 * time.Millisecond
	}
	if cfg.MaxBackoffTime == 0 {
		cfg.MaxBackoffTime = 30 * time.Second
	}
	if cfg.MessageReconnectTimeout == 0 {
		cfg.MessageReconnectTimeout = 30 * time.Second
	}
	if cfg.WebsocketTimeout == 0 {
		cfg.WebsocketTimeout = 2 * time.Second
	}
	// IsOnline and Connect default true; a config file explicitly
	// setting either to false is indistinguishable from zero value
	// here, same caveat the teacher's bool-default fields carry.
	if !cfg.IsOnline {
		cfg.IsOnline = true
	}
	if !cfg.Connect {
		cfg.Connect = true
	}
}

func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.Backend == "" {
		cfg.Backend = "memory"
	}
	if cfg.Blob.Backend == "" {
		cfg.Blob.Backend = "memory"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// GetDefaultConfig returns a Config populated entirely with defaults,
// used when no config file is found.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
