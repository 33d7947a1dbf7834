// Package config loads and validates relaydoc's static configuration:
// connection defaults, server, storage backend selection, and telemetry.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (RELAYDOC_*)
//  2. Configuration file (YAML)
//  3. Default values (lowest priority)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/relaydoc/relaydoc/internal/controlplane/api"
)

// Config represents relaydoc's static configuration.
//
// Dynamic state (which documents exist, their server-version counters)
// lives in the configured storage backend, not here.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry tracing and Pyroscope profiling.
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// ControlPlane configures the HTTP API server (sync endpoints,
	// websocket/SSE/durable transports, health probes).
	ControlPlane api.APIConfig `mapstructure:"controlplane" yaml:"controlplane"`

	// Storage selects and configures the document index and blob
	// storage backends.
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`

	// Metrics contains Prometheus metrics server configuration.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Connection carries the reconnection/liveness defaults handed to
	// every pkg/connection.Core a client constructs, unless the client
	// overrides them explicitly.
	Connection ConnectionDefaults `mapstructure:"connection" yaml:"connection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive).
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format: text or json.
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written: stdout, stderr, or a
	// file path.
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing and
// Pyroscope continuous profiling.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false (opt-in).
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port).
	// Default: "localhost:4317".
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use a non-TLS connection to the
	// collector. Default: true (for local development).
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate, 0.0 to 1.0.
	// Default: 1.0 (sample all).
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration.
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is active.
	// Default: false (opt-in).
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server endpoint (URL).
	// Default: "http://localhost:4040".
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes selects which profile types to collect.
	// Default: ["cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines"]
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP server. When
// Enabled is false, no metrics are collected.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Port is the HTTP port for the metrics endpoint. Default: 9090.
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// ConnectionDefaults mirrors pkg/connection.Config's field names and
// defaults verbatim, so a config file value maps directly onto the
// reconnection/liveness knobs every client connection honors.
type ConnectionDefaults struct {
	// MaxReconnectAttempts caps automatic reconnection attempts.
	// Default: 10
	MaxReconnectAttempts int `mapstructure:"max_reconnect_attempts" validate:"omitempty,min=0" yaml:"max_reconnect_attempts"`

	// InitialReconnectDelay is the backoff delay before the first
	// reconnect attempt. Default: 100ms
	InitialReconnectDelay time.Duration `mapstructure:"initial_reconnect_delay" yaml:"initial_reconnect_delay"`

	// MaxBackoffTime caps exponential reconnect backoff. Default: 30s
	MaxBackoffTime time.Duration `mapstructure:"max_backoff_time" yaml:"max_backoff_time"`

	// HeartbeatInterval is the keepalive ping interval; 0 disables
	// heartbeats. Default: 0
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval" yaml:"heartbeat_interval"`

	// MessageReconnectTimeout is how long to wait for a message before
	// forcing a reconnect; 0 disables this watchdog. Default: 30s
	MessageReconnectTimeout time.Duration `mapstructure:"message_reconnect_timeout" yaml:"message_reconnect_timeout"`

	// WebsocketTimeout bounds the initial websocket handshake.
	// Default: 2s
	WebsocketTimeout time.Duration `mapstructure:"websocket_timeout" yaml:"websocket_timeout"`

	// IsOnline seeds the client's initial online/offline assumption.
	// Default: true
	IsOnline bool `mapstructure:"is_online" yaml:"is_online"`

	// Connect controls whether the client dials on construction.
	// Default: true
	Connect bool `mapstructure:"connect" yaml:"connect"`
}

// StorageConfig selects the document index backend and the blob store
// backing large ciphertext payloads.
type StorageConfig struct {
	// Backend selects the document index: "memory", "badger", or
	// "postgres". Default: "memory".
	Backend string `mapstructure:"backend" validate:"omitempty,oneof=memory badger postgres" yaml:"backend"`

	// BadgerDir is the on-disk directory for the badger backend.
	BadgerDir string `mapstructure:"badger_dir" yaml:"badger_dir,omitempty"`

	// PostgresDSN is the connection string for the postgres backend.
	PostgresDSN string `mapstructure:"postgres_dsn" yaml:"postgres_dsn,omitempty"`

	// Blob selects and configures the ciphertext blob store.
	Blob BlobConfig `mapstructure:"blob" yaml:"blob"`
}

// BlobConfig selects the ciphertext blob store backend.
type BlobConfig struct {
	// Backend selects the blob store: "memory", "badger", or "s3".
	// Default: "memory".
	Backend string `mapstructure:"backend" validate:"omitempty,oneof=memory badger s3" yaml:"backend"`

	// BadgerDir is the on-disk directory for the badger blob backend.
	BadgerDir string `mapstructure:"badger_dir" yaml:"badger_dir,omitempty"`

	// S3 configures the S3-compatible blob backend.
	S3 S3Config `mapstructure:"s3" yaml:"s3,omitempty"`
}

// S3Config configures the S3 blob store backend.
type S3Config struct {
	Bucket         string `mapstructure:"bucket" yaml:"bucket,omitempty"`
	Region         string `mapstructure:"region" yaml:"region,omitempty"`
	Endpoint       string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	KeyPrefix      string `mapstructure:"key_prefix" yaml:"key_prefix,omitempty"`
	ForcePathStyle bool   `mapstructure:"force_path_style" yaml:"force_path_style,omitempty"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest): environment variables
// (RELAYDOC_*), configuration file, default values.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	if !configFileFound {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration, returning a user-friendly error with
// setup instructions if no config file exists at the resolved path.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please create a configuration file at that location first.\n\n"+
				"Or specify a custom config file:\n"+
				"  relaydocd start --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path in YAML format with owner-only
// permissions, since it may carry a JWT secret or database DSN.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setupViper configures viper with environment variable and config
// file search settings.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("RELAYDOC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists. Returns
// (fileFound, error).
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// durationDecodeHook converts strings like "30s" to time.Duration so
// config files can use human-readable durations.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path, preferring
// XDG_CONFIG_HOME, then ~/.config, falling back to the current
// directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "relaydoc")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "relaydoc")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the
// default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
