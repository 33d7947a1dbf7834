package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "DEBUG"

controlplane:
  port: 9000
  jwt:
    secret: "test-secret-key-for-testing-minimum-32-chars"

storage:
  backend: memory
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("expected level DEBUG, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected default format text, got %q", cfg.Logging.Format)
	}
	if cfg.ControlPlane.Port != 9000 {
		t.Errorf("expected control plane port 9000, got %d", cfg.ControlPlane.Port)
	}
	if cfg.Connection.MaxReconnectAttempts != 10 {
		t.Errorf("expected default max reconnect attempts 10, got %d", cfg.Connection.MaxReconnectAttempts)
	}
	if cfg.Connection.InitialReconnectDelay != 100*time.Millisecond {
		t.Errorf("expected default initial reconnect delay 100ms, got %v", cfg.Connection.InitialReconnectDelay)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	nonExistentPath := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("expected no error loading defaults, got: %v", err)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("expected default storage backend memory, got %q", cfg.Storage.Backend)
	}
	if cfg.ControlPlane.Port != 8080 {
		t.Errorf("expected default control plane port 8080, got %d", cfg.ControlPlane.Port)
	}
}

func TestGetDefaultConfig_MatchesConnectionDefaults(t *testing.T) {
	cfg := GetDefaultConfig()

	want := ConnectionDefaults{
		MaxReconnectAttempts:    10,
		InitialReconnectDelay:   100 * time.Millisecond,
		MaxBackoffTime:          30 * time.Second,
		HeartbeatInterval:       0,
		MessageReconnectTimeout: 30 * time.Second,
		WebsocketTimeout:        2 * time.Second,
		IsOnline:                true,
		Connect:                 true,
	}
	if cfg.Connection != want {
		t.Errorf("default connection config = %+v, want %+v", cfg.Connection, want)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Logging.Level = "WARN"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected config file to exist: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected file mode 0600, got %v", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("failed to reload saved config: %v", err)
	}
	if loaded.Logging.Level != "WARN" {
		t.Errorf("expected reloaded level WARN, got %q", loaded.Logging.Level)
	}
}
