package config

import (
	"testing"
	"time"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Server.Metrics.Enabled {
		t.Error("Expected metrics disabled by default")
	}
	if cfg.Server.Metrics.Port != 9090 {
		t.Errorf("Expected default metrics port 9090, got %d", cfg.Server.Metrics.Port)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("Expected default storage type 'memory', got %q", cfg.Storage.Type)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{
			Level:  "DEBUG",
			Output: "stderr",
		},
		Server: ServerConfig{
			ShutdownTimeout: 5 * time.Second,
			Metrics: MetricsConfig{
				Enabled: true,
				Port:    8080,
			},
		},
		Storage: StorageConfig{
			Type: "s3",
		},
	}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Explicit level was overwritten: %q", cfg.Logging.Level)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("Explicit output was overwritten: %q", cfg.Logging.Output)
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("Explicit shutdown timeout was overwritten: %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Server.Metrics.Port != 8080 {
		t.Errorf("Explicit metrics port was overwritten: %d", cfg.Server.Metrics.Port)
	}
	if cfg.Storage.Type != "s3" {
		t.Errorf("Explicit storage type was overwritten: %q", cfg.Storage.Type)
	}
}

func TestApplyDefaults_NormalizesLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"debug", "DEBUG"},
		{"Info", "INFO"},
		{"WARN", "WARN"},
		{"error", "ERROR"},
		{"", "INFO"},
	}

	for _, tt := range tests {
		cfg := &Config{Logging: LoggingConfig{Level: tt.input}}
		ApplyDefaults(cfg)
		if cfg.Logging.Level != tt.expected {
			t.Errorf("Level %q: expected %q, got %q", tt.input, tt.expected, cfg.Logging.Level)
		}
	}
}

func TestApplyDefaults_InitializesStorageMaps(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Storage.Memory == nil {
		t.Error("Expected memory config map to be initialized")
	}
	if cfg.Storage.Badger == nil {
		t.Error("Expected badger config map to be initialized")
	}
	if cfg.Storage.S3 == nil {
		t.Error("Expected s3 config map to be initialized")
	}
	if cfg.Storage.Badger["path"] != "/tmp/driftfs-content" {
		t.Errorf("Expected default badger path, got %v", cfg.Storage.Badger["path"])
	}
}

func TestApplyDefaults_PreservesBadgerPath(t *testing.T) {
	cfg := &Config{
		Storage: StorageConfig{
			Badger: map[string]any{"path": "/custom/location"},
		},
	}
	ApplyDefaults(cfg)

	if cfg.Storage.Badger["path"] != "/custom/location" {
		t.Errorf("Explicit badger path was overwritten: %v", cfg.Storage.Badger["path"])
	}
}
