package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// InitConfig writes a commented default configuration file to the default
// location ($XDG_CONFIG_HOME/driftfs/config.yaml or ~/.config/driftfs/config.yaml).
//
// Parameters:
//   - force: Overwrite an existing config file
//
// Returns:
//   - string: Path of the written config file
//   - error: Generation or filesystem error, or "already exists" without force
func InitConfig(force bool) (string, error) {
	configPath := GetDefaultConfigPath()
	if err := InitConfigToPath(configPath, force); err != nil {
		return "", err
	}
	return configPath, nil
}

// InitConfigToPath writes a commented default configuration file to an
// explicit path, creating parent directories as needed.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// generateYAMLWithComments renders cfg as a commented YAML document.
//
// The output is hand-templated rather than marshaled so each section can
// carry explanatory comments; the result is parsed back to catch template
// mistakes before it reaches disk.
func generateYAMLWithComments(cfg *Config) (string, error) {
	out := fmt.Sprintf(`# driftfs Configuration File
#
# Values shown are the defaults. Environment variables with the DRIFTFS_
# prefix override anything set here, for example DRIFTFS_LOGGING_LEVEL=DEBUG.

# Logging configuration
logging:
  # Minimum log level: DEBUG, INFO, WARN, ERROR
  level: "%s"
  # Where logs are written: stdout, stderr, or a file path
  output: "%s"

# Process-wide settings
server:
  # Maximum time to wait for graceful shutdown
  shutdown_timeout: "%s"
  # Prometheus metrics endpoint
  metrics:
    enabled: %t
    port: %d

# Content backend configuration
storage:
  # Backend type: memory, badger, s3
  type: "%s"
  # Funnel all backend operations through a single worker goroutine
  proxied: %t
  # BadgerDB settings, used when type is "badger"
  badger:
    path: "%s"
`,
		cfg.Logging.Level, cfg.Logging.Output,
		cfg.Server.ShutdownTimeout,
		cfg.Server.Metrics.Enabled, cfg.Server.Metrics.Port,
		cfg.Storage.Type, cfg.Storage.Proxied,
		cfg.Storage.Badger["path"])

	var check map[string]any
	if err := yaml.Unmarshal([]byte(out), &check); err != nil {
		return "", fmt.Errorf("generated config is not valid YAML: %w", err)
	}

	return out, nil
}
