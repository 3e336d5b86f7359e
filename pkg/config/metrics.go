package config

import (
	"github.com/driftlab/driftfs/pkg/metrics"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// FSMetrics is the metrics collector for the system-call surface
	// (never nil, uses noop if disabled)
	FSMetrics metrics.FSMetrics
}

// InitializeMetrics creates and initializes all metrics components based on
// configuration.
//
// If metrics are enabled in the configuration:
//   - Initializes the global Prometheus registry
//   - Creates the metrics HTTP server
//   - Creates Prometheus-backed metrics instances for all components
//
// If metrics are disabled:
//   - Returns nil server
//   - Returns no-op metrics implementations (zero overhead)
//
// Parameters:
//   - cfg: The complete driftfs configuration
//
// Returns:
//   - MetricsResult containing all metrics components
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Server.Metrics.Enabled {
		// Metrics disabled - return no-op implementations
		return &MetricsResult{
			Server:    nil,
			FSMetrics: metrics.NewNoopFSMetrics(),
		}
	}

	// Initialize global Prometheus registry
	metrics.InitRegistry()

	// Create metrics HTTP server
	server := metrics.NewServer(metrics.ServerConfig{
		Port: cfg.Server.Metrics.Port,
	})

	// Create Prometheus-backed metrics for the filesystem surface
	fsMetrics := metrics.NewFSMetrics()

	return &MetricsResult{
		Server:    server,
		FSMetrics: fsMetrics,
	}
}
