package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FSMetrics provides observability for filesystem operations at the
// system-call surface.
//
// This interface is optional - if not provided to the posix layer,
// operations proceed without metrics collection (zero overhead).
//
// Example usage:
//
//	// With metrics enabled
//	fsMetrics := metrics.NewFSMetrics()
//	vfs := posix.New(fsys, fsMetrics)
//
//	// Without metrics (no-op)
//	vfs := posix.New(fsys, nil)
type FSMetrics interface {
	// RecordOperation records a completed filesystem operation with its
	// name, duration, and outcome.
	//
	// Parameters:
	//   - operation: Operation name (e.g., "open", "read", "rename")
	//   - duration: Time taken to complete the operation
	//   - err: Error if operation failed, nil if successful
	RecordOperation(operation string, duration time.Duration, err error)

	// RecordBytes records bytes moved by a read or write operation.
	//
	// Parameters:
	//   - operation: "read" or "write"
	//   - bytes: Number of bytes transferred
	RecordBytes(operation string, bytes int)

	// SetOpenDescriptors updates the count of open file descriptors.
	//
	// Parameters:
	//   - count: Current number of open descriptors
	SetOpenDescriptors(count int64)
}

// fsMetrics is the Prometheus implementation of FSMetrics.
type fsMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTransferred  *prometheus.CounterVec
	openDescriptors   prometheus.Gauge
}

// NewFSMetrics creates a new Prometheus-backed FSMetrics instance.
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry
// not called).
func NewFSMetrics() FSMetrics {
	if !IsEnabled() {
		return NewNoopFSMetrics()
	}

	reg := GetRegistry()

	return &fsMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "driftfs_fs_operations_total",
				Help: "Total number of filesystem operations by name and status",
			},
			[]string{"operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "driftfs_fs_operation_duration_milliseconds",
				Help: "Duration of filesystem operations in milliseconds",
				Buckets: []float64{
					0.01, // 10us
					0.1,  // 100us
					1,    // 1ms
					10,   // 10ms
					100,  // 100ms
					1000, // 1s
				},
			},
			[]string{"operation"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "driftfs_fs_bytes_transferred_total",
				Help: "Total bytes moved by read and write operations",
			},
			[]string{"operation"},
		),
		openDescriptors: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "driftfs_fs_open_descriptors",
				Help: "Current number of open file descriptors",
			},
		),
	}
}

func (m *fsMetrics) RecordOperation(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(float64(duration.Microseconds()) / 1000.0)
}

func (m *fsMetrics) RecordBytes(operation string, bytes int) {
	m.bytesTransferred.WithLabelValues(operation).Add(float64(bytes))
}

func (m *fsMetrics) SetOpenDescriptors(count int64) {
	m.openDescriptors.Set(float64(count))
}

// noopFSMetrics is a no-op implementation of FSMetrics.
type noopFSMetrics struct{}

// NewNoopFSMetrics returns an FSMetrics implementation that does nothing.
func NewNoopFSMetrics() FSMetrics {
	return &noopFSMetrics{}
}

func (noopFSMetrics) RecordOperation(string, time.Duration, error) {}
func (noopFSMetrics) RecordBytes(string, int)                      {}
func (noopFSMetrics) SetOpenDescriptors(int64)                     {}
