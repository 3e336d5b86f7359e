package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StorageMetrics provides observability for content backend operations.
//
// Implementations collect metrics about the low-level storage calls a
// backend performs on behalf of file reads and writes.
//
// This interface is optional - if not provided to backends, operations
// proceed without metrics collection (zero overhead).
type StorageMetrics interface {
	// RecordOperation records a completed storage operation.
	//
	// Parameters:
	//   - operation: Storage operation (e.g., "get", "put", "range_get")
	//   - duration: Time taken
	//   - err: Error if failed, nil if successful
	RecordOperation(operation string, duration time.Duration, err error)

	// RecordBytes records bytes moved to or from the backing store.
	//
	// Parameters:
	//   - direction: "in" for writes to the store, "out" for reads
	//   - bytes: Number of bytes transferred
	RecordBytes(direction string, bytes int)
}

// storageMetrics is the Prometheus implementation of StorageMetrics.
type storageMetrics struct {
	backendType       string
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTransferred  *prometheus.CounterVec
}

// NewStorageMetrics creates a new Prometheus-backed StorageMetrics
// instance for the given backend type (e.g., "badger", "s3").
//
// Returns a no-op implementation if metrics are not enabled (InitRegistry
// not called).
func NewStorageMetrics(backendType string) StorageMetrics {
	if !IsEnabled() {
		return NewNoopStorageMetrics()
	}

	reg := GetRegistry()

	return &storageMetrics{
		backendType: backendType,
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "driftfs_storage_operations_total",
				Help: "Total number of backend storage operations",
			},
			[]string{"backend", "operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "driftfs_storage_operation_duration_milliseconds",
				Help: "Duration of backend storage operations in milliseconds",
				Buckets: []float64{
					1,     // 1ms
					10,    // 10ms
					100,   // 100ms
					1000,  // 1s
					10000, // 10s
				},
			},
			[]string{"backend", "operation"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "driftfs_storage_bytes_transferred_total",
				Help: "Total bytes moved to and from backing stores",
			},
			[]string{"backend", "direction"},
		),
	}
}

func (m *storageMetrics) RecordOperation(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.operationsTotal.WithLabelValues(m.backendType, operation, status).Inc()
	m.operationDuration.WithLabelValues(m.backendType, operation).Observe(float64(duration.Microseconds()) / 1000.0)
}

func (m *storageMetrics) RecordBytes(direction string, bytes int) {
	m.bytesTransferred.WithLabelValues(m.backendType, direction).Add(float64(bytes))
}

// noopStorageMetrics is a no-op implementation of StorageMetrics.
type noopStorageMetrics struct{}

// NewNoopStorageMetrics returns a StorageMetrics implementation that does
// nothing.
func NewNoopStorageMetrics() StorageMetrics {
	return &noopStorageMetrics{}
}

func (noopStorageMetrics) RecordOperation(string, time.Duration, error) {}
func (noopStorageMetrics) RecordBytes(string, int)                      {}
