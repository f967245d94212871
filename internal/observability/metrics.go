// Package observability provides metrics and tracing helpers.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LifecycleTransitions counts blog post state changes by action.
	LifecycleTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_post_lifecycle_transitions_total",
		Help: "Total number of blog post lifecycle transitions by action",
	}, []string{"action"})

	// StorageOperations counts payload storage calls by backend, operation and outcome.
	StorageOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_storage_operations_total",
		Help: "Total number of storage backend operations",
	}, []string{"backend", "operation", "result"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blog_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// Lifecycle actions recorded by LifecycleTransitions.
const (
	ActionCreate     = "create"
	ActionPublish    = "publish"
	ActionArchive    = "archive"
	ActionSoftDelete = "soft_delete"
	ActionUpdate     = "update"
)

// RecordTransition increments the lifecycle counter for action.
func RecordTransition(action string) {
	LifecycleTransitions.WithLabelValues(action).Inc()
}

// RecordStorage counts one storage call. err decides the result label.
func RecordStorage(backend, operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	StorageOperations.WithLabelValues(backend, operation, result).Inc()
}

// ObserveQuery records the latency of a database query.
func ObserveQuery(operation, table string, elapsed time.Duration) {
	if table == "" {
		table = "unknown"
	}
	DatabaseQueryLatency.WithLabelValues(operation, table).Observe(elapsed.Seconds())
}
