// Package metrics defines and registers all custom Prometheus metrics for the
// task API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on import.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "taskdesk"

// Auth metrics

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", "locked" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// TokenChecksTotal counts bearer token verifications.
// Label:
//   - result: "ok", "missing", "expired" or "invalid"
var TokenChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_checks_total",
		Help:      "Total number of bearer token verifications, by result.",
	},
	[]string{"result"},
)

// Store metrics

// StoreOperationDuration measures a single store round trip.
// Labels:
//   - collection: e.g. "users", "tasks"
//   - operation: "find_one", "find_many", "insert", "update", "delete"
var StoreOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "store_operation_duration_seconds",
		Help:      "Duration of document store operations.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"collection", "operation"},
)

// StoreDuplicateConflictsTotal counts uniqueness violations reported by the store.
// Labels:
//   - collection
//   - field: the conflicting field, in-memory naming
var StoreDuplicateConflictsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_duplicate_conflicts_total",
		Help:      "Total number of writes rejected by a unique index.",
	},
	[]string{"collection", "field"},
)

// ObserveStore records the duration of a store operation started at start.
func ObserveStore(collection, operation string, start time.Time) {
	StoreOperationDuration.WithLabelValues(collection, operation).Observe(time.Since(start).Seconds())
}

// Task metrics

// TaskOperationsTotal counts successful task mutations.
// Label:
//   - operation: "created", "updated", "done", "deactivated", "deleted"
var TaskOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_operations_total",
		Help:      "Total number of task mutations, by operation.",
	},
	[]string{"operation"},
)

// Audit metrics

// AuditEventsTotal counts audit events written, by kind.
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of task audit events persisted.",
	},
	[]string{"kind"},
)

// AuditEventsDroppedTotal counts events dropped because a worker queue was full
// or the dispatcher was closed.
var AuditEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Total number of task audit events dropped before persistence.",
	},
)

// AuditQueueDepth tracks the number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
