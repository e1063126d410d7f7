// Package metrics defines and registers all custom Prometheus metrics for the
// order-tracking auth API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "order_tracking"

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionOperationsTotal counts session operations by outcome.
// Labels:
//   - operation: "signup", "login", "refresh", "logout" or "me"
//   - outcome: "ok" or the failure kind (e.g. "conflict", "invalid_token")
var SessionOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_operations_total",
		Help:      "Total number of session operations, by operation and outcome.",
	},
	[]string{"operation", "outcome"},
)

// GuardRejectionsTotal counts requests denied by the access or role guard.
// Label:
//   - reason: "missing", "expired", "invalid", "revoked" or "forbidden"
var GuardRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guard_rejections_total",
		Help:      "Total number of requests rejected by the access guards.",
	},
	[]string{"reason"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEventsDroppedTotal counts auth events discarded because their worker
// queue was full.
var AuditEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_audit_dropped_total",
		Help:      "Total number of auth audit events dropped on a full queue.",
	},
)

// AuditEventsFailedTotal counts auth events that could not be persisted.
var AuditEventsFailedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_audit_failed_total",
		Help:      "Total number of auth audit events that failed to persist.",
	},
)

// AuditQueueDepth tracks the number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "auth_audit_queue_depth",
		Help:      "Current number of auth events pending in each audit worker channel.",
	},
	[]string{"worker_id"},
)
