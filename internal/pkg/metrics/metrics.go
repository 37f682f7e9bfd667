// Package metrics defines the custom Prometheus metrics of the user management
// API. It is the single source of truth for metric names, labels, and help
// strings.
//
// Call Register once at startup, before the HTTP server starts, with the
// registry that the /metrics endpoint gathers from.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "user_management"

// ── User metrics ──────────────────────────────────────────────────────────────

// UsersCreatedTotal counts records successfully inserted.
var UsersCreatedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_created_total",
		Help:      "Total number of users created.",
	},
)

// UsersUpdatedTotal counts successful updates.
// Label:
//   - addressed_by: "id" or "name"
var UsersUpdatedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_updated_total",
		Help:      "Total number of users updated, by addressing mode.",
	},
	[]string{"addressed_by"},
)

// UsersDeletedTotal counts successful deletes.
// Label:
//   - addressed_by: "id" or "name"
var UsersDeletedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_deleted_total",
		Help:      "Total number of users deleted, by addressing mode.",
	},
	[]string{"addressed_by"},
)

// ── Cache metrics ─────────────────────────────────────────────────────────────

// CacheLookupsTotal counts by-id cache lookups.
// Label:
//   - result: "hit" or "miss"
var CacheLookupsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "user_cache_lookups_total",
		Help:      "Total number of user cache lookups, labelled by result (hit/miss).",
	},
	[]string{"result"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEventsTotal counts audit events by outcome.
// Label:
//   - outcome: "stored", "failed", or "dropped" (queue full)
var AuditEventsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of audit events, labelled by outcome.",
	},
	[]string{"outcome"},
)

// AuditQueueDepth tracks the number of events waiting in each dispatcher worker channel.
var AuditQueueDepth = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		UsersCreatedTotal,
		UsersUpdatedTotal,
		UsersDeletedTotal,
		CacheLookupsTotal,
		AuditEventsTotal,
		AuditQueueDepth,
	}
}

// Register adds every custom metric to reg. Registering twice on the same
// registry is not an error.
func Register(reg prometheus.Registerer) error {
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}
