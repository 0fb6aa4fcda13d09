// Package metrics defines and registers all custom Prometheus metrics for the
// voting API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto and exposed on GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voting"

// ── Identity metrics ──────────────────────────────────────────────────────────

// AuthResolutionsTotal counts identity reconciliations.
// Labels:
//   - kind: "signup", "login", "google" or "linkedin"
//   - outcome: "resolved", "linked", "created" or an error code (e.g. "INVALID_CREDENTIALS")
var AuthResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_resolutions_total",
		Help:      "Total number of identity resolutions, by assertion kind and outcome.",
	},
	[]string{"kind", "outcome"},
)

// SessionsStartedTotal counts sessions issued.
var SessionsStartedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_started_total",
		Help:      "Total number of sessions started.",
	},
)

// PasswordResetsTotal counts password reset steps.
// Label:
//   - stage: "issued", "unknown_email", "consumed", "rejected"
var PasswordResetsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "password_resets_total",
		Help:      "Total number of password reset requests and completions.",
	},
	[]string{"stage"},
)

// ── Vote metrics ──────────────────────────────────────────────────────────────

// VotesCastTotal counts vote attempts.
// Label:
//   - outcome: "ok", "already_voted", "candidate_not_found", "error"
var VotesCastTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "votes_cast_total",
		Help:      "Total number of vote attempts, by outcome.",
	},
	[]string{"outcome"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsQueueDepth tracks pending reset mails in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var NotificationsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notifications_queue_depth",
		Help:      "Current number of notifications pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// NotificationsSentTotal counts delivery attempts.
// Label:
//   - result: "sent" or "failed"
var NotificationsSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Total number of notification delivery attempts, by result.",
	},
	[]string{"result"},
)
