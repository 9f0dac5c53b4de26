// Package metrics defines and registers all custom Prometheus metrics
// for the CryptoGig API. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics register with the default Prometheus registry at package
// init; the router exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cryptogig"

// ── Job ledger metrics ────────────────────────────────────────────────────────

// JobsCreatedTotal counts newly posted jobs.
var JobsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_created_total",
		Help:      "Total number of jobs posted.",
	},
)

// JobTransitionsTotal counts successful job status transitions.
// Labels:
//   - from: source status (e.g. "assigned")
//   - to: target status (e.g. "funded")
var JobTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_transitions_total",
		Help:      "Total number of successful job status transitions.",
	},
	[]string{"from", "to"},
)

// EscrowCallsTotal counts calls to the escrow collaborator.
// Labels:
//   - op: "hold", "release", or "refund"
//   - result: "ok" or "error"
var EscrowCallsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "escrow_calls_total",
		Help:      "Total number of escrow collaborator calls, by operation and result.",
	},
	[]string{"op", "result"},
)

// ── Governance metrics ────────────────────────────────────────────────────────

// VotesCastTotal counts all vote-kick votes, including the initiator's
// pre-counted vote.
var VotesCastTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "votes_cast_total",
		Help:      "Total number of vote-kick votes cast.",
	},
)

// VoteKicksPassedTotal counts vote-kicks that reached quorum and
// removed their target.
var VoteKicksPassedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vote_kicks_passed_total",
		Help:      "Total number of vote-kicks that reached quorum.",
	},
)

// MessagesPostedTotal counts channel messages appended.
var MessagesPostedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_posted_total",
		Help:      "Total number of channel messages posted.",
	},
)

// ── Mail pipeline metrics ─────────────────────────────────────────────────────

// MailQueueDepth tracks the number of emails waiting in each dispatcher
// worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var MailQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mail_queue_depth",
		Help:      "Current number of emails pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// MailDeliveriesTotal counts delivery attempts by result.
// Label:
//   - result: "ok" or "error"
var MailDeliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_deliveries_total",
		Help:      "Total number of email delivery attempts, by result.",
	},
	[]string{"result"},
)
