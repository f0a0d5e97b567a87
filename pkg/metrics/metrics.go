package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActionOutcomes counts executor results per action kind and outcome
	// (created, updated, skipped, escalated, archived, failed).
	ActionOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pocketledger",
		Subsystem: "alerts",
		Name:      "action_outcomes_total",
		Help:      "Evaluation action outcomes by kind and result.",
	}, []string{"kind", "outcome"})

	// DedupeConflicts counts inserts lost to a concurrent evaluation.
	DedupeConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pocketledger",
		Subsystem: "alerts",
		Name:      "dedupe_conflicts_total",
		Help:      "Inserts resolved as skips by the dedupe uniqueness constraint.",
	})

	// ToastsFired counts balance-risk toast transitions by kind.
	ToastsFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pocketledger",
		Subsystem: "balance",
		Name:      "toasts_fired_total",
		Help:      "Balance state transition toasts by kind.",
	}, []string{"kind"})
)
