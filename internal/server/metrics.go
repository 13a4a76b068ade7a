package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "donna_turns_total",
		Help: "Completed turn submissions by outcome.",
	}, []string{"outcome"})

	approvalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "donna_approvals_total",
		Help: "Human approval decisions by verdict.",
	}, []string{"decision"})

	turnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "donna_turn_duration_seconds",
		Help:    "Wall-clock duration of one turn submission.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})
)

func recordTurn(outcome string, seconds float64) {
	turnsTotal.WithLabelValues(outcome).Inc()
	turnDuration.Observe(seconds)
}

func recordApproval(approved bool) {
	if approved {
		approvalsTotal.WithLabelValues("approved").Inc()
	} else {
		approvalsTotal.WithLabelValues("rejected").Inc()
	}
}
