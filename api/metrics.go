package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// METRICS - Operation counters exposed at /metrics
// =============================================================================

var leaveRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "leave_requests_total",
	Help: "Leave requests processed, by outcome.",
}, []string{"outcome"})

var leaveCancellationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "leave_cancellations_total",
	Help: "Leave cancellations processed, by outcome.",
}, []string{"outcome"})

var persistenceFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "leave_persistence_failures_total",
	Help: "Mutations that committed in memory but failed to persist.",
})
