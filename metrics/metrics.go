// Package metrics provides Prometheus metrics for repair-desk.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "repair_desk"

var (
	// GateDecisions counts authorization gate outcomes per route class.
	GateDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_decisions_total",
			Help:      "Authorization gate decisions by route class and outcome",
		},
		[]string{"route_class", "outcome"},
	)

	// AuthFlows counts account flow results.
	AuthFlows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_flow_total",
			Help:      "Account flow executions by flow and result",
		},
		[]string{"flow", "result"},
	)

	// AuthFlowDuration measures account flow latency including provider calls.
	AuthFlowDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "auth_flow_duration_seconds",
			Help:      "Duration of account flows in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"flow"},
	)

	// Compensations counts sign-up rollback outcomes.
	Compensations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compensations_total",
			Help:      "Sign-up compensations by result",
		},
		[]string{"result"},
	)

	// TicketsCreated counts submitted maintenance tickets by priority.
	TicketsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_created_total",
			Help:      "Maintenance tickets submitted by priority",
		},
		[]string{"priority"},
	)
)

// RecordGate records one gate decision.
func RecordGate(routeClass, outcome string) {
	GateDecisions.WithLabelValues(routeClass, outcome).Inc()
}

// RecordFlow records a finished account flow.
func RecordFlow(flow, result string, seconds float64) {
	AuthFlows.WithLabelValues(flow, result).Inc()
	AuthFlowDuration.WithLabelValues(flow).Observe(seconds)
}

// RecordCompensation adds n compensations with the given result.
func RecordCompensation(result string, n int) {
	if n > 0 {
		Compensations.WithLabelValues(result).Add(float64(n))
	}
}

// RecordTicket records a submitted ticket.
func RecordTicket(priority string) {
	TicketsCreated.WithLabelValues(priority).Inc()
}
