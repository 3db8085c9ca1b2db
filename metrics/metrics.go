package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DecisionsTotal counts settled approval decisions by outcome
	// (confirmed, cancelled, partial_failure).
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "approvals",
			Name:      "decisions_total",
			Help:      "The total number of settled booking decisions",
		},
		[]string{"outcome"},
	)

	// PaymentOperationsTotal counts provider calls by operation kind and result.
	PaymentOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "approvals",
			Name:      "payment_operations_total",
			Help:      "The total number of payment provider operations",
		},
		[]string{"operation", "result"},
	)

	// DecisionDuration The total time spent settling decisions (summary with quantiles 0.5, 0.9, and 0.99)
	DecisionDuration = promauto.NewSummary(
		prometheus.SummaryOpts{
			Namespace:  "approvals",
			Name:       "decision_duration_seconds",
			Help:       "The total time spent settling booking decisions",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
	)

	// MessagesProcessed The total number of processed messages (counter)
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "messages",
			Name:      "processed_total",
			Help:      "The total number of processed messages",
		},
		[]string{"topic", "handler"},
	)

	// MessagesProcessingFailed total number of message processing failures (counter)
	MessagesProcessingFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "messages",
			Name:      "processing_failed_total",
			Help:      "The total number of message processing failures",
		},
		[]string{"topic", "handler"},
	)

	// MessagesProcessingDuration The total time spent processing messages (summary with quantiles 0.5, 0.9, and 0.99)
	MessagesProcessingDuration = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace:  "messages",
			Name:       "processing_duration_seconds",
			Help:       "The total time spent processing messages",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"topic", "handler"},
	)
)
