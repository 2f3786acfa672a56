package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AcceptAttempts records slot acceptance attempts by outcome
	// (accepted|slot_filled|team_conflict|schedule_conflict|no_invite|error).
	AcceptAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crewlink_accept_attempts_total",
			Help: "Total number of slot acceptance attempts",
		},
		[]string{"result"},
	)

	// OffersDispatched counts offers created by the invite dispatcher.
	OffersDispatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crewlink_offers_dispatched_total",
			Help: "Total number of offers created for candidates",
		},
	)

	// OffersRetired counts offers flipped inactive, by reason (superseded|revoked).
	OffersRetired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crewlink_offers_retired_total",
			Help: "Total number of offers deactivated",
		},
		[]string{"reason"},
	)

	// OpenSlots tracks currently unfilled slots across all team requests.
	OpenSlots = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crewlink_open_slots",
			Help: "Number of slots without an accepted candidate",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crewlink_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
