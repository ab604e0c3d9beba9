package utils

import "github.com/prometheus/client_golang/prometheus"

var (
	AppointmentsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "appointments_created_total",
			Help: "Number of appointments created",
		},
	)

	SlotFullRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookings_slot_full_total",
			Help: "Bookings rejected because a sub-slot reached capacity",
		},
	)

	NoShowsMarked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "appointments_no_show_total",
			Help: "Appointments marked as no-show",
		},
	)

	SettlementsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "settlements_completed_total",
			Help: "Sessions settled at checkout",
		},
	)

	SettlementAmount = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "settlement_amount",
			Help:    "Amount collected per settlement",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10),
		},
	)

	PostCommitEffectFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "post_commit_effect_failures_total",
			Help: "Best-effort post-commit effects that failed",
		},
		[]string{"effect"},
	)
)

// RegisterMetrics registers all collectors with the default registry.
func RegisterMetrics() {
	prometheus.MustRegister(
		AppointmentsCreated,
		SlotFullRejections,
		NoShowsMarked,
		SettlementsCompleted,
		SettlementAmount,
		PostCommitEffectFailures,
	)
}
