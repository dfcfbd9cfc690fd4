package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SlotDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buscai_slot_decisions_total",
			Help: "Paid-slot candidate decisions by outcome",
		},
		[]string{"position", "outcome"},
	)

	AllocationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "buscai_allocation_duration_seconds",
			Help:    "Time spent allocating paid slots for one search",
			Buckets: prometheus.DefBuckets,
		},
	)

	WalletReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buscai_wallet_reservations_total",
			Help: "Wallet charge reservations by status",
		},
		[]string{"status"},
	)

	WalletRechargesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buscai_wallet_recharges_total",
			Help: "Recharge lifecycle transitions",
		},
		[]string{"transition"},
	)

	ImpressionSettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buscai_impression_settlements_total",
			Help: "Delayed impression settlement outcomes",
		},
		[]string{"outcome"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buscai_notifications_total",
			Help: "Advertiser notifications by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
)
