package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ResetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_resets_total",
		Help: "Number of completed monthly reset runs.",
	})
	ResetCustomersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_reset_customers_total",
		Help: "Number of customers transitioned paid to unpaid by monthly resets.",
	})
	AutoExpiredCustomersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billing_auto_expired_customers_total",
		Help: "Number of customers transitioned to unpaid by auto-expiry.",
	})
	RestoreCollectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_restore_collections_total",
		Help: "Snapshot restore outcomes per entity collection.",
	}, []string{"collection", "outcome"})
)
