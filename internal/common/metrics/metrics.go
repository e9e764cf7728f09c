// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsQueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_queued_total",
			Help: "Total number of notifications accepted into the queue",
		},
		[]string{"channel"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of notifications delivered successfully",
		},
		[]string{"channel"},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Total number of notifications that failed delivery",
		},
		[]string{"channel"},
	)

	// NotificationsTotal is a point-in-time gauge recomputed from a store
	// scan when the metrics endpoint is scraped.
	NotificationsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notifications_total",
			Help: "Current total notifications in the store",
		},
	)

	NotificationsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "notifications_by_status",
			Help: "Current notifications in the store per status",
		},
		[]string{"status"},
	)
)
