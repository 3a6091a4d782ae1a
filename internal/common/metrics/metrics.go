// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of job processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	FilterSelectionsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_filter_selections_dropped_total",
			Help: "Filter selections that produced no query parameter",
		},
		[]string{"reason"},
	)

	StaleSearchResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_stale_search_responses_total",
			Help: "Search responses discarded because a newer request was issued",
		},
	)

	CheckoutSessionConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_session_version_conflicts_total",
			Help: "Checkout session writes rejected by version check",
		},
	)

	TradeInsRemoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_trade_ins_removed_total",
			Help: "Applied trade-ins cleared because the cart no longer qualifies",
		},
		[]string{"reason"},
	)

	TradeInValuations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradein_valuations_total",
			Help: "Trade-in valuation calls by grade and outcome",
		},
		[]string{"grade", "outcome"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Notification delivery attempts per channel",
		},
		[]string{"type", "channel", "status"},
	)
)
