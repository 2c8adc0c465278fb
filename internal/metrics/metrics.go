package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/polkiloo/rewardengine/internal/domain/model"
)

// Accrual outcomes used as label values.
const (
	OutcomeCredited  = "credited"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
	OutcomeDeferred  = "deferred"
	OutcomeFailed    = "failed"
)

// Retry job results used as label values.
const (
	JobCompleted = "completed"
	JobFailed    = "failed"
	JobSkipped   = "skipped"
)

var (
	Accruals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rewardengine_accruals_total",
		Help: "Order accruals by outcome",
	}, []string{"outcome"})

	AccruedPoints = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rewardengine_accrued_points_total",
		Help: "Points written to the ledger",
	})

	FallbackAccruals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rewardengine_fallback_accruals_total",
		Help: "Accruals credited through the order amount rule",
	})

	AccrualDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rewardengine_accrual_duration_seconds",
		Help:    "Time to accrue a single order",
		Buckets: prometheus.DefBuckets,
	})

	RetryJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rewardengine_retry_jobs_total",
		Help: "Processed accrual retry jobs by result",
	}, []string{"result"})

	StorefrontResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rewardengine_storefront_responses_total",
		Help: "Storefront order snapshot responses by status code",
	}, []string{"code"})

	LedgerEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rewardengine_ledger_entries",
		Help: "Number of ledger entries",
	})

	LedgerOutstandingPoints = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rewardengine_ledger_outstanding_points",
		Help: "Unused points that have not expired",
	})

	LedgerExpiredPoints = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rewardengine_ledger_expired_points",
		Help: "Unused points past their expiry date",
	})
)

// ObserveAccrual records one accrual attempt. Points are counted only for new entries.
func ObserveAccrual(outcome string, points int64, fallback bool, duration time.Duration) {
	if outcome == "" {
		outcome = OutcomeFailed
	}
	Accruals.WithLabelValues(outcome).Inc()
	AccrualDuration.Observe(duration.Seconds())
	if outcome != OutcomeCredited {
		return
	}
	if points > 0 {
		AccruedPoints.Add(float64(points))
	}
	if fallback {
		FallbackAccruals.Inc()
	}
}

func ObserveRetryJob(result string) {
	RetryJobs.WithLabelValues(result).Inc()
}

func ObserveStorefrontResponse(code int) {
	StorefrontResponses.WithLabelValues(strconv.Itoa(code)).Inc()
}

// SetLedgerStats publishes a ledger snapshot.
func SetLedgerStats(stats model.LedgerStats) {
	LedgerEntries.Set(float64(stats.Entries))
	LedgerOutstandingPoints.Set(float64(stats.OutstandingPoints))
	LedgerExpiredPoints.Set(float64(stats.ExpiredPoints))
}
