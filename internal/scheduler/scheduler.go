package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/polkiloo/rewardengine/internal/domain/model"
	"github.com/polkiloo/rewardengine/internal/metrics"
)

const jobLedgerStats = "ledger.stats"

// StatsSource reads a ledger snapshot as of now.
type StatsSource interface {
	LedgerStats(ctx context.Context) (*model.LedgerStats, error)
}

// LedgerStatsJob publishes ledger gauges.
type LedgerStatsJob struct {
	source  StatsSource
	timeout time.Duration
	logger  *slog.Logger
}

// NewLedgerStatsJob constructs LedgerStatsJob.
func NewLedgerStatsJob(source StatsSource, timeout time.Duration, logger *slog.Logger) *LedgerStatsJob {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &LedgerStatsJob{source: source, timeout: timeout, logger: logger}
}

// Run reads stats and updates gauges; failures leave previous values in place.
func (j *LedgerStatsJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	stats, err := j.source.LedgerStats(ctx)
	if err != nil {
		j.logger.Error("ledger stats failed", slog.String("error", err.Error()))
		return
	}
	metrics.SetLedgerStats(*stats)
	j.logger.Debug("ledger stats published",
		slog.Int64("entries", stats.Entries),
		slog.Int64("outstanding", stats.OutstandingPoints),
		slog.Int64("expired", stats.ExpiredPoints),
	)
}

// New builds a UTC cron with second precision and registers the stats job.
func New(spec string, job *LedgerStatsJob, logger *slog.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC))
	if err := addFunc(c, spec, jobLedgerStats, logger, job.Run); err != nil {
		return nil, err
	}
	return c, nil
}

func addFunc(c *cron.Cron, spec, name string, logger *slog.Logger, fn func()) error {
	_, err := c.AddFunc(spec, func() {
		defer recoverJobPanic(name, logger)
		start := time.Now()
		fn()
		logger.Debug("scheduler job finished", slog.String("job", name), slog.Duration("cost", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("register job %s with spec %q: %w", name, spec, err)
	}
	return nil
}

func recoverJobPanic(name string, logger *slog.Logger) {
	if recovered := recover(); recovered != nil {
		logger.Error("scheduler job panic recovered",
			slog.String("job", name),
			slog.Any("panic", recovered),
		)
	}
}
