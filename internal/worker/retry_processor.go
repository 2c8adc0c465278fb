package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/polkiloo/rewardengine/internal/adapter/storefront"
	"github.com/polkiloo/rewardengine/internal/domain/model"
	"github.com/polkiloo/rewardengine/internal/metrics"
)

// RetryFacade exposes the subset of application functionality required by the worker.
type RetryFacade interface {
	JobsForProcessing(ctx context.Context, limit int) ([]model.AccrualJob, error)
	FetchOrder(ctx context.Context, orderID int64) (*model.OrderSnapshot, error)
	AccrueOrder(ctx context.Context, order model.OrderSnapshot) (*model.LedgerEntry, error)
	CompleteJob(ctx context.Context, jobID int64) error
	FailJob(ctx context.Context, jobID int64, reason string) error
	ReleaseJob(ctx context.Context, jobID int64, reason string) error
}

// AccrualRetryProcessor replays deferred accruals concurrently.
type AccrualRetryProcessor struct {
	facade       RetryFacade
	pollInterval time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	jobs   chan model.AccrualJob
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewAccrualRetryProcessor constructs retry worker pool.
func NewAccrualRetryProcessor(facade RetryFacade, pollInterval time.Duration, batchSize, workers int, logger *slog.Logger) *AccrualRetryProcessor {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &AccrualRetryProcessor{
		facade:       facade,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
		jobs:         make(chan model.AccrualJob, batchSize*workers),
	}
}

// Start launches background processing.
func (p *AccrualRetryProcessor) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(runCtx)
	}

	p.wg.Add(1)
	go p.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (p *AccrualRetryProcessor) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *AccrualRetryProcessor) dispatch(ctx context.Context) {
	defer p.wg.Done()
	defer close(p.jobs)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetchAndDispatch(ctx)
		}
	}
}

func (p *AccrualRetryProcessor) fetchAndDispatch(ctx context.Context) {
	jobs, err := p.facade.JobsForProcessing(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("fetch accrual jobs failed", slog.String("error", err.Error()))
		return
	}
	for _, job := range jobs {
		select {
		case <-ctx.Done():
			return
		case p.jobs <- job:
		}
	}
}

func (p *AccrualRetryProcessor) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.handleJob(ctx, job)
		}
	}
}

func (p *AccrualRetryProcessor) handleJob(ctx context.Context, job model.AccrualJob) {
	order, err := p.facade.FetchOrder(ctx, job.OrderID)
	if err != nil {
		var tm storefront.TooManyRequestsError
		switch {
		case errors.As(err, &tm):
			p.logger.Warn("storefront rate limited", slog.Duration("retry_after", tm.RetryAfter))
			p.release(ctx, job, err)
			sleep(ctx, tm.RetryAfter)
		case errors.Is(err, storefront.ErrOrderNotFound), errors.Is(err, storefront.ErrOrderNotFinalized):
			p.fail(ctx, job, metrics.JobFailed, err)
		default:
			p.logger.Error("storefront fetch failed", slog.Int64("order_id", job.OrderID), slog.String("error", err.Error()))
			p.fail(ctx, job, metrics.JobFailed, err)
		}
		return
	}

	if order.UserID != job.UserID {
		p.fail(ctx, job, metrics.JobFailed, fmt.Errorf("order %d belongs to user %d, not %d", job.OrderID, order.UserID, job.UserID))
		return
	}

	entry, err := p.facade.AccrueOrder(ctx, *order)
	if err != nil {
		p.logger.Error("retried accrual failed", slog.Int64("job_id", job.ID), slog.Int64("order_id", job.OrderID), slog.String("error", err.Error()))
		p.fail(ctx, job, metrics.JobFailed, err)
		return
	}

	if err := p.facade.CompleteJob(ctx, job.ID); err != nil {
		p.logger.Error("complete accrual job failed", slog.Int64("job_id", job.ID), slog.String("error", err.Error()))
		return
	}
	metrics.ObserveRetryJob(metrics.JobCompleted)
	p.logger.Info("deferred accrual credited",
		slog.Int64("job_id", job.ID),
		slog.Int64("order_id", entry.OrderID),
		slog.Int64("points", entry.Points),
	)
}

func (p *AccrualRetryProcessor) fail(ctx context.Context, job model.AccrualJob, result string, cause error) {
	metrics.ObserveRetryJob(result)
	if err := p.facade.FailJob(ctx, job.ID, cause.Error()); err != nil {
		p.logger.Error("fail accrual job failed", slog.Int64("job_id", job.ID), slog.String("error", err.Error()))
	}
}

// release requeues the job with its attempt counter untouched.
func (p *AccrualRetryProcessor) release(ctx context.Context, job model.AccrualJob, cause error) {
	metrics.ObserveRetryJob(metrics.JobSkipped)
	if err := p.facade.ReleaseJob(ctx, job.ID, cause.Error()); err != nil {
		p.logger.Error("release accrual job failed", slog.Int64("job_id", job.ID), slog.String("error", err.Error()))
	}
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
