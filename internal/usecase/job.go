package usecase

import (
	"context"

	"github.com/polkiloo/rewardengine/internal/domain/model"
	"github.com/polkiloo/rewardengine/internal/domain/repository"
)

// DefaultMaxAttempts bounds retries of a single accrual job.
const DefaultMaxAttempts = 10

// AccrualJobUseCase manages the out of band retry queue.
type AccrualJobUseCase struct {
	jobs        repository.AccrualJobRepository
	maxAttempts int
}

// NewAccrualJobUseCase constructs AccrualJobUseCase.
func NewAccrualJobUseCase(jobs repository.AccrualJobRepository, maxAttempts int) *AccrualJobUseCase {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &AccrualJobUseCase{jobs: jobs, maxAttempts: maxAttempts}
}

// Enqueue schedules accrual of the order for retry. Returns whether a new job was created.
func (u *AccrualJobUseCase) Enqueue(ctx context.Context, userID, orderID int64) (*model.AccrualJob, bool, error) {
	return u.jobs.Enqueue(ctx, userID, orderID)
}

// SelectBatchForProcessing claims pending jobs that still have attempts left.
func (u *AccrualJobUseCase) SelectBatchForProcessing(ctx context.Context, limit int) ([]model.AccrualJob, error) {
	return u.jobs.SelectBatchForProcessing(ctx, limit, u.maxAttempts)
}

// Complete marks job as done.
func (u *AccrualJobUseCase) Complete(ctx context.Context, jobID int64) error {
	return u.jobs.Complete(ctx, jobID)
}

// Fail records a failed attempt; the job is given up after maxAttempts.
func (u *AccrualJobUseCase) Fail(ctx context.Context, jobID int64, reason string) error {
	return u.jobs.Fail(ctx, jobID, reason, u.maxAttempts)
}

// Release puts the job back to pending, keeping its attempt counter.
func (u *AccrualJobUseCase) Release(ctx context.Context, jobID int64, reason string) error {
	return u.jobs.Release(ctx, jobID, reason)
}
