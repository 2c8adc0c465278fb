package repository

import (
	"context"

	"github.com/polkiloo/rewardengine/internal/domain/model"
)

// AccrualJobRepository queues accruals that have to be retried.
type AccrualJobRepository interface {
	// Enqueue registers a job once per (user, order); created is false for duplicates.
	Enqueue(ctx context.Context, userID, orderID int64) (*model.AccrualJob, bool, error)
	SelectBatchForProcessing(ctx context.Context, limit, maxAttempts int) ([]model.AccrualJob, error)
	Complete(ctx context.Context, jobID int64) error
	Fail(ctx context.Context, jobID int64, reason string, maxAttempts int) error
	// Release returns a claimed job to the queue without consuming an attempt.
	Release(ctx context.Context, jobID int64, reason string) error
}
