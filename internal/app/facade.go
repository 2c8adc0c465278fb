package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/polkiloo/rewardengine/internal/adapter/storefront"
	domainErrors "github.com/polkiloo/rewardengine/internal/domain/errors"
	"github.com/polkiloo/rewardengine/internal/domain/model"
	"github.com/polkiloo/rewardengine/internal/metrics"
	"github.com/polkiloo/rewardengine/internal/pkg/auth"
	"github.com/polkiloo/rewardengine/internal/usecase"
)

// RewardsFacade is the single entry point of the HTTP layer, the retry
// worker and the stats job into the accrual engine.
type RewardsFacade struct {
	accruals   *usecase.AccrualUseCase
	balance    *usecase.BalanceUseCase
	jobs       *usecase.AccrualJobUseCase
	storefront storefront.Client
	tokens     auth.Strategy
	logger     *slog.Logger
}

func NewRewardsFacade(accruals *usecase.AccrualUseCase, balance *usecase.BalanceUseCase, jobs *usecase.AccrualJobUseCase, client storefront.Client, tokens auth.Strategy, logger *slog.Logger) *RewardsFacade {
	return &RewardsFacade{
		accruals:   accruals,
		balance:    balance,
		jobs:       jobs,
		storefront: client,
		tokens:     tokens,
		logger:     logger,
	}
}

func (f *RewardsFacade) ParseToken(token string) (int64, error) {
	return f.tokens.ParseToken(token)
}

// SubmitOrder credits the order. Failures other than invalid input queue the
// order for the retry worker; the returned error then matches ErrAccrualDeferred.
func (f *RewardsFacade) SubmitOrder(ctx context.Context, order model.OrderSnapshot) (*model.LedgerEntry, bool, error) {
	started := time.Now()
	result, err := f.accruals.Accrue(ctx, order)
	if err == nil {
		outcome := metrics.OutcomeCredited
		if !result.Created {
			outcome = metrics.OutcomeDuplicate
		}
		metrics.ObserveAccrual(outcome, result.Entry.Points, result.Fallback, time.Since(started))
		return result.Entry, result.Created, nil
	}

	if errors.Is(err, domainErrors.ErrInvalidLineInput) {
		metrics.ObserveAccrual(metrics.OutcomeRejected, 0, false, time.Since(started))
		return nil, false, err
	}

	if _, _, qErr := f.jobs.Enqueue(ctx, order.UserID, order.OrderID); qErr != nil {
		metrics.ObserveAccrual(metrics.OutcomeFailed, 0, false, time.Since(started))
		f.logger.Error("queue accrual retry failed",
			slog.Int64("user_id", order.UserID),
			slog.Int64("order_id", order.OrderID),
			slog.String("error", qErr.Error()),
		)
		return nil, false, errors.Join(err, qErr)
	}

	metrics.ObserveAccrual(metrics.OutcomeDeferred, 0, false, time.Since(started))
	f.logger.Warn("accrual deferred",
		slog.Int64("user_id", order.UserID),
		slog.Int64("order_id", order.OrderID),
		slog.String("error", err.Error()),
	)
	return nil, false, fmt.Errorf("%w: %w", domainErrors.ErrAccrualDeferred, err)
}

// AccrueOrder credits the order without queueing on failure.
func (f *RewardsFacade) AccrueOrder(ctx context.Context, order model.OrderSnapshot) (*model.LedgerEntry, error) {
	started := time.Now()
	result, err := f.accruals.Accrue(ctx, order)
	if err != nil {
		metrics.ObserveAccrual(metrics.OutcomeFailed, 0, false, time.Since(started))
		return nil, err
	}
	outcome := metrics.OutcomeCredited
	if !result.Created {
		outcome = metrics.OutcomeDuplicate
	}
	metrics.ObserveAccrual(outcome, result.Entry.Points, result.Fallback, time.Since(started))
	return result.Entry, nil
}

func (f *RewardsFacade) AvailablePoints(ctx context.Context, userID int64, asOf time.Time) (int64, error) {
	return f.balance.AvailablePoints(ctx, userID, asOf)
}

func (f *RewardsFacade) Ledger(ctx context.Context, userID int64) ([]model.LedgerEntry, error) {
	return f.balance.History(ctx, userID)
}

func (f *RewardsFacade) LedgerStats(ctx context.Context) (*model.LedgerStats, error) {
	return f.balance.Stats(ctx, time.Time{})
}

func (f *RewardsFacade) FetchOrder(ctx context.Context, orderID int64) (*model.OrderSnapshot, error) {
	return f.storefront.FetchOrder(ctx, orderID)
}

func (f *RewardsFacade) JobsForProcessing(ctx context.Context, limit int) ([]model.AccrualJob, error) {
	return f.jobs.SelectBatchForProcessing(ctx, limit)
}

func (f *RewardsFacade) CompleteJob(ctx context.Context, jobID int64) error {
	return f.jobs.Complete(ctx, jobID)
}

func (f *RewardsFacade) FailJob(ctx context.Context, jobID int64, reason string) error {
	return f.jobs.Fail(ctx, jobID, reason)
}

func (f *RewardsFacade) ReleaseJob(ctx context.Context, jobID int64, reason string) error {
	return f.jobs.Release(ctx, jobID, reason)
}
