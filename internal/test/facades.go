package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/polkiloo/rewardengine/internal/domain/model"
)

// AccrualFacadeStub provides controllable behaviour for accrual endpoints.
type AccrualFacadeStub struct {
	SubmitFn func(context.Context, model.OrderSnapshot) (*model.LedgerEntry, bool, error)
}

// SubmitOrder delegates to provided function or credits ten points.
func (s AccrualFacadeStub) SubmitOrder(ctx context.Context, order model.OrderSnapshot) (*model.LedgerEntry, bool, error) {
	if s.SubmitFn != nil {
		return s.SubmitFn(ctx, order)
	}
	earned := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &model.LedgerEntry{
		ID:        1,
		UserID:    order.UserID,
		OrderID:   order.OrderID,
		Points:    10,
		EarnedAt:  earned,
		ExpiresAt: earned.Add(90 * 24 * time.Hour),
	}, true, nil
}

// BalanceFacadeStub simulates balance queries.
type BalanceFacadeStub struct {
	AvailableFn func(context.Context, int64, time.Time) (int64, error)
	LedgerFn    func(context.Context, int64) ([]model.LedgerEntry, error)
}

// AvailablePoints returns configured balance or 42.
func (s BalanceFacadeStub) AvailablePoints(ctx context.Context, userID int64, asOf time.Time) (int64, error) {
	if s.AvailableFn != nil {
		return s.AvailableFn(ctx, userID, asOf)
	}
	return 42, nil
}

// Ledger returns preconfigured history.
func (s BalanceFacadeStub) Ledger(ctx context.Context, userID int64) ([]model.LedgerEntry, error) {
	if s.LedgerFn != nil {
		return s.LedgerFn(ctx, userID)
	}
	return []model.LedgerEntry{{ID: 1, UserID: userID, OrderID: 7, Points: 5, EarnedAt: time.Unix(0, 0).UTC(), ExpiresAt: time.Unix(3600, 0).UTC()}}, nil
}

// RewardsFacadeStub aggregates facade dependencies for HTTP layer tests.
type RewardsFacadeStub struct {
	TokenParserStub
	AccrualFacadeStub
	BalanceFacadeStub
}

// HealthCheckerStub reports configured health.
type HealthCheckerStub struct {
	Err error
}

// HealthCheck returns the configured error.
func (s HealthCheckerStub) HealthCheck(context.Context) error {
	return s.Err
}

// RetryFacadeStub mimics worker interactions with the rewards facade.
type RetryFacadeStub struct {
	Batches    [][]model.AccrualJob
	JobsFn     func(context.Context, int) ([]model.AccrualJob, error)
	FetchFn    func(context.Context, int64) (*model.OrderSnapshot, error)
	AccrueFn   func(context.Context, model.OrderSnapshot) (*model.LedgerEntry, error)
	CompleteFn func(context.Context, int64) error
	FailFn     func(context.Context, int64, string) error
	ReleaseFn  func(context.Context, int64, string) error

	Completed []int64
	Failed    map[int64]string
	Released  []int64
	mu        sync.Mutex
	calls     int32
}

// Lock exposes internal mutex for external synchronization.
func (s *RetryFacadeStub) Lock() { s.mu.Lock() }

// Unlock releases previously acquired lock.
func (s *RetryFacadeStub) Unlock() { s.mu.Unlock() }

// JobsForProcessing returns batches from configured queue.
func (s *RetryFacadeStub) JobsForProcessing(ctx context.Context, limit int) ([]model.AccrualJob, error) {
	if s.JobsFn != nil {
		return s.JobsFn(ctx, limit)
	}
	call := atomic.AddInt32(&s.calls, 1)
	if int(call) <= len(s.Batches) {
		return s.Batches[call-1], nil
	}
	time.Sleep(10 * time.Millisecond)
	return nil, nil
}

// FetchOrder returns configured snapshot or a single line order for user 1.
func (s *RetryFacadeStub) FetchOrder(ctx context.Context, orderID int64) (*model.OrderSnapshot, error) {
	if s.FetchFn != nil {
		return s.FetchFn(ctx, orderID)
	}
	return &model.OrderSnapshot{UserID: 1, OrderID: orderID, Lines: []model.OrderLine{{ProductID: 1, Quantity: 1}}}, nil
}

// AccrueOrder returns configured entry.
func (s *RetryFacadeStub) AccrueOrder(ctx context.Context, order model.OrderSnapshot) (*model.LedgerEntry, error) {
	if s.AccrueFn != nil {
		return s.AccrueFn(ctx, order)
	}
	return &model.LedgerEntry{UserID: order.UserID, OrderID: order.OrderID}, nil
}

// CompleteJob records completion.
func (s *RetryFacadeStub) CompleteJob(ctx context.Context, jobID int64) error {
	if s.CompleteFn != nil {
		return s.CompleteFn(ctx, jobID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Completed = append(s.Completed, jobID)
	return nil
}

// FailJob records failure reasons.
func (s *RetryFacadeStub) FailJob(ctx context.Context, jobID int64, reason string) error {
	if s.FailFn != nil {
		return s.FailFn(ctx, jobID, reason)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Failed == nil {
		s.Failed = make(map[int64]string)
	}
	s.Failed[jobID] = reason
	return nil
}

// ReleaseJob records jobs returned to the queue.
func (s *RetryFacadeStub) ReleaseJob(ctx context.Context, jobID int64, reason string) error {
	if s.ReleaseFn != nil {
		return s.ReleaseFn(ctx, jobID, reason)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Released = append(s.Released, jobID)
	return nil
}

// StorefrontClientStub fetches order snapshots for tests.
type StorefrontClientStub struct {
	FetchFn  func(context.Context, int64) (*model.OrderSnapshot, error)
	Snapshot *model.OrderSnapshot
	Err      error
}

// FetchOrder returns configured response or an empty order.
func (s StorefrontClientStub) FetchOrder(ctx context.Context, orderID int64) (*model.OrderSnapshot, error) {
	if s.FetchFn != nil {
		return s.FetchFn(ctx, orderID)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Snapshot != nil {
		return s.Snapshot, nil
	}
	return &model.OrderSnapshot{OrderID: orderID}, nil
}

// StatsSourceStub returns configured ledger stats.
type StatsSourceStub struct {
	Stats *model.LedgerStats
	Err   error
	Calls atomic.Int32
}

// LedgerStats counts calls and returns configured values.
func (s *StatsSourceStub) LedgerStats(ctx context.Context) (*model.LedgerStats, error) {
	s.Calls.Add(1)
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Stats == nil {
		return &model.LedgerStats{}, nil
	}
	return s.Stats, nil
}
