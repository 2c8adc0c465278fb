package test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/rewardengine/internal/domain/errors"
	"github.com/polkiloo/rewardengine/internal/domain/model"
)

// RuleRepositoryStub keeps reward rules in memory.
type RuleRepositoryStub struct {
	ProductRules     []model.ProductRewardRule
	OrderAmountRules []model.OrderAmountRule
	ListProductFn    func(context.Context, model.RuleScope) ([]model.ProductRewardRule, error)
	ListOrderFn      func(context.Context, decimal.Decimal) ([]model.OrderAmountRule, error)
	Err              error

	mu    sync.Mutex
	Calls []model.RuleScope
}

// ListProductRules returns stored rules bound to scope.
func (s *RuleRepositoryStub) ListProductRules(ctx context.Context, scope model.RuleScope) ([]model.ProductRewardRule, error) {
	s.mu.Lock()
	s.Calls = append(s.Calls, scope)
	s.mu.Unlock()
	if s.ListProductFn != nil {
		return s.ListProductFn(ctx, scope)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	var result []model.ProductRewardRule
	for _, rule := range s.ProductRules {
		if rule.Scope == scope {
			result = append(result, rule)
		}
	}
	return result, nil
}

// ListOrderAmountRules returns stored bands containing subtotal.
func (s *RuleRepositoryStub) ListOrderAmountRules(ctx context.Context, subtotal decimal.Decimal) ([]model.OrderAmountRule, error) {
	if s.ListOrderFn != nil {
		return s.ListOrderFn(ctx, subtotal)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	var result []model.OrderAmountRule
	for _, rule := range s.OrderAmountRules {
		if rule.Contains(subtotal) {
			result = append(result, rule)
		}
	}
	return result, nil
}

type ledgerKey struct {
	userID  int64
	orderID int64
}

// LedgerRepositoryStub is an in-memory ledger with atomic insert-if-absent.
type LedgerRepositoryStub struct {
	FindErr   error
	InsertErr error
	SumErr    error
	// BeforeInsert runs before the uniqueness check, e.g. to simulate a concurrent writer.
	BeforeInsert func(model.LedgerEntry)

	mu      sync.Mutex
	entries map[ledgerKey]model.LedgerEntry
	next    int64
	Inserts int
}

// NewLedgerRepositoryStub constructs an empty ledger.
func NewLedgerRepositoryStub() *LedgerRepositoryStub {
	return &LedgerRepositoryStub{entries: make(map[ledgerKey]model.LedgerEntry)}
}

// FindEntry returns the entry for (user, order) or ErrNotFound.
func (s *LedgerRepositoryStub) FindEntry(ctx context.Context, userID, orderID int64) (*model.LedgerEntry, error) {
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[ledgerKey{userID, orderID}]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	return &entry, nil
}

// InsertEntry stores entry unless (user, order) is already present.
func (s *LedgerRepositoryStub) InsertEntry(ctx context.Context, entry model.LedgerEntry) (*model.LedgerEntry, error) {
	if s.InsertErr != nil {
		return nil, s.InsertErr
	}
	if s.BeforeInsert != nil {
		s.BeforeInsert(entry)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		s.entries = make(map[ledgerKey]model.LedgerEntry)
	}
	key := ledgerKey{entry.UserID, entry.OrderID}
	if _, exists := s.entries[key]; exists {
		return nil, domainErrors.ErrLedgerWriteConflict
	}
	s.next++
	entry.ID = s.next
	s.entries[key] = entry
	s.Inserts++
	return &entry, nil
}

// Put stores entry as is, overwriting any existing one.
func (s *LedgerRepositoryStub) Put(entry model.LedgerEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		s.entries = make(map[ledgerKey]model.LedgerEntry)
	}
	if entry.ID == 0 {
		s.next++
		entry.ID = s.next
	}
	s.entries[ledgerKey{entry.UserID, entry.OrderID}] = entry
}

// Len returns number of stored entries.
func (s *LedgerRepositoryStub) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// SumAvailable sums unused entries that expire after asOf.
func (s *LedgerRepositoryStub) SumAvailable(ctx context.Context, userID int64, asOf time.Time) (int64, error) {
	if s.SumErr != nil {
		return 0, s.SumErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum int64
	for key, entry := range s.entries {
		if key.userID == userID && entry.Available(asOf) {
			sum += entry.Points
		}
	}
	return sum, nil
}

// ListByUser returns user entries ordered by earn time, newest first.
func (s *LedgerRepositoryStub) ListByUser(ctx context.Context, userID int64) ([]model.LedgerEntry, error) {
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.LedgerEntry
	for key, entry := range s.entries {
		if key.userID == userID {
			result = append(result, entry)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].EarnedAt.Equal(result[j].EarnedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].EarnedAt.After(result[j].EarnedAt)
	})
	return result, nil
}

// Stats summarizes stored entries at asOf.
func (s *LedgerRepositoryStub) Stats(ctx context.Context, asOf time.Time) (*model.LedgerStats, error) {
	if s.SumErr != nil {
		return nil, s.SumErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &model.LedgerStats{}
	for _, entry := range s.entries {
		stats.Entries++
		switch {
		case entry.Available(asOf):
			stats.OutstandingPoints += entry.Points
		case !entry.IsUsed:
			stats.ExpiredPoints += entry.Points
		}
	}
	return stats, nil
}

// AccrualJobRepositoryStub records queue operations.
type AccrualJobRepositoryStub struct {
	EnqueueFn  func(context.Context, int64, int64) (*model.AccrualJob, bool, error)
	SelectFn   func(context.Context, int, int) ([]model.AccrualJob, error)
	CompleteFn func(context.Context, int64) error
	FailFn     func(context.Context, int64, string, int) error
	ReleaseFn  func(context.Context, int64, string) error

	mu        sync.Mutex
	Jobs      []model.AccrualJob
	Completed []int64
	Failed    []JobFailure
	Released  []int64
}

// JobFailure stores arguments of a Fail call.
type JobFailure struct {
	JobID       int64
	Reason      string
	MaxAttempts int
}

// Enqueue appends a pending job unless one exists for (user, order).
func (s *AccrualJobRepositoryStub) Enqueue(ctx context.Context, userID, orderID int64) (*model.AccrualJob, bool, error) {
	if s.EnqueueFn != nil {
		return s.EnqueueFn(ctx, userID, orderID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, job := range s.Jobs {
		if job.UserID == userID && job.OrderID == orderID {
			existing := job
			return &existing, false, nil
		}
	}
	job := model.AccrualJob{ID: int64(len(s.Jobs) + 1), UserID: userID, OrderID: orderID, Status: model.AccrualJobPending}
	s.Jobs = append(s.Jobs, job)
	return &job, true, nil
}

// SelectBatchForProcessing returns configured jobs.
func (s *AccrualJobRepositoryStub) SelectBatchForProcessing(ctx context.Context, limit, maxAttempts int) ([]model.AccrualJob, error) {
	if s.SelectFn != nil {
		return s.SelectFn(ctx, limit, maxAttempts)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []model.AccrualJob
	for _, job := range s.Jobs {
		if len(result) == limit {
			break
		}
		if job.Status == model.AccrualJobPending && job.Attempts < maxAttempts {
			result = append(result, job)
		}
	}
	return result, nil
}

// Complete records completion.
func (s *AccrualJobRepositoryStub) Complete(ctx context.Context, jobID int64) error {
	if s.CompleteFn != nil {
		return s.CompleteFn(ctx, jobID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Completed = append(s.Completed, jobID)
	return nil
}

// Fail records failure.
func (s *AccrualJobRepositoryStub) Fail(ctx context.Context, jobID int64, reason string, maxAttempts int) error {
	if s.FailFn != nil {
		return s.FailFn(ctx, jobID, reason, maxAttempts)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Failed = append(s.Failed, JobFailure{JobID: jobID, Reason: reason, MaxAttempts: maxAttempts})
	return nil
}

// Release records a job returned to the queue.
func (s *AccrualJobRepositoryStub) Release(ctx context.Context, jobID int64, reason string) error {
	if s.ReleaseFn != nil {
		return s.ReleaseFn(ctx, jobID, reason)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Released = append(s.Released, jobID)
	return nil
}
