package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainErrors "github.com/polkiloo/rewardengine/internal/domain/errors"
	"github.com/polkiloo/rewardengine/internal/domain/model"
	"github.com/polkiloo/rewardengine/internal/domain/repository"
)

// DefaultExpiryHorizon is how long earned points stay spendable.
const DefaultExpiryHorizon = 90 * 24 * time.Hour

// LedgerOptions tunes LedgerWriter.
type LedgerOptions struct {
	ExpiryHorizon time.Duration
	Now           func() time.Time
}

// LedgerWriter persists exactly one ledger entry per (user, order).
type LedgerWriter struct {
	ledger  repository.LedgerRepository
	horizon time.Duration
	now     func() time.Time
}

// NewLedgerWriter constructs LedgerWriter.
func NewLedgerWriter(ledger repository.LedgerRepository, opts LedgerOptions) *LedgerWriter {
	horizon := opts.ExpiryHorizon
	if horizon <= 0 {
		horizon = DefaultExpiryHorizon
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &LedgerWriter{ledger: ledger, horizon: horizon, now: now}
}

// Record stores the accrual for the order. When an entry already exists it is
// returned unchanged and created is false.
func (w *LedgerWriter) Record(ctx context.Context, userID, orderID, points int64) (*model.LedgerEntry, bool, error) {
	if points < 0 {
		return nil, false, fmt.Errorf("%w: negative points %d", domainErrors.ErrInvalidLineInput, points)
	}

	existing, err := w.ledger.FindEntry(ctx, userID, orderID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domainErrors.ErrNotFound) {
		return nil, false, fmt.Errorf("find ledger entry: %w", err)
	}

	earnedAt := w.now().UTC()
	stored, err := w.ledger.InsertEntry(ctx, model.LedgerEntry{
		UserID:    userID,
		OrderID:   orderID,
		Points:    points,
		EarnedAt:  earnedAt,
		ExpiresAt: earnedAt.Add(w.horizon),
	})
	if err != nil {
		if !errors.Is(err, domainErrors.ErrLedgerWriteConflict) {
			return nil, false, fmt.Errorf("insert ledger entry: %w", err)
		}
		// Lost the race against a concurrent accrual of the same order.
		existing, err := w.ledger.FindEntry(ctx, userID, orderID)
		if err != nil {
			return nil, false, fmt.Errorf("find ledger entry after conflict: %w", err)
		}
		return existing, false, nil
	}
	return stored, true, nil
}
