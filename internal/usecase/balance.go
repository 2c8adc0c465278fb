package usecase

import (
	"context"
	"errors"
	"time"

	domainErrors "github.com/polkiloo/rewardengine/internal/domain/errors"
	"github.com/polkiloo/rewardengine/internal/domain/model"
	"github.com/polkiloo/rewardengine/internal/domain/repository"
)

// BalanceUseCase aggregates ledger entries into balances.
type BalanceUseCase struct {
	ledger repository.LedgerRepository
	now    func() time.Time
}

// NewBalanceUseCase constructs BalanceUseCase.
func NewBalanceUseCase(ledger repository.LedgerRepository) *BalanceUseCase {
	return &BalanceUseCase{ledger: ledger, now: time.Now}
}

// AvailablePoints sums unused entries of the user that expire after asOf.
// A zero asOf means now. Users without history have zero points.
func (u *BalanceUseCase) AvailablePoints(ctx context.Context, userID int64, asOf time.Time) (int64, error) {
	if asOf.IsZero() {
		asOf = u.now()
	}
	sum, err := u.ledger.SumAvailable(ctx, userID, asOf)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return sum, nil
}

// History returns every ledger entry of the user, newest first.
func (u *BalanceUseCase) History(ctx context.Context, userID int64) ([]model.LedgerEntry, error) {
	return u.ledger.ListByUser(ctx, userID)
}

// Stats summarizes the ledger at asOf, defaulting to now.
func (u *BalanceUseCase) Stats(ctx context.Context, asOf time.Time) (*model.LedgerStats, error) {
	if asOf.IsZero() {
		asOf = u.now()
	}
	return u.ledger.Stats(ctx, asOf)
}
