package repository

import (
	"context"
	"time"

	"github.com/polkiloo/rewardengine/internal/domain/model"
)

// LedgerRepository persists reward ledger entries.
type LedgerRepository interface {
	FindEntry(ctx context.Context, userID, orderID int64) (*model.LedgerEntry, error)
	// InsertEntry must return ErrLedgerWriteConflict when (user, order) already exists.
	InsertEntry(ctx context.Context, entry model.LedgerEntry) (*model.LedgerEntry, error)
	SumAvailable(ctx context.Context, userID int64, asOf time.Time) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]model.LedgerEntry, error)
	Stats(ctx context.Context, asOf time.Time) (*model.LedgerStats, error)
}
