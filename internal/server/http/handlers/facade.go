package handlers

import (
	"context"
	"time"

	"github.com/polkiloo/rewardengine/internal/domain/model"
)

// TokenParser resolves bearer tokens into subject identifiers.
type TokenParser interface {
	ParseToken(token string) (int64, error)
}

// AccrualFacade credits finalized orders.
type AccrualFacade interface {
	SubmitOrder(ctx context.Context, order model.OrderSnapshot) (*model.LedgerEntry, bool, error)
}

// BalanceFacade provides balance related operations.
type BalanceFacade interface {
	AvailablePoints(ctx context.Context, userID int64, asOf time.Time) (int64, error)
	Ledger(ctx context.Context, userID int64) ([]model.LedgerEntry, error)
}

// RewardsFacade aggregates the full set of operations used across handlers.
type RewardsFacade interface {
	TokenParser
	AccrualFacade
	BalanceFacade
}

// HealthChecker reports readiness of backing storage.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
