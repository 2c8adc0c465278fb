package usecase

import (
	"go.uber.org/fx"

	"github.com/polkiloo/rewardengine/internal/config"
	"github.com/polkiloo/rewardengine/internal/domain/repository"
)

// Module provides the accrual engine use cases to the fx container.
var Module = fx.Provide(
	NewRuleResolver,
	NewPointCalculator,
	newLedgerWriter,
	NewAccrualUseCase,
	NewBalanceUseCase,
	newAccrualJobUseCase,
)

type ledgerParams struct {
	fx.In

	Ledger repository.LedgerRepository
	Config *config.Config
}

func newLedgerWriter(p ledgerParams) *LedgerWriter {
	return NewLedgerWriter(p.Ledger, LedgerOptions{ExpiryHorizon: p.Config.PointsExpiry})
}

type jobParams struct {
	fx.In

	Jobs   repository.AccrualJobRepository
	Config *config.Config
}

func newAccrualJobUseCase(p jobParams) *AccrualJobUseCase {
	return NewAccrualJobUseCase(p.Jobs, p.Config.RetryMaxAttempts)
}
