package usecase

import (
	"context"
	"fmt"

	domainErrors "github.com/polkiloo/rewardengine/internal/domain/errors"
	"github.com/polkiloo/rewardengine/internal/domain/model"
)

// AccrualResult describes the outcome of crediting an order.
type AccrualResult struct {
	Entry *model.LedgerEntry
	// Created is false when the order had been credited before.
	Created bool
	// Fallback is true when points came from the order amount rule.
	Fallback bool
}

// AccrualUseCase credits reward points for finalized orders.
type AccrualUseCase struct {
	resolver   *RuleResolver
	calculator *PointCalculator
	ledger     *LedgerWriter
}

// NewAccrualUseCase constructs AccrualUseCase.
func NewAccrualUseCase(resolver *RuleResolver, calculator *PointCalculator, ledger *LedgerWriter) *AccrualUseCase {
	return &AccrualUseCase{resolver: resolver, calculator: calculator, ledger: ledger}
}

// Accrue sums line points of the order, falls back to the order amount rule
// when no line matched and records a single ledger entry. Any failure aborts
// the whole order and matches ErrAccrualFailed.
func (u *AccrualUseCase) Accrue(ctx context.Context, order model.OrderSnapshot) (*AccrualResult, error) {
	if err := ValidateOrder(order); err != nil {
		return nil, fmt.Errorf("%w: %w", domainErrors.ErrAccrualFailed, err)
	}

	var (
		total   int64
		matched bool
	)
	for i, line := range order.Lines {
		rule, err := u.resolver.Resolve(ctx, line.ProductID, line.CategoryID, line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("%w: order %d line %d: %w", domainErrors.ErrAccrualFailed, order.OrderID, i, err)
		}
		if rule == nil {
			continue
		}
		matched = true

		points, err := u.calculator.Compute(*rule, line.UnitPrice, line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("%w: order %d line %d: %w", domainErrors.ErrAccrualFailed, order.OrderID, i, err)
		}
		if total, err = AddPoints(total, points); err != nil {
			return nil, fmt.Errorf("%w: order %d line %d: %w", domainErrors.ErrAccrualFailed, order.OrderID, i, err)
		}
	}

	if !matched {
		rule, err := u.resolver.ResolveOrderRule(ctx, order.Subtotal)
		if err != nil {
			return nil, fmt.Errorf("%w: order %d: %w", domainErrors.ErrAccrualFailed, order.OrderID, err)
		}
		if rule != nil {
			if total, err = u.calculator.ComputeOrder(*rule, order.Subtotal); err != nil {
				return nil, fmt.Errorf("%w: order %d: %w", domainErrors.ErrAccrualFailed, order.OrderID, err)
			}
		}
	}

	entry, created, err := u.ledger.Record(ctx, order.UserID, order.OrderID, total)
	if err != nil {
		return nil, fmt.Errorf("%w: order %d: %w", domainErrors.ErrAccrualFailed, order.OrderID, err)
	}
	return &AccrualResult{Entry: entry, Created: created, Fallback: !matched}, nil
}
