package usecase

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/rewardengine/internal/domain/errors"
	"github.com/polkiloo/rewardengine/internal/domain/model"
)

// PointCalculator turns a resolved rule into an integer amount of points.
type PointCalculator struct{}

// NewPointCalculator constructs PointCalculator.
func NewPointCalculator() *PointCalculator {
	return &PointCalculator{}
}

// Compute returns base points for the line plus the flat bonus of the matching
// quantity tier, if any.
func (c *PointCalculator) Compute(rule model.ProductRewardRule, unitPrice decimal.Decimal, quantity int64) (int64, error) {
	if quantity < 1 {
		return 0, fmt.Errorf("%w: quantity %d", domainErrors.ErrInvalidLineInput, quantity)
	}
	if unitPrice.IsNegative() {
		return 0, fmt.Errorf("%w: unit price %s", domainErrors.ErrInvalidLineInput, unitPrice)
	}

	var base decimal.Decimal
	if rule.Mode.IsPercentage() {
		base = unitPrice.Mul(rule.Mode.Multiplier()).Mul(decimal.NewFromInt(quantity)).Floor()
	} else {
		base = decimal.NewFromInt(rule.Mode.PointsPerUnit()).Mul(decimal.NewFromInt(quantity))
	}

	if tier := SelectTier(rule.Tiers, quantity); tier != nil {
		base = base.Add(decimal.NewFromInt(tier.BonusPoints))
	}
	return toPoints(base)
}

// ComputeOrder returns points for the order level fallback rule: the flat
// amount, or floor(subtotal * fraction) for percentage rules.
func (c *PointCalculator) ComputeOrder(rule model.OrderAmountRule, subtotal decimal.Decimal) (int64, error) {
	if subtotal.IsNegative() {
		return 0, fmt.Errorf("%w: negative subtotal %s", domainErrors.ErrInvalidLineInput, subtotal)
	}
	if rule.Mode.IsPercentage() {
		return toPoints(subtotal.Mul(rule.Mode.Multiplier()).Floor())
	}
	return rule.Mode.PointsPerUnit(), nil
}

var maxPoints = decimal.NewFromInt(math.MaxInt64)

// toPoints converts a whole decimal amount into points, rejecting amounts
// that do not fit into int64.
func toPoints(amount decimal.Decimal) (int64, error) {
	if amount.GreaterThan(maxPoints) {
		return 0, fmt.Errorf("%w: %s points out of range", domainErrors.ErrInvalidLineInput, amount)
	}
	return amount.IntPart(), nil
}

// AddPoints sums two non-negative point amounts, failing instead of wrapping.
func AddPoints(a, b int64) (int64, error) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, fmt.Errorf("%w: order total exceeds %d points", domainErrors.ErrInvalidLineInput, int64(math.MaxInt64))
	}
	return a + b, nil
}

// SelectTier returns the band containing quantity. Overlapping bands are
// settled like rules: greatest MinQuantity, then smaller ID.
func SelectTier(tiers []model.QuantityTier, quantity int64) *model.QuantityTier {
	var best *model.QuantityTier
	for i := range tiers {
		tier := &tiers[i]
		if !tier.Matches(quantity) {
			continue
		}
		if best == nil ||
			tier.MinQuantity > best.MinQuantity ||
			(tier.MinQuantity == best.MinQuantity && tier.ID < best.ID) {
			best = tier
		}
	}
	return best
}
