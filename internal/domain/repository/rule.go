package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/rewardengine/internal/domain/model"
)

// RuleRepository gives read-only access to configured reward rules.
type RuleRepository interface {
	// ListProductRules returns rules of active rule sets bound to scope, tiers included.
	ListProductRules(ctx context.Context, scope model.RuleScope) ([]model.ProductRewardRule, error)
	// ListOrderAmountRules returns active order level bands containing subtotal.
	ListOrderAmountRules(ctx context.Context, subtotal decimal.Decimal) ([]model.OrderAmountRule, error)
}
