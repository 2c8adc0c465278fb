package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/rewardengine/internal/domain/errors"
	"github.com/polkiloo/rewardengine/internal/domain/model"
	"github.com/polkiloo/rewardengine/internal/domain/repository"
)

// RuleResolver picks the single most specific reward rule for an order line.
type RuleResolver struct {
	rules repository.RuleRepository
}

// NewRuleResolver constructs RuleResolver.
func NewRuleResolver(rules repository.RuleRepository) *RuleResolver {
	return &RuleResolver{rules: rules}
}

// Resolve returns the rule applicable to the line or nil when neither the
// product nor its category has one. Category rules are consulted only when
// no product rule qualifies.
func (r *RuleResolver) Resolve(ctx context.Context, productID int64, categoryID *int64, quantity int64) (*model.ProductRewardRule, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity %d", domainErrors.ErrInvalidLineInput, quantity)
	}

	rule, err := r.resolveScope(ctx, model.ProductScope(productID), quantity)
	if err != nil || rule != nil {
		return rule, err
	}

	if categoryID == nil {
		return nil, nil
	}
	return r.resolveScope(ctx, model.CategoryScope(*categoryID), quantity)
}

func (r *RuleResolver) resolveScope(ctx context.Context, scope model.RuleScope, quantity int64) (*model.ProductRewardRule, error) {
	rules, err := r.rules.ListProductRules(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %d: %w", domainErrors.ErrRuleLookupFailed, scope.Kind(), scope.ID(), err)
	}
	for _, rule := range rules {
		if err := checkProductRule(rule, scope); err != nil {
			return nil, err
		}
	}
	return SelectProductRule(rules, quantity), nil
}

// SelectProductRule keeps rules whose MinQuantity does not exceed quantity and
// returns the one with the greatest MinQuantity. Equal MinQuantity values are
// settled in favour of the smaller ID.
func SelectProductRule(rules []model.ProductRewardRule, quantity int64) *model.ProductRewardRule {
	var best *model.ProductRewardRule
	for i := range rules {
		candidate := &rules[i]
		if candidate.MinQuantity > quantity {
			continue
		}
		if best == nil ||
			candidate.MinQuantity > best.MinQuantity ||
			(candidate.MinQuantity == best.MinQuantity && candidate.ID < best.ID) {
			best = candidate
		}
	}
	if best == nil {
		return nil
	}
	selected := *best
	return &selected
}

// ResolveOrderRule returns the order level fallback band for subtotal, or nil.
func (r *RuleResolver) ResolveOrderRule(ctx context.Context, subtotal decimal.Decimal) (*model.OrderAmountRule, error) {
	if subtotal.IsNegative() {
		return nil, fmt.Errorf("%w: negative subtotal %s", domainErrors.ErrInvalidLineInput, subtotal)
	}
	rules, err := r.rules.ListOrderAmountRules(ctx, subtotal)
	if err != nil {
		return nil, fmt.Errorf("%w: order amount %s: %w", domainErrors.ErrRuleLookupFailed, subtotal, err)
	}
	return SelectOrderAmountRule(rules, subtotal), nil
}

// SelectOrderAmountRule applies the same policy as SelectProductRule to
// amount bands: highest MinAmount wins, smaller ID breaks ties.
func SelectOrderAmountRule(rules []model.OrderAmountRule, subtotal decimal.Decimal) *model.OrderAmountRule {
	var best *model.OrderAmountRule
	for i := range rules {
		candidate := &rules[i]
		if !candidate.Contains(subtotal) {
			continue
		}
		if best == nil {
			best = candidate
			continue
		}
		switch candidate.MinAmount.Cmp(best.MinAmount) {
		case 1:
			best = candidate
		case 0:
			if candidate.ID < best.ID {
				best = candidate
			}
		}
	}
	if best == nil {
		return nil
	}
	selected := *best
	return &selected
}

func checkProductRule(rule model.ProductRewardRule, scope model.RuleScope) error {
	switch {
	case !rule.Scope.Valid():
		return fmt.Errorf("%w: rule %d has no scope", domainErrors.ErrRuleLookupFailed, rule.ID)
	case rule.Scope != scope:
		return fmt.Errorf("%w: rule %d scoped to %s %d, asked for %s %d",
			domainErrors.ErrRuleLookupFailed, rule.ID, rule.Scope.Kind(), rule.Scope.ID(), scope.Kind(), scope.ID())
	case rule.MinQuantity < 1:
		return fmt.Errorf("%w: rule %d min quantity %d", domainErrors.ErrRuleLookupFailed, rule.ID, rule.MinQuantity)
	case rule.Mode.PointsPerUnit() < 0 || rule.Mode.Multiplier().IsNegative():
		return fmt.Errorf("%w: rule %d has negative rate", domainErrors.ErrRuleLookupFailed, rule.ID)
	}
	return nil
}
