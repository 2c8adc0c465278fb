package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/polkiloo/rewardengine/internal/domain/model"
)

type ruleRepository struct {
	storage *Storage
}

const productRuleColumns = `SELECT r.id, r.rule_set_id, r.product_id, r.category_id, r.is_percentage, r.points_per_unit, r.multiplier, r.min_quantity
                   FROM product_reward_rules r
                   JOIN reward_rule_sets s ON s.id = r.rule_set_id`

const (
	selectProductRules  = productRuleColumns + ` WHERE s.is_active AND r.product_id = $1 ORDER BY r.id`
	selectCategoryRules = productRuleColumns + ` WHERE s.is_active AND r.category_id = $1 ORDER BY r.id`
	selectQuantityTiers = `SELECT id, product_rule_id, min_quantity, max_quantity, bonus_points
                   FROM product_quantity_rules
                   WHERE product_rule_id = ANY($1)
                   ORDER BY product_rule_id, id`
	selectOrderAmountRules = `SELECT o.id, o.rule_set_id, o.min_amount, o.max_amount, o.is_percentage, o.points, o.percentage
                   FROM order_amount_reward_rules o
                   JOIN reward_rule_sets s ON s.id = o.rule_set_id
                   WHERE s.is_active AND o.min_amount <= $1 AND (o.max_amount IS NULL OR o.max_amount >= $1)
                   ORDER BY o.min_amount DESC, o.id`
)

var hundred = decimal.NewFromInt(100)

func (r *ruleRepository) ListProductRules(ctx context.Context, scope model.RuleScope) ([]model.ProductRewardRule, error) {
	var query string
	switch scope.Kind() {
	case model.ScopeProduct:
		query = selectProductRules
	case model.ScopeCategory:
		query = selectCategoryRules
	default:
		return nil, fmt.Errorf("unsupported rule scope %q", scope.Kind())
	}

	rows, err := r.storage.pool.Query(ctx, query, scope.ID())
	if err != nil {
		return nil, err
	}
	rules, err := scanProductRules(rows)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, nil
	}

	if err := r.attachTiers(ctx, rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func scanProductRules(rows pgx.Rows) ([]model.ProductRewardRule, error) {
	defer rows.Close()

	var result []model.ProductRewardRule
	for rows.Next() {
		var (
			rule         model.ProductRewardRule
			productID    *int64
			categoryID   *int64
			isPercentage bool
			perUnit      int64
			multiplier   decimal.Decimal
		)
		if err := rows.Scan(&rule.ID, &rule.RuleSetID, &productID, &categoryID, &isPercentage, &perUnit, &multiplier, &rule.MinQuantity); err != nil {
			return nil, err
		}
		rule.Scope = scopeOf(productID, categoryID)
		if isPercentage {
			rule.Mode = model.PercentageOf(multiplier)
		} else {
			rule.Mode = model.FixedPoints(perUnit)
		}
		result = append(result, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// scopeOf leaves the scope zero unless exactly one column is set.
func scopeOf(productID, categoryID *int64) model.RuleScope {
	switch {
	case productID != nil && categoryID == nil:
		return model.ProductScope(*productID)
	case categoryID != nil && productID == nil:
		return model.CategoryScope(*categoryID)
	default:
		return model.RuleScope{}
	}
}

func (r *ruleRepository) attachTiers(ctx context.Context, rules []model.ProductRewardRule) error {
	ids := make([]int64, len(rules))
	index := make(map[int64]int, len(rules))
	for i, rule := range rules {
		ids[i] = rule.ID
		index[rule.ID] = i
	}

	rows, err := r.storage.pool.Query(ctx, selectQuantityTiers, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tier   model.QuantityTier
			ruleID int64
		)
		if err := rows.Scan(&tier.ID, &ruleID, &tier.MinQuantity, &tier.MaxQuantity, &tier.BonusPoints); err != nil {
			return err
		}
		if i, ok := index[ruleID]; ok {
			rules[i].Tiers = append(rules[i].Tiers, tier)
		}
	}
	return rows.Err()
}

func (r *ruleRepository) ListOrderAmountRules(ctx context.Context, subtotal decimal.Decimal) ([]model.OrderAmountRule, error) {
	rows, err := r.storage.pool.Query(ctx, selectOrderAmountRules, subtotal)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.OrderAmountRule
	for rows.Next() {
		var (
			rule         model.OrderAmountRule
			maxAmount    decimal.NullDecimal
			isPercentage bool
			points       int64
			percentage   decimal.Decimal
		)
		if err := rows.Scan(&rule.ID, &rule.RuleSetID, &rule.MinAmount, &maxAmount, &isPercentage, &points, &percentage); err != nil {
			return nil, err
		}
		if maxAmount.Valid {
			rule.MaxAmount = &maxAmount.Decimal
		}
		if isPercentage {
			rule.Mode = model.PercentageOf(percentage.Div(hundred))
		} else {
			rule.Mode = model.FixedPoints(points)
		}
		result = append(result, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
