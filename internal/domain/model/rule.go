package model

import "github.com/shopspring/decimal"

// ScopeKind tells which catalog entity a product reward rule is bound to.
type ScopeKind string

const (
	ScopeProduct  ScopeKind = "PRODUCT"
	ScopeCategory ScopeKind = "CATEGORY"
)

// RuleScope binds a rule to exactly one product or one category.
// The zero value is not a valid scope; use ProductScope or CategoryScope.
type RuleScope struct {
	kind ScopeKind
	id   int64
}

// ProductScope scopes a rule to a single product.
func ProductScope(productID int64) RuleScope {
	return RuleScope{kind: ScopeProduct, id: productID}
}

// CategoryScope scopes a rule to a whole category.
func CategoryScope(categoryID int64) RuleScope {
	return RuleScope{kind: ScopeCategory, id: categoryID}
}

func (s RuleScope) Kind() ScopeKind { return s.kind }
func (s RuleScope) ID() int64       { return s.id }

// Valid reports whether the scope was built through one of the constructors.
func (s RuleScope) Valid() bool {
	return s.kind == ScopeProduct || s.kind == ScopeCategory
}

// PointMode is either a fixed amount per unit or a fraction of the price.
type PointMode struct {
	percentage bool
	perUnit    int64
	multiplier decimal.Decimal
}

// FixedPoints awards perUnit points for every unit bought.
func FixedPoints(perUnit int64) PointMode {
	return PointMode{perUnit: perUnit}
}

// PercentageOf awards multiplier * price points, e.g. 0.1 for ten percent.
func PercentageOf(multiplier decimal.Decimal) PointMode {
	return PointMode{percentage: true, multiplier: multiplier}
}

func (m PointMode) IsPercentage() bool          { return m.percentage }
func (m PointMode) PointsPerUnit() int64        { return m.perUnit }
func (m PointMode) Multiplier() decimal.Decimal { return m.multiplier }

// RewardRuleSet groups rules that can be switched on and off together.
type RewardRuleSet struct {
	ID       int64
	Name     string
	IsActive bool
	Priority int
}

// QuantityTier grants a flat bonus once per line when the quantity falls
// within [MinQuantity, MaxQuantity]. A nil MaxQuantity is unbounded.
type QuantityTier struct {
	ID          int64
	MinQuantity int64
	MaxQuantity *int64
	BonusPoints int64
}

// Matches reports whether quantity lies inside the tier band.
func (t QuantityTier) Matches(quantity int64) bool {
	if quantity < t.MinQuantity {
		return false
	}
	return t.MaxQuantity == nil || quantity <= *t.MaxQuantity
}

// ProductRewardRule describes how a product or category line earns points.
type ProductRewardRule struct {
	ID          int64
	RuleSetID   int64
	Scope       RuleScope
	Mode        PointMode
	MinQuantity int64
	Tiers       []QuantityTier
}

// OrderAmountRule is the order level fallback applied when no line rule matched.
// Percentage rules keep the stored percent as a fraction in Mode.
type OrderAmountRule struct {
	ID        int64
	RuleSetID int64
	MinAmount decimal.Decimal
	MaxAmount *decimal.Decimal
	Mode      PointMode
}

// Contains reports whether amount lies inside [MinAmount, MaxAmount].
func (r OrderAmountRule) Contains(amount decimal.Decimal) bool {
	if amount.LessThan(r.MinAmount) {
		return false
	}
	return r.MaxAmount == nil || amount.LessThanOrEqual(*r.MaxAmount)
}
