package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/rewardengine/internal/domain/errors"
	"github.com/polkiloo/rewardengine/internal/domain/model"
	testhelpers "github.com/polkiloo/rewardengine/internal/test"
)

func int64Ptr(v int64) *int64 { return &v }

func decimalPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestRuleResolverPrefersProductOverCategory(t *testing.T) {
	repo := &testhelpers.RuleRepositoryStub{ProductRules: []model.ProductRewardRule{
		{ID: 1, Scope: model.CategoryScope(9), Mode: model.FixedPoints(1), MinQuantity: 1},
		{ID: 2, Scope: model.ProductScope(5), Mode: model.FixedPoints(3), MinQuantity: 1},
	}}
	resolver := NewRuleResolver(repo)

	rule, err := resolver.Resolve(context.Background(), 5, int64Ptr(9), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rule == nil || rule.ID != 2 {
		t.Fatalf("expected product rule 2, got %+v", rule)
	}
	if len(repo.Calls) != 1 {
		t.Fatalf("category should not be consulted when product matched, calls: %v", repo.Calls)
	}
}

func TestRuleResolverFallsBackToCategory(t *testing.T) {
	repo := &testhelpers.RuleRepositoryStub{ProductRules: []model.ProductRewardRule{
		{ID: 1, Scope: model.CategoryScope(9), Mode: model.FixedPoints(1), MinQuantity: 1},
		{ID: 2, Scope: model.ProductScope(5), Mode: model.FixedPoints(3), MinQuantity: 4},
	}}
	resolver := NewRuleResolver(repo)

	rule, err := resolver.Resolve(context.Background(), 5, int64Ptr(9), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rule == nil || rule.ID != 1 {
		t.Fatalf("expected category rule 1, got %+v", rule)
	}
}

func TestRuleResolverNoMatch(t *testing.T) {
	repo := &testhelpers.RuleRepositoryStub{ProductRules: []model.ProductRewardRule{
		{ID: 1, Scope: model.ProductScope(5), Mode: model.FixedPoints(1), MinQuantity: 10},
	}}
	resolver := NewRuleResolver(repo)

	cases := []struct {
		name       string
		productID  int64
		categoryID *int64
	}{
		{"below min quantity", 5, nil},
		{"unknown product without category", 6, nil},
		{"unknown product and category", 6, int64Ptr(3)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule, err := resolver.Resolve(context.Background(), tc.productID, tc.categoryID, 2)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rule != nil {
				t.Fatalf("expected no rule, got %+v", rule)
			}
		})
	}
}

func TestRuleResolverTieBreak(t *testing.T) {
	repo := &testhelpers.RuleRepositoryStub{ProductRules: []model.ProductRewardRule{
		{ID: 7, Scope: model.ProductScope(1), Mode: model.FixedPoints(1), MinQuantity: 1},
		{ID: 5, Scope: model.ProductScope(1), Mode: model.FixedPoints(2), MinQuantity: 3},
		{ID: 4, Scope: model.ProductScope(1), Mode: model.FixedPoints(3), MinQuantity: 3},
		{ID: 2, Scope: model.ProductScope(1), Mode: model.FixedPoints(4), MinQuantity: 6},
	}}
	resolver := NewRuleResolver(repo)

	cases := []struct {
		quantity int64
		want     int64
	}{
		{1, 7},
		{3, 4},
		{5, 4},
		{6, 2},
	}
	for _, tc := range cases {
		rule, err := resolver.Resolve(context.Background(), 1, nil, tc.quantity)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rule == nil || rule.ID != tc.want {
			t.Fatalf("quantity %d: expected rule %d, got %+v", tc.quantity, tc.want, rule)
		}
	}
}

func TestRuleResolverIsStable(t *testing.T) {
	repo := &testhelpers.RuleRepositoryStub{ProductRules: []model.ProductRewardRule{
		{ID: 3, Scope: model.ProductScope(1), Mode: model.FixedPoints(1), MinQuantity: 2},
		{ID: 1, Scope: model.ProductScope(1), Mode: model.FixedPoints(1), MinQuantity: 2},
	}}
	resolver := NewRuleResolver(repo)

	first, err := resolver.Resolve(context.Background(), 1, nil, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := resolver.Resolve(context.Background(), 1, nil, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again.ID != first.ID {
			t.Fatalf("expected same rule %d, got %d", first.ID, again.ID)
		}
	}
}

func TestRuleResolverLookupFailure(t *testing.T) {
	storeErr := errors.New("connection reset")
	resolver := NewRuleResolver(&testhelpers.RuleRepositoryStub{Err: storeErr})

	_, err := resolver.Resolve(context.Background(), 1, int64Ptr(2), 1)
	if !errors.Is(err, domainErrors.ErrRuleLookupFailed) {
		t.Fatalf("expected rule lookup failure, got %v", err)
	}
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to be preserved, got %v", err)
	}
}

func TestRuleResolverRejectsMalformedRules(t *testing.T) {
	cases := []struct {
		name string
		rule model.ProductRewardRule
	}{
		{"zero scope", model.ProductRewardRule{ID: 1, MinQuantity: 1}},
		{"non positive min quantity", model.ProductRewardRule{ID: 1, Scope: model.ProductScope(1), MinQuantity: 0}},
		{"negative rate", model.ProductRewardRule{ID: 1, Scope: model.ProductScope(1), Mode: model.FixedPoints(-1), MinQuantity: 1}},
		{"foreign scope", model.ProductRewardRule{ID: 1, Scope: model.CategoryScope(1), MinQuantity: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &testhelpers.RuleRepositoryStub{
				ListProductFn: func(context.Context, model.RuleScope) ([]model.ProductRewardRule, error) {
					return []model.ProductRewardRule{tc.rule}, nil
				},
			}
			_, err := NewRuleResolver(repo).Resolve(context.Background(), 1, nil, 1)
			if !errors.Is(err, domainErrors.ErrRuleLookupFailed) {
				t.Fatalf("expected rule lookup failure, got %v", err)
			}
		})
	}
}

func TestRuleResolverRejectsNonPositiveQuantity(t *testing.T) {
	repo := &testhelpers.RuleRepositoryStub{}
	_, err := NewRuleResolver(repo).Resolve(context.Background(), 1, nil, 0)
	if !errors.Is(err, domainErrors.ErrInvalidLineInput) {
		t.Fatalf("expected invalid line input, got %v", err)
	}
	if len(repo.Calls) != 0 {
		t.Fatalf("store should not be queried")
	}
}

func TestResolveOrderRuleSelectsHighestBand(t *testing.T) {
	repo := &testhelpers.RuleRepositoryStub{OrderAmountRules: []model.OrderAmountRule{
		{ID: 1, MinAmount: decimal.Zero, Mode: model.FixedPoints(5)},
		{ID: 2, MinAmount: decimal.NewFromInt(100), MaxAmount: decimalPtr("999.99"), Mode: model.PercentageOf(decimal.RequireFromString("0.1"))},
		{ID: 3, MinAmount: decimal.NewFromInt(1000), Mode: model.FixedPoints(200)},
	}}
	resolver := NewRuleResolver(repo)

	cases := []struct {
		subtotal string
		want     int64
	}{
		{"50", 1},
		{"100", 2},
		{"999.99", 2},
		{"1000", 3},
	}
	for _, tc := range cases {
		rule, err := resolver.ResolveOrderRule(context.Background(), decimal.RequireFromString(tc.subtotal))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rule == nil || rule.ID != tc.want {
			t.Fatalf("subtotal %s: expected rule %d, got %+v", tc.subtotal, tc.want, rule)
		}
	}
}

func TestResolveOrderRuleNoBand(t *testing.T) {
	repo := &testhelpers.RuleRepositoryStub{OrderAmountRules: []model.OrderAmountRule{
		{ID: 1, MinAmount: decimal.NewFromInt(100), Mode: model.FixedPoints(5)},
	}}
	rule, err := NewRuleResolver(repo).ResolveOrderRule(context.Background(), decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rule != nil {
		t.Fatalf("expected no rule, got %+v", rule)
	}
}

func TestResolveOrderRuleLookupFailure(t *testing.T) {
	resolver := NewRuleResolver(&testhelpers.RuleRepositoryStub{Err: errors.New("timeout")})
	if _, err := resolver.ResolveOrderRule(context.Background(), decimal.NewFromInt(10)); !errors.Is(err, domainErrors.ErrRuleLookupFailed) {
		t.Fatalf("expected rule lookup failure, got %v", err)
	}
}

func TestSelectOrderAmountRuleTieBreak(t *testing.T) {
	rules := []model.OrderAmountRule{
		{ID: 9, MinAmount: decimal.NewFromInt(10)},
		{ID: 4, MinAmount: decimal.NewFromInt(10)},
		{ID: 1, MinAmount: decimal.NewFromInt(1)},
	}
	rule := SelectOrderAmountRule(rules, decimal.NewFromInt(20))
	if rule == nil || rule.ID != 4 {
		t.Fatalf("expected rule 4, got %+v", rule)
	}
}
