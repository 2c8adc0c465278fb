package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestRuleScopeConstructors(t *testing.T) {
	product := ProductScope(7)
	if product.Kind() != ScopeProduct || product.ID() != 7 || !product.Valid() {
		t.Fatalf("unexpected product scope: %+v", product)
	}

	category := CategoryScope(3)
	if category.Kind() != ScopeCategory || category.ID() != 3 || !category.Valid() {
		t.Fatalf("unexpected category scope: %+v", category)
	}

	if (RuleScope{}).Valid() {
		t.Fatal("zero scope must not be valid")
	}
}

func TestPointModeConstructors(t *testing.T) {
	fixed := FixedPoints(5)
	if fixed.IsPercentage() || fixed.PointsPerUnit() != 5 {
		t.Fatalf("unexpected fixed mode: %+v", fixed)
	}

	pct := PercentageOf(decimal.RequireFromString("0.1"))
	if !pct.IsPercentage() || !pct.Multiplier().Equal(decimal.RequireFromString("0.1")) {
		t.Fatalf("unexpected percentage mode: %+v", pct)
	}
}

func TestQuantityTierMatches(t *testing.T) {
	upper := int64(9)
	bounded := QuantityTier{MinQuantity: 3, MaxQuantity: &upper, BonusPoints: 15}
	unbounded := QuantityTier{MinQuantity: 10, BonusPoints: 25}

	cases := []struct {
		name  string
		tier  QuantityTier
		qty   int64
		match bool
	}{
		{"below bounded", bounded, 2, false},
		{"lower edge", bounded, 3, true},
		{"upper edge", bounded, 9, true},
		{"above bounded", bounded, 10, false},
		{"below unbounded", unbounded, 9, false},
		{"unbounded", unbounded, 1000, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.tier.Matches(tc.qty); got != tc.match {
				t.Fatalf("expected %v, got %v", tc.match, got)
			}
		})
	}
}

func TestOrderAmountRuleContains(t *testing.T) {
	max := decimal.NewFromInt(500)
	rule := OrderAmountRule{MinAmount: decimal.NewFromInt(100), MaxAmount: &max}
	if rule.Contains(decimal.NewFromInt(99)) {
		t.Fatal("99 must be below band")
	}
	if !rule.Contains(decimal.NewFromInt(100)) || !rule.Contains(decimal.NewFromInt(500)) {
		t.Fatal("band edges must be inclusive")
	}
	if rule.Contains(decimal.RequireFromString("500.01")) {
		t.Fatal("500.01 must be above band")
	}

	rule.MaxAmount = nil
	if !rule.Contains(decimal.NewFromInt(1_000_000)) {
		t.Fatal("unbounded band must contain large amounts")
	}
}

func TestLedgerEntryAvailable(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	entry := LedgerEntry{Points: 10, ExpiresAt: now.Add(time.Hour)}
	if !entry.Available(now) {
		t.Fatal("expected unexpired unused entry to be available")
	}
	if entry.Available(now.Add(time.Hour)) {
		t.Fatal("entry expiring exactly at asOf must not be available")
	}
	entry.IsUsed = true
	if entry.Available(now) {
		t.Fatal("used entry must not be available")
	}
}

func TestAccrualJobStatusValues(t *testing.T) {
	cases := []struct {
		status AccrualJobStatus
		value  string
	}{
		{AccrualJobPending, "PENDING"},
		{AccrualJobProcessing, "PROCESSING"},
		{AccrualJobDone, "DONE"},
		{AccrualJobFailed, "FAILED"},
	}

	for _, tc := range cases {
		if string(tc.status) != tc.value {
			t.Fatalf("expected %s, got %s", tc.value, tc.status)
		}
	}
}
