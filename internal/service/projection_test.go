package service

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestProjectAdjustment_ManualPlan(t *testing.T) {
	proj, err := ProjectAdjustment(
		[]MealPlan{lunchPlan("10000", 100)},
		decimal.Zero, decimal.Zero, nil,
		dec("2000"), decimal.Zero,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !proj.Total.Equal(dec("10000")) {
		t.Errorf("total: got %v, want 10000", proj.Total)
	}
	if !proj.Paid.Equal(dec("2000")) {
		t.Errorf("paid: got %v, want 2000", proj.Paid)
	}
	if !proj.Remaining.Equal(dec("8000")) {
		t.Errorf("remaining: got %v, want 8000", proj.Remaining)
	}
}

func TestProjectAdjustment_AllComponents(t *testing.T) {
	plans := []MealPlan{
		{MealType: "LUNCH", PricingMethod: "PER_PLATE", Plates: 150, PlatePrice: dec("80"), Members: 150},
		{MealType: "DINNER", PricingMethod: "MANUAL", ManualAmount: dec("6000"), Members: 120},
	}
	stalls := []Stall{
		{Category: "CHAAT", Cost: dec("2500")},
		{Category: "ICE_CREAM", Cost: dec("1500")},
	}
	// 12000 + 6000 + 2500 + 1500 + 1000 transport - 2000 discount = 21000
	proj, err := ProjectAdjustment(plans, dec("1000"), dec("2000"), stalls, dec("5000"), dec("3000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !proj.Total.Equal(dec("21000")) {
		t.Errorf("total: got %v, want 21000", proj.Total)
	}
	if !proj.Paid.Equal(dec("8000")) {
		t.Errorf("paid: got %v, want 8000", proj.Paid)
	}
	if !proj.Remaining.Equal(dec("13000")) {
		t.Errorf("remaining: got %v, want 13000", proj.Remaining)
	}
}

func TestProjectAdjustment_DiscountClampsTotalToZero(t *testing.T) {
	proj, err := ProjectAdjustment(
		[]MealPlan{lunchPlan("1000", 10)},
		decimal.Zero, dec("5000"), nil,
		decimal.Zero, decimal.Zero,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !proj.Total.IsZero() {
		t.Errorf("total: got %v, want 0", proj.Total)
	}
	if !proj.Remaining.IsZero() {
		t.Errorf("remaining: got %v, want 0", proj.Remaining)
	}
}

func TestProjectAdjustment_NegativeInputs(t *testing.T) {
	_, err := ProjectAdjustment(nil, dec("-1"), decimal.Zero, nil, decimal.Zero, decimal.Zero)
	if !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got: %v", err)
	}
}

func TestProjectAdjustment_AdvanceExceedsTotal(t *testing.T) {
	_, err := ProjectAdjustment(
		[]MealPlan{lunchPlan("10000", 100)},
		decimal.Zero, decimal.Zero, nil,
		dec("12000"), decimal.Zero,
	)
	if !errors.Is(err, ErrAdvanceExceedsTotal) {
		t.Fatalf("expected ErrAdvanceExceedsTotal, got: %v", err)
	}
}

func TestProjectAdjustment_PaymentExceedsRemaining(t *testing.T) {
	_, err := ProjectAdjustment(
		[]MealPlan{lunchPlan("10000", 100)},
		decimal.Zero, decimal.Zero, nil,
		dec("8000"), dec("3000"),
	)
	if !errors.Is(err, ErrPaymentExceedsRemaining) {
		t.Fatalf("expected ErrPaymentExceedsRemaining, got: %v", err)
	}
}

func TestProjectAdjustment_InvalidPlanRejected(t *testing.T) {
	plans := []MealPlan{
		{MealType: "LUNCH", PricingMethod: "PER_PLATE", Plates: 0, PlatePrice: dec("80")},
	}
	_, err := ProjectAdjustment(plans, decimal.Zero, decimal.Zero, nil, decimal.Zero, decimal.Zero)
	if !errors.Is(err, ErrInvalidPlateCount) {
		t.Fatalf("expected ErrInvalidPlateCount, got: %v", err)
	}
}

func TestBillStatusFor(t *testing.T) {
	cases := []struct {
		paid, remaining string
		want            string
	}{
		{"0", "10000", "PENDING"},
		{"2000", "8000", "PARTIAL"},
		{"10000", "0", "PAID"},
		{"0", "0", "PAID"},
	}
	for _, c := range cases {
		got := billStatusFor(dec(c.paid), dec(c.remaining))
		if got != c.want {
			t.Errorf("billStatusFor(%s, %s): got %s, want %s", c.paid, c.remaining, got, c.want)
		}
	}
}
