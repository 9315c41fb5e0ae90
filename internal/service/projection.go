package service

import (
	"errors"

	"github.com/annapurna-catering/api/internal/enum"
	"github.com/shopspring/decimal"
)

var (
	ErrAdvanceExceedsTotal     = errors.New("advance paid exceeds order total")
	ErrPaymentExceedsRemaining = errors.New("payment exceeds remaining amount")
)

// Projection is the authoritative financial picture of an order after an
// adjustment. Every write path and the preview endpoint go through
// ProjectAdjustment so the arithmetic can never drift between them.
type Projection struct {
	Total     decimal.Decimal
	Paid      decimal.Decimal
	Remaining decimal.Decimal
}

// ProjectAdjustment computes the order total from its components and applies
// the base advance plus any new payment against it.
//
//	total     = max(0, sum(plans) + transport + sum(stalls) - discount)
//	paid      = baseAdvance + newPayment
//	remaining = max(0, total - paid)
func ProjectAdjustment(plans []MealPlan, transport, discount decimal.Decimal, stalls []Stall, baseAdvance, newPayment decimal.Decimal) (Projection, error) {
	if transport.IsNegative() || discount.IsNegative() || baseAdvance.IsNegative() || newPayment.IsNegative() {
		return Projection{}, ErrNegativeAmount
	}
	if err := ValidateMealPlans(plans); err != nil {
		return Projection{}, err
	}
	if err := ValidateStalls(stalls); err != nil {
		return Projection{}, err
	}

	total := transport
	for _, p := range plans {
		total = total.Add(p.Amount())
	}
	for _, s := range stalls {
		total = total.Add(s.Cost)
	}
	total = total.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	if baseAdvance.GreaterThan(total) {
		return Projection{}, ErrAdvanceExceedsTotal
	}
	if newPayment.GreaterThan(total.Sub(baseAdvance)) {
		return Projection{}, ErrPaymentExceedsRemaining
	}

	paid := baseAdvance.Add(newPayment)
	remaining := total.Sub(paid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return Projection{Total: total, Paid: paid, Remaining: remaining}, nil
}

// billStatusFor derives a bill status from its money fields. PAID when
// nothing remains, PARTIAL when some money is in, PENDING otherwise.
func billStatusFor(paid, remaining decimal.Decimal) string {
	switch {
	case remaining.LessThanOrEqual(decimal.Zero):
		return enum.BillStatusPaid
	case paid.GreaterThan(decimal.Zero):
		return enum.BillStatusPartial
	default:
		return enum.BillStatusPending
	}
}
