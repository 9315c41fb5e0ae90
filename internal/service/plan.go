package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/annapurna-catering/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Errors returned while validating meal plans and stalls.
var (
	ErrInvalidMealType      = errors.New("meal_type is required")
	ErrInvalidPricingMethod = errors.New("invalid pricing_method")
	ErrInvalidPlateCount    = errors.New("plates must be > 0 for PER_PLATE pricing")
	ErrNegativeAmount       = errors.New("amount must not be negative")
	ErrDuplicateMealType    = errors.New("duplicate meal_type in meal plans")
)

// MealPlan is the pricing record for one meal of the event. Exactly one of
// the two pricing methods applies: PER_PLATE derives the amount from
// plates x plate_price, MANUAL uses the quoted figure as-is.
type MealPlan struct {
	MealType        string          `json:"meal_type"`
	PricingMethod   string          `json:"pricing_method"`
	Plates          int32           `json:"plates,omitempty"`
	PlatePrice      decimal.Decimal `json:"plate_price"`
	ManualAmount    decimal.Decimal `json:"manual_amount"`
	Members         int32           `json:"members"`
	OriginalMembers int32           `json:"original_members,omitempty"`
	Services        []string        `json:"services,omitempty"`
	ServeDate       string          `json:"serve_date,omitempty"`
}

// Amount returns the billed amount for this meal.
func (p MealPlan) Amount() decimal.Decimal {
	if p.PricingMethod == enum.PricingMethodManual {
		return p.ManualAmount
	}
	return p.PlatePrice.Mul(decimal.NewFromInt32(p.Plates))
}

// Validate checks the tagged-union invariants at the boundary.
func (p MealPlan) Validate() error {
	if p.MealType == "" {
		return ErrInvalidMealType
	}
	if p.Members < 0 {
		return fmt.Errorf("%s: members: %w", p.MealType, ErrNegativeAmount)
	}
	switch p.PricingMethod {
	case enum.PricingMethodPerPlate:
		if p.Plates <= 0 {
			return fmt.Errorf("%s: %w", p.MealType, ErrInvalidPlateCount)
		}
		if p.PlatePrice.IsNegative() {
			return fmt.Errorf("%s: plate_price: %w", p.MealType, ErrNegativeAmount)
		}
	case enum.PricingMethodManual:
		if p.ManualAmount.IsNegative() {
			return fmt.Errorf("%s: manual_amount: %w", p.MealType, ErrNegativeAmount)
		}
	default:
		return fmt.Errorf("%s: %w", p.MealType, ErrInvalidPricingMethod)
	}
	return nil
}

// ValidateMealPlans validates each plan and rejects duplicate meal types.
func ValidateMealPlans(plans []MealPlan) error {
	seen := make(map[string]bool, len(plans))
	for _, p := range plans {
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.MealType] {
			return fmt.Errorf("%s: %w", p.MealType, ErrDuplicateMealType)
		}
		seen[p.MealType] = true
	}
	return nil
}

// Stall is an extra service stand (chaat counter, live dosa, etc.) billed on
// top of the meal plans.
type Stall struct {
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	Cost        decimal.Decimal `json:"cost"`
}

func ValidateStalls(stalls []Stall) error {
	for _, s := range stalls {
		if s.Category == "" {
			return errors.New("stall category is required")
		}
		if s.Cost.IsNegative() {
			return fmt.Errorf("stall %s: cost: %w", s.Category, ErrNegativeAmount)
		}
	}
	return nil
}

// PaymentEntry is one immutable line of a bill's ledger. Entries are only
// ever appended, never rewritten.
type PaymentEntry struct {
	Amount           decimal.Decimal  `json:"amount"`
	TotalPaid        decimal.Decimal  `json:"total_paid"`
	RemainingAmount  decimal.Decimal  `json:"remaining_amount"`
	Status           string           `json:"status"`
	Date             time.Time        `json:"date"`
	Source           string           `json:"source"`
	Method           string           `json:"method,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	MembersChanged   *int32           `json:"members_changed,omitempty"`
	TotalPriceChange *decimal.Decimal `json:"total_price_change,omitempty"`
}

// DecodePaymentHistory parses a bills.payment_history JSONB column.
func DecodePaymentHistory(raw []byte) ([]PaymentEntry, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var entries []PaymentEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode payment history: %w", err)
	}
	return entries, nil
}

// EncodePaymentHistory renders the ledger for storage. A nil slice encodes
// as an empty array, not JSON null.
func EncodePaymentHistory(entries []PaymentEntry) ([]byte, error) {
	if entries == nil {
		entries = []PaymentEntry{}
	}
	return json.Marshal(entries)
}

// DecodeMealPlans parses an orders.meal_plans JSONB column.
func DecodeMealPlans(raw []byte) ([]MealPlan, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var plans []MealPlan
	if err := json.Unmarshal(raw, &plans); err != nil {
		return nil, fmt.Errorf("decode meal plans: %w", err)
	}
	return plans, nil
}

func EncodeMealPlans(plans []MealPlan) ([]byte, error) {
	if plans == nil {
		plans = []MealPlan{}
	}
	return json.Marshal(plans)
}

func DecodeStalls(raw []byte) ([]Stall, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var stalls []Stall
	if err := json.Unmarshal(raw, &stalls); err != nil {
		return nil, fmt.Errorf("decode stalls: %w", err)
	}
	return stalls, nil
}

func EncodeStalls(stalls []Stall) ([]byte, error) {
	if stalls == nil {
		stalls = []Stall{}
	}
	return json.Marshal(stalls)
}

// MealPlanDiff summarizes what changed between two revisions of an order's
// meal plans.
type MealPlanDiff struct {
	Summary          string
	MembersChanged   int32
	TotalPriceChange decimal.Decimal
	Changed          bool
}

// DiffMealPlans compares the stored plans against the incoming revision and
// builds the human-readable change summary that ends up in the ledger.
func DiffMealPlans(prev, next []MealPlan) MealPlanDiff {
	prevByType := make(map[string]MealPlan, len(prev))
	for _, p := range prev {
		prevByType[p.MealType] = p
	}
	nextByType := make(map[string]MealPlan, len(next))
	for _, p := range next {
		nextByType[p.MealType] = p
	}

	diff := MealPlanDiff{TotalPriceChange: decimal.Zero}
	var parts []string

	for _, n := range next {
		p, ok := prevByType[n.MealType]
		if !ok {
			diff.MembersChanged += n.Members
			diff.TotalPriceChange = diff.TotalPriceChange.Add(n.Amount())
			parts = append(parts, fmt.Sprintf("%s added (%d members, %s)",
				n.MealType, n.Members, n.Amount().StringFixed(2)))
			continue
		}
		if p.Members != n.Members {
			diff.MembersChanged += n.Members - p.Members
			parts = append(parts, fmt.Sprintf("%s members %d -> %d",
				n.MealType, p.Members, n.Members))
		}
		if !p.Amount().Equal(n.Amount()) {
			diff.TotalPriceChange = diff.TotalPriceChange.Add(n.Amount().Sub(p.Amount()))
			parts = append(parts, fmt.Sprintf("%s amount %s -> %s",
				n.MealType, p.Amount().StringFixed(2), n.Amount().StringFixed(2)))
		}
	}

	for _, p := range prev {
		if _, ok := nextByType[p.MealType]; !ok {
			diff.MembersChanged -= p.Members
			diff.TotalPriceChange = diff.TotalPriceChange.Sub(p.Amount())
			parts = append(parts, fmt.Sprintf("%s removed (%d members, %s)",
				p.MealType, p.Members, p.Amount().StringFixed(2)))
		}
	}

	diff.Changed = len(parts) > 0
	diff.Summary = strings.Join(parts, "; ")
	return diff
}
