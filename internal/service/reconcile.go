package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annapurna-catering/api/internal/database"
	"github.com/annapurna-catering/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// allowedTransitions is the order status state machine. Re-submitting the
// current status is always allowed so retried requests stay idempotent.
var allowedTransitions = map[string][]string{
	enum.OrderStatusPending:    {enum.OrderStatusInProgress, enum.OrderStatusCompleted, enum.OrderStatusCancelled},
	enum.OrderStatusInProgress: {enum.OrderStatusCompleted, enum.OrderStatusCancelled},
	enum.OrderStatusCompleted:  {},
	enum.OrderStatusCancelled:  {},
}

func canTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, t := range allowedTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

func validateOrderStatus(s string) error {
	switch s {
	case enum.OrderStatusPending, enum.OrderStatusInProgress,
		enum.OrderStatusCompleted, enum.OrderStatusCancelled:
		return nil
	}
	return ErrInvalidStatus
}

// StatusUpdateResult is the outcome of a status transition. Bill is nil when
// the order still has no bill (PENDING and CANCELLED orders).
type StatusUpdateResult struct {
	Order       database.Order
	Bill        *database.Bill
	BillCreated bool
}

// UpdateStatus moves an order through its lifecycle and keeps the bill
// consistent with it. Moving into IN_PROGRESS or COMPLETED lazily creates
// the bill; COMPLETED additionally forces full settlement. Everything runs
// in one transaction with the order row locked.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus string) (*StatusUpdateResult, error) {
	if err := validateOrderStatus(newStatus); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if !canTransition(string(order.Status), newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, newStatus)
	}

	result := &StatusUpdateResult{}

	if newStatus == enum.OrderStatusInProgress || newStatus == enum.OrderStatusCompleted {
		bill, created, err := ensureBill(ctx, store, order)
		if err != nil {
			return nil, err
		}
		result.Bill = &bill
		result.BillCreated = created
	}

	if newStatus == enum.OrderStatusCompleted {
		bill, err := settleBill(ctx, store, *result.Bill)
		if err != nil {
			return nil, err
		}
		result.Bill = &bill

		order, err = store.SettleOrder(ctx, order.ID)
		if err != nil {
			return nil, fmt.Errorf("settle order: %w", err)
		}
	}

	order, err = store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		ID:     order.ID,
		Status: database.OrderStatus(newStatus),
	})
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	result.Order = order

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return result, nil
}

// ensureBill returns the order's bill, creating it from the order's current
// financials if it does not exist yet. A new bill is seeded with a BOOKING
// ledger entry when an advance was already recorded on the order.
func ensureBill(ctx context.Context, store OrderStore, order database.Order) (database.Bill, bool, error) {
	bill, err := store.GetBillByOrder(ctx, order.ID)
	if err == nil {
		return bill, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return database.Bill{}, false, fmt.Errorf("get bill: %w", err)
	}

	total := numericToDecimal(order.TotalAmount)
	advance := numericToDecimal(order.AdvancePaid)
	remaining := total.Sub(advance)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	var history []PaymentEntry
	if advance.GreaterThan(decimal.Zero) {
		history = append(history, PaymentEntry{
			Amount:          advance,
			TotalPaid:       advance,
			RemainingAmount: remaining,
			Status:          billStatusFor(advance, remaining),
			Date:            time.Now(),
			Source:          enum.PaymentSourceBooking,
		})
	}
	historyJSON, err := EncodePaymentHistory(history)
	if err != nil {
		return database.Bill{}, false, err
	}

	bill, err = store.CreateBill(ctx, database.CreateBillParams{
		OrderID:         order.ID,
		TotalAmount:     decimalToNumeric(total),
		PaidAmount:      decimalToNumeric(advance),
		RemainingAmount: decimalToNumeric(remaining),
		Status:          database.BillStatus(billStatusFor(advance, remaining)),
		PaymentHistory:  historyJSON,
	})
	if err != nil {
		return database.Bill{}, false, fmt.Errorf("create bill: %w", err)
	}
	return bill, true, nil
}

// settleBill forces a bill to fully paid. The outstanding balance, if any,
// is recorded as a closing PAYMENT entry so the ledger still adds up.
func settleBill(ctx context.Context, store OrderStore, bill database.Bill) (database.Bill, error) {
	total := numericToDecimal(bill.TotalAmount)
	paid := numericToDecimal(bill.PaidAmount)
	outstanding := total.Sub(paid)

	if outstanding.LessThanOrEqual(decimal.Zero) && bill.Status == database.BillStatusPAID {
		return bill, nil
	}

	history, err := DecodePaymentHistory(bill.PaymentHistory)
	if err != nil {
		return database.Bill{}, err
	}
	if outstanding.GreaterThan(decimal.Zero) {
		history = append(history, PaymentEntry{
			Amount:          outstanding,
			TotalPaid:       total,
			RemainingAmount: decimal.Zero,
			Status:          enum.BillStatusPaid,
			Date:            time.Now(),
			Source:          enum.PaymentSourcePayment,
			Notes:           "settled on completion",
		})
	}
	historyJSON, err := EncodePaymentHistory(history)
	if err != nil {
		return database.Bill{}, err
	}

	updated, err := store.UpdateBill(ctx, database.UpdateBillParams{
		ID:              bill.ID,
		TotalAmount:     decimalToNumeric(total),
		PaidAmount:      decimalToNumeric(total),
		RemainingAmount: decimalToNumeric(decimal.Zero),
		Status:          database.BillStatusPAID,
		PaymentHistory:  historyJSON,
	})
	if err != nil {
		return database.Bill{}, fmt.Errorf("update bill: %w", err)
	}
	return updated, nil
}

// UpdateOrderRequest is the validated input for a full order update. The
// server recomputes all money fields from the components; client-sent totals
// are never trusted.
type UpdateOrderRequest struct {
	CustomerID        string
	SupervisorID      string
	EventDate         string // RFC3339
	Venue             string
	Notes             string
	AdvancePaid       string // cumulative advance excluding AdditionalPayment
	Discount          string
	TransportCost     string
	AdditionalPayment string
	PaymentMethod     string
	PaymentNotes      string
	MealPlans         []MealPlan
	Stalls            []Stall
	Items             []OrderLineRequest
}

// UpdateOrderResult is the reconciled order and bill after a full update.
// Bill is nil when the order has no bill yet.
type UpdateOrderResult struct {
	Order  database.Order
	Items  []database.OrderItem
	Bill   *database.Bill
	Change MealPlanDiff
}

// UpdateOrder applies a full revision of an order: meal plans, stalls,
// catalog items, and money. The order's financials are recomputed through
// the shared projection, and if a bill exists its totals and append-only
// ledger are reconciled in the same transaction:
//
//   - growth of the base advance appends one ledger entry
//   - an additional payment appends one ledger entry
//   - a meal plan change with no money movement appends a zero-amount
//     REVISION entry carrying the change summary
//
// The first entry that ever records money is tagged BOOKING.
func (s *OrderService) UpdateOrder(ctx context.Context, id uuid.UUID, req UpdateOrderRequest) (*UpdateOrderResult, error) {
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return nil, ErrInvalidCustomerID
	}
	supervisorID, err := parseOptionalUUID(req.SupervisorID, ErrInvalidSupervisorID)
	if err != nil {
		return nil, err
	}
	eventDate, err := parseEventDate(req.EventDate)
	if err != nil {
		return nil, err
	}

	baseAdvance, err := parseAmount(req.AdvancePaid)
	if err != nil {
		return nil, err
	}
	discount, err := parseAmount(req.Discount)
	if err != nil {
		return nil, err
	}
	transport, err := parseAmount(req.TransportCost)
	if err != nil {
		return nil, err
	}
	additional, err := parseAmount(req.AdditionalPayment)
	if err != nil {
		return nil, err
	}

	proj, err := ProjectAdjustment(req.MealPlans, transport, discount, req.Stalls, baseAdvance, additional)
	if err != nil {
		return nil, err
	}

	plansJSON, err := EncodeMealPlans(req.MealPlans)
	if err != nil {
		return nil, err
	}
	stallsJSON, err := EncodeStalls(req.Stalls)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if _, err := store.GetCustomer(ctx, customerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}

	prevPlans, err := DecodeMealPlans(order.MealPlans)
	if err != nil {
		return nil, err
	}
	diff := DiffMealPlans(prevPlans, req.MealPlans)

	storedAdvance := numericToDecimal(order.AdvancePaid)

	updated, err := store.UpdateOrderFinancials(ctx, database.UpdateOrderFinancialsParams{
		ID:              order.ID,
		CustomerID:      customerID,
		SupervisorID:    supervisorID,
		EventDate:       eventDate,
		Venue:           textOrNull(req.Venue),
		TotalAmount:     decimalToNumeric(proj.Total),
		AdvancePaid:     decimalToNumeric(proj.Paid),
		RemainingAmount: decimalToNumeric(proj.Remaining),
		Discount:        decimalToNumeric(discount),
		TransportCost:   decimalToNumeric(transport),
		MealPlans:       plansJSON,
		Stalls:          stallsJSON,
		Notes:           textOrNull(req.Notes),
	})
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	if err := store.DeleteOrderItemsByOrder(ctx, order.ID); err != nil {
		return nil, fmt.Errorf("delete order items: %w", err)
	}
	items, err := insertOrderItems(ctx, store, order.ID, req.Items)
	if err != nil {
		return nil, err
	}

	result := &UpdateOrderResult{Order: updated, Items: items, Change: diff}

	bill, err := store.GetBillByOrder(ctx, order.ID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// No bill yet: the order's own financials are the whole story.
	case err != nil:
		return nil, fmt.Errorf("get bill: %w", err)
	default:
		reconciled, err := reconcileBill(ctx, store, bill, reconcileInput{
			proj:          proj,
			baseAdvance:   baseAdvance,
			advanceDelta:  baseAdvance.Sub(storedAdvance),
			additional:    additional,
			paymentMethod: req.PaymentMethod,
			paymentNotes:  req.PaymentNotes,
			diff:          diff,
		})
		if err != nil {
			return nil, err
		}
		result.Bill = &reconciled
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return result, nil
}

type reconcileInput struct {
	proj          Projection
	baseAdvance   decimal.Decimal
	advanceDelta  decimal.Decimal
	additional    decimal.Decimal
	paymentMethod string
	paymentNotes  string
	diff          MealPlanDiff
}

// reconcileBill brings an existing bill in line with the revised order,
// appending ledger entries for any money that moved. Re-submitting the same
// revision appends nothing.
func reconcileBill(ctx context.Context, store OrderStore, bill database.Bill, in reconcileInput) (database.Bill, error) {
	history, err := DecodePaymentHistory(bill.PaymentHistory)
	if err != nil {
		return database.Bill{}, err
	}

	firstMoney := true
	for _, e := range history {
		if e.Amount.GreaterThan(decimal.Zero) {
			firstMoney = false
			break
		}
	}

	now := time.Now()
	appended := false

	if in.advanceDelta.GreaterThan(decimal.Zero) {
		source := enum.PaymentSourceRevision
		if firstMoney {
			source = enum.PaymentSourceBooking
			firstMoney = false
		}
		interRemaining := in.proj.Total.Sub(in.baseAdvance)
		if interRemaining.IsNegative() {
			interRemaining = decimal.Zero
		}
		entry := PaymentEntry{
			Amount:          in.advanceDelta,
			TotalPaid:       in.baseAdvance,
			RemainingAmount: interRemaining,
			Status:          billStatusFor(in.baseAdvance, interRemaining),
			Date:            now,
			Source:          source,
			Method:          in.paymentMethod,
		}
		if in.diff.Changed {
			entry.Notes = in.diff.Summary
			members := in.diff.MembersChanged
			priceChange := in.diff.TotalPriceChange
			entry.MembersChanged = &members
			entry.TotalPriceChange = &priceChange
		}
		history = append(history, entry)
		appended = true
	}

	if in.additional.GreaterThan(decimal.Zero) {
		source := enum.PaymentSourcePayment
		if firstMoney {
			source = enum.PaymentSourceBooking
		}
		history = append(history, PaymentEntry{
			Amount:          in.additional,
			TotalPaid:       in.proj.Paid,
			RemainingAmount: in.proj.Remaining,
			Status:          billStatusFor(in.proj.Paid, in.proj.Remaining),
			Date:            now,
			Source:          source,
			Method:          in.paymentMethod,
			Notes:           in.paymentNotes,
		})
		appended = true
	}

	if !appended && in.diff.Changed {
		members := in.diff.MembersChanged
		priceChange := in.diff.TotalPriceChange
		history = append(history, PaymentEntry{
			Amount:           decimal.Zero,
			TotalPaid:        in.proj.Paid,
			RemainingAmount:  in.proj.Remaining,
			Status:           billStatusFor(in.proj.Paid, in.proj.Remaining),
			Date:             now,
			Source:           enum.PaymentSourceRevision,
			Notes:            in.diff.Summary,
			MembersChanged:   &members,
			TotalPriceChange: &priceChange,
		})
	}

	historyJSON, err := EncodePaymentHistory(history)
	if err != nil {
		return database.Bill{}, err
	}

	updated, err := store.UpdateBill(ctx, database.UpdateBillParams{
		ID:              bill.ID,
		TotalAmount:     decimalToNumeric(in.proj.Total),
		PaidAmount:      decimalToNumeric(in.proj.Paid),
		RemainingAmount: decimalToNumeric(in.proj.Remaining),
		Status:          database.BillStatus(billStatusFor(in.proj.Paid, in.proj.Remaining)),
		PaymentHistory:  historyJSON,
	})
	if err != nil {
		return database.Bill{}, fmt.Errorf("update bill: %w", err)
	}
	return updated, nil
}
