package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/annapurna-catering/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// --- Test fixtures ---

// pendingOrder returns a PENDING order with the given money fields.
func pendingOrder(id uuid.UUID, total, advance, remaining string) database.Order {
	plans, _ := EncodeMealPlans([]MealPlan{lunchPlan(total, 100)})
	return database.Order{
		ID:              id,
		CustomerID:      uuid.New(),
		Status:          database.OrderStatusPENDING,
		TotalAmount:     makeNumeric(total),
		AdvancePaid:     makeNumeric(advance),
		RemainingAmount: makeNumeric(remaining),
		Discount:        makeNumeric("0"),
		TransportCost:   makeNumeric("0"),
		MealPlans:       plans,
		Stalls:          []byte("[]"),
		CreatedBy:       uuid.New(),
	}
}

func makeBill(orderID uuid.UUID, total, paid, remaining string, status database.BillStatus, history []PaymentEntry) database.Bill {
	raw, _ := EncodePaymentHistory(history)
	return database.Bill{
		ID:              uuid.New(),
		OrderID:         orderID,
		TotalAmount:     makeNumeric(total),
		PaidAmount:      makeNumeric(paid),
		RemainingAmount: makeNumeric(remaining),
		Status:          status,
		PaymentHistory:  raw,
	}
}

// statusStore wires a mockOrderStore for status transition tests around a
// single order, recording bill writes as they happen.
type statusStore struct {
	*mockOrderStore
	order         database.Order
	createdBill   *database.CreateBillParams
	updatedBill   *database.UpdateBillParams
	settledOrder  bool
	statusWritten database.OrderStatus
}

func newStatusStore(order database.Order, bill *database.Bill) *statusStore {
	s := &statusStore{mockOrderStore: defaultStore(order.CustomerID, uuid.New()), order: order}
	s.getOrderForUpdateFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		if id == order.ID {
			return s.order, nil
		}
		return database.Order{}, pgx.ErrNoRows
	}
	s.getBillByOrderFn = func(ctx context.Context, orderID uuid.UUID) (database.Bill, error) {
		if bill != nil && orderID == order.ID {
			return *bill, nil
		}
		return database.Bill{}, pgx.ErrNoRows
	}
	s.createBillFn = func(ctx context.Context, arg database.CreateBillParams) (database.Bill, error) {
		s.createdBill = &arg
		return database.Bill{
			ID:              uuid.New(),
			OrderID:         arg.OrderID,
			TotalAmount:     arg.TotalAmount,
			PaidAmount:      arg.PaidAmount,
			RemainingAmount: arg.RemainingAmount,
			Status:          arg.Status,
			PaymentHistory:  arg.PaymentHistory,
		}, nil
	}
	s.updateBillFn = func(ctx context.Context, arg database.UpdateBillParams) (database.Bill, error) {
		s.updatedBill = &arg
		out := database.Bill{
			ID:              arg.ID,
			OrderID:         order.ID,
			TotalAmount:     arg.TotalAmount,
			PaidAmount:      arg.PaidAmount,
			RemainingAmount: arg.RemainingAmount,
			Status:          arg.Status,
			PaymentHistory:  arg.PaymentHistory,
		}
		return out, nil
	}
	s.settleOrderFn = func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		s.settledOrder = true
		s.order.AdvancePaid = s.order.TotalAmount
		s.order.RemainingAmount = makeNumeric("0")
		return s.order, nil
	}
	s.updateOrderStatusFn = func(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error) {
		s.statusWritten = arg.Status
		s.order.Status = arg.Status
		return s.order, nil
	}
	return s
}

// =====================
// Status transition tests
// =====================

func TestUpdateStatus_OrderNotFound(t *testing.T) {
	store := newStatusStore(pendingOrder(uuid.New(), "10000", "0", "10000"), nil)
	svc, _ := newTestService(store.mockOrderStore)

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), "IN_PROGRESS")
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got: %v", err)
	}
}

func TestUpdateStatus_InvalidStatus(t *testing.T) {
	store := newStatusStore(pendingOrder(uuid.New(), "10000", "0", "10000"), nil)
	svc, _ := newTestService(store.mockOrderStore)

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), "SHIPPED")
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got: %v", err)
	}
}

func TestUpdateStatus_CompletedCannotReopen(t *testing.T) {
	orderID := uuid.New()
	order := pendingOrder(orderID, "10000", "10000", "0")
	order.Status = database.OrderStatusCOMPLETED
	store := newStatusStore(order, nil)
	svc, _ := newTestService(store.mockOrderStore)

	_, err := svc.UpdateStatus(context.Background(), orderID, "PENDING")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got: %v", err)
	}
}

func TestUpdateStatus_CancelledIsTerminal(t *testing.T) {
	orderID := uuid.New()
	order := pendingOrder(orderID, "10000", "0", "10000")
	order.Status = database.OrderStatusCANCELLED
	store := newStatusStore(order, nil)
	svc, _ := newTestService(store.mockOrderStore)

	_, err := svc.UpdateStatus(context.Background(), orderID, "IN_PROGRESS")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got: %v", err)
	}
}

func TestUpdateStatus_InProgressCreatesBillWithBookingEntry(t *testing.T) {
	orderID := uuid.New()
	store := newStatusStore(pendingOrder(orderID, "10000", "2000", "8000"), nil)
	svc, _ := newTestService(store.mockOrderStore)

	result, err := svc.UpdateStatus(context.Background(), orderID, "IN_PROGRESS")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.BillCreated {
		t.Error("expected BillCreated")
	}
	if store.createdBill == nil {
		t.Fatal("expected CreateBill call")
	}
	if !numericEquals(store.createdBill.TotalAmount, "10000.00") {
		t.Errorf("bill total: got %v, want 10000.00", numericToDecimal(store.createdBill.TotalAmount))
	}
	if !numericEquals(store.createdBill.PaidAmount, "2000.00") {
		t.Errorf("bill paid: got %v, want 2000.00", numericToDecimal(store.createdBill.PaidAmount))
	}
	if !numericEquals(store.createdBill.RemainingAmount, "8000.00") {
		t.Errorf("bill remaining: got %v, want 8000.00", numericToDecimal(store.createdBill.RemainingAmount))
	}
	if store.createdBill.Status != database.BillStatusPARTIAL {
		t.Errorf("bill status: got %v, want PARTIAL", store.createdBill.Status)
	}

	history, err := DecodePaymentHistory(store.createdBill.PaymentHistory)
	if err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 seed entry, got %d", len(history))
	}
	entry := history[0]
	if entry.Source != "BOOKING" {
		t.Errorf("seed source: got %v, want BOOKING", entry.Source)
	}
	if !entry.Amount.Equal(dec("2000")) {
		t.Errorf("seed amount: got %v, want 2000", entry.Amount)
	}
	if !entry.TotalPaid.Equal(dec("2000")) || !entry.RemainingAmount.Equal(dec("8000")) {
		t.Errorf("seed running totals: paid %v remaining %v", entry.TotalPaid, entry.RemainingAmount)
	}
}

func TestUpdateStatus_InProgressNoAdvanceEmptyLedger(t *testing.T) {
	orderID := uuid.New()
	store := newStatusStore(pendingOrder(orderID, "10000", "0", "10000"), nil)
	svc, _ := newTestService(store.mockOrderStore)

	_, err := svc.UpdateStatus(context.Background(), orderID, "IN_PROGRESS")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.createdBill == nil {
		t.Fatal("expected CreateBill call")
	}
	if store.createdBill.Status != database.BillStatusPENDING {
		t.Errorf("bill status: got %v, want PENDING", store.createdBill.Status)
	}
	history, _ := DecodePaymentHistory(store.createdBill.PaymentHistory)
	if len(history) != 0 {
		t.Errorf("expected empty ledger without advance, got %d entries", len(history))
	}
}

func TestUpdateStatus_ExistingBillNotDuplicated(t *testing.T) {
	orderID := uuid.New()
	order := pendingOrder(orderID, "10000", "2000", "8000")
	order.Status = database.OrderStatusINPROGRESS
	bill := makeBill(orderID, "10000", "2000", "8000", database.BillStatusPARTIAL, []PaymentEntry{
		{Amount: dec("2000"), TotalPaid: dec("2000"), RemainingAmount: dec("8000"), Status: "PARTIAL", Source: "BOOKING"},
	})
	store := newStatusStore(order, &bill)
	svc, _ := newTestService(store.mockOrderStore)

	// Re-submitting the current status must not create a second bill.
	result, err := svc.UpdateStatus(context.Background(), orderID, "IN_PROGRESS")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.BillCreated {
		t.Error("bill must not be re-created")
	}
	if store.createdBill != nil {
		t.Error("unexpected CreateBill call")
	}
}

func TestUpdateStatus_CompletedForcesSettlement(t *testing.T) {
	orderID := uuid.New()
	order := pendingOrder(orderID, "10000", "5000", "5000")
	order.Status = database.OrderStatusINPROGRESS
	bill := makeBill(orderID, "10000", "5000", "5000", database.BillStatusPARTIAL, []PaymentEntry{
		{Amount: dec("5000"), TotalPaid: dec("5000"), RemainingAmount: dec("5000"), Status: "PARTIAL", Source: "BOOKING"},
	})
	store := newStatusStore(order, &bill)
	svc, _ := newTestService(store.mockOrderStore)

	result, err := svc.UpdateStatus(context.Background(), orderID, "COMPLETED")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.updatedBill == nil {
		t.Fatal("expected UpdateBill call")
	}
	if store.updatedBill.Status != database.BillStatusPAID {
		t.Errorf("bill status: got %v, want PAID", store.updatedBill.Status)
	}
	if !numericEquals(store.updatedBill.PaidAmount, "10000.00") {
		t.Errorf("bill paid: got %v, want 10000.00", numericToDecimal(store.updatedBill.PaidAmount))
	}
	if !numericEquals(store.updatedBill.RemainingAmount, "0.00") {
		t.Errorf("bill remaining: got %v, want 0.00", numericToDecimal(store.updatedBill.RemainingAmount))
	}

	history, _ := DecodePaymentHistory(store.updatedBill.PaymentHistory)
	if len(history) != 2 {
		t.Fatalf("expected 2 entries (booking + settlement), got %d", len(history))
	}
	closing := history[1]
	if closing.Source != "PAYMENT" {
		t.Errorf("closing source: got %v, want PAYMENT", closing.Source)
	}
	if !closing.Amount.Equal(dec("5000")) {
		t.Errorf("closing amount: got %v, want 5000", closing.Amount)
	}
	if !closing.RemainingAmount.IsZero() {
		t.Errorf("closing remaining: got %v, want 0", closing.RemainingAmount)
	}

	if !store.settledOrder {
		t.Error("expected order financials settled")
	}
	if result.Order.Status != database.OrderStatusCOMPLETED {
		t.Errorf("order status: got %v, want COMPLETED", result.Order.Status)
	}
}

func TestUpdateStatus_CompletedFromPendingCreatesAndSettles(t *testing.T) {
	orderID := uuid.New()
	store := newStatusStore(pendingOrder(orderID, "10000", "2000", "8000"), nil)
	svc, _ := newTestService(store.mockOrderStore)

	result, err := svc.UpdateStatus(context.Background(), orderID, "COMPLETED")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.BillCreated {
		t.Error("expected bill created on the way to COMPLETED")
	}
	if store.updatedBill == nil || store.updatedBill.Status != database.BillStatusPAID {
		t.Fatal("expected bill settled to PAID")
	}
	history, _ := DecodePaymentHistory(store.updatedBill.PaymentHistory)
	// booking seed (2000) + settlement (8000)
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if !history[1].Amount.Equal(dec("8000")) {
		t.Errorf("settlement amount: got %v, want 8000", history[1].Amount)
	}
}

func TestUpdateStatus_CompletedResubmitAppendsNothing(t *testing.T) {
	orderID := uuid.New()
	order := pendingOrder(orderID, "10000", "10000", "0")
	order.Status = database.OrderStatusCOMPLETED
	bill := makeBill(orderID, "10000", "10000", "0", database.BillStatusPAID, []PaymentEntry{
		{Amount: dec("10000"), TotalPaid: dec("10000"), RemainingAmount: dec("0"), Status: "PAID", Source: "BOOKING"},
	})
	store := newStatusStore(order, &bill)
	svc, _ := newTestService(store.mockOrderStore)

	result, err := svc.UpdateStatus(context.Background(), orderID, "COMPLETED")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.BillCreated {
		t.Error("bill must not be re-created")
	}
	if store.updatedBill != nil {
		t.Error("fully settled bill must not be rewritten")
	}
}

// =====================
// Full update reconciliation tests
// =====================

// updateStore wires a mockOrderStore for full-update tests.
type updateStore struct {
	*statusStore
	financials *database.UpdateOrderFinancialsParams
}

func newUpdateStore(order database.Order, bill *database.Bill) *updateStore {
	u := &updateStore{statusStore: newStatusStore(order, bill)}
	u.getCustomerFn = func(ctx context.Context, id uuid.UUID) (database.Customer, error) {
		return database.Customer{ID: id, Name: "Sharma Family"}, nil
	}
	u.updateOrderFinancialsFn = func(ctx context.Context, arg database.UpdateOrderFinancialsParams) (database.Order, error) {
		u.financials = &arg
		o := u.order
		o.TotalAmount = arg.TotalAmount
		o.AdvancePaid = arg.AdvancePaid
		o.RemainingAmount = arg.RemainingAmount
		o.MealPlans = arg.MealPlans
		o.Stalls = arg.Stalls
		u.order = o
		return o, nil
	}
	return u
}

func baseUpdateReq(customerID uuid.UUID, advance string, plans []MealPlan) UpdateOrderRequest {
	return UpdateOrderRequest{
		CustomerID:  customerID.String(),
		AdvancePaid: advance,
		MealPlans:   plans,
	}
}

func TestUpdateOrder_AdditionalPaymentAppendsEntry(t *testing.T) {
	orderID := uuid.New()
	order := pendingOrder(orderID, "10000", "2000", "8000")
	order.Status = database.OrderStatusINPROGRESS
	bill := makeBill(orderID, "10000", "2000", "8000", database.BillStatusPARTIAL, []PaymentEntry{
		{Amount: dec("2000"), TotalPaid: dec("2000"), RemainingAmount: dec("8000"), Status: "PARTIAL", Source: "BOOKING"},
	})
	store := newUpdateStore(order, &bill)
	svc, _ := newTestService(store.mockOrderStore)

	req := baseUpdateReq(order.CustomerID, "2000", []MealPlan{lunchPlan("10000", 100)})
	req.AdditionalPayment = "3000"
	req.PaymentMethod = "UPI"
	req.PaymentNotes = "second instalment"

	result, err := svc.UpdateOrder(context.Background(), orderID, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.updatedBill == nil {
		t.Fatal("expected UpdateBill call")
	}
	if !numericEquals(store.updatedBill.PaidAmount, "5000.00") {
		t.Errorf("bill paid: got %v, want 5000.00", numericToDecimal(store.updatedBill.PaidAmount))
	}
	if !numericEquals(store.updatedBill.RemainingAmount, "5000.00") {
		t.Errorf("bill remaining: got %v, want 5000.00", numericToDecimal(store.updatedBill.RemainingAmount))
	}
	if store.updatedBill.Status != database.BillStatusPARTIAL {
		t.Errorf("bill status: got %v, want PARTIAL", store.updatedBill.Status)
	}

	history, _ := DecodePaymentHistory(store.updatedBill.PaymentHistory)
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	entry := history[1]
	if entry.Source != "PAYMENT" {
		t.Errorf("entry source: got %v, want PAYMENT", entry.Source)
	}
	if !entry.Amount.Equal(dec("3000")) {
		t.Errorf("entry amount: got %v, want 3000", entry.Amount)
	}
	if entry.Method != "UPI" {
		t.Errorf("entry method: got %v, want UPI", entry.Method)
	}
	if !entry.TotalPaid.Equal(dec("5000")) || !entry.RemainingAmount.Equal(dec("5000")) {
		t.Errorf("running totals: paid %v remaining %v", entry.TotalPaid, entry.RemainingAmount)
	}

	// order mirrors the bill
	if result.Order.ID != orderID {
		t.Errorf("order id: got %v", result.Order.ID)
	}
	if !numericEquals(store.financials.AdvancePaid, "5000.00") {
		t.Errorf("order advance: got %v, want 5000.00", numericToDecimal(store.financials.AdvancePaid))
	}
}

func TestUpdateOrder_AdvanceGrowthTaggedRevision(t *testing.T) {
	orderID := uuid.New()
	order := pendingOrder(orderID, "10000", "2000", "8000")
	order.Status = database.OrderStatusINPROGRESS
	bill := makeBill(orderID, "10000", "2000", "8000", database.BillStatusPARTIAL, []PaymentEntry{
		{Amount: dec("2000"), TotalPaid: dec("2000"), RemainingAmount: dec("8000"), Status: "PARTIAL", Source: "BOOKING"},
	})
	store := newUpdateStore(order, &bill)
	svc, _ := newTestService(store.mockOrderStore)

	// base advance grows 2000 -> 4500
	req := baseUpdateReq(order.CustomerID, "4500", []MealPlan{lunchPlan("10000", 100)})

	_, err := svc.UpdateOrder(context.Background(), orderID, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	history, _ := DecodePaymentHistory(store.updatedBill.PaymentHistory)
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	entry := history[1]
	if entry.Source != "REVISION" {
		t.Errorf("entry source: got %v, want REVISION", entry.Source)
	}
	if !entry.Amount.Equal(dec("2500")) {
		t.Errorf("entry amount: got %v, want 2500", entry.Amount)
	}
	if !entry.TotalPaid.Equal(dec("4500")) || !entry.RemainingAmount.Equal(dec("5500")) {
		t.Errorf("running totals: paid %v remaining %v", entry.TotalPaid, entry.RemainingAmount)
	}
}

func TestUpdateOrder_FirstMoneyTaggedBooking(t *testing.T) {
	orderID := uuid.New()
	order := pendingOrder(orderID, "10000", "0", "10000")
	order.Status = database.OrderStatusINPROGRESS
	bill := makeBill(orderID, "10000", "0", "10000", database.BillStatusPENDING, nil)
	store := newUpdateStore(order, &bill)
	svc, _ := newTestService(store.mockOrderStore)

	req := baseUpdateReq(order.CustomerID, "2000", []MealPlan{lunchPlan("10000", 100)})

	_, err := svc.UpdateOrder(context.Background(), orderID, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	history, _ := DecodePaymentHistory(store.updatedBill.PaymentHistory)
	if len(history) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(history))
	}
	if history[0].Source != "BOOKING" {
		t.Errorf("first money source: got %v, want BOOKING", history[0].Source)
	}
}

func TestUpdateOrder_MealChangeZeroAmountRevision(t *testing.T) {
	orderID := uuid.New()
	prev := []MealPlan{{MealType: "LUNCH", PricingMethod: "MANUAL", ManualAmount: dec("10000"), Members: 100}}
	order := pendingOrder(orderID, "10000", "2000", "8000")
	order.MealPlans, _ = EncodeMealPlans(prev)
	order.Status = database.OrderStatusINPROGRESS
	bill := makeBill(orderID, "10000", "2000", "8000", database.BillStatusPARTIAL, []PaymentEntry{
		{Amount: dec("2000"), TotalPaid: dec("2000"), RemainingAmount: dec("8000"), Status: "PARTIAL", Source: "BOOKING"},
	})
	store := newUpdateStore(order, &bill)
	svc, _ := newTestService(store.mockOrderStore)

	// members 100 -> 120, price unchanged, no money moved
	next := []MealPlan{{MealType: "LUNCH", PricingMethod: "MANUAL", ManualAmount: dec("10000"), Members: 120}}
	req := baseUpdateReq(order.CustomerID, "2000", next)

	result, err := svc.UpdateOrder(context.Background(), orderID, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	history, _ := DecodePaymentHistory(store.updatedBill.PaymentHistory)
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	entry := history[1]
	if !entry.Amount.IsZero() {
		t.Errorf("entry amount: got %v, want 0", entry.Amount)
	}
	if entry.Source != "REVISION" {
		t.Errorf("entry source: got %v, want REVISION", entry.Source)
	}
	if entry.MembersChanged == nil || *entry.MembersChanged != 20 {
		t.Errorf("members_changed: got %v, want 20", entry.MembersChanged)
	}
	if entry.TotalPriceChange == nil || !entry.TotalPriceChange.IsZero() {
		t.Errorf("total_price_change: got %v, want 0", entry.TotalPriceChange)
	}
	if !strings.Contains(entry.Notes, "100 -> 120") {
		t.Errorf("entry notes missing member change: %q", entry.Notes)
	}
	if !result.Change.Changed {
		t.Error("expected change summary")
	}
}

func TestUpdateOrder_IdenticalResubmissionAppendsNothing(t *testing.T) {
	orderID := uuid.New()
	plans := []MealPlan{lunchPlan("10000", 100)}
	order := pendingOrder(orderID, "10000", "2000", "8000")
	order.MealPlans, _ = EncodeMealPlans(plans)
	order.Status = database.OrderStatusINPROGRESS
	bill := makeBill(orderID, "10000", "2000", "8000", database.BillStatusPARTIAL, []PaymentEntry{
		{Amount: dec("2000"), TotalPaid: dec("2000"), RemainingAmount: dec("8000"), Status: "PARTIAL", Source: "BOOKING"},
	})
	store := newUpdateStore(order, &bill)
	svc, _ := newTestService(store.mockOrderStore)

	req := baseUpdateReq(order.CustomerID, "2000", plans)

	_, err := svc.UpdateOrder(context.Background(), orderID, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	history, _ := DecodePaymentHistory(store.updatedBill.PaymentHistory)
	if len(history) != 1 {
		t.Fatalf("identical resubmission appended entries: got %d, want 1", len(history))
	}
	if !numericEquals(store.updatedBill.PaidAmount, "2000.00") {
		t.Errorf("bill paid: got %v, want 2000.00", numericToDecimal(store.updatedBill.PaidAmount))
	}
}

func TestUpdateOrder_NoBillSkipsLedger(t *testing.T) {
	orderID := uuid.New()
	order := pendingOrder(orderID, "10000", "2000", "8000")
	store := newUpdateStore(order, nil)
	svc, _ := newTestService(store.mockOrderStore)

	req := baseUpdateReq(order.CustomerID, "3000", []MealPlan{lunchPlan("10000", 100)})

	result, err := svc.UpdateOrder(context.Background(), orderID, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Bill != nil {
		t.Error("expected no bill for a PENDING order")
	}
	if store.updatedBill != nil || store.createdBill != nil {
		t.Error("no bill writes expected")
	}
	if !numericEquals(store.financials.AdvancePaid, "3000.00") {
		t.Errorf("order advance: got %v, want 3000.00", numericToDecimal(store.financials.AdvancePaid))
	}
}

func TestUpdateOrder_PaymentExceedsRemaining(t *testing.T) {
	orderID := uuid.New()
	order := pendingOrder(orderID, "10000", "2000", "8000")
	store := newUpdateStore(order, nil)
	svc, _ := newTestService(store.mockOrderStore)

	req := baseUpdateReq(order.CustomerID, "2000", []MealPlan{lunchPlan("10000", 100)})
	req.AdditionalPayment = "9000" // only 8000 remains

	_, err := svc.UpdateOrder(context.Background(), orderID, req)
	if !errors.Is(err, ErrPaymentExceedsRemaining) {
		t.Fatalf("expected ErrPaymentExceedsRemaining, got: %v", err)
	}
}

func TestUpdateOrder_TotalChangeWithoutMealChange(t *testing.T) {
	orderID := uuid.New()
	plans := []MealPlan{lunchPlan("10000", 100)}
	order := pendingOrder(orderID, "10000", "2000", "8000")
	order.MealPlans, _ = EncodeMealPlans(plans)
	order.Status = database.OrderStatusINPROGRESS
	bill := makeBill(orderID, "10000", "2000", "8000", database.BillStatusPARTIAL, []PaymentEntry{
		{Amount: dec("2000"), TotalPaid: dec("2000"), RemainingAmount: dec("8000"), Status: "PARTIAL", Source: "BOOKING"},
	})
	store := newUpdateStore(order, &bill)
	svc, _ := newTestService(store.mockOrderStore)

	// transport added; plans untouched, no money moved
	req := baseUpdateReq(order.CustomerID, "2000", plans)
	req.TransportCost = "1500"

	_, err := svc.UpdateOrder(context.Background(), orderID, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// bill totals track the new order total even without a ledger entry
	if !numericEquals(store.updatedBill.TotalAmount, "11500.00") {
		t.Errorf("bill total: got %v, want 11500.00", numericToDecimal(store.updatedBill.TotalAmount))
	}
	if !numericEquals(store.updatedBill.RemainingAmount, "9500.00") {
		t.Errorf("bill remaining: got %v, want 9500.00", numericToDecimal(store.updatedBill.RemainingAmount))
	}
	history, _ := DecodePaymentHistory(store.updatedBill.PaymentHistory)
	if len(history) != 1 {
		t.Errorf("expected no new entries, got %d", len(history))
	}
}
