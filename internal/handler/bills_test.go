package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/annapurna-catering/api/internal/database"
	"github.com/annapurna-catering/api/internal/handler"
	"github.com/annapurna-catering/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type mockBillStore struct {
	bills     map[uuid.UUID]database.Bill
	orders    map[uuid.UUID]database.Order
	customers map[uuid.UUID]database.Customer
}

func newMockBillStore() *mockBillStore {
	return &mockBillStore{
		bills:     make(map[uuid.UUID]database.Bill),
		orders:    make(map[uuid.UUID]database.Order),
		customers: make(map[uuid.UUID]database.Customer),
	}
}

func (m *mockBillStore) GetBill(_ context.Context, id uuid.UUID) (database.Bill, error) {
	b, ok := m.bills[id]
	if !ok {
		return database.Bill{}, pgx.ErrNoRows
	}
	return b, nil
}

func (m *mockBillStore) GetBillByOrder(_ context.Context, orderID uuid.UUID) (database.Bill, error) {
	for _, b := range m.bills {
		if b.OrderID == orderID {
			return b, nil
		}
	}
	return database.Bill{}, pgx.ErrNoRows
}

func (m *mockBillStore) ListBills(_ context.Context, arg database.ListBillsParams) ([]database.Bill, error) {
	var out []database.Bill
	for _, b := range m.bills {
		if arg.Status.Valid && string(b.Status) != arg.Status.String {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (m *mockBillStore) GetOrder(_ context.Context, id uuid.UUID) (database.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (m *mockBillStore) GetCustomer(_ context.Context, id uuid.UUID) (database.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return database.Customer{}, pgx.ErrNoRows
	}
	return c, nil
}

func setupBillRouter(store *mockBillStore) *chi.Mux {
	h := handler.NewBillHandler(store)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Route("/bills", h.RegisterRoutes)
	return r
}

func seedBill(t *testing.T, store *mockBillStore, history string) database.Bill {
	t.Helper()
	order := testOrder(t, uuid.New(), database.OrderStatusINPROGRESS)
	store.orders[order.ID] = order
	store.customers[order.CustomerID] = database.Customer{ID: order.CustomerID, Name: "Iyer Wedding"}

	bill := database.Bill{
		ID:              uuid.New(),
		OrderID:         order.ID,
		TotalAmount:     testNumeric(t, "10000.00"),
		PaidAmount:      testNumeric(t, "4000.00"),
		RemainingAmount: testNumeric(t, "6000.00"),
		Status:          database.BillStatusPARTIAL,
		PaymentHistory:  []byte(history),
	}
	store.bills[bill.ID] = bill
	return bill
}

func TestBillGet(t *testing.T) {
	store := newMockBillStore()
	bill := seedBill(t, store, `[]`)
	router := setupBillRouter(store)

	req := authedRequest(t, http.MethodGet, "/bills/"+bill.ID.String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	resp := decodeBody(t, rr)
	if resp["status"] != "PARTIAL" {
		t.Errorf("expected status PARTIAL, got %v", resp["status"])
	}
	if resp["remaining_amount"] != "6000.00" {
		t.Errorf("expected remaining 6000.00, got %v", resp["remaining_amount"])
	}
	customer, ok := resp["customer"].(map[string]interface{})
	if !ok || customer["name"] != "Iyer Wedding" {
		t.Errorf("expected embedded customer, got %v", resp["customer"])
	}
}

func TestBillGetByOrderID(t *testing.T) {
	store := newMockBillStore()
	bill := seedBill(t, store, `[]`)
	router := setupBillRouter(store)

	req := authedRequest(t, http.MethodGet, "/bills/"+bill.OrderID.String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 via order ID lookup, got %d", rr.Code)
	}

	resp := decodeBody(t, rr)
	if resp["id"] != bill.ID.String() {
		t.Errorf("expected bill %s, got %v", bill.ID, resp["id"])
	}
}

func TestBillGetNotFound(t *testing.T) {
	router := setupBillRouter(newMockBillStore())

	req := authedRequest(t, http.MethodGet, "/bills/"+uuid.New().String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestBillLedger(t *testing.T) {
	store := newMockBillStore()
	history := `[
		{"amount":"2000","total_paid":"2000","remaining_amount":"8000","status":"PARTIAL","date":"2026-03-01T10:00:00Z","source":"BOOKING"},
		{"amount":"2000","total_paid":"4000","remaining_amount":"6000","status":"PARTIAL","date":"2026-03-10T10:00:00Z","source":"PAYMENT","method":"UPI"}
	]`
	bill := seedBill(t, store, history)
	router := setupBillRouter(store)

	req := authedRequest(t, http.MethodGet, "/bills/"+bill.ID.String()+"/ledger", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	resp := decodeBody(t, rr)
	if resp["bill_id"] != bill.ID.String() {
		t.Errorf("expected bill_id %s, got %v", bill.ID, resp["bill_id"])
	}
	entries, ok := resp["entries"].([]interface{})
	if !ok || len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %v", resp["entries"])
	}
	first := entries[0].(map[string]interface{})
	if first["source"] != "BOOKING" {
		t.Errorf("expected first entry source BOOKING, got %v", first["source"])
	}
	second := entries[1].(map[string]interface{})
	if second["method"] != "UPI" {
		t.Errorf("expected second entry method UPI, got %v", second["method"])
	}
}

func TestBillLedgerEmptyHistory(t *testing.T) {
	store := newMockBillStore()
	bill := seedBill(t, store, `[]`)
	router := setupBillRouter(store)

	req := authedRequest(t, http.MethodGet, "/bills/"+bill.ID.String()+"/ledger", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	resp := decodeBody(t, rr)
	entries, ok := resp["entries"].([]interface{})
	if !ok {
		t.Fatalf("expected entries array, got %v", resp["entries"])
	}
	if len(entries) != 0 {
		t.Errorf("expected empty ledger, got %d entries", len(entries))
	}
}

func TestBillListFilterByStatus(t *testing.T) {
	store := newMockBillStore()
	seedBill(t, store, `[]`)
	settled := seedBill(t, store, `[]`)
	settled.Status = database.BillStatusPAID
	store.bills[settled.ID] = settled
	router := setupBillRouter(store)

	req := authedRequest(t, http.MethodGet, "/bills?status=PAID", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp []map[string]interface{}
	decodeInto(t, rr, &resp)
	if len(resp) != 1 {
		t.Fatalf("expected 1 PAID bill, got %d", len(resp))
	}
	if resp[0]["status"] != "PAID" {
		t.Errorf("expected PAID, got %v", resp[0]["status"])
	}
}
