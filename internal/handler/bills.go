package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/annapurna-catering/api/internal/database"
	"github.com/annapurna-catering/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// BillStore is satisfied by *database.Queries.
type BillStore interface {
	GetBill(ctx context.Context, id uuid.UUID) (database.Bill, error)
	GetBillByOrder(ctx context.Context, orderID uuid.UUID) (database.Bill, error)
	ListBills(ctx context.Context, arg database.ListBillsParams) ([]database.Bill, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error)
}

// BillHandler serves the read side of billing. Bills are written only by
// the order reconciliation paths; there is no bill write endpoint.
type BillHandler struct {
	store BillStore
}

// NewBillHandler creates a new BillHandler.
func NewBillHandler(store BillStore) *BillHandler {
	return &BillHandler{store: store}
}

// RegisterRoutes registers bill endpoints on the given Chi router.
func (h *BillHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/ledger", h.Ledger)
}

type billDetailResponse struct {
	billResponse
	Customer *customerResponse `json:"customer,omitempty"`
}

type ledgerResponse struct {
	BillID  uuid.UUID              `json:"bill_id"`
	OrderID uuid.UUID              `json:"order_id"`
	Entries []service.PaymentEntry `json:"entries"`
}

// List returns bills, optionally filtered by status.
func (h *BillHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	var status pgtype.Text
	if s := r.URL.Query().Get("status"); s != "" {
		status = pgtype.Text{String: s, Valid: true}
	}

	bills, err := h.store.ListBills(r.Context(), database.ListBillsParams{
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		log.Printf("ERROR: list bills: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]billResponse, len(bills))
	for i, b := range bills {
		resp[i] = dbBillToResponse(b)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a bill with the customer it belongs to.
func (h *BillHandler) Get(w http.ResponseWriter, r *http.Request) {
	bill, ok := h.lookupBill(w, r)
	if !ok {
		return
	}

	detail := billDetailResponse{billResponse: dbBillToResponse(bill)}
	if order, err := h.store.GetOrder(r.Context(), bill.OrderID); err == nil {
		if customer, err := h.store.GetCustomer(r.Context(), order.CustomerID); err == nil {
			c := toCustomerResponse(customer)
			detail.Customer = &c
		}
	}

	writeJSON(w, http.StatusOK, detail)
}

// Ledger returns a bill's payment history as typed entries.
func (h *BillHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	bill, ok := h.lookupBill(w, r)
	if !ok {
		return
	}

	entries, err := service.DecodePaymentHistory(bill.PaymentHistory)
	if err != nil {
		log.Printf("ERROR: decode payment history for bill %s: %v", bill.ID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if entries == nil {
		entries = []service.PaymentEntry{}
	}

	writeJSON(w, http.StatusOK, ledgerResponse{
		BillID:  bill.ID,
		OrderID: bill.OrderID,
		Entries: entries,
	})
}

// lookupBill resolves the {id} path segment, first as a bill ID and then
// as an order ID so callers can use either.
func (h *BillHandler) lookupBill(w http.ResponseWriter, r *http.Request) (database.Bill, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid bill ID"})
		return database.Bill{}, false
	}

	bill, err := h.store.GetBill(r.Context(), id)
	if errors.Is(err, pgx.ErrNoRows) {
		bill, err = h.store.GetBillByOrder(r.Context(), id)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "bill not found"})
			return database.Bill{}, false
		}
		log.Printf("ERROR: get bill: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return database.Bill{}, false
	}
	return bill, true
}
