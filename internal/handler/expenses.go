package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/annapurna-catering/api/internal/database"
	"github.com/annapurna-catering/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// ExpenseStore is satisfied by *database.Queries.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, arg database.CreateExpenseParams) (database.Expense, error)
	GetExpense(ctx context.Context, id uuid.UUID) (database.Expense, error)
	ListExpenses(ctx context.Context, arg database.ListExpensesParams) ([]database.Expense, error)
	UpdateExpense(ctx context.Context, arg database.UpdateExpenseParams) (database.Expense, error)
	DeleteExpense(ctx context.Context, id uuid.UUID) error
}

// ExpenseHandler handles expense endpoints.
type ExpenseHandler struct {
	store   ExpenseStore
	auditor Auditor
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(store ExpenseStore, auditor Auditor) *ExpenseHandler {
	return &ExpenseHandler{store: store, auditor: auditor}
}

func (h *ExpenseHandler) recordAudit(r *http.Request, action string, entityID uuid.UUID, detail any) {
	if h.auditor == nil {
		return
	}
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		return
	}
	h.auditor.Record(claims.UserID, action, "expense", entityID, detail)
}

// RegisterRoutes registers expense endpoints on the given Chi router.
func (h *ExpenseHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
	})
}

type expenseRequest struct {
	Category    string `json:"category"`
	Recipient   string `json:"recipient"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	PaidAmount  string `json:"paid_amount"`
	OrderID     string `json:"order_id"`
	ExpenseDate string `json:"expense_date"`
}

type expenseResponse struct {
	ID          uuid.UUID  `json:"id"`
	Category    string     `json:"category"`
	Recipient   string     `json:"recipient"`
	Description *string    `json:"description"`
	Amount      string     `json:"amount"`
	PaidAmount  string     `json:"paid_amount"`
	Status      string     `json:"status"`
	OrderID     *uuid.UUID `json:"order_id"`
	ExpenseDate *string    `json:"expense_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toExpenseResponse(e database.Expense) expenseResponse {
	resp := expenseResponse{
		ID:         e.ID,
		Category:   e.Category,
		Recipient:  e.Recipient,
		Amount:     numericToString(e.Amount),
		PaidAmount: numericToString(e.PaidAmount),
		Status:     string(e.Status),
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
	if e.Description.Valid {
		resp.Description = &e.Description.String
	}
	if e.OrderID.Valid {
		id := uuid.UUID(e.OrderID.Bytes)
		resp.OrderID = &id
	}
	if e.ExpenseDate.Valid {
		d := e.ExpenseDate.Time.Format("2006-01-02")
		resp.ExpenseDate = &d
	}
	return resp
}

type expenseFields struct {
	amount      pgtype.Numeric
	paid        pgtype.Numeric
	status      database.ExpenseStatus
	orderID     pgtype.UUID
	expenseDate pgtype.Date
}

// parseExpenseRequest validates the shared create/update payload. Status
// is derived from the amounts, never supplied by the client.
func parseExpenseRequest(req expenseRequest) (expenseFields, string) {
	var f expenseFields
	if req.Category == "" {
		return f, "category is required"
	}
	if req.Recipient == "" {
		return f, "recipient is required"
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.IsNegative() {
		return f, "invalid amount"
	}
	paid := decimal.Zero
	if req.PaidAmount != "" {
		paid, err = decimal.NewFromString(req.PaidAmount)
		if err != nil || paid.IsNegative() {
			return f, "invalid paid_amount"
		}
	}
	if paid.GreaterThan(amount) {
		return f, "paid_amount cannot exceed amount"
	}

	if err := f.amount.Scan(amount.StringFixed(2)); err != nil {
		return f, "invalid amount"
	}
	if err := f.paid.Scan(paid.StringFixed(2)); err != nil {
		return f, "invalid paid_amount"
	}

	switch {
	case paid.GreaterThanOrEqual(amount) && amount.IsPositive():
		f.status = database.ExpenseStatusPAID
	case paid.IsPositive():
		f.status = database.ExpenseStatusPARTIAL
	default:
		f.status = database.ExpenseStatusPENDING
	}

	if req.OrderID != "" {
		id, err := uuid.Parse(req.OrderID)
		if err != nil {
			return f, "invalid order_id"
		}
		f.orderID = pgtype.UUID{Bytes: id, Valid: true}
	}
	if req.ExpenseDate != "" {
		t, err := time.Parse("2006-01-02", req.ExpenseDate)
		if err != nil {
			return f, "invalid expense_date"
		}
		f.expenseDate = pgtype.Date{Time: t, Valid: true}
	}
	return f, ""
}

// List returns expenses with optional order and category filters.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	var orderID pgtype.UUID
	if s := r.URL.Query().Get("order_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order_id"})
			return
		}
		orderID = pgtype.UUID{Bytes: id, Valid: true}
	}

	expenses, err := h.store.ListExpenses(r.Context(), database.ListExpensesParams{
		OrderID:  orderID,
		Category: r.URL.Query().Get("category"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		log.Printf("ERROR: list expenses: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		resp[i] = toExpenseResponse(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single expense.
func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid expense ID"})
		return
	}

	expense, err := h.store.GetExpense(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "expense not found"})
			return
		}
		log.Printf("ERROR: get expense: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toExpenseResponse(expense))
}

// Create records a new expense, optionally attached to an order.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	fields, msg := parseExpenseRequest(req)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	expense, err := h.store.CreateExpense(r.Context(), database.CreateExpenseParams{
		Category:    req.Category,
		Recipient:   req.Recipient,
		Description: textOrNull(req.Description),
		Amount:      fields.amount,
		PaidAmount:  fields.paid,
		Status:      fields.status,
		OrderID:     fields.orderID,
		ExpenseDate: fields.expenseDate,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "order does not exist"})
			return
		}
		log.Printf("ERROR: create expense: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.recordAudit(r, "CREATE", expense.ID, map[string]string{
		"category": expense.Category,
		"amount":   numericToString(expense.Amount),
	})
	writeJSON(w, http.StatusCreated, toExpenseResponse(expense))
}

// Update replaces an expense.
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid expense ID"})
		return
	}

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	fields, msg := parseExpenseRequest(req)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	expense, err := h.store.UpdateExpense(r.Context(), database.UpdateExpenseParams{
		ID:          id,
		Category:    req.Category,
		Recipient:   req.Recipient,
		Description: textOrNull(req.Description),
		Amount:      fields.amount,
		PaidAmount:  fields.paid,
		Status:      fields.status,
		OrderID:     fields.orderID,
		ExpenseDate: fields.expenseDate,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "expense not found"})
			return
		}
		log.Printf("ERROR: update expense: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.recordAudit(r, "UPDATE", expense.ID, map[string]string{
		"amount":      numericToString(expense.Amount),
		"paid_amount": numericToString(expense.PaidAmount),
	})
	writeJSON(w, http.StatusOK, toExpenseResponse(expense))
}

// Delete removes an expense.
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid expense ID"})
		return
	}

	if err := h.store.DeleteExpense(r.Context(), id); err != nil {
		log.Printf("ERROR: delete expense: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.recordAudit(r, "DELETE", id, nil)
	w.WriteHeader(http.StatusNoContent)
}
