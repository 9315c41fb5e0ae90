package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/annapurna-catering/api/internal/database"
	"github.com/annapurna-catering/api/internal/enum"
	"github.com/annapurna-catering/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// PayrollStore is satisfied by *database.Queries.
type PayrollStore interface {
	CreatePayrollEntry(ctx context.Context, arg database.CreatePayrollEntryParams) (database.PayrollEntry, error)
	GetPayrollEntry(ctx context.Context, id uuid.UUID) (database.PayrollEntry, error)
	ListPayrollEntries(ctx context.Context, arg database.ListPayrollEntriesParams) ([]database.PayrollEntry, error)
	UpdatePayrollEntry(ctx context.Context, arg database.UpdatePayrollEntryParams) (database.PayrollEntry, error)
	DeletePayrollEntry(ctx context.Context, id uuid.UUID) error
	MarkPayrollEntriesPaid(ctx context.Context, ids []uuid.UUID) error
}

// PayrollHandler handles payroll endpoints.
type PayrollHandler struct {
	store   PayrollStore
	auditor Auditor
}

// NewPayrollHandler creates a new PayrollHandler.
func NewPayrollHandler(store PayrollStore, auditor Auditor) *PayrollHandler {
	return &PayrollHandler{store: store, auditor: auditor}
}

func (h *PayrollHandler) recordAudit(r *http.Request, action string, entityID uuid.UUID, detail any) {
	if h.auditor == nil {
		return
	}
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		return
	}
	h.auditor.Record(claims.UserID, action, "payroll_entry", entityID, detail)
}

// RegisterRoutes registers payroll endpoints on the given Chi router.
func (h *PayrollHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/mark-paid", h.MarkPaid)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
	})
}

type payrollRequest struct {
	PayrollDate   string `json:"payroll_date"`
	PeriodType    string `json:"period_type"`
	PeriodRef     string `json:"period_ref"`
	EmployeeName  string `json:"employee_name"`
	GrossPay      string `json:"gross_pay"`
	PaymentMethod string `json:"payment_method"`
	OrderID       string `json:"order_id"`
}

type payrollResponse struct {
	ID            uuid.UUID  `json:"id"`
	PayrollDate   string     `json:"payroll_date"`
	PeriodType    string     `json:"period_type"`
	PeriodRef     *string    `json:"period_ref"`
	EmployeeName  string     `json:"employee_name"`
	GrossPay      string     `json:"gross_pay"`
	PaymentMethod string     `json:"payment_method"`
	OrderID       *uuid.UUID `json:"order_id"`
	PaidAt        *time.Time `json:"paid_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toPayrollResponse(p database.PayrollEntry) payrollResponse {
	resp := payrollResponse{
		ID:            p.ID,
		PeriodType:    p.PeriodType,
		EmployeeName:  p.EmployeeName,
		GrossPay:      numericToString(p.GrossPay),
		PaymentMethod: p.PaymentMethod,
		CreatedAt:     p.CreatedAt,
	}
	if p.PayrollDate.Valid {
		resp.PayrollDate = p.PayrollDate.Time.Format("2006-01-02")
	}
	if p.PeriodRef.Valid {
		resp.PeriodRef = &p.PeriodRef.String
	}
	if p.OrderID.Valid {
		id := uuid.UUID(p.OrderID.Bytes)
		resp.OrderID = &id
	}
	if p.PaidAt.Valid {
		resp.PaidAt = &p.PaidAt.Time
	}
	return resp
}

var validPeriodTypes = map[string]bool{
	enum.PayrollPeriodDaily:   true,
	enum.PayrollPeriodWeekly:  true,
	enum.PayrollPeriodMonthly: true,
	enum.PayrollPeriodEvent:   true,
}

type payrollFields struct {
	date    pgtype.Date
	gross   pgtype.Numeric
	orderID pgtype.UUID
}

func parsePayrollRequest(req payrollRequest) (payrollFields, string) {
	var f payrollFields
	if req.EmployeeName == "" {
		return f, "employee_name is required"
	}
	if !validPeriodTypes[req.PeriodType] {
		return f, "invalid period_type"
	}
	if req.PaymentMethod == "" {
		return f, "payment_method is required"
	}

	t, err := time.Parse("2006-01-02", req.PayrollDate)
	if err != nil {
		return f, "invalid payroll_date"
	}
	f.date = pgtype.Date{Time: t, Valid: true}

	f.gross, err = stringToNumeric(req.GrossPay)
	if err != nil {
		return f, "invalid gross_pay"
	}

	if req.OrderID != "" {
		id, err := uuid.Parse(req.OrderID)
		if err != nil {
			return f, "invalid order_id"
		}
		f.orderID = pgtype.UUID{Bytes: id, Valid: true}
	}
	return f, ""
}

// List returns payroll entries with optional date range and unpaid filters.
func (h *PayrollHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	var startDate, endDate pgtype.Date
	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_date"})
			return
		}
		startDate = pgtype.Date{Time: t, Valid: true}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_date"})
			return
		}
		endDate = pgtype.Date{Time: t, Valid: true}
	}

	entries, err := h.store.ListPayrollEntries(r.Context(), database.ListPayrollEntriesParams{
		StartDate:  startDate,
		EndDate:    endDate,
		UnpaidOnly: r.URL.Query().Get("unpaid") == "true",
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		log.Printf("ERROR: list payroll entries: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]payrollResponse, len(entries))
	for i, e := range entries {
		resp[i] = toPayrollResponse(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single payroll entry.
func (h *PayrollHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payroll entry ID"})
		return
	}

	entry, err := h.store.GetPayrollEntry(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "payroll entry not found"})
			return
		}
		log.Printf("ERROR: get payroll entry: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toPayrollResponse(entry))
}

// Create records wages owed to a worker for a period or an event.
func (h *PayrollHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req payrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	fields, msg := parsePayrollRequest(req)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	entry, err := h.store.CreatePayrollEntry(r.Context(), database.CreatePayrollEntryParams{
		PayrollDate:   fields.date,
		PeriodType:    req.PeriodType,
		PeriodRef:     textOrNull(req.PeriodRef),
		EmployeeName:  req.EmployeeName,
		GrossPay:      fields.gross,
		PaymentMethod: req.PaymentMethod,
		OrderID:       fields.orderID,
	})
	if err != nil {
		log.Printf("ERROR: create payroll entry: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.recordAudit(r, "CREATE", entry.ID, map[string]string{
		"employee_name": entry.EmployeeName,
		"gross_pay":     numericToString(entry.GrossPay),
	})
	writeJSON(w, http.StatusCreated, toPayrollResponse(entry))
}

// Update replaces a payroll entry.
func (h *PayrollHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payroll entry ID"})
		return
	}

	var req payrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	fields, msg := parsePayrollRequest(req)
	if msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	entry, err := h.store.UpdatePayrollEntry(r.Context(), database.UpdatePayrollEntryParams{
		ID:            id,
		PayrollDate:   fields.date,
		PeriodType:    req.PeriodType,
		PeriodRef:     textOrNull(req.PeriodRef),
		EmployeeName:  req.EmployeeName,
		GrossPay:      fields.gross,
		PaymentMethod: req.PaymentMethod,
		OrderID:       fields.orderID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "payroll entry not found"})
			return
		}
		log.Printf("ERROR: update payroll entry: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toPayrollResponse(entry))
}

// Delete removes a payroll entry.
func (h *PayrollHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payroll entry ID"})
		return
	}

	if err := h.store.DeletePayrollEntry(r.Context(), id); err != nil {
		log.Printf("ERROR: delete payroll entry: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	h.recordAudit(r, "DELETE", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

type markPaidRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

// MarkPaid stamps a batch of entries as paid out. Already-paid entries
// keep their original timestamp.
func (h *PayrollHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	var req markPaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.IDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "ids is required"})
		return
	}

	if err := h.store.MarkPayrollEntriesPaid(r.Context(), req.IDs); err != nil {
		log.Printf("ERROR: mark payroll entries paid: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	for _, id := range req.IDs {
		h.recordAudit(r, "MARK_PAID", id, nil)
	}
	writeJSON(w, http.StatusOK, map[string]int{"marked": len(req.IDs)})
}
