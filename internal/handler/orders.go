package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/annapurna-catering/api/internal/database"
	"github.com/annapurna-catering/api/internal/middleware"
	"github.com/annapurna-catering/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// OrderStore defines the read-path database methods needed by order
// handlers. Writes go through the order service so they stay transactional.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	GetBillByOrder(ctx context.Context, orderID uuid.UUID) (database.Bill, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error)
	GetUser(ctx context.Context, id uuid.UUID) (database.User, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
	ListExpensesByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Expense, error)
}

// OrderServicer defines the write-path service methods order handlers
// call. Satisfied by *service.OrderService.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, req service.UpdateOrderRequest) (*service.UpdateOrderResult, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, newStatus string) (*service.StatusUpdateResult, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
}

// OrderNotifier receives order lifecycle events. Implementations must not
// block; delivery failures are their problem, not the request's.
type OrderNotifier interface {
	OrderStatusChanged(order database.Order, bill *database.Bill)
	OrderRevised(order database.Order, summary string)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	store    OrderStore
	svc      OrderServicer
	notifier OrderNotifier
	auditor  Auditor
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(store OrderStore, svc OrderServicer, notifier OrderNotifier, auditor Auditor) *OrderHandler {
	return &OrderHandler{store: store, svc: svc, notifier: notifier, auditor: auditor}
}

func (h *OrderHandler) recordAudit(r *http.Request, action string, entityID uuid.UUID, detail any) {
	if h.auditor == nil {
		return
	}
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		return
	}
	h.auditor.Record(claims.UserID, action, "order", entityID, detail)
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/projection", h.Projection)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Post("/projection", h.Projection)
	})
}

// --- Request / Response types ---

type orderItemBody struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int32  `json:"quantity"`
}

type createOrderBody struct {
	CustomerID    string             `json:"customer_id"`
	SupervisorID  string             `json:"supervisor_id"`
	EventDate     string             `json:"event_date"`
	Venue         string             `json:"venue"`
	Notes         string             `json:"notes"`
	AdvancePaid   string             `json:"advance_paid"`
	Discount      string             `json:"discount"`
	TransportCost string             `json:"transport_cost"`
	MealPlans     []service.MealPlan `json:"meal_plans"`
	Stalls        []service.Stall    `json:"stalls"`
	Items         []orderItemBody    `json:"items"`
}

// updateOrderBody covers both PUT shapes: a bare status change and a full
// revision. A body that carries a status but no customer is treated as a
// status-only update.
type updateOrderBody struct {
	Status string `json:"status"`
	createOrderBody
	AdditionalPayment string `json:"additional_payment"`
	PaymentMethod     string `json:"payment_method"`
	PaymentNotes      string `json:"payment_notes"`
}

type orderResponse struct {
	ID              uuid.UUID       `json:"id"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	SupervisorID    *uuid.UUID      `json:"supervisor_id"`
	EventDate       *time.Time      `json:"event_date"`
	Venue           *string         `json:"venue"`
	Status          string          `json:"status"`
	TotalAmount     string          `json:"total_amount"`
	AdvancePaid     string          `json:"advance_paid"`
	RemainingAmount string          `json:"remaining_amount"`
	Discount        string          `json:"discount"`
	TransportCost   string          `json:"transport_cost"`
	MealPlans       json.RawMessage `json:"meal_plans"`
	Stalls          json.RawMessage `json:"stalls"`
	Notes           *string         `json:"notes"`
	CreatedBy       uuid.UUID       `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type billResponse struct {
	ID              uuid.UUID       `json:"id"`
	OrderID         uuid.UUID       `json:"order_id"`
	TotalAmount     string          `json:"total_amount"`
	PaidAmount      string          `json:"paid_amount"`
	RemainingAmount string          `json:"remaining_amount"`
	Status          string          `json:"status"`
	PaymentHistory  json.RawMessage `json:"payment_history"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type orderItemResponse struct {
	ID         uuid.UUID `json:"id"`
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Name       string    `json:"name,omitempty"`
	Quantity   int32     `json:"quantity"`
	UnitPrice  string    `json:"unit_price"`
	Subtotal   string    `json:"subtotal"`
}

type orderDetailResponse struct {
	orderResponse
	Customer   *customerResponse   `json:"customer,omitempty"`
	Supervisor *userResponse       `json:"supervisor,omitempty"`
	Items      []orderItemResponse `json:"items"`
	Bill       *billResponse       `json:"bill,omitempty"`
	Expenses   []expenseResponse   `json:"expenses,omitempty"`
}

type statusUpdateResponse struct {
	Order       orderResponse `json:"order"`
	Bill        *billResponse `json:"bill,omitempty"`
	BillCreated bool          `json:"_billCreated"`
	BillID      *uuid.UUID    `json:"_billId,omitempty"`
	BillStatus  string        `json:"_billStatus,omitempty"`
}

type updateOrderResponse struct {
	Order         orderResponse `json:"order"`
	Bill          *billResponse `json:"bill,omitempty"`
	ChangeSummary string        `json:"change_summary,omitempty"`
}

type projectionResponse struct {
	TotalAmount     string `json:"total_amount"`
	AdvancePaid     string `json:"advance_paid"`
	RemainingAmount string `json:"remaining_amount"`
}

func dbOrderToResponse(o database.Order) orderResponse {
	resp := orderResponse{
		ID:              o.ID,
		CustomerID:      o.CustomerID,
		Status:          string(o.Status),
		TotalAmount:     numericToString(o.TotalAmount),
		AdvancePaid:     numericToString(o.AdvancePaid),
		RemainingAmount: numericToString(o.RemainingAmount),
		Discount:        numericToString(o.Discount),
		TransportCost:   numericToString(o.TransportCost),
		MealPlans:       rawOrEmptyArray(o.MealPlans),
		Stalls:          rawOrEmptyArray(o.Stalls),
		CreatedBy:       o.CreatedBy,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if o.SupervisorID.Valid {
		id := uuid.UUID(o.SupervisorID.Bytes)
		resp.SupervisorID = &id
	}
	if o.EventDate.Valid {
		resp.EventDate = &o.EventDate.Time
	}
	if o.Venue.Valid {
		resp.Venue = &o.Venue.String
	}
	if o.Notes.Valid {
		resp.Notes = &o.Notes.String
	}
	return resp
}

func dbBillToResponse(b database.Bill) billResponse {
	return billResponse{
		ID:              b.ID,
		OrderID:         b.OrderID,
		TotalAmount:     numericToString(b.TotalAmount),
		PaidAmount:      numericToString(b.PaidAmount),
		RemainingAmount: numericToString(b.RemainingAmount),
		Status:          string(b.Status),
		PaymentHistory:  rawOrEmptyArray(b.PaymentHistory),
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func dbItemToResponse(i database.OrderItem, name string) orderItemResponse {
	return orderItemResponse{
		ID:         i.ID,
		MenuItemID: i.MenuItemID,
		Name:       name,
		Quantity:   i.Quantity,
		UnitPrice:  numericToString(i.UnitPrice),
		Subtotal:   numericToString(i.Subtotal),
	}
}

// --- Handlers ---

// List returns orders with optional status, customer and date filters.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	var status database.NullOrderStatus
	if s := r.URL.Query().Get("status"); s != "" {
		status = database.NullOrderStatus{OrderStatus: database.OrderStatus(s), Valid: true}
	}

	var customerID pgtype.UUID
	if s := r.URL.Query().Get("customer_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer_id"})
			return
		}
		customerID = pgtype.UUID{Bytes: id, Valid: true}
	}

	startDate, ok := parseDateParam(w, r, "start_date")
	if !ok {
		return
	}
	endDate, ok := parseDateParam(w, r, "end_date")
	if !ok {
		return
	}

	orders, err := h.store.ListOrders(r.Context(), database.ListOrdersParams{
		Status:     status,
		CustomerID: customerID,
		StartDate:  startDate,
		EndDate:    endDate,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = dbOrderToResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one order with its customer, supervisor, items, bill and
// attached expenses.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	detail := orderDetailResponse{orderResponse: dbOrderToResponse(order), Items: []orderItemResponse{}}

	if customer, err := h.store.GetCustomer(r.Context(), order.CustomerID); err == nil {
		c := toCustomerResponse(customer)
		detail.Customer = &c
	}
	if order.SupervisorID.Valid {
		if supervisor, err := h.store.GetUser(r.Context(), uuid.UUID(order.SupervisorID.Bytes)); err == nil {
			u := toUserResponse(supervisor)
			detail.Supervisor = &u
		}
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	for _, item := range items {
		name := ""
		if menuItem, err := h.store.GetMenuItem(r.Context(), item.MenuItemID); err == nil {
			name = menuItem.Name
		}
		detail.Items = append(detail.Items, dbItemToResponse(item, name))
	}

	bill, err := h.store.GetBillByOrder(r.Context(), orderID)
	switch {
	case err == nil:
		b := dbBillToResponse(bill)
		detail.Bill = &b
	case !errors.Is(err, pgx.ErrNoRows):
		log.Printf("ERROR: get bill: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	expenses, err := h.store.ListExpensesByOrder(r.Context(), orderID)
	if err != nil {
		log.Printf("ERROR: list order expenses: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	for _, e := range expenses {
		detail.Expenses = append(detail.Expenses, toExpenseResponse(e))
	}

	writeJSON(w, http.StatusOK, detail)
}

// Create books a new order.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	var body createOrderBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if body.CustomerID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "customer_id is required"})
		return
	}

	result, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		CustomerID:    body.CustomerID,
		SupervisorID:  body.SupervisorID,
		EventDate:     body.EventDate,
		Venue:         body.Venue,
		Notes:         body.Notes,
		AdvancePaid:   body.AdvancePaid,
		Discount:      body.Discount,
		TransportCost: body.TransportCost,
		MealPlans:     body.MealPlans,
		Stalls:        body.Stalls,
		Items:         toOrderLines(body.Items),
		CreatedBy:     claims.UserID,
	})
	if err != nil {
		writeOrderServiceError(w, err, "create order")
		return
	}

	h.recordAudit(r, "CREATE", result.Order.ID, map[string]string{
		"total_amount": numericToString(result.Order.TotalAmount),
		"advance_paid": numericToString(result.Order.AdvancePaid),
	})
	writeJSON(w, http.StatusCreated, dbOrderToResponse(result.Order))
}

// Update handles both PUT shapes on an order: a status transition and a
// full financial revision.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var body updateOrderBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if body.Status != "" && body.CustomerID == "" {
		h.updateStatus(w, r, orderID, body.Status)
		return
	}
	if body.CustomerID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "customer_id is required"})
		return
	}

	result, err := h.svc.UpdateOrder(r.Context(), orderID, service.UpdateOrderRequest{
		CustomerID:        body.CustomerID,
		SupervisorID:      body.SupervisorID,
		EventDate:         body.EventDate,
		Venue:             body.Venue,
		Notes:             body.Notes,
		AdvancePaid:       body.AdvancePaid,
		Discount:          body.Discount,
		TransportCost:     body.TransportCost,
		AdditionalPayment: body.AdditionalPayment,
		PaymentMethod:     body.PaymentMethod,
		PaymentNotes:      body.PaymentNotes,
		MealPlans:         body.MealPlans,
		Stalls:            body.Stalls,
		Items:             toOrderLines(body.Items),
	})
	if err != nil {
		writeOrderServiceError(w, err, "update order")
		return
	}

	if h.notifier != nil && result.Change.Changed {
		h.notifier.OrderRevised(result.Order, result.Change.Summary)
	}
	h.recordAudit(r, "UPDATE", result.Order.ID, map[string]string{
		"total_amount":   numericToString(result.Order.TotalAmount),
		"change_summary": result.Change.Summary,
	})

	resp := updateOrderResponse{
		Order:         dbOrderToResponse(result.Order),
		ChangeSummary: result.Change.Summary,
	}
	if result.Bill != nil {
		b := dbBillToResponse(*result.Bill)
		resp.Bill = &b
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request, orderID uuid.UUID, status string) {
	result, err := h.svc.UpdateStatus(r.Context(), orderID, status)
	if err != nil {
		writeOrderServiceError(w, err, "update order status")
		return
	}

	if h.notifier != nil {
		h.notifier.OrderStatusChanged(result.Order, result.Bill)
	}
	h.recordAudit(r, "STATUS_CHANGE", result.Order.ID, map[string]string{
		"status": string(result.Order.Status),
	})

	resp := statusUpdateResponse{
		Order:       dbOrderToResponse(result.Order),
		BillCreated: result.BillCreated,
	}
	if result.Bill != nil {
		b := dbBillToResponse(*result.Bill)
		resp.Bill = &b
		resp.BillID = &result.Bill.ID
		resp.BillStatus = string(result.Bill.Status)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Delete removes an order together with its items and bill.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	if err := h.svc.DeleteOrder(r.Context(), orderID); err != nil {
		writeOrderServiceError(w, err, "delete order")
		return
	}
	h.recordAudit(r, "DELETE", orderID, nil)
	w.WriteHeader(http.StatusNoContent)
}

// Projection previews the financials a booking or revision would produce
// without writing anything. The arithmetic is the same code the write
// paths use. Mounted both at /orders/projection (pre-booking) and
// /orders/{id}/projection (pre-revision); the body carries everything.
func (h *OrderHandler) Projection(w http.ResponseWriter, r *http.Request) {
	var body updateOrderBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	transport, err := parseBodyAmount(body.TransportCost)
	if err == nil {
		var discount, advance, additional decimal.Decimal
		if discount, err = parseBodyAmount(body.Discount); err == nil {
			if advance, err = parseBodyAmount(body.AdvancePaid); err == nil {
				if additional, err = parseBodyAmount(body.AdditionalPayment); err == nil {
					var proj service.Projection
					proj, err = service.ProjectAdjustment(body.MealPlans, transport, discount, body.Stalls, advance, additional)
					if err == nil {
						writeJSON(w, http.StatusOK, projectionResponse{
							TotalAmount:     proj.Total.StringFixed(2),
							AdvancePaid:     proj.Paid.StringFixed(2),
							RemainingAmount: proj.Remaining.StringFixed(2),
						})
						return
					}
				}
			}
		}
	}
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

// --- Helpers ---

func toOrderLines(items []orderItemBody) []service.OrderLineRequest {
	lines := make([]service.OrderLineRequest, len(items))
	for i, item := range items {
		lines[i] = service.OrderLineRequest{MenuItemID: item.MenuItemID, Quantity: item.Quantity}
	}
	return lines
}

func parseBodyAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// writeOrderServiceError maps order service errors onto HTTP statuses.
func writeOrderServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
	case errors.Is(err, service.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrCustomerNotFound),
		errors.Is(err, service.ErrMenuItemNotFound),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidCustomerID),
		errors.Is(err, service.ErrInvalidSupervisorID),
		errors.Is(err, service.ErrInvalidMenuItemID),
		errors.Is(err, service.ErrInvalidEventDate),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrNegativeAmount),
		errors.Is(err, service.ErrInvalidMealType),
		errors.Is(err, service.ErrInvalidPricingMethod),
		errors.Is(err, service.ErrInvalidPlateCount),
		errors.Is(err, service.ErrDuplicateMealType),
		errors.Is(err, service.ErrAdvanceExceedsTotal),
		errors.Is(err, service.ErrPaymentExceedsRemaining):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func parsePagination(r *http.Request) (limit, offset int32) {
	limit = 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = int32(v)
		}
	}
	if limit > 100 {
		limit = 100
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = int32(v)
		}
	}
	return limit, offset
}

func parseDateParam(w http.ResponseWriter, r *http.Request, name string) (pgtype.Timestamptz, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return pgtype.Timestamptz{}, true
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		// also accept bare dates
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + name})
			return pgtype.Timestamptz{}, false
		}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}, true
}

func rawOrEmptyArray(b []byte) json.RawMessage {
	if len(b) == 0 {
		return json.RawMessage("[]")
	}
	return json.RawMessage(b)
}

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}
