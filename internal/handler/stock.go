package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/annapurna-catering/api/internal/database"
	"github.com/annapurna-catering/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// StockStore is satisfied by *database.Queries.
type StockStore interface {
	CreateStockItem(ctx context.Context, arg database.CreateStockItemParams) (database.StockItem, error)
	GetStockItem(ctx context.Context, id uuid.UUID) (database.StockItem, error)
	ListStockItems(ctx context.Context) ([]database.StockItem, error)
	ListLowStockItems(ctx context.Context) ([]database.StockItem, error)
	UpdateStockItem(ctx context.Context, arg database.UpdateStockItemParams) (database.StockItem, error)
	DeleteStockItem(ctx context.Context, id uuid.UUID) error
	ListStockMovementsByItem(ctx context.Context, arg database.ListStockMovementsByItemParams) ([]database.StockMovement, error)
}

// StockServicer applies stock movements. Satisfied by
// *service.StockService.
type StockServicer interface {
	Apply(ctx context.Context, req service.MovementRequest) (*service.MovementResult, error)
}

// StockNotifier is told when a movement drops an item to or below its
// reorder level.
type StockNotifier interface {
	LowStock(item database.StockItem)
}

// StockHandler handles stock item and movement endpoints.
type StockHandler struct {
	store    StockStore
	svc      StockServicer
	notifier StockNotifier
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(store StockStore, svc StockServicer, notifier StockNotifier) *StockHandler {
	return &StockHandler{store: store, svc: svc, notifier: notifier}
}

// RegisterRoutes registers stock endpoints on the given Chi router.
func (h *StockHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/low", h.LowStock)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Post("/movements", h.Move)
		r.Get("/movements", h.Movements)
	})
}

type stockItemRequest struct {
	Name         string `json:"name"`
	Unit         string `json:"unit"`
	Quantity     string `json:"quantity"`
	ReorderLevel string `json:"reorder_level"`
	UnitCost     string `json:"unit_cost"`
}

type stockItemResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Unit         string    `json:"unit"`
	Quantity     string    `json:"quantity"`
	ReorderLevel string    `json:"reorder_level"`
	UnitCost     string    `json:"unit_cost"`
	LowStock     bool      `json:"low_stock"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type movementRequest struct {
	Type     string `json:"type"`
	Quantity string `json:"quantity"`
	UnitCost string `json:"unit_cost"`
	OrderID  string `json:"order_id"`
	Notes    string `json:"notes"`
}

type movementResponse struct {
	ID           uuid.UUID  `json:"id"`
	StockItemID  uuid.UUID  `json:"stock_item_id"`
	MovementType string     `json:"movement_type"`
	Quantity     string     `json:"quantity"`
	UnitCost     string     `json:"unit_cost"`
	OrderID      *uuid.UUID `json:"order_id"`
	Notes        *string    `json:"notes"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toStockItemResponse(i database.StockItem) stockItemResponse {
	resp := stockItemResponse{
		ID:           i.ID,
		Name:         i.Name,
		Unit:         i.Unit,
		Quantity:     numericToString(i.Quantity),
		ReorderLevel: numericToString(i.ReorderLevel),
		UnitCost:     numericToString(i.UnitCost),
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
	qty, err1 := decimal.NewFromString(resp.Quantity)
	level, err2 := decimal.NewFromString(resp.ReorderLevel)
	if err1 == nil && err2 == nil {
		resp.LowStock = qty.LessThanOrEqual(level)
	}
	return resp
}

func toMovementResponse(m database.StockMovement) movementResponse {
	resp := movementResponse{
		ID:           m.ID,
		StockItemID:  m.StockItemID,
		MovementType: m.MovementType,
		Quantity:     numericToString(m.Quantity),
		UnitCost:     numericToString(m.UnitCost),
		CreatedAt:    m.CreatedAt,
	}
	if m.OrderID.Valid {
		id := uuid.UUID(m.OrderID.Bytes)
		resp.OrderID = &id
	}
	if m.Notes.Valid {
		resp.Notes = &m.Notes.String
	}
	return resp
}

// List returns all stock items.
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListStockItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list stock items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]stockItemResponse, len(items))
	for i, item := range items {
		resp[i] = toStockItemResponse(item)
	}
	writeJSON(w, http.StatusOK, resp)
}

// LowStock returns items at or below their reorder level.
func (h *StockHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListLowStockItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list low stock items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]stockItemResponse, len(items))
	for i, item := range items {
		resp[i] = toStockItemResponse(item)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single stock item.
func (h *StockHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid stock item ID"})
		return
	}

	item, err := h.store.GetStockItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "stock item not found"})
			return
		}
		log.Printf("ERROR: get stock item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toStockItemResponse(item))
}

// Create adds a stock item with its opening quantity.
func (h *StockHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req stockItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" || req.Unit == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and unit are required"})
		return
	}

	quantity, err := stringToNumeric(orZero(req.Quantity))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid quantity"})
		return
	}
	reorderLevel, err := stringToNumeric(orZero(req.ReorderLevel))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid reorder_level"})
		return
	}
	unitCost, err := stringToNumeric(orZero(req.UnitCost))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid unit_cost"})
		return
	}

	item, err := h.store.CreateStockItem(r.Context(), database.CreateStockItemParams{
		Name:         req.Name,
		Unit:         req.Unit,
		Quantity:     quantity,
		ReorderLevel: reorderLevel,
		UnitCost:     unitCost,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "stock item with this name already exists"})
			return
		}
		log.Printf("ERROR: create stock item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toStockItemResponse(item))
}

// Update changes item metadata. Quantity is not set here; it only moves
// through recorded movements.
func (h *StockHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid stock item ID"})
		return
	}

	var req stockItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" || req.Unit == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and unit are required"})
		return
	}

	reorderLevel, err := stringToNumeric(orZero(req.ReorderLevel))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid reorder_level"})
		return
	}
	unitCost, err := stringToNumeric(orZero(req.UnitCost))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid unit_cost"})
		return
	}

	item, err := h.store.UpdateStockItem(r.Context(), database.UpdateStockItemParams{
		ID:           id,
		Name:         req.Name,
		Unit:         req.Unit,
		ReorderLevel: reorderLevel,
		UnitCost:     unitCost,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "stock item not found"})
			return
		}
		log.Printf("ERROR: update stock item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toStockItemResponse(item))
}

// Delete removes a stock item.
func (h *StockHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid stock item ID"})
		return
	}

	if err := h.store.DeleteStockItem(r.Context(), id); err != nil {
		log.Printf("ERROR: delete stock item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Move records a stock movement against an item.
func (h *StockHandler) Move(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid stock item ID"})
		return
	}

	var req movementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	quantity, err := decimal.NewFromString(orZero(req.Quantity))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid quantity"})
		return
	}
	unitCost, err := decimal.NewFromString(orZero(req.UnitCost))
	if err != nil || unitCost.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid unit_cost"})
		return
	}
	var orderID uuid.UUID
	if req.OrderID != "" {
		orderID, err = uuid.Parse(req.OrderID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order_id"})
			return
		}
	}

	result, err := h.svc.Apply(r.Context(), service.MovementRequest{
		StockItemID: id,
		Type:        req.Type,
		Quantity:    quantity,
		UnitCost:    unitCost,
		OrderID:     orderID,
		Notes:       req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStockItemNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "stock item not found"})
		case errors.Is(err, service.ErrInsufficientStock),
			errors.Is(err, service.ErrInvalidMovementType),
			errors.Is(err, service.ErrZeroMovementQuantity):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: apply stock movement: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	if result.LowStock && h.notifier != nil {
		h.notifier.LowStock(result.Item)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"movement": toMovementResponse(result.Movement),
		"item":     toStockItemResponse(result.Item),
	})
}

// Movements returns an item's movement history, newest first.
func (h *StockHandler) Movements(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid stock item ID"})
		return
	}

	limit, offset := parsePagination(r)
	movements, err := h.store.ListStockMovementsByItem(r.Context(), database.ListStockMovementsByItemParams{
		StockItemID: id,
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		log.Printf("ERROR: list stock movements: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]movementResponse, len(movements))
	for i, m := range movements {
		resp[i] = toMovementResponse(m)
	}
	writeJSON(w, http.StatusOK, resp)
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
