package service

import (
	"context"
	"errors"

	"github.com/annapurna-catering/api/internal/database"
	"github.com/annapurna-catering/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

var (
	ErrStockItemNotFound    = errors.New("stock item not found")
	ErrInsufficientStock    = errors.New("adjustment would drive quantity negative")
	ErrInvalidMovementType  = errors.New("invalid movement type")
	ErrZeroMovementQuantity = errors.New("movement quantity must be positive")
)

// Movement types. PURCHASE and RETURN add stock, CONSUMPTION and WASTAGE
// remove it, ADJUSTMENT carries a signed delta as-is.
const (
	MovementPurchase    = enum.StockMovementPurchase
	MovementConsumption = enum.StockMovementConsumption
	MovementWastage     = enum.StockMovementWastage
	MovementReturn      = enum.StockMovementReturn
	MovementAdjustment  = enum.StockMovementAdjustment
)

// StockStore is the subset of queries stock adjustments need.
// Satisfied by *database.Queries.
type StockStore interface {
	GetStockItemForUpdate(ctx context.Context, id uuid.UUID) (database.StockItem, error)
	AdjustStockQuantity(ctx context.Context, arg database.AdjustStockQuantityParams) (database.StockItem, error)
	CreateStockMovement(ctx context.Context, arg database.CreateStockMovementParams) (database.StockMovement, error)
}

// NewStockStore builds a StockStore bound to the given connection or
// transaction.
type NewStockStore func(db database.DBTX) StockStore

// StockService applies stock movements atomically with their quantity
// effect.
type StockService struct {
	pool     TxBeginner
	newStore NewStockStore
}

// NewStockService creates a StockService.
func NewStockService(pool TxBeginner, newStore NewStockStore) *StockService {
	return &StockService{pool: pool, newStore: newStore}
}

// MovementRequest describes one stock movement. Quantity is always
// positive; the movement type determines the sign, except ADJUSTMENT
// where the quantity is the signed delta itself.
type MovementRequest struct {
	StockItemID uuid.UUID
	Type        string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	OrderID     uuid.UUID
	Notes       string
}

// MovementResult is the movement together with the item state after it.
type MovementResult struct {
	Movement database.StockMovement
	Item     database.StockItem
	LowStock bool
}

func signedDelta(req MovementRequest) (decimal.Decimal, error) {
	switch req.Type {
	case MovementPurchase, MovementReturn:
		if !req.Quantity.IsPositive() {
			return decimal.Zero, ErrZeroMovementQuantity
		}
		return req.Quantity, nil
	case MovementConsumption, MovementWastage:
		if !req.Quantity.IsPositive() {
			return decimal.Zero, ErrZeroMovementQuantity
		}
		return req.Quantity.Neg(), nil
	case MovementAdjustment:
		if req.Quantity.IsZero() {
			return decimal.Zero, ErrZeroMovementQuantity
		}
		return req.Quantity, nil
	default:
		return decimal.Zero, ErrInvalidMovementType
	}
}

// Apply records a movement and adjusts the item quantity in one
// transaction. The item row is locked first so concurrent movements
// serialize and the non-negative check holds.
func (s *StockService) Apply(ctx context.Context, req MovementRequest) (*MovementResult, error) {
	delta, err := signedDelta(req)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	item, err := store.GetStockItemForUpdate(ctx, req.StockItemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStockItemNotFound
		}
		return nil, err
	}

	current := numericToDecimal(item.Quantity)
	if current.Add(delta).IsNegative() {
		return nil, ErrInsufficientStock
	}

	deltaNum := decimalToNumeric(delta)
	qtyNum := decimalToNumeric(req.Quantity.Abs())
	costNum := decimalToNumeric(req.UnitCost)

	var orderID pgtype.UUID
	if req.OrderID != uuid.Nil {
		orderID = pgtype.UUID{Bytes: req.OrderID, Valid: true}
	}
	var notes pgtype.Text
	if req.Notes != "" {
		notes = pgtype.Text{String: req.Notes, Valid: true}
	}

	movement, err := store.CreateStockMovement(ctx, database.CreateStockMovementParams{
		StockItemID:  req.StockItemID,
		MovementType: req.Type,
		Quantity:     qtyNum,
		UnitCost:     costNum,
		OrderID:      orderID,
		Notes:        notes,
	})
	if err != nil {
		return nil, err
	}

	updated, err := store.AdjustStockQuantity(ctx, database.AdjustStockQuantityParams{
		ID:    req.StockItemID,
		Delta: deltaNum,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	newQty := numericToDecimal(updated.Quantity)
	reorder := numericToDecimal(updated.ReorderLevel)

	return &MovementResult{
		Movement: movement,
		Item:     updated,
		LowStock: newQty.LessThanOrEqual(reorder),
	}, nil
}
