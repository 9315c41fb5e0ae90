package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annapurna-catering/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Errors returned by the order service.
var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrMenuItemNotFound    = errors.New("menu item not found")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrInvalidQuantity     = errors.New("quantity must be > 0")
	ErrInvalidCustomerID   = errors.New("invalid customer_id")
	ErrInvalidSupervisorID = errors.New("invalid supervisor_id")
	ErrInvalidMenuItemID   = errors.New("invalid menu_item_id")
	ErrInvalidEventDate    = errors.New("invalid event_date")
	ErrInvalidAmount       = errors.New("invalid amount")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods the order service needs.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	UpdateOrderFinancials(ctx context.Context, arg database.UpdateOrderFinancialsParams) (database.Order, error)
	SettleOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	DeleteOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) error
	GetBillByOrder(ctx context.Context, orderID uuid.UUID) (database.Bill, error)
	CreateBill(ctx context.Context, arg database.CreateBillParams) (database.Bill, error)
	UpdateBill(ctx context.Context, arg database.UpdateBillParams) (database.Bill, error)
	DeleteBillByOrder(ctx context.Context, orderID uuid.UUID) error
	GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error)
	GetMenuItem(ctx context.Context, id uuid.UUID) (database.MenuItem, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// OrderService owns order lifecycle and the order/bill reconciliation.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// OrderLineRequest is one catalog line on an order.
type OrderLineRequest struct {
	MenuItemID string
	Quantity   int32
}

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	CustomerID    string
	SupervisorID  string
	EventDate     string // RFC3339
	Venue         string
	Notes         string
	AdvancePaid   string
	Discount      string
	TransportCost string
	MealPlans     []MealPlan
	Stalls        []Stall
	Items         []OrderLineRequest
	CreatedBy     uuid.UUID
}

// CreateOrderResult is the created order with its items.
type CreateOrderResult struct {
	Order database.Order
	Items []database.OrderItem
}

// CreateOrder validates the booking, computes its financials via the shared
// projection, and inserts the order with its items in one transaction.
// Orders start as PENDING and carry no bill yet.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
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

	advance, err := parseAmount(req.AdvancePaid)
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

	proj, err := ProjectAdjustment(req.MealPlans, transport, discount, req.Stalls, advance, decimal.Zero)
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

	if _, err := store.GetCustomer(ctx, customerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		CustomerID:      customerID,
		SupervisorID:    supervisorID,
		EventDate:       eventDate,
		Venue:           textOrNull(req.Venue),
		Status:          database.OrderStatusPENDING,
		TotalAmount:     decimalToNumeric(proj.Total),
		AdvancePaid:     decimalToNumeric(proj.Paid),
		RemainingAmount: decimalToNumeric(proj.Remaining),
		Discount:        decimalToNumeric(discount),
		TransportCost:   decimalToNumeric(transport),
		MealPlans:       plansJSON,
		Stalls:          stallsJSON,
		Notes:           textOrNull(req.Notes),
		CreatedBy:       req.CreatedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	items, err := insertOrderItems(ctx, store, order.ID, req.Items)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateOrderResult{Order: order, Items: items}, nil
}

// DeleteOrder removes an order together with its items and bill.
func (s *OrderService) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetOrderForUpdate(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("get order: %w", err)
	}

	if err := store.DeleteBillByOrder(ctx, id); err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	if err := store.DeleteOrderItemsByOrder(ctx, id); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	if err := store.DeleteOrder(ctx, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// insertOrderItems validates each catalog line against the menu and inserts
// it with the price captured at order time.
func insertOrderItems(ctx context.Context, store OrderStore, orderID uuid.UUID, lines []OrderLineRequest) ([]database.OrderItem, error) {
	var items []database.OrderItem
	for i, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		menuItemID, err := uuid.Parse(line.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, ErrInvalidMenuItemID)
		}
		menuItem, err := store.GetMenuItem(ctx, menuItemID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("item[%d]: %w", i, ErrMenuItemNotFound)
			}
			return nil, fmt.Errorf("item[%d]: get menu item: %w", i, err)
		}

		unitPrice := numericToDecimal(menuItem.UnitPrice)
		subtotal := unitPrice.Mul(decimal.NewFromInt32(line.Quantity))

		item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:    orderID,
			MenuItemID: menuItemID,
			Quantity:   line.Quantity,
			UnitPrice:  decimalToNumeric(unitPrice),
			Subtotal:   decimalToNumeric(subtotal),
		})
		if err != nil {
			return nil, fmt.Errorf("item[%d]: create order item: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// --- Helpers ---

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return d, nil
}

func parseOptionalUUID(s string, invalid error) (pgtype.UUID, error) {
	if s == "" {
		return pgtype.UUID{}, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}, invalid
	}
	return pgtype.UUID{Bytes: id, Valid: true}, nil
}

func parseEventDate(s string) (pgtype.Timestamptz, error) {
	if s == "" {
		return pgtype.Timestamptz{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return pgtype.Timestamptz{}, fmt.Errorf("%w: %w", ErrInvalidEventDate, err)
	}
	return pgtype.Timestamptz{Time: t, Valid: true}, nil
}

func textOrNull(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
