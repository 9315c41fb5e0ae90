package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (
    customer_id, supervisor_id, event_date, venue, status,
    total_amount, advance_paid, remaining_amount, discount, transport_cost,
    meal_plans, stalls, notes, created_by
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
)
RETURNING id, customer_id, supervisor_id, event_date, venue, status, total_amount, advance_paid, remaining_amount, discount, transport_cost, meal_plans, stalls, notes, created_by, created_at, updated_at
`

type CreateOrderParams struct {
	CustomerID      uuid.UUID
	SupervisorID    pgtype.UUID
	EventDate       pgtype.Timestamptz
	Venue           pgtype.Text
	Status          OrderStatus
	TotalAmount     pgtype.Numeric
	AdvancePaid     pgtype.Numeric
	RemainingAmount pgtype.Numeric
	Discount        pgtype.Numeric
	TransportCost   pgtype.Numeric
	MealPlans       []byte
	Stalls          []byte
	Notes           pgtype.Text
	CreatedBy       uuid.UUID
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.CustomerID,
		arg.SupervisorID,
		arg.EventDate,
		arg.Venue,
		arg.Status,
		arg.TotalAmount,
		arg.AdvancePaid,
		arg.RemainingAmount,
		arg.Discount,
		arg.TransportCost,
		arg.MealPlans,
		arg.Stalls,
		arg.Notes,
		arg.CreatedBy,
	)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.CustomerID,
		&i.SupervisorID,
		&i.EventDate,
		&i.Venue,
		&i.Status,
		&i.TotalAmount,
		&i.AdvancePaid,
		&i.RemainingAmount,
		&i.Discount,
		&i.TransportCost,
		&i.MealPlans,
		&i.Stalls,
		&i.Notes,
		&i.CreatedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getOrder = `-- name: GetOrder :one
SELECT id, customer_id, supervisor_id, event_date, venue, status, total_amount, advance_paid, remaining_amount, discount, transport_cost, meal_plans, stalls, notes, created_by, created_at, updated_at
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, id)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.CustomerID,
		&i.SupervisorID,
		&i.EventDate,
		&i.Venue,
		&i.Status,
		&i.TotalAmount,
		&i.AdvancePaid,
		&i.RemainingAmount,
		&i.Discount,
		&i.TransportCost,
		&i.MealPlans,
		&i.Stalls,
		&i.Notes,
		&i.CreatedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getOrderForUpdate = `-- name: GetOrderForUpdate :one
SELECT id, customer_id, supervisor_id, event_date, venue, status, total_amount, advance_paid, remaining_amount, discount, transport_cost, meal_plans, stalls, notes, created_by, created_at, updated_at
FROM orders
WHERE id = $1
FOR NO KEY UPDATE
`

// GetOrderForUpdate locks the order row for the duration of the enclosing
// transaction, serializing concurrent financial edits.
func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderForUpdate, id)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.CustomerID,
		&i.SupervisorID,
		&i.EventDate,
		&i.Venue,
		&i.Status,
		&i.TotalAmount,
		&i.AdvancePaid,
		&i.RemainingAmount,
		&i.Discount,
		&i.TransportCost,
		&i.MealPlans,
		&i.Stalls,
		&i.Notes,
		&i.CreatedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listOrders = `-- name: ListOrders :many
SELECT id, customer_id, supervisor_id, event_date, venue, status, total_amount, advance_paid, remaining_amount, discount, transport_cost, meal_plans, stalls, notes, created_by, created_at, updated_at
FROM orders
WHERE ($1::order_status IS NULL OR status = $1)
  AND ($2::uuid IS NULL OR customer_id = $2)
  AND ($3::timestamptz IS NULL OR event_date >= $3)
  AND ($4::timestamptz IS NULL OR event_date <= $4)
ORDER BY created_at DESC
LIMIT $5 OFFSET $6
`

type ListOrdersParams struct {
	Status     NullOrderStatus
	CustomerID pgtype.UUID
	StartDate  pgtype.Timestamptz
	EndDate    pgtype.Timestamptz
	Limit      int32
	Offset     int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders,
		arg.Status,
		arg.CustomerID,
		arg.StartDate,
		arg.EndDate,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Order
	for rows.Next() {
		var i Order
		if err := rows.Scan(
			&i.ID,
			&i.CustomerID,
			&i.SupervisorID,
			&i.EventDate,
			&i.Venue,
			&i.Status,
			&i.TotalAmount,
			&i.AdvancePaid,
			&i.RemainingAmount,
			&i.Discount,
			&i.TransportCost,
			&i.MealPlans,
			&i.Stalls,
			&i.Notes,
			&i.CreatedBy,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateOrderStatus = `-- name: UpdateOrderStatus :one
UPDATE orders
SET status = $2, updated_at = NOW()
WHERE id = $1
RETURNING id, customer_id, supervisor_id, event_date, venue, status, total_amount, advance_paid, remaining_amount, discount, transport_cost, meal_plans, stalls, notes, created_by, created_at, updated_at
`

type UpdateOrderStatusParams struct {
	ID     uuid.UUID
	Status OrderStatus
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.CustomerID,
		&i.SupervisorID,
		&i.EventDate,
		&i.Venue,
		&i.Status,
		&i.TotalAmount,
		&i.AdvancePaid,
		&i.RemainingAmount,
		&i.Discount,
		&i.TransportCost,
		&i.MealPlans,
		&i.Stalls,
		&i.Notes,
		&i.CreatedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateOrderFinancials = `-- name: UpdateOrderFinancials :one
UPDATE orders
SET customer_id = $2,
    supervisor_id = $3,
    event_date = $4,
    venue = $5,
    total_amount = $6,
    advance_paid = $7,
    remaining_amount = $8,
    discount = $9,
    transport_cost = $10,
    meal_plans = $11,
    stalls = $12,
    notes = $13,
    updated_at = NOW()
WHERE id = $1
RETURNING id, customer_id, supervisor_id, event_date, venue, status, total_amount, advance_paid, remaining_amount, discount, transport_cost, meal_plans, stalls, notes, created_by, created_at, updated_at
`

type UpdateOrderFinancialsParams struct {
	ID              uuid.UUID
	CustomerID      uuid.UUID
	SupervisorID    pgtype.UUID
	EventDate       pgtype.Timestamptz
	Venue           pgtype.Text
	TotalAmount     pgtype.Numeric
	AdvancePaid     pgtype.Numeric
	RemainingAmount pgtype.Numeric
	Discount        pgtype.Numeric
	TransportCost   pgtype.Numeric
	MealPlans       []byte
	Stalls          []byte
	Notes           pgtype.Text
}

func (q *Queries) UpdateOrderFinancials(ctx context.Context, arg UpdateOrderFinancialsParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderFinancials,
		arg.ID,
		arg.CustomerID,
		arg.SupervisorID,
		arg.EventDate,
		arg.Venue,
		arg.TotalAmount,
		arg.AdvancePaid,
		arg.RemainingAmount,
		arg.Discount,
		arg.TransportCost,
		arg.MealPlans,
		arg.Stalls,
		arg.Notes,
	)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.CustomerID,
		&i.SupervisorID,
		&i.EventDate,
		&i.Venue,
		&i.Status,
		&i.TotalAmount,
		&i.AdvancePaid,
		&i.RemainingAmount,
		&i.Discount,
		&i.TransportCost,
		&i.MealPlans,
		&i.Stalls,
		&i.Notes,
		&i.CreatedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const settleOrder = `-- name: SettleOrder :one
UPDATE orders
SET advance_paid = total_amount, remaining_amount = 0, updated_at = NOW()
WHERE id = $1
RETURNING id, customer_id, supervisor_id, event_date, venue, status, total_amount, advance_paid, remaining_amount, discount, transport_cost, meal_plans, stalls, notes, created_by, created_at, updated_at
`

// SettleOrder mirrors a forced bill settlement back onto the order.
func (q *Queries) SettleOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, settleOrder, id)
	var i Order
	err := row.Scan(
		&i.ID,
		&i.CustomerID,
		&i.SupervisorID,
		&i.EventDate,
		&i.Venue,
		&i.Status,
		&i.TotalAmount,
		&i.AdvancePaid,
		&i.RemainingAmount,
		&i.Discount,
		&i.TransportCost,
		&i.MealPlans,
		&i.Stalls,
		&i.Notes,
		&i.CreatedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteOrder = `-- name: DeleteOrder :exec
DELETE FROM orders WHERE id = $1
`

func (q *Queries) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteOrder, id)
	return err
}

const createOrderItem = `-- name: CreateOrderItem :one
INSERT INTO order_items (order_id, menu_item_id, quantity, unit_price, subtotal)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, order_id, menu_item_id, quantity, unit_price, subtotal
`

type CreateOrderItemParams struct {
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Quantity   int32
	UnitPrice  pgtype.Numeric
	Subtotal   pgtype.Numeric
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.MenuItemID,
		arg.Quantity,
		arg.UnitPrice,
		arg.Subtotal,
	)
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.MenuItemID,
		&i.Quantity,
		&i.UnitPrice,
		&i.Subtotal,
	)
	return i, err
}

const listOrderItemsByOrder = `-- name: ListOrderItemsByOrder :many
SELECT id, order_id, menu_item_id, quantity, unit_price, subtotal
FROM order_items
WHERE order_id = $1
ORDER BY id
`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.MenuItemID,
			&i.Quantity,
			&i.UnitPrice,
			&i.Subtotal,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteOrderItemsByOrder = `-- name: DeleteOrderItemsByOrder :exec
DELETE FROM order_items WHERE order_id = $1
`

func (q *Queries) DeleteOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteOrderItemsByOrder, orderID)
	return err
}

const listOrdersByCustomer = `-- name: ListOrdersByCustomer :many
SELECT id, customer_id, supervisor_id, event_date, venue, status, total_amount, advance_paid, remaining_amount, discount, transport_cost, meal_plans, stalls, notes, created_by, created_at, updated_at
FROM orders
WHERE customer_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

type ListOrdersByCustomerParams struct {
	CustomerID uuid.UUID
	Limit      int32
	Offset     int32
}

func (q *Queries) ListOrdersByCustomer(ctx context.Context, arg ListOrdersByCustomerParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByCustomer, arg.CustomerID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Order
	for rows.Next() {
		var i Order
		if err := rows.Scan(
			&i.ID,
			&i.CustomerID,
			&i.SupervisorID,
			&i.EventDate,
			&i.Venue,
			&i.Status,
			&i.TotalAmount,
			&i.AdvancePaid,
			&i.RemainingAmount,
			&i.Discount,
			&i.TransportCost,
			&i.MealPlans,
			&i.Stalls,
			&i.Notes,
			&i.CreatedBy,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
