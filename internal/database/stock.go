package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createStockItem = `-- name: CreateStockItem :one
INSERT INTO stock_items (name, unit, quantity, reorder_level, unit_cost)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, name, unit, quantity, reorder_level, unit_cost, created_at, updated_at
`

type CreateStockItemParams struct {
	Name         string
	Unit         string
	Quantity     pgtype.Numeric
	ReorderLevel pgtype.Numeric
	UnitCost     pgtype.Numeric
}

func (q *Queries) CreateStockItem(ctx context.Context, arg CreateStockItemParams) (StockItem, error) {
	row := q.db.QueryRow(ctx, createStockItem,
		arg.Name,
		arg.Unit,
		arg.Quantity,
		arg.ReorderLevel,
		arg.UnitCost,
	)
	var i StockItem
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Unit,
		&i.Quantity,
		&i.ReorderLevel,
		&i.UnitCost,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getStockItem = `-- name: GetStockItem :one
SELECT id, name, unit, quantity, reorder_level, unit_cost, created_at, updated_at
FROM stock_items
WHERE id = $1
`

func (q *Queries) GetStockItem(ctx context.Context, id uuid.UUID) (StockItem, error) {
	row := q.db.QueryRow(ctx, getStockItem, id)
	var i StockItem
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Unit,
		&i.Quantity,
		&i.ReorderLevel,
		&i.UnitCost,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getStockItemForUpdate = `-- name: GetStockItemForUpdate :one
SELECT id, name, unit, quantity, reorder_level, unit_cost, created_at, updated_at
FROM stock_items
WHERE id = $1
FOR NO KEY UPDATE
`

func (q *Queries) GetStockItemForUpdate(ctx context.Context, id uuid.UUID) (StockItem, error) {
	row := q.db.QueryRow(ctx, getStockItemForUpdate, id)
	var i StockItem
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Unit,
		&i.Quantity,
		&i.ReorderLevel,
		&i.UnitCost,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listStockItems = `-- name: ListStockItems :many
SELECT id, name, unit, quantity, reorder_level, unit_cost, created_at, updated_at
FROM stock_items
ORDER BY name
`

func (q *Queries) ListStockItems(ctx context.Context) ([]StockItem, error) {
	rows, err := q.db.Query(ctx, listStockItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StockItem
	for rows.Next() {
		var i StockItem
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Unit,
			&i.Quantity,
			&i.ReorderLevel,
			&i.UnitCost,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listLowStockItems = `-- name: ListLowStockItems :many
SELECT id, name, unit, quantity, reorder_level, unit_cost, created_at, updated_at
FROM stock_items
WHERE quantity <= reorder_level
ORDER BY name
`

func (q *Queries) ListLowStockItems(ctx context.Context) ([]StockItem, error) {
	rows, err := q.db.Query(ctx, listLowStockItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StockItem
	for rows.Next() {
		var i StockItem
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Unit,
			&i.Quantity,
			&i.ReorderLevel,
			&i.UnitCost,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateStockItem = `-- name: UpdateStockItem :one
UPDATE stock_items
SET name = $2, unit = $3, reorder_level = $4, unit_cost = $5, updated_at = NOW()
WHERE id = $1
RETURNING id, name, unit, quantity, reorder_level, unit_cost, created_at, updated_at
`

type UpdateStockItemParams struct {
	ID           uuid.UUID
	Name         string
	Unit         string
	ReorderLevel pgtype.Numeric
	UnitCost     pgtype.Numeric
}

func (q *Queries) UpdateStockItem(ctx context.Context, arg UpdateStockItemParams) (StockItem, error) {
	row := q.db.QueryRow(ctx, updateStockItem,
		arg.ID,
		arg.Name,
		arg.Unit,
		arg.ReorderLevel,
		arg.UnitCost,
	)
	var i StockItem
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Unit,
		&i.Quantity,
		&i.ReorderLevel,
		&i.UnitCost,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const adjustStockQuantity = `-- name: AdjustStockQuantity :one
UPDATE stock_items
SET quantity = quantity + $2, updated_at = NOW()
WHERE id = $1
RETURNING id, name, unit, quantity, reorder_level, unit_cost, created_at, updated_at
`

type AdjustStockQuantityParams struct {
	ID    uuid.UUID
	Delta pgtype.Numeric
}

func (q *Queries) AdjustStockQuantity(ctx context.Context, arg AdjustStockQuantityParams) (StockItem, error) {
	row := q.db.QueryRow(ctx, adjustStockQuantity, arg.ID, arg.Delta)
	var i StockItem
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Unit,
		&i.Quantity,
		&i.ReorderLevel,
		&i.UnitCost,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteStockItem = `-- name: DeleteStockItem :exec
DELETE FROM stock_items WHERE id = $1
`

func (q *Queries) DeleteStockItem(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteStockItem, id)
	return err
}

const createStockMovement = `-- name: CreateStockMovement :one
INSERT INTO stock_movements (stock_item_id, movement_type, quantity, unit_cost, order_id, notes)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, stock_item_id, movement_type, quantity, unit_cost, order_id, notes, created_at
`

type CreateStockMovementParams struct {
	StockItemID  uuid.UUID
	MovementType string
	Quantity     pgtype.Numeric
	UnitCost     pgtype.Numeric
	OrderID      pgtype.UUID
	Notes        pgtype.Text
}

func (q *Queries) CreateStockMovement(ctx context.Context, arg CreateStockMovementParams) (StockMovement, error) {
	row := q.db.QueryRow(ctx, createStockMovement,
		arg.StockItemID,
		arg.MovementType,
		arg.Quantity,
		arg.UnitCost,
		arg.OrderID,
		arg.Notes,
	)
	var i StockMovement
	err := row.Scan(
		&i.ID,
		&i.StockItemID,
		&i.MovementType,
		&i.Quantity,
		&i.UnitCost,
		&i.OrderID,
		&i.Notes,
		&i.CreatedAt,
	)
	return i, err
}

const listStockMovementsByItem = `-- name: ListStockMovementsByItem :many
SELECT id, stock_item_id, movement_type, quantity, unit_cost, order_id, notes, created_at
FROM stock_movements
WHERE stock_item_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

type ListStockMovementsByItemParams struct {
	StockItemID uuid.UUID
	Limit       int32
	Offset      int32
}

func (q *Queries) ListStockMovementsByItem(ctx context.Context, arg ListStockMovementsByItemParams) ([]StockMovement, error) {
	rows, err := q.db.Query(ctx, listStockMovementsByItem, arg.StockItemID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []StockMovement
	for rows.Next() {
		var i StockMovement
		if err := rows.Scan(
			&i.ID,
			&i.StockItemID,
			&i.MovementType,
			&i.Quantity,
			&i.UnitCost,
			&i.OrderID,
			&i.Notes,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
