package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createMenuItem = `-- name: CreateMenuItem :one
INSERT INTO menu_items (name, category, unit_price, active)
VALUES ($1, $2, $3, $4)
RETURNING id, name, category, unit_price, active, created_at, updated_at
`

type CreateMenuItemParams struct {
	Name      string
	Category  string
	UnitPrice pgtype.Numeric
	Active    bool
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, createMenuItem, arg.Name, arg.Category, arg.UnitPrice, arg.Active)
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Category,
		&i.UnitPrice,
		&i.Active,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getMenuItem = `-- name: GetMenuItem :one
SELECT id, name, category, unit_price, active, created_at, updated_at
FROM menu_items
WHERE id = $1
`

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	row := q.db.QueryRow(ctx, getMenuItem, id)
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Category,
		&i.UnitPrice,
		&i.Active,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listMenuItems = `-- name: ListMenuItems :many
SELECT id, name, category, unit_price, active, created_at, updated_at
FROM menu_items
WHERE ($1::text = '' OR category = $1)
  AND ($2::bool IS FALSE OR active)
ORDER BY category, name
`

type ListMenuItemsParams struct {
	Category   string
	ActiveOnly bool
}

func (q *Queries) ListMenuItems(ctx context.Context, arg ListMenuItemsParams) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems, arg.Category, arg.ActiveOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItem
	for rows.Next() {
		var i MenuItem
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Category,
			&i.UnitPrice,
			&i.Active,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateMenuItem = `-- name: UpdateMenuItem :one
UPDATE menu_items
SET name = $2, category = $3, unit_price = $4, active = $5, updated_at = NOW()
WHERE id = $1
RETURNING id, name, category, unit_price, active, created_at, updated_at
`

type UpdateMenuItemParams struct {
	ID        uuid.UUID
	Name      string
	Category  string
	UnitPrice pgtype.Numeric
	Active    bool
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, updateMenuItem, arg.ID, arg.Name, arg.Category, arg.UnitPrice, arg.Active)
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Category,
		&i.UnitPrice,
		&i.Active,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteMenuItem = `-- name: DeleteMenuItem :exec
DELETE FROM menu_items WHERE id = $1
`

func (q *Queries) DeleteMenuItem(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteMenuItem, id)
	return err
}
