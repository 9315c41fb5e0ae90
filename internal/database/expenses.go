package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createExpense = `-- name: CreateExpense :one
INSERT INTO expenses (category, recipient, description, amount, paid_amount, status, order_id, expense_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, category, recipient, description, amount, paid_amount, status, order_id, expense_date, created_at, updated_at
`

type CreateExpenseParams struct {
	Category    string
	Recipient   string
	Description pgtype.Text
	Amount      pgtype.Numeric
	PaidAmount  pgtype.Numeric
	Status      ExpenseStatus
	OrderID     pgtype.UUID
	ExpenseDate pgtype.Date
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (Expense, error) {
	row := q.db.QueryRow(ctx, createExpense,
		arg.Category,
		arg.Recipient,
		arg.Description,
		arg.Amount,
		arg.PaidAmount,
		arg.Status,
		arg.OrderID,
		arg.ExpenseDate,
	)
	var i Expense
	err := row.Scan(
		&i.ID,
		&i.Category,
		&i.Recipient,
		&i.Description,
		&i.Amount,
		&i.PaidAmount,
		&i.Status,
		&i.OrderID,
		&i.ExpenseDate,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getExpense = `-- name: GetExpense :one
SELECT id, category, recipient, description, amount, paid_amount, status, order_id, expense_date, created_at, updated_at
FROM expenses
WHERE id = $1
`

func (q *Queries) GetExpense(ctx context.Context, id uuid.UUID) (Expense, error) {
	row := q.db.QueryRow(ctx, getExpense, id)
	var i Expense
	err := row.Scan(
		&i.ID,
		&i.Category,
		&i.Recipient,
		&i.Description,
		&i.Amount,
		&i.PaidAmount,
		&i.Status,
		&i.OrderID,
		&i.ExpenseDate,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listExpenses = `-- name: ListExpenses :many
SELECT id, category, recipient, description, amount, paid_amount, status, order_id, expense_date, created_at, updated_at
FROM expenses
WHERE ($1::uuid IS NULL OR order_id = $1)
  AND ($2::text = '' OR category = $2)
ORDER BY expense_date DESC, created_at DESC
LIMIT $3 OFFSET $4
`

type ListExpensesParams struct {
	OrderID  pgtype.UUID
	Category string
	Limit    int32
	Offset   int32
}

func (q *Queries) ListExpenses(ctx context.Context, arg ListExpensesParams) ([]Expense, error) {
	rows, err := q.db.Query(ctx, listExpenses, arg.OrderID, arg.Category, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		var i Expense
		if err := rows.Scan(
			&i.ID,
			&i.Category,
			&i.Recipient,
			&i.Description,
			&i.Amount,
			&i.PaidAmount,
			&i.Status,
			&i.OrderID,
			&i.ExpenseDate,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listExpensesByOrder = `-- name: ListExpensesByOrder :many
SELECT id, category, recipient, description, amount, paid_amount, status, order_id, expense_date, created_at, updated_at
FROM expenses
WHERE order_id = $1
ORDER BY expense_date DESC, created_at DESC
`

func (q *Queries) ListExpensesByOrder(ctx context.Context, orderID uuid.UUID) ([]Expense, error) {
	rows, err := q.db.Query(ctx, listExpensesByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		var i Expense
		if err := rows.Scan(
			&i.ID,
			&i.Category,
			&i.Recipient,
			&i.Description,
			&i.Amount,
			&i.PaidAmount,
			&i.Status,
			&i.OrderID,
			&i.ExpenseDate,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateExpense = `-- name: UpdateExpense :one
UPDATE expenses
SET category = $2, recipient = $3, description = $4, amount = $5,
    paid_amount = $6, status = $7, order_id = $8, expense_date = $9, updated_at = NOW()
WHERE id = $1
RETURNING id, category, recipient, description, amount, paid_amount, status, order_id, expense_date, created_at, updated_at
`

type UpdateExpenseParams struct {
	ID          uuid.UUID
	Category    string
	Recipient   string
	Description pgtype.Text
	Amount      pgtype.Numeric
	PaidAmount  pgtype.Numeric
	Status      ExpenseStatus
	OrderID     pgtype.UUID
	ExpenseDate pgtype.Date
}

func (q *Queries) UpdateExpense(ctx context.Context, arg UpdateExpenseParams) (Expense, error) {
	row := q.db.QueryRow(ctx, updateExpense,
		arg.ID,
		arg.Category,
		arg.Recipient,
		arg.Description,
		arg.Amount,
		arg.PaidAmount,
		arg.Status,
		arg.OrderID,
		arg.ExpenseDate,
	)
	var i Expense
	err := row.Scan(
		&i.ID,
		&i.Category,
		&i.Recipient,
		&i.Description,
		&i.Amount,
		&i.PaidAmount,
		&i.Status,
		&i.OrderID,
		&i.ExpenseDate,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteExpense = `-- name: DeleteExpense :exec
DELETE FROM expenses WHERE id = $1
`

func (q *Queries) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteExpense, id)
	return err
}
