package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createBill = `-- name: CreateBill :one
INSERT INTO bills (order_id, total_amount, paid_amount, remaining_amount, status, payment_history)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, order_id, total_amount, paid_amount, remaining_amount, status, payment_history, created_at, updated_at
`

type CreateBillParams struct {
	OrderID         uuid.UUID
	TotalAmount     pgtype.Numeric
	PaidAmount      pgtype.Numeric
	RemainingAmount pgtype.Numeric
	Status          BillStatus
	PaymentHistory  []byte
}

func (q *Queries) CreateBill(ctx context.Context, arg CreateBillParams) (Bill, error) {
	row := q.db.QueryRow(ctx, createBill,
		arg.OrderID,
		arg.TotalAmount,
		arg.PaidAmount,
		arg.RemainingAmount,
		arg.Status,
		arg.PaymentHistory,
	)
	var i Bill
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.TotalAmount,
		&i.PaidAmount,
		&i.RemainingAmount,
		&i.Status,
		&i.PaymentHistory,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getBill = `-- name: GetBill :one
SELECT id, order_id, total_amount, paid_amount, remaining_amount, status, payment_history, created_at, updated_at
FROM bills
WHERE id = $1
`

func (q *Queries) GetBill(ctx context.Context, id uuid.UUID) (Bill, error) {
	row := q.db.QueryRow(ctx, getBill, id)
	var i Bill
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.TotalAmount,
		&i.PaidAmount,
		&i.RemainingAmount,
		&i.Status,
		&i.PaymentHistory,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getBillByOrder = `-- name: GetBillByOrder :one
SELECT id, order_id, total_amount, paid_amount, remaining_amount, status, payment_history, created_at, updated_at
FROM bills
WHERE order_id = $1
`

func (q *Queries) GetBillByOrder(ctx context.Context, orderID uuid.UUID) (Bill, error) {
	row := q.db.QueryRow(ctx, getBillByOrder, orderID)
	var i Bill
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.TotalAmount,
		&i.PaidAmount,
		&i.RemainingAmount,
		&i.Status,
		&i.PaymentHistory,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listBills = `-- name: ListBills :many
SELECT id, order_id, total_amount, paid_amount, remaining_amount, status, payment_history, created_at, updated_at
FROM bills
WHERE ($1::bill_status IS NULL OR status = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

type ListBillsParams struct {
	Status pgtype.Text
	Limit  int32
	Offset int32
}

func (q *Queries) ListBills(ctx context.Context, arg ListBillsParams) ([]Bill, error) {
	rows, err := q.db.Query(ctx, listBills, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Bill
	for rows.Next() {
		var i Bill
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.TotalAmount,
			&i.PaidAmount,
			&i.RemainingAmount,
			&i.Status,
			&i.PaymentHistory,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateBill = `-- name: UpdateBill :one
UPDATE bills
SET total_amount = $2,
    paid_amount = $3,
    remaining_amount = $4,
    status = $5,
    payment_history = $6,
    updated_at = NOW()
WHERE id = $1
RETURNING id, order_id, total_amount, paid_amount, remaining_amount, status, payment_history, created_at, updated_at
`

type UpdateBillParams struct {
	ID              uuid.UUID
	TotalAmount     pgtype.Numeric
	PaidAmount      pgtype.Numeric
	RemainingAmount pgtype.Numeric
	Status          BillStatus
	PaymentHistory  []byte
}

func (q *Queries) UpdateBill(ctx context.Context, arg UpdateBillParams) (Bill, error) {
	row := q.db.QueryRow(ctx, updateBill,
		arg.ID,
		arg.TotalAmount,
		arg.PaidAmount,
		arg.RemainingAmount,
		arg.Status,
		arg.PaymentHistory,
	)
	var i Bill
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.TotalAmount,
		&i.PaidAmount,
		&i.RemainingAmount,
		&i.Status,
		&i.PaymentHistory,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteBillByOrder = `-- name: DeleteBillByOrder :exec
DELETE FROM bills WHERE order_id = $1
`

func (q *Queries) DeleteBillByOrder(ctx context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteBillByOrder, orderID)
	return err
}
