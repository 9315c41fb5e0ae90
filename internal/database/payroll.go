package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createPayrollEntry = `-- name: CreatePayrollEntry :one
INSERT INTO payroll_entries (payroll_date, period_type, period_ref, employee_name, gross_pay, payment_method, order_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, payroll_date, period_type, period_ref, employee_name, gross_pay, payment_method, order_id, paid_at, created_at
`

type CreatePayrollEntryParams struct {
	PayrollDate   pgtype.Date
	PeriodType    string
	PeriodRef     pgtype.Text
	EmployeeName  string
	GrossPay      pgtype.Numeric
	PaymentMethod string
	OrderID       pgtype.UUID
}

func (q *Queries) CreatePayrollEntry(ctx context.Context, arg CreatePayrollEntryParams) (PayrollEntry, error) {
	row := q.db.QueryRow(ctx, createPayrollEntry,
		arg.PayrollDate,
		arg.PeriodType,
		arg.PeriodRef,
		arg.EmployeeName,
		arg.GrossPay,
		arg.PaymentMethod,
		arg.OrderID,
	)
	var i PayrollEntry
	err := row.Scan(
		&i.ID,
		&i.PayrollDate,
		&i.PeriodType,
		&i.PeriodRef,
		&i.EmployeeName,
		&i.GrossPay,
		&i.PaymentMethod,
		&i.OrderID,
		&i.PaidAt,
		&i.CreatedAt,
	)
	return i, err
}

const getPayrollEntry = `-- name: GetPayrollEntry :one
SELECT id, payroll_date, period_type, period_ref, employee_name, gross_pay, payment_method, order_id, paid_at, created_at
FROM payroll_entries
WHERE id = $1
`

func (q *Queries) GetPayrollEntry(ctx context.Context, id uuid.UUID) (PayrollEntry, error) {
	row := q.db.QueryRow(ctx, getPayrollEntry, id)
	var i PayrollEntry
	err := row.Scan(
		&i.ID,
		&i.PayrollDate,
		&i.PeriodType,
		&i.PeriodRef,
		&i.EmployeeName,
		&i.GrossPay,
		&i.PaymentMethod,
		&i.OrderID,
		&i.PaidAt,
		&i.CreatedAt,
	)
	return i, err
}

const listPayrollEntries = `-- name: ListPayrollEntries :many
SELECT id, payroll_date, period_type, period_ref, employee_name, gross_pay, payment_method, order_id, paid_at, created_at
FROM payroll_entries
WHERE ($1::date IS NULL OR payroll_date >= $1)
  AND ($2::date IS NULL OR payroll_date <= $2)
  AND ($3::bool IS FALSE OR paid_at IS NULL)
ORDER BY payroll_date DESC, created_at DESC
LIMIT $4 OFFSET $5
`

type ListPayrollEntriesParams struct {
	StartDate  pgtype.Date
	EndDate    pgtype.Date
	UnpaidOnly bool
	Limit      int32
	Offset     int32
}

func (q *Queries) ListPayrollEntries(ctx context.Context, arg ListPayrollEntriesParams) ([]PayrollEntry, error) {
	rows, err := q.db.Query(ctx, listPayrollEntries,
		arg.StartDate,
		arg.EndDate,
		arg.UnpaidOnly,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PayrollEntry
	for rows.Next() {
		var i PayrollEntry
		if err := rows.Scan(
			&i.ID,
			&i.PayrollDate,
			&i.PeriodType,
			&i.PeriodRef,
			&i.EmployeeName,
			&i.GrossPay,
			&i.PaymentMethod,
			&i.OrderID,
			&i.PaidAt,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updatePayrollEntry = `-- name: UpdatePayrollEntry :one
UPDATE payroll_entries
SET payroll_date = $2, period_type = $3, period_ref = $4, employee_name = $5,
    gross_pay = $6, payment_method = $7, order_id = $8
WHERE id = $1 AND paid_at IS NULL
RETURNING id, payroll_date, period_type, period_ref, employee_name, gross_pay, payment_method, order_id, paid_at, created_at
`

type UpdatePayrollEntryParams struct {
	ID            uuid.UUID
	PayrollDate   pgtype.Date
	PeriodType    string
	PeriodRef     pgtype.Text
	EmployeeName  string
	GrossPay      pgtype.Numeric
	PaymentMethod string
	OrderID       pgtype.UUID
}

func (q *Queries) UpdatePayrollEntry(ctx context.Context, arg UpdatePayrollEntryParams) (PayrollEntry, error) {
	row := q.db.QueryRow(ctx, updatePayrollEntry,
		arg.ID,
		arg.PayrollDate,
		arg.PeriodType,
		arg.PeriodRef,
		arg.EmployeeName,
		arg.GrossPay,
		arg.PaymentMethod,
		arg.OrderID,
	)
	var i PayrollEntry
	err := row.Scan(
		&i.ID,
		&i.PayrollDate,
		&i.PeriodType,
		&i.PeriodRef,
		&i.EmployeeName,
		&i.GrossPay,
		&i.PaymentMethod,
		&i.OrderID,
		&i.PaidAt,
		&i.CreatedAt,
	)
	return i, err
}

const deletePayrollEntry = `-- name: DeletePayrollEntry :exec
DELETE FROM payroll_entries WHERE id = $1 AND paid_at IS NULL
`

func (q *Queries) DeletePayrollEntry(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deletePayrollEntry, id)
	return err
}

const markPayrollEntriesPaid = `-- name: MarkPayrollEntriesPaid :exec
UPDATE payroll_entries
SET paid_at = NOW()
WHERE id = ANY($1::uuid[]) AND paid_at IS NULL
`

func (q *Queries) MarkPayrollEntriesPaid(ctx context.Context, ids []uuid.UUID) error {
	_, err := q.db.Exec(ctx, markPayrollEntriesPaid, ids)
	return err
}
