package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getRevenueSummary = `-- name: GetRevenueSummary :one
SELECT COUNT(*)                                  AS order_count,
       COALESCE(SUM(total_amount), 0)            AS total_revenue,
       COALESCE(SUM(advance_paid), 0)            AS total_collected,
       COALESCE(SUM(remaining_amount), 0)        AS total_outstanding
FROM orders
WHERE status != 'CANCELLED'
  AND ($1::timestamptz IS NULL OR created_at >= $1)
  AND ($2::timestamptz IS NULL OR created_at <= $2)
`

type GetRevenueSummaryParams struct {
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
}

type GetRevenueSummaryRow struct {
	OrderCount       int64
	TotalRevenue     pgtype.Numeric
	TotalCollected   pgtype.Numeric
	TotalOutstanding pgtype.Numeric
}

func (q *Queries) GetRevenueSummary(ctx context.Context, arg GetRevenueSummaryParams) (GetRevenueSummaryRow, error) {
	row := q.db.QueryRow(ctx, getRevenueSummary, arg.StartDate, arg.EndDate)
	var i GetRevenueSummaryRow
	err := row.Scan(&i.OrderCount, &i.TotalRevenue, &i.TotalCollected, &i.TotalOutstanding)
	return i, err
}

const getMonthlyRevenue = `-- name: GetMonthlyRevenue :many
SELECT EXTRACT(MONTH FROM created_at)::int       AS month,
       COUNT(*)                                  AS order_count,
       COALESCE(SUM(total_amount), 0)            AS total_revenue,
       COALESCE(SUM(advance_paid), 0)            AS total_collected
FROM orders
WHERE status != 'CANCELLED'
  AND EXTRACT(YEAR FROM created_at) = $1
GROUP BY month
ORDER BY month
`

type GetMonthlyRevenueRow struct {
	Month          int32
	OrderCount     int64
	TotalRevenue   pgtype.Numeric
	TotalCollected pgtype.Numeric
}

func (q *Queries) GetMonthlyRevenue(ctx context.Context, year int32) ([]GetMonthlyRevenueRow, error) {
	rows, err := q.db.Query(ctx, getMonthlyRevenue, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetMonthlyRevenueRow
	for rows.Next() {
		var i GetMonthlyRevenueRow
		if err := rows.Scan(&i.Month, &i.OrderCount, &i.TotalRevenue, &i.TotalCollected); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getExpenseSummary = `-- name: GetExpenseSummary :many
SELECT category,
       COALESCE(SUM(amount), 0)      AS total_amount,
       COALESCE(SUM(paid_amount), 0) AS total_paid
FROM expenses
WHERE ($1::date IS NULL OR expense_date >= $1)
  AND ($2::date IS NULL OR expense_date <= $2)
GROUP BY category
ORDER BY category
`

type GetExpenseSummaryParams struct {
	StartDate pgtype.Date
	EndDate   pgtype.Date
}

type GetExpenseSummaryRow struct {
	Category    string
	TotalAmount pgtype.Numeric
	TotalPaid   pgtype.Numeric
}

func (q *Queries) GetExpenseSummary(ctx context.Context, arg GetExpenseSummaryParams) ([]GetExpenseSummaryRow, error) {
	rows, err := q.db.Query(ctx, getExpenseSummary, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetExpenseSummaryRow
	for rows.Next() {
		var i GetExpenseSummaryRow
		if err := rows.Scan(&i.Category, &i.TotalAmount, &i.TotalPaid); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countOrdersByStatus = `-- name: CountOrdersByStatus :many
SELECT status, COUNT(*) AS count
FROM orders
GROUP BY status
`

type CountOrdersByStatusRow struct {
	Status OrderStatus
	Count  int64
}

func (q *Queries) CountOrdersByStatus(ctx context.Context) ([]CountOrdersByStatusRow, error) {
	rows, err := q.db.Query(ctx, countOrdersByStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CountOrdersByStatusRow
	for rows.Next() {
		var i CountOrdersByStatusRow
		if err := rows.Scan(&i.Status, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listUpcomingOrders = `-- name: ListUpcomingOrders :many
SELECT id, customer_id, supervisor_id, event_date, venue, status, total_amount, advance_paid, remaining_amount, discount, transport_cost, meal_plans, stalls, notes, created_by, created_at, updated_at
FROM orders
WHERE status IN ('PENDING', 'IN_PROGRESS')
  AND event_date >= NOW()
ORDER BY event_date
LIMIT $1
`

func (q *Queries) ListUpcomingOrders(ctx context.Context, limit int32) ([]Order, error) {
	rows, err := q.db.Query(ctx, listUpcomingOrders, limit)
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

const getPayrollTotal = `-- name: GetPayrollTotal :one
SELECT COALESCE(SUM(gross_pay), 0)
FROM payroll_entries
WHERE ($1::date IS NULL OR payroll_date >= $1)
  AND ($2::date IS NULL OR payroll_date <= $2)
`

type GetPayrollTotalParams struct {
	StartDate pgtype.Date
	EndDate   pgtype.Date
}

func (q *Queries) GetPayrollTotal(ctx context.Context, arg GetPayrollTotalParams) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, getPayrollTotal, arg.StartDate, arg.EndDate)
	var total pgtype.Numeric
	err := row.Scan(&total)
	return total, err
}
