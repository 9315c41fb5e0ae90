package handler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/annapurna-catering/api/internal/database"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ReportStore is satisfied by *database.Queries.
type ReportStore interface {
	GetRevenueSummary(ctx context.Context, arg database.GetRevenueSummaryParams) (database.GetRevenueSummaryRow, error)
	GetMonthlyRevenue(ctx context.Context, year int32) ([]database.GetMonthlyRevenueRow, error)
	GetExpenseSummary(ctx context.Context, arg database.GetExpenseSummaryParams) ([]database.GetExpenseSummaryRow, error)
	CountOrdersByStatus(ctx context.Context) ([]database.CountOrdersByStatusRow, error)
	ListUpcomingOrders(ctx context.Context, limit int32) ([]database.Order, error)
	GetPayrollTotal(ctx context.Context, arg database.GetPayrollTotalParams) (pgtype.Numeric, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (database.Customer, error)
}

// ReportHandler serves aggregate reporting endpoints.
type ReportHandler struct {
	store ReportStore
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(store ReportStore) *ReportHandler {
	return &ReportHandler{store: store}
}

// RegisterRoutes registers reporting endpoints on the given Chi router.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.Dashboard)
	r.Get("/monthly", h.Monthly)
	r.Get("/expenses", h.ExpenseSummary)
	r.Get("/tax-estimate", h.TaxEstimate)
	r.Get("/export", h.Export)
}

type dashboardResponse struct {
	OrderCount       int64            `json:"order_count"`
	TotalRevenue     string           `json:"total_revenue"`
	TotalCollected   string           `json:"total_collected"`
	TotalOutstanding string           `json:"total_outstanding"`
	TotalExpenses    string           `json:"total_expenses"`
	StatusCounts     map[string]int64 `json:"status_counts"`
	UpcomingOrders   []orderResponse  `json:"upcoming_orders"`
}

type monthlyRow struct {
	Month          int32  `json:"month"`
	OrderCount     int64  `json:"order_count"`
	TotalRevenue   string `json:"total_revenue"`
	TotalCollected string `json:"total_collected"`
}

type expenseSummaryRow struct {
	Category    string `json:"category"`
	TotalAmount string `json:"total_amount"`
	TotalPaid   string `json:"total_paid"`
}

type taxEstimateResponse struct {
	Year          int32  `json:"year"`
	Rate          string `json:"rate"`
	TotalRevenue  string `json:"total_revenue"`
	TotalExpenses string `json:"total_expenses"`
	TotalPayroll  string `json:"total_payroll"`
	NetProfit     string `json:"net_profit"`
	EstimatedTax  string `json:"estimated_tax"`
}

// reportRange resolves start/end query params, defaulting to the current
// calendar year.
func reportRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now()
	start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return start, end, fmt.Errorf("invalid start_date")
		}
		start = t
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return start, end, fmt.Errorf("invalid end_date")
		}
		end = t
	}
	return start, end, nil
}

// Dashboard returns the headline numbers the landing page shows.
func (h *ReportHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	start, end, err := reportRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	revenue, err := h.store.GetRevenueSummary(r.Context(), database.GetRevenueSummaryParams{
		StartDate: pgtype.Timestamptz{Time: start, Valid: true},
		EndDate:   pgtype.Timestamptz{Time: end, Valid: true},
	})
	if err != nil {
		log.Printf("ERROR: revenue summary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	expenseRows, err := h.store.GetExpenseSummary(r.Context(), database.GetExpenseSummaryParams{
		StartDate: pgtype.Date{Time: start, Valid: true},
		EndDate:   pgtype.Date{Time: end, Valid: true},
	})
	if err != nil {
		log.Printf("ERROR: expense summary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	totalExpenses := decimal.Zero
	for _, row := range expenseRows {
		d, err := numericAsDecimal(row.TotalAmount)
		if err != nil {
			log.Printf("ERROR: expense summary amount: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		totalExpenses = totalExpenses.Add(d)
	}

	statusRows, err := h.store.CountOrdersByStatus(r.Context())
	if err != nil {
		log.Printf("ERROR: count orders by status: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	statusCounts := make(map[string]int64, len(statusRows))
	for _, row := range statusRows {
		statusCounts[string(row.Status)] = row.Count
	}

	upcoming, err := h.store.ListUpcomingOrders(r.Context(), 5)
	if err != nil {
		log.Printf("ERROR: list upcoming orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	upcomingResp := make([]orderResponse, len(upcoming))
	for i, o := range upcoming {
		upcomingResp[i] = dbOrderToResponse(o)
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		OrderCount:       revenue.OrderCount,
		TotalRevenue:     numericToString(revenue.TotalRevenue),
		TotalCollected:   numericToString(revenue.TotalCollected),
		TotalOutstanding: numericToString(revenue.TotalOutstanding),
		TotalExpenses:    totalExpenses.StringFixed(2),
		StatusCounts:     statusCounts,
		UpcomingOrders:   upcomingResp,
	})
}

// Monthly returns per-month revenue for a year.
func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	year := int32(time.Now().Year())
	if s := r.URL.Query().Get("year"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid year"})
			return
		}
		year = int32(v)
	}

	rows, err := h.store.GetMonthlyRevenue(r.Context(), year)
	if err != nil {
		log.Printf("ERROR: monthly revenue: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]monthlyRow, len(rows))
	for i, row := range rows {
		resp[i] = monthlyRow{
			Month:          row.Month,
			OrderCount:     row.OrderCount,
			TotalRevenue:   numericToString(row.TotalRevenue),
			TotalCollected: numericToString(row.TotalCollected),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ExpenseSummary returns spend grouped by category for a date range.
func (h *ReportHandler) ExpenseSummary(w http.ResponseWriter, r *http.Request) {
	start, end, err := reportRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := h.store.GetExpenseSummary(r.Context(), database.GetExpenseSummaryParams{
		StartDate: pgtype.Date{Time: start, Valid: true},
		EndDate:   pgtype.Date{Time: end, Valid: true},
	})
	if err != nil {
		log.Printf("ERROR: expense summary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]expenseSummaryRow, len(rows))
	for i, row := range rows {
		resp[i] = expenseSummaryRow{
			Category:    row.Category,
			TotalAmount: numericToString(row.TotalAmount),
			TotalPaid:   numericToString(row.TotalPaid),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// TaxEstimate computes estimated tax on net profit for a year at a flat
// rate. This is a planning figure, not a filing.
func (h *ReportHandler) TaxEstimate(w http.ResponseWriter, r *http.Request) {
	year := int32(time.Now().Year())
	if s := r.URL.Query().Get("year"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid year"})
			return
		}
		year = int32(v)
	}

	rate := decimal.NewFromFloat(0.30)
	if s := r.URL.Query().Get("rate"); s != "" {
		v, err := decimal.NewFromString(s)
		if err != nil || v.IsNegative() || v.GreaterThan(decimal.NewFromInt(1)) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "rate must be between 0 and 1"})
			return
		}
		rate = v
	}

	start := time.Date(int(year), 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	revenue, err := h.store.GetRevenueSummary(r.Context(), database.GetRevenueSummaryParams{
		StartDate: pgtype.Timestamptz{Time: start, Valid: true},
		EndDate:   pgtype.Timestamptz{Time: end, Valid: true},
	})
	if err != nil {
		log.Printf("ERROR: revenue summary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	expenseRows, err := h.store.GetExpenseSummary(r.Context(), database.GetExpenseSummaryParams{
		StartDate: pgtype.Date{Time: start, Valid: true},
		EndDate:   pgtype.Date{Time: end, Valid: true},
	})
	if err != nil {
		log.Printf("ERROR: expense summary: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	payrollTotal, err := h.store.GetPayrollTotal(r.Context(), database.GetPayrollTotalParams{
		StartDate: pgtype.Date{Time: start, Valid: true},
		EndDate:   pgtype.Date{Time: end, Valid: true},
	})
	if err != nil {
		log.Printf("ERROR: payroll total: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	totalRevenue, err := numericAsDecimal(revenue.TotalRevenue)
	if err != nil {
		log.Printf("ERROR: revenue amount: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	totalExpenses := decimal.Zero
	for _, row := range expenseRows {
		d, err := numericAsDecimal(row.TotalAmount)
		if err != nil {
			log.Printf("ERROR: expense amount: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		totalExpenses = totalExpenses.Add(d)
	}
	totalPayroll, err := numericAsDecimal(payrollTotal)
	if err != nil {
		log.Printf("ERROR: payroll amount: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	netProfit := totalRevenue.Sub(totalExpenses).Sub(totalPayroll)
	estimatedTax := decimal.Zero
	if netProfit.IsPositive() {
		estimatedTax = netProfit.Mul(rate)
	}

	writeJSON(w, http.StatusOK, taxEstimateResponse{
		Year:          year,
		Rate:          rate.String(),
		TotalRevenue:  totalRevenue.StringFixed(2),
		TotalExpenses: totalExpenses.StringFixed(2),
		TotalPayroll:  totalPayroll.StringFixed(2),
		NetProfit:     netProfit.StringFixed(2),
		EstimatedTax:  estimatedTax.StringFixed(2),
	})
}

// Export streams an xlsx workbook with orders and the expense summary
// for the requested range.
func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	start, end, err := reportRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	orders, err := h.store.ListOrders(r.Context(), database.ListOrdersParams{
		StartDate: pgtype.Timestamptz{Time: start, Valid: true},
		EndDate:   pgtype.Timestamptz{Time: end, Valid: true},
		Limit:     10000,
	})
	if err != nil {
		log.Printf("ERROR: list orders for export: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	expenseRows, err := h.store.GetExpenseSummary(r.Context(), database.GetExpenseSummaryParams{
		StartDate: pgtype.Date{Time: start, Valid: true},
		EndDate:   pgtype.Date{Time: end, Valid: true},
	})
	if err != nil {
		log.Printf("ERROR: expense summary for export: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	const ordersSheet = "Orders"
	f.SetSheetName("Sheet1", ordersSheet)
	headers := []string{"Order ID", "Customer", "Event Date", "Status", "Total", "Advance Paid", "Remaining"}
	for i, hdr := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(ordersSheet, cell, hdr) //nolint:errcheck
	}
	for rowIdx, o := range orders {
		customerName := ""
		if customer, err := h.store.GetCustomer(r.Context(), o.CustomerID); err == nil {
			customerName = customer.Name
		}
		eventDate := ""
		if o.EventDate.Valid {
			eventDate = o.EventDate.Time.Format("2006-01-02")
		}
		values := []any{
			o.ID.String(),
			customerName,
			eventDate,
			string(o.Status),
			numericToString(o.TotalAmount),
			numericToString(o.AdvancePaid),
			numericToString(o.RemainingAmount),
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(ordersSheet, cell, v) //nolint:errcheck
		}
	}

	const expenseSheet = "Expenses"
	f.NewSheet(expenseSheet)
	f.SetCellValue(expenseSheet, "A1", "Category")     //nolint:errcheck
	f.SetCellValue(expenseSheet, "B1", "Total Amount") //nolint:errcheck
	f.SetCellValue(expenseSheet, "C1", "Total Paid")   //nolint:errcheck
	for i, row := range expenseRows {
		f.SetCellValue(expenseSheet, fmt.Sprintf("A%d", i+2), row.Category)                     //nolint:errcheck
		f.SetCellValue(expenseSheet, fmt.Sprintf("B%d", i+2), numericToString(row.TotalAmount)) //nolint:errcheck
		f.SetCellValue(expenseSheet, fmt.Sprintf("C%d", i+2), numericToString(row.TotalPaid))   //nolint:errcheck
	}

	filename := fmt.Sprintf("report_%s_%s.xlsx", start.Format("20060102"), end.Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := f.Write(w); err != nil {
		log.Printf("ERROR: write xlsx: %v", err)
	}
}

func numericAsDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, nil
	}
	val, err := n.Value()
	if err != nil {
		return decimal.Zero, err
	}
	if val == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(val.(string))
}
