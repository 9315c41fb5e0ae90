//go:build integration

package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/annapurna-catering/api/internal/config"
	"github.com/annapurna-catering/api/internal/database"
	"github.com/annapurna-catering/api/internal/router"
	"github.com/annapurna-catering/api/internal/ws"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

// TestIntegrationFlow walks an order through its full financial lifecycle
// against a real PostgreSQL database: booking with an advance, the lazy
// bill on IN_PROGRESS, a mid-event revision with an additional payment,
// and forced settlement on COMPLETED.
func TestIntegrationFlow(t *testing.T) {
	ctx := context.Background()

	pgContainer, connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	runMigrations(t, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	cfg := &config.Config{
		Port:        "8081",
		DatabaseURL: connStr,
		JWTSecret:   "integration-test-secret",
	}
	queries := database.New(pool)
	hub := ws.NewHub()
	// Hub has no shutdown mechanism; the goroutine leaking on test exit
	// is acceptable here.
	go hub.Run()

	r := router.New(cfg, queries, pool, hub)

	server := httptest.NewServer(r)
	defer server.Close()

	// --- 1. Bootstrap owner user (direct DB insert) ---
	ownerID := createOwner(t, ctx, pool)

	// --- 2. Login ---
	token := login(t, server, "owner@test.com", "password123")

	// --- 3. Create a customer ---
	customerResp := httpPostJSON(t, server, "/customers", map[string]interface{}{
		"name":  "Sharma Family",
		"phone": "9876543210",
	}, token)
	customerID := uuid.MustParse(customerResp["id"].(string))

	// --- 4. Book an order: 10000 total, 2000 advance ---
	orderResp := httpPostJSON(t, server, "/orders", map[string]interface{}{
		"customer_id":  customerID.String(),
		"advance_paid": "2000",
		"venue":        "Community Hall",
		"meal_plans": []map[string]interface{}{
			{
				"meal_type":      "LUNCH",
				"pricing_method": "PER_PLATE",
				"plates":         100,
				"plate_price":    "100",
				"members":        100,
			},
		},
	}, token)
	orderID := uuid.MustParse(orderResp["id"].(string))
	if orderResp["status"].(string) != "PENDING" {
		t.Fatalf("new order status: got %s, want PENDING", orderResp["status"])
	}
	if orderResp["total_amount"].(string) != "10000.00" {
		t.Fatalf("order total: got %s, want 10000.00", orderResp["total_amount"])
	}
	if orderResp["remaining_amount"].(string) != "8000.00" {
		t.Fatalf("order remaining: got %s, want 8000.00", orderResp["remaining_amount"])
	}

	// --- 5. No bill yet while PENDING ---
	assertStatus(t, server, "GET", "/bills/"+orderID.String(), nil, token, http.StatusNotFound)

	// --- 6. Move to IN_PROGRESS: bill is created lazily, seeded with the advance ---
	statusResp := httpPutJSON(t, server, "/orders/"+orderID.String(), map[string]interface{}{
		"status": "IN_PROGRESS",
	}, token)
	if statusResp["_billCreated"] != true {
		t.Fatalf("expected _billCreated true, got %v", statusResp["_billCreated"])
	}
	if statusResp["_billStatus"].(string) != "PARTIAL" {
		t.Fatalf("bill status: got %s, want PARTIAL", statusResp["_billStatus"])
	}

	// --- 7. Ledger opens with the BOOKING entry ---
	ledger := httpGetJSON(t, server, "/bills/"+orderID.String()+"/ledger", token)
	entries := ledger["entries"].([]interface{})
	if len(entries) != 1 {
		t.Fatalf("ledger after bill creation: got %d entries, want 1", len(entries))
	}
	first := entries[0].(map[string]interface{})
	if first["source"].(string) != "BOOKING" {
		t.Fatalf("first ledger entry source: got %s, want BOOKING", first["source"])
	}

	// --- 8. Revise the order mid-event: 20 more guests, 3000 paid now ---
	updateResp := httpPutJSON(t, server, "/orders/"+orderID.String(), map[string]interface{}{
		"customer_id":        customerID.String(),
		"advance_paid":       "2000",
		"additional_payment": "3000",
		"payment_method":     "UPI",
		"venue":              "Community Hall",
		"meal_plans": []map[string]interface{}{
			{
				"meal_type":      "LUNCH",
				"pricing_method": "PER_PLATE",
				"plates":         120,
				"plate_price":    "100",
				"members":        120,
			},
		},
	}, token)
	if updateResp["change_summary"] == nil || updateResp["change_summary"].(string) == "" {
		t.Fatalf("expected a change summary for the revision, got %v", updateResp["change_summary"])
	}
	bill := updateResp["bill"].(map[string]interface{})
	if bill["total_amount"].(string) != "12000.00" {
		t.Fatalf("bill total after revision: got %s, want 12000.00", bill["total_amount"])
	}
	if bill["paid_amount"].(string) != "5000.00" {
		t.Fatalf("bill paid after revision: got %s, want 5000.00", bill["paid_amount"])
	}

	ledger = httpGetJSON(t, server, "/bills/"+orderID.String()+"/ledger", token)
	entries = ledger["entries"].([]interface{})
	if len(entries) < 2 {
		t.Fatalf("ledger after revision: got %d entries, want at least 2", len(entries))
	}
	last := entries[len(entries)-1].(map[string]interface{})
	if last["source"].(string) != "PAYMENT" {
		t.Fatalf("latest ledger entry source: got %s, want PAYMENT", last["source"])
	}
	if last["method"].(string) != "UPI" {
		t.Fatalf("latest ledger entry method: got %s, want UPI", last["method"])
	}

	// --- 9. Complete the event: remaining balance is force-settled ---
	doneResp := httpPutJSON(t, server, "/orders/"+orderID.String(), map[string]interface{}{
		"status": "COMPLETED",
	}, token)
	if doneResp["_billStatus"].(string) != "PAID" {
		t.Fatalf("bill status after completion: got %s, want PAID", doneResp["_billStatus"])
	}
	finalBill := httpGetJSON(t, server, "/bills/"+orderID.String(), token)
	if finalBill["remaining_amount"].(string) != "0.00" {
		t.Fatalf("bill remaining after settlement: got %s, want 0.00", finalBill["remaining_amount"])
	}

	// --- 10. Completed orders reject further transitions ---
	assertStatus(t, server, "PUT", "/orders/"+orderID.String(),
		map[string]interface{}{"status": "IN_PROGRESS"}, token, http.StatusConflict)

	// --- 11. Record an expense against the order ---
	expenseResp := httpPostJSON(t, server, "/expenses", map[string]interface{}{
		"category":    "GROCERY",
		"description": "Vegetables and paneer",
		"amount":      "1500",
		"paid_amount": "1500",
		"order_id":    orderID.String(),
	}, token)
	if expenseResp["status"].(string) != "PAID" {
		t.Fatalf("expense status: got %s, want PAID", expenseResp["status"])
	}

	// --- 12. Stock: create an item and consume past its reorder level ---
	itemResp := httpPostJSON(t, server, "/stock-items", map[string]interface{}{
		"name":          "Basmati Rice",
		"unit":          "kg",
		"quantity":      "50",
		"reorder_level": "10",
		"unit_cost":     "80",
	}, token)
	itemID := uuid.MustParse(itemResp["id"].(string))

	moveResp := httpPostJSON(t, server, "/stock-items/"+itemID.String()+"/movements", map[string]interface{}{
		"type":     "CONSUMPTION",
		"quantity": "45",
		"order_id": orderID.String(),
	}, token)
	movedItem := moveResp["item"].(map[string]interface{})
	if movedItem["quantity"].(string) != "5.00" {
		t.Fatalf("stock after consumption: got %s, want 5.00", movedItem["quantity"])
	}
	if movedItem["low_stock"] != true {
		t.Fatalf("expected low_stock true after consumption")
	}

	// Over-draining is rejected.
	assertStatus(t, server, "POST", "/stock-items/"+itemID.String()+"/movements",
		map[string]interface{}{"type": "CONSUMPTION", "quantity": "500"}, token, http.StatusBadRequest)

	// --- 13. Dashboard reflects the settled revenue ---
	dashboard := httpGetJSON(t, server, "/reports/dashboard", token)
	if dashboard["total_revenue"].(string) != "12000.00" {
		t.Fatalf("dashboard revenue: got %s, want 12000.00", dashboard["total_revenue"])
	}

	// --- 14. The order's audit trail covers create, revision, and both
	// status changes ---
	auditResp := doRequest(t, server, "GET", "/audit-logs?entity=order&entity_id="+orderID.String(), nil, token)
	defer auditResp.Body.Close()
	if auditResp.StatusCode != http.StatusOK {
		t.Fatalf("list audit logs: status %d", auditResp.StatusCode)
	}
	var auditLogs []map[string]interface{}
	if err := json.NewDecoder(auditResp.Body).Decode(&auditLogs); err != nil {
		t.Fatalf("decode audit logs: %v", err)
	}
	if len(auditLogs) < 4 {
		t.Fatalf("audit trail: got %d entries, want at least 4", len(auditLogs))
	}

	t.Logf("integration flow passed: container=%s owner=%s order=%s",
		pgContainer.GetContainerID(), ownerID, orderID)
}

// --- Setup helpers ---

func setupPostgresContainer(t *testing.T, ctx context.Context) (testcontainers.Container, string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("catering_test"),
		tcpostgres.WithUsername("catering"),
		tcpostgres.WithPassword("catering"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}

	return pgContainer, connStr, cleanup
}

func runMigrations(t *testing.T, connStr string) {
	t.Helper()

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open db for migrations: %v", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		t.Fatalf("create migrate driver: %v", err)
	}

	// Relative to this package directory; go test sets the cwd there.
	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"postgres", driver)
	if err != nil {
		t.Fatalf("create migrate instance: %v", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("run migrations: %v", err)
	}
}

func createOwner(t *testing.T, ctx context.Context, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	var id uuid.UUID
	err = pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		"Test Owner", "owner@test.com", string(hashed), "OWNER",
	).Scan(&id)
	if err != nil {
		t.Fatalf("create owner user: %v", err)
	}
	return id
}

func login(t *testing.T, server *httptest.Server, email, password string) string {
	t.Helper()
	resp := httpPostJSON(t, server, "/auth/login", map[string]interface{}{
		"email":    email,
		"password": password,
	}, "")
	token, ok := resp["access_token"].(string)
	if !ok || token == "" {
		t.Fatalf("login failed: no access_token in response: %+v", resp)
	}
	return token
}

// --- HTTP helpers ---

func httpPostJSON(t *testing.T, server *httptest.Server, path string, body map[string]interface{}, token string) map[string]interface{} {
	t.Helper()
	return httpJSON(t, server, "POST", path, body, token)
}

func httpPutJSON(t *testing.T, server *httptest.Server, path string, body map[string]interface{}, token string) map[string]interface{} {
	t.Helper()
	return httpJSON(t, server, "PUT", path, body, token)
}

func httpGetJSON(t *testing.T, server *httptest.Server, path string, token string) map[string]interface{} {
	t.Helper()
	return httpJSON(t, server, "GET", path, nil, token)
}

func httpJSON(t *testing.T, server *httptest.Server, method, path string, body map[string]interface{}, token string) map[string]interface{} {
	t.Helper()
	resp := doRequest(t, server, method, path, body, token)
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("%s %s: status %d, body: %v", method, path, resp.StatusCode, errResp)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result
}

func assertStatus(t *testing.T, server *httptest.Server, method, path string, body map[string]interface{}, token string, want int) {
	t.Helper()
	resp := doRequest(t, server, method, path, body, token)
	defer resp.Body.Close()
	if resp.StatusCode != want {
		t.Fatalf("%s %s: status %d, want %d", method, path, resp.StatusCode, want)
	}
}

func doRequest(t *testing.T, server *httptest.Server, method, path string, body map[string]interface{}, token string) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}
