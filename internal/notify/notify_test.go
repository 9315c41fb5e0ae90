package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/annapurna-catering/api/internal/database"
	"github.com/google/uuid"
)

type mockStore struct {
	createNotificationFn func(ctx context.Context, arg database.CreateNotificationParams) (database.Notification, error)
}

func (m *mockStore) CreateNotification(ctx context.Context, arg database.CreateNotificationParams) (database.Notification, error) {
	return m.createNotificationFn(ctx, arg)
}

func TestLowStockPersistsWarning(t *testing.T) {
	var captured database.CreateNotificationParams
	store := &mockStore{
		createNotificationFn: func(_ context.Context, arg database.CreateNotificationParams) (database.Notification, error) {
			captured = arg
			return database.Notification{
				ID:       uuid.New(),
				Type:     arg.Type,
				Title:    arg.Title,
				Message:  arg.Message,
				Severity: arg.Severity,
			}, nil
		},
	}

	n := New(store, nil, "")
	n.LowStock(database.StockItem{ID: uuid.New(), Name: "Basmati Rice"})

	if captured.Type != "LOW_STOCK" {
		t.Errorf("expected type LOW_STOCK, got %s", captured.Type)
	}
	if captured.Severity != "WARNING" {
		t.Errorf("expected severity WARNING, got %s", captured.Severity)
	}
}

func TestWebhookFiredForWarnings(t *testing.T) {
	received := make(chan map[string]string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode webhook body: %v", err)
		}
		received <- body
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := &mockStore{
		createNotificationFn: func(_ context.Context, arg database.CreateNotificationParams) (database.Notification, error) {
			return database.Notification{ID: uuid.New()}, nil
		},
	}

	n := New(store, nil, srv.URL)
	n.LowStock(database.StockItem{ID: uuid.New(), Name: "Paneer"})

	select {
	case body := <-received:
		if body["severity"] != "WARNING" {
			t.Errorf("expected severity WARNING, got %s", body["severity"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was not called")
	}
}

func TestWebhookSkippedForInfo(t *testing.T) {
	called := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called <- struct{}{}
	}))
	defer srv.Close()

	store := &mockStore{
		createNotificationFn: func(_ context.Context, arg database.CreateNotificationParams) (database.Notification, error) {
			return database.Notification{ID: uuid.New()}, nil
		},
	}

	n := New(store, nil, srv.URL)
	n.OrderStatusChanged(database.Order{ID: uuid.New(), Status: database.OrderStatusINPROGRESS}, nil)

	select {
	case <-called:
		t.Fatal("webhook should not fire for INFO notifications")
	case <-time.After(200 * time.Millisecond):
		// Expected
	}
}

func TestStoreFailureIsSwallowed(t *testing.T) {
	store := &mockStore{
		createNotificationFn: func(_ context.Context, arg database.CreateNotificationParams) (database.Notification, error) {
			return database.Notification{}, context.DeadlineExceeded
		},
	}

	n := New(store, nil, "")
	// Must not panic or propagate
	n.OrderRevised(database.Order{ID: uuid.New()}, "LUNCH members 100 -> 120")
}
