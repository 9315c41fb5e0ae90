package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/annapurna-catering/api/internal/database"
	"github.com/annapurna-catering/api/internal/ws"
	"github.com/jackc/pgx/v5/pgtype"
)

// Store is the subset of queries the notifier writes through.
// Satisfied by *database.Queries.
type Store interface {
	CreateNotification(ctx context.Context, arg database.CreateNotificationParams) (database.Notification, error)
}

// Notifier persists notifications, pushes them to connected clients and
// mirrors WARNING/CRITICAL ones to an external webhook. All delivery is
// best effort; callers never see an error.
type Notifier struct {
	store      Store
	hub        *ws.Hub
	webhookURL string
	client     *http.Client
}

// New creates a Notifier. hub may be nil in tests; webhookURL may be
// empty to disable webhook delivery.
func New(store Store, hub *ws.Hub, webhookURL string) *Notifier {
	return &Notifier{
		store:      store,
		hub:        hub,
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

// OrderStatusChanged records an order lifecycle event.
func (n *Notifier) OrderStatusChanged(order database.Order, bill *database.Bill) {
	message := fmt.Sprintf("Order %s moved to %s", order.ID, order.Status)
	if bill != nil {
		message = fmt.Sprintf("%s (bill %s)", message, bill.Status)
	}
	n.emit(ws.TopicOrders, "order.status_changed", database.CreateNotificationParams{
		Type:     "ORDER_STATUS",
		Title:    "Order status changed",
		Message:  message,
		EntityID: pgtype.UUID{Bytes: order.ID, Valid: true},
		Severity: "INFO",
	})
}

// OrderRevised records a financial or meal-plan revision on an order.
func (n *Notifier) OrderRevised(order database.Order, summary string) {
	n.emit(ws.TopicOrders, "order.revised", database.CreateNotificationParams{
		Type:     "ORDER_REVISED",
		Title:    "Order revised",
		Message:  fmt.Sprintf("Order %s: %s", order.ID, summary),
		EntityID: pgtype.UUID{Bytes: order.ID, Valid: true},
		Severity: "INFO",
	})
}

// LowStock records an item dropping to or below its reorder level.
func (n *Notifier) LowStock(item database.StockItem) {
	n.emit(ws.TopicStock, "stock.low", database.CreateNotificationParams{
		Type:     "LOW_STOCK",
		Title:    "Low stock",
		Message:  fmt.Sprintf("%s is at or below its reorder level", item.Name),
		EntityID: pgtype.UUID{Bytes: item.ID, Valid: true},
		Severity: "WARNING",
	})
}

func (n *Notifier) emit(topic, eventType string, params database.CreateNotificationParams) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	notification, err := n.store.CreateNotification(ctx, params)
	if err != nil {
		log.Printf("ERROR: persist notification: %v", err)
		return
	}

	if n.hub != nil {
		payload, err := json.Marshal(map[string]any{
			"id":        notification.ID,
			"type":      notification.Type,
			"title":     notification.Title,
			"message":   notification.Message,
			"severity":  notification.Severity,
			"entity_id": params.EntityID,
		})
		if err == nil {
			n.hub.Broadcast(topic, ws.Event{Type: eventType, Payload: payload})
			n.hub.Broadcast(ws.TopicNotifications, ws.Event{Type: eventType, Payload: payload})
		}
	}

	if n.webhookURL != "" && params.Severity != "INFO" {
		go n.postWebhook(params)
	}
}

func (n *Notifier) postWebhook(params database.CreateNotificationParams) {
	body, err := json.Marshal(map[string]string{
		"type":     params.Type,
		"title":    params.Title,
		"message":  params.Message,
		"severity": params.Severity,
	})
	if err != nil {
		return
	}

	resp, err := n.client.Post(n.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("ERROR: webhook delivery: %v", err)
		return
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode >= 300 {
		log.Printf("ERROR: webhook delivery: status %d", resp.StatusCode)
	}
}
