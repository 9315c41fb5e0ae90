package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/annapurna-catering/api/internal/database"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// NotificationStore is satisfied by *database.Queries.
type NotificationStore interface {
	ListNotifications(ctx context.Context, arg database.ListNotificationsParams) ([]database.Notification, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID) (database.Notification, error)
}

// NotificationHandler serves in-app notifications.
type NotificationHandler struct {
	store NotificationStore
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(store NotificationStore) *NotificationHandler {
	return &NotificationHandler{store: store}
}

// RegisterRoutes registers notification endpoints on the given Chi router.
func (h *NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/{id}/read", h.MarkRead)
}

type notificationResponse struct {
	ID        uuid.UUID  `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	EntityID  *uuid.UUID `json:"entity_id"`
	Severity  string     `json:"severity"`
	Read      bool       `json:"read"`
	CreatedAt time.Time  `json:"created_at"`
}

func toNotificationResponse(n database.Notification) notificationResponse {
	resp := notificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Severity:  n.Severity,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
	if n.EntityID.Valid {
		id := uuid.UUID(n.EntityID.Bytes)
		resp.EntityID = &id
	}
	return resp
}

// List returns notifications, newest first.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	notifications, err := h.store.ListNotifications(r.Context(), database.ListNotificationsParams{
		UnreadOnly: r.URL.Query().Get("unread") == "true",
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		log.Printf("ERROR: list notifications: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]notificationResponse, len(notifications))
	for i, n := range notifications {
		resp[i] = toNotificationResponse(n)
	}
	writeJSON(w, http.StatusOK, resp)
}

// MarkRead flags a notification as read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid notification ID"})
		return
	}

	notification, err := h.store.MarkNotificationRead(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "notification not found"})
			return
		}
		log.Printf("ERROR: mark notification read: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toNotificationResponse(notification))
}
