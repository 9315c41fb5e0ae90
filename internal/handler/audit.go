package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/annapurna-catering/api/internal/database"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// AuditStore is satisfied by *database.Queries.
type AuditStore interface {
	ListAuditLogs(ctx context.Context, arg database.ListAuditLogsParams) ([]database.AuditLog, error)
}

// Auditor records the audit trail for financial mutations. Satisfied by
// *audit.Recorder.
type Auditor interface {
	Record(userID uuid.UUID, action, entity string, entityID uuid.UUID, detail any)
}

// AuditHandler serves the audit trail read endpoint.
type AuditHandler struct {
	store AuditStore
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(store AuditStore) *AuditHandler {
	return &AuditHandler{store: store}
}

// RegisterRoutes registers audit endpoints on the given Chi router.
func (h *AuditHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

type auditLogResponse struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Action    string          `json:"action"`
	Entity    string          `json:"entity"`
	EntityID  *uuid.UUID      `json:"entity_id"`
	Detail    json.RawMessage `json:"detail"`
	CreatedAt time.Time       `json:"created_at"`
}

// List returns audit entries, newest first, optionally filtered to one
// entity.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	var entityID pgtype.UUID
	if s := r.URL.Query().Get("entity_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid entity_id"})
			return
		}
		entityID = pgtype.UUID{Bytes: id, Valid: true}
	}

	logs, err := h.store.ListAuditLogs(r.Context(), database.ListAuditLogsParams{
		Entity:   r.URL.Query().Get("entity"),
		EntityID: entityID,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		log.Printf("ERROR: list audit logs: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]auditLogResponse, len(logs))
	for i, l := range logs {
		entry := auditLogResponse{
			ID:        l.ID,
			UserID:    l.UserID,
			Action:    l.Action,
			Entity:    l.Entity,
			Detail:    rawOrEmptyObject(l.Detail),
			CreatedAt: l.CreatedAt,
		}
		if l.EntityID.Valid {
			id := uuid.UUID(l.EntityID.Bytes)
			entry.EntityID = &id
		}
		resp[i] = entry
	}
	writeJSON(w, http.StatusOK, resp)
}

func rawOrEmptyObject(b []byte) json.RawMessage {
	if len(b) == 0 {
		return json.RawMessage("{}")
	}
	return json.RawMessage(b)
}
