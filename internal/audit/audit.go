// Package audit records who changed what on the financial entities. Writes
// are fire-and-forget: a failed audit insert is logged, never surfaced to
// the request that triggered it.
package audit

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/annapurna-catering/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Store persists audit entries. Satisfied by *database.Queries.
type Store interface {
	CreateAuditLog(ctx context.Context, arg database.CreateAuditLogParams) (database.AuditLog, error)
}

// Recorder writes audit trail entries.
type Recorder struct {
	store Store
}

// NewRecorder creates a Recorder backed by the given store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record persists one audit entry. detail is marshalled to JSON; a nil
// detail produces an empty object. The incoming request context is not
// used so the write survives the response being sent.
func (r *Recorder) Record(userID uuid.UUID, action, entity string, entityID uuid.UUID, detail any) {
	payload := []byte(`{}`)
	if detail != nil {
		b, err := json.Marshal(detail)
		if err != nil {
			log.Printf("ERROR: marshal audit detail for %s %s: %v", action, entity, err)
		} else {
			payload = b
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.store.CreateAuditLog(ctx, database.CreateAuditLogParams{
		UserID:   userID,
		Action:   action,
		Entity:   entity,
		EntityID: pgtype.UUID{Bytes: entityID, Valid: entityID != uuid.Nil},
		Detail:   payload,
	})
	if err != nil {
		log.Printf("ERROR: write audit log %s %s %s: %v", action, entity, entityID, err)
	}
}
