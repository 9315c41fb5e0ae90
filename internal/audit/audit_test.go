package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/annapurna-catering/api/internal/database"
	"github.com/google/uuid"
)

type mockStore struct {
	createFn func(ctx context.Context, arg database.CreateAuditLogParams) (database.AuditLog, error)
}

func (m *mockStore) CreateAuditLog(ctx context.Context, arg database.CreateAuditLogParams) (database.AuditLog, error) {
	return m.createFn(ctx, arg)
}

func TestRecordPersistsEntry(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()

	var got database.CreateAuditLogParams
	store := &mockStore{
		createFn: func(_ context.Context, arg database.CreateAuditLogParams) (database.AuditLog, error) {
			got = arg
			return database.AuditLog{ID: uuid.New()}, nil
		},
	}
	r := NewRecorder(store)

	r.Record(userID, "STATUS_CHANGE", "order", orderID, map[string]string{"status": "COMPLETED"})

	if got.UserID != userID {
		t.Errorf("user: got %s, want %s", got.UserID, userID)
	}
	if got.Action != "STATUS_CHANGE" || got.Entity != "order" {
		t.Errorf("got action %q entity %q", got.Action, got.Entity)
	}
	if !got.EntityID.Valid || uuid.UUID(got.EntityID.Bytes) != orderID {
		t.Errorf("entity ID: got %v, want %s", got.EntityID, orderID)
	}

	var detail map[string]string
	if err := json.Unmarshal(got.Detail, &detail); err != nil {
		t.Fatalf("detail is not valid JSON: %v", err)
	}
	if detail["status"] != "COMPLETED" {
		t.Errorf("detail: got %v", detail)
	}
}

func TestRecordNilDetail(t *testing.T) {
	var got database.CreateAuditLogParams
	store := &mockStore{
		createFn: func(_ context.Context, arg database.CreateAuditLogParams) (database.AuditLog, error) {
			got = arg
			return database.AuditLog{}, nil
		},
	}
	NewRecorder(store).Record(uuid.New(), "DELETE", "expense", uuid.New(), nil)

	if string(got.Detail) != "{}" {
		t.Errorf("nil detail: got %s, want {}", got.Detail)
	}
}

func TestRecordNilEntityID(t *testing.T) {
	var got database.CreateAuditLogParams
	store := &mockStore{
		createFn: func(_ context.Context, arg database.CreateAuditLogParams) (database.AuditLog, error) {
			got = arg
			return database.AuditLog{}, nil
		},
	}
	NewRecorder(store).Record(uuid.New(), "EXPORT", "report", uuid.Nil, nil)

	if got.EntityID.Valid {
		t.Errorf("expected null entity ID, got %v", got.EntityID)
	}
}

func TestRecordStoreFailureIsSwallowed(t *testing.T) {
	store := &mockStore{
		createFn: func(context.Context, database.CreateAuditLogParams) (database.AuditLog, error) {
			return database.AuditLog{}, errors.New("connection refused")
		},
	}

	// Must not panic; the caller never sees audit failures.
	NewRecorder(store).Record(uuid.New(), "CREATE", "order", uuid.New(), nil)
}
