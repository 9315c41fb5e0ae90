package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createAuditLog = `-- name: CreateAuditLog :one
INSERT INTO audit_logs (user_id, action, entity, entity_id, detail)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, action, entity, entity_id, detail, created_at
`

type CreateAuditLogParams struct {
	UserID   uuid.UUID
	Action   string
	Entity   string
	EntityID pgtype.UUID
	Detail   []byte
}

func (q *Queries) CreateAuditLog(ctx context.Context, arg CreateAuditLogParams) (AuditLog, error) {
	row := q.db.QueryRow(ctx, createAuditLog,
		arg.UserID,
		arg.Action,
		arg.Entity,
		arg.EntityID,
		arg.Detail,
	)
	var i AuditLog
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Action,
		&i.Entity,
		&i.EntityID,
		&i.Detail,
		&i.CreatedAt,
	)
	return i, err
}

const listAuditLogs = `-- name: ListAuditLogs :many
SELECT id, user_id, action, entity, entity_id, detail, created_at
FROM audit_logs
WHERE ($1::text = '' OR entity = $1)
  AND ($2::uuid IS NULL OR entity_id = $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4
`

type ListAuditLogsParams struct {
	Entity   string
	EntityID pgtype.UUID
	Limit    int32
	Offset   int32
}

func (q *Queries) ListAuditLogs(ctx context.Context, arg ListAuditLogsParams) ([]AuditLog, error) {
	rows, err := q.db.Query(ctx, listAuditLogs, arg.Entity, arg.EntityID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AuditLog
	for rows.Next() {
		var i AuditLog
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Action,
			&i.Entity,
			&i.EntityID,
			&i.Detail,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
