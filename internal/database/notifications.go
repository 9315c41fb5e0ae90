package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createNotification = `-- name: CreateNotification :one
INSERT INTO notifications (type, title, message, entity_id, severity)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, type, title, message, entity_id, severity, read, created_at
`

type CreateNotificationParams struct {
	Type     string
	Title    string
	Message  string
	EntityID pgtype.UUID
	Severity string
}

func (q *Queries) CreateNotification(ctx context.Context, arg CreateNotificationParams) (Notification, error) {
	row := q.db.QueryRow(ctx, createNotification,
		arg.Type,
		arg.Title,
		arg.Message,
		arg.EntityID,
		arg.Severity,
	)
	var i Notification
	err := row.Scan(
		&i.ID,
		&i.Type,
		&i.Title,
		&i.Message,
		&i.EntityID,
		&i.Severity,
		&i.Read,
		&i.CreatedAt,
	)
	return i, err
}

const listNotifications = `-- name: ListNotifications :many
SELECT id, type, title, message, entity_id, severity, read, created_at
FROM notifications
WHERE ($1::bool IS FALSE OR NOT read)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

type ListNotificationsParams struct {
	UnreadOnly bool
	Limit      int32
	Offset     int32
}

func (q *Queries) ListNotifications(ctx context.Context, arg ListNotificationsParams) ([]Notification, error) {
	rows, err := q.db.Query(ctx, listNotifications, arg.UnreadOnly, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Notification
	for rows.Next() {
		var i Notification
		if err := rows.Scan(
			&i.ID,
			&i.Type,
			&i.Title,
			&i.Message,
			&i.EntityID,
			&i.Severity,
			&i.Read,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const markNotificationRead = `-- name: MarkNotificationRead :one
UPDATE notifications
SET read = TRUE
WHERE id = $1
RETURNING id, type, title, message, entity_id, severity, read, created_at
`

func (q *Queries) MarkNotificationRead(ctx context.Context, id uuid.UUID) (Notification, error) {
	row := q.db.QueryRow(ctx, markNotificationRead, id)
	var i Notification
	err := row.Scan(
		&i.ID,
		&i.Type,
		&i.Title,
		&i.Message,
		&i.EntityID,
		&i.Severity,
		&i.Read,
		&i.CreatedAt,
	)
	return i, err
}
