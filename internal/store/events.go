package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertDomainEvent = `
INSERT INTO domain_events (topic, payload) VALUES ($1, $2) RETURNING id
`

// InsertDomainEvent appends an event to the durable log and returns its id.
func (q *Queries) InsertDomainEvent(ctx context.Context, topic string, payload []byte) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, insertDomainEvent, topic, payload).Scan(&id)
	return id, err
}

const listDomainEvents = `
SELECT id, topic, payload, created_at
FROM domain_events
WHERE ($1::text = '' OR topic = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

// ListDomainEvents returns a page of the event log, optionally scoped to one
// topic.
func (q *Queries) ListDomainEvents(ctx context.Context, topic string, limit, offset int32) ([]DomainEvent, error) {
	rows, err := q.db.Query(ctx, listDomainEvents, topic, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DomainEvent
	for rows.Next() {
		var e DomainEvent
		if err := rows.Scan(&e.ID, &e.Topic, &e.Payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const insertNotification = `
INSERT INTO notifications (user_id, kind, title, body)
VALUES ($1, $2, $3, $4)
RETURNING id, user_id, kind, title, body, read_at, created_at
`

// InsertNotificationParams carries the arguments for a per-user notification.
type InsertNotificationParams struct {
	UserID pgtype.UUID
	Kind   string
	Title  string
	Body   string
}

// InsertNotification stores a notification row for a user.
func (q *Queries) InsertNotification(ctx context.Context, arg InsertNotificationParams) (Notification, error) {
	row := q.db.QueryRow(ctx, insertNotification, arg.UserID, arg.Kind, arg.Title, arg.Body)
	var n Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt)
	return n, err
}

const listNotificationsByUser = `
SELECT id, user_id, kind, title, body, read_at, created_at
FROM notifications
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

// ListNotificationsByUser returns a page of the user's notifications.
func (q *Queries) ListNotificationsByUser(ctx context.Context, userID pgtype.UUID, limit, offset int32) ([]Notification, error) {
	rows, err := q.db.Query(ctx, listNotificationsByUser, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body,
			&n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

const markNotificationRead = `
UPDATE notifications SET read_at = now() WHERE id = $1 AND user_id = $2 AND read_at IS NULL
`

// MarkNotificationRead stamps a notification as read for its owner.
func (q *Queries) MarkNotificationRead(ctx context.Context, id, userID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, markNotificationRead, id, userID)
	return err
}
