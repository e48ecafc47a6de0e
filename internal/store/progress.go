package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const upsertProgress = `
INSERT INTO reading_progress (user_id, book_id, percent, location)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, book_id)
DO UPDATE SET percent = EXCLUDED.percent, location = EXCLUDED.location, updated_at = now()
RETURNING id, user_id, book_id, percent, location, updated_at
`

// UpsertProgressParams carries the arguments for recording reading position.
type UpsertProgressParams struct {
	UserID   pgtype.UUID
	BookID   pgtype.UUID
	Percent  int32
	Location string
}

// UpsertProgress writes the user's reading position for a book.
func (q *Queries) UpsertProgress(ctx context.Context, arg UpsertProgressParams) (ReadingProgress, error) {
	row := q.db.QueryRow(ctx, upsertProgress, arg.UserID, arg.BookID, arg.Percent, arg.Location)
	var p ReadingProgress
	err := row.Scan(&p.ID, &p.UserID, &p.BookID, &p.Percent, &p.Location, &p.UpdatedAt)
	return p, err
}

const getProgress = `
SELECT id, user_id, book_id, percent, location, updated_at
FROM reading_progress
WHERE user_id = $1 AND book_id = $2
`

// GetProgress fetches the user's reading position for a book.
func (q *Queries) GetProgress(ctx context.Context, userID, bookID pgtype.UUID) (ReadingProgress, error) {
	row := q.db.QueryRow(ctx, getProgress, userID, bookID)
	var p ReadingProgress
	err := row.Scan(&p.ID, &p.UserID, &p.BookID, &p.Percent, &p.Location, &p.UpdatedAt)
	return p, err
}
