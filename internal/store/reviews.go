package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const upsertReview = `
INSERT INTO reviews (book_id, user_id, rating, body)
VALUES ($1, $2, $3, $4)
ON CONFLICT (book_id, user_id)
DO UPDATE SET rating = EXCLUDED.rating, body = EXCLUDED.body, updated_at = now()
RETURNING id, book_id, user_id, rating, body, created_at, updated_at
`

// UpsertReviewParams carries the arguments for creating or replacing a review.
type UpsertReviewParams struct {
	BookID pgtype.UUID
	UserID pgtype.UUID
	Rating int32
	Body   string
}

// UpsertReview writes the user's single review for a book.
func (q *Queries) UpsertReview(ctx context.Context, arg UpsertReviewParams) (Review, error) {
	row := q.db.QueryRow(ctx, upsertReview, arg.BookID, arg.UserID, arg.Rating, arg.Body)
	var r Review
	err := row.Scan(&r.ID, &r.BookID, &r.UserID, &r.Rating, &r.Body, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

const listReviewsByBook = `
SELECT id, book_id, user_id, rating, body, created_at, updated_at
FROM reviews
WHERE book_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

// ListReviewsByBook returns a page of a book's reviews, newest first.
func (q *Queries) ListReviewsByBook(ctx context.Context, bookID pgtype.UUID, limit, offset int32) ([]Review, error) {
	rows, err := q.db.Query(ctx, listReviewsByBook, bookID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Review
	for rows.Next() {
		var r Review
		if err := rows.Scan(&r.ID, &r.BookID, &r.UserID, &r.Rating, &r.Body,
			&r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const getReviewStats = `
SELECT count(*), COALESCE(avg(rating), 0)
FROM reviews
WHERE book_id = $1
`

// GetReviewStats returns the review count and mean rating for a book.
func (q *Queries) GetReviewStats(ctx context.Context, bookID pgtype.UUID) (int64, float64, error) {
	var count int64
	var avg float64
	err := q.db.QueryRow(ctx, getReviewStats, bookID).Scan(&count, &avg)
	return count, avg, err
}
