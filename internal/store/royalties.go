package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertRoyalty = `
INSERT INTO royalties (order_item_id, order_id, book_id, author_id, qty,
                       list_price_minor, rate_bps, amount_minor, currency)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

// InsertRoyaltyParams carries the insert arguments for one royalty entry.
type InsertRoyaltyParams struct {
	OrderItemID    pgtype.UUID
	OrderID        pgtype.UUID
	BookID         pgtype.UUID
	AuthorID       pgtype.UUID
	Qty            int32
	ListPriceMinor int64
	RateBps        int32
	AmountMinor    int64
	Currency       string
}

// InsertRoyalty stores one royalty entry. The unique order_item_id constraint
// makes settlement idempotent; callers treat a unique violation as already
// settled.
func (q *Queries) InsertRoyalty(ctx context.Context, arg InsertRoyaltyParams) error {
	_, err := q.db.Exec(ctx, insertRoyalty, arg.OrderItemID, arg.OrderID,
		arg.BookID, arg.AuthorID, arg.Qty, arg.ListPriceMinor, arg.RateBps,
		arg.AmountMinor, arg.Currency)
	return err
}

const listRoyaltiesByAuthor = `
SELECT id, order_item_id, order_id, book_id, author_id, qty, list_price_minor,
       rate_bps, amount_minor, currency, created_at
FROM royalties
WHERE author_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

// ListRoyaltiesByAuthor returns a page of an author's royalty entries.
func (q *Queries) ListRoyaltiesByAuthor(ctx context.Context, authorID pgtype.UUID, limit, offset int32) ([]Royalty, error) {
	rows, err := q.db.Query(ctx, listRoyaltiesByAuthor, authorID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Royalty
	for rows.Next() {
		var r Royalty
		if err := rows.Scan(&r.ID, &r.OrderItemID, &r.OrderID, &r.BookID,
			&r.AuthorID, &r.Qty, &r.ListPriceMinor, &r.RateBps,
			&r.AmountMinor, &r.Currency, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const countRoyaltiesByOrder = `SELECT count(*) FROM royalties WHERE order_id = $1`

// CountRoyaltiesByOrder returns the number of royalty entries recorded for an
// order.
func (q *Queries) CountRoyaltiesByOrder(ctx context.Context, orderID pgtype.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countRoyaltiesByOrder, orderID).Scan(&n)
	return n, err
}
