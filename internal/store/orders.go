package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_number, user_id, status, currency, subtotal_minor,
       discount_minor, tax_minor, total_minor, promo_code, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.Currency,
		&o.SubtotalMinor, &o.DiscountMinor, &o.TaxMinor, &o.TotalMinor,
		&o.PromoCode, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

const getOrder = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

// GetOrder fetches an order by id.
func (q *Queries) GetOrder(ctx context.Context, id pgtype.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrder, id))
}

const getOrderForUpdate = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

// GetOrderForUpdate fetches an order with a row lock for in-transaction
// status transitions.
func (q *Queries) GetOrderForUpdate(ctx context.Context, id pgtype.UUID) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderForUpdate, id))
}

const listOrdersByUser = `
SELECT ` + orderColumns + `
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

// ListOrdersByUser returns a page of the user's orders, newest first.
func (q *Queries) ListOrdersByUser(ctx context.Context, userID pgtype.UUID, limit, offset int32) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrdersByUser, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

const countOrdersByUser = `SELECT count(*) FROM orders WHERE user_id = $1`

// CountOrdersByUser returns the user's total order count.
func (q *Queries) CountOrdersByUser(ctx context.Context, userID pgtype.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countOrdersByUser, userID).Scan(&n)
	return n, err
}

const insertOrder = `
INSERT INTO orders (order_number, user_id, status, currency, subtotal_minor,
                    discount_minor, tax_minor, total_minor, promo_code)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + orderColumns + `
`

// InsertOrderParams carries the insert arguments for a new order.
type InsertOrderParams struct {
	OrderNumber   string
	UserID        pgtype.UUID
	Status        string
	Currency      string
	SubtotalMinor int64
	DiscountMinor int64
	TaxMinor      int64
	TotalMinor    int64
	PromoCode     pgtype.Text
}

// InsertOrder creates an order and returns the stored row.
func (q *Queries) InsertOrder(ctx context.Context, arg InsertOrderParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, insertOrder, arg.OrderNumber, arg.UserID,
		arg.Status, arg.Currency, arg.SubtotalMinor, arg.DiscountMinor,
		arg.TaxMinor, arg.TotalMinor, arg.PromoCode))
}

const updateOrderStatus = `
UPDATE orders SET status = $3, updated_at = now()
WHERE id = $1 AND status = $2
`

// UpdateOrderStatus moves an order from one status to another. The current
// status is part of the predicate so concurrent writers cannot double-apply
// a transition; false means the order was not in the expected status.
func (q *Queries) UpdateOrderStatus(ctx context.Context, id pgtype.UUID, from, to string) (bool, error) {
	tag, err := q.db.Exec(ctx, updateOrderStatus, id, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

const insertOrderItem = `
INSERT INTO order_items (order_id, book_id, author_id, title, qty,
                         unit_price_minor, list_price_minor, currency)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, order_id, book_id, author_id, title, qty, unit_price_minor,
          list_price_minor, currency, created_at
`

// InsertOrderItemParams carries the snapshot arguments for one order line.
type InsertOrderItemParams struct {
	OrderID        pgtype.UUID
	BookID         pgtype.UUID
	AuthorID       pgtype.UUID
	Title          string
	Qty            int32
	UnitPriceMinor int64
	ListPriceMinor int64
	Currency       string
}

// InsertOrderItem stores one immutable order line.
func (q *Queries) InsertOrderItem(ctx context.Context, arg InsertOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, insertOrderItem, arg.OrderID, arg.BookID, arg.AuthorID,
		arg.Title, arg.Qty, arg.UnitPriceMinor, arg.ListPriceMinor, arg.Currency)
	var it OrderItem
	err := row.Scan(&it.ID, &it.OrderID, &it.BookID, &it.AuthorID, &it.Title,
		&it.Qty, &it.UnitPriceMinor, &it.ListPriceMinor, &it.Currency, &it.CreatedAt)
	return it, err
}

const listOrderItems = `
SELECT id, order_id, book_id, author_id, title, qty, unit_price_minor,
       list_price_minor, currency, created_at
FROM order_items
WHERE order_id = $1
ORDER BY created_at
`

// ListOrderItems returns the lines of an order.
func (q *Queries) ListOrderItems(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItems, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.BookID, &it.AuthorID,
			&it.Title, &it.Qty, &it.UnitPriceMinor, &it.ListPriceMinor,
			&it.Currency, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
