package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const cartColumns = `id, user_id, anon_token, promo_code, expires_at, created_at, updated_at`

func scanCart(row pgx.Row) (Cart, error) {
	var c Cart
	err := row.Scan(&c.ID, &c.UserID, &c.AnonToken, &c.PromoCode,
		&c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

const getCartByUser = `SELECT ` + cartColumns + ` FROM carts WHERE user_id = $1`

// GetCartByUser fetches the cart owned by a user account.
func (q *Queries) GetCartByUser(ctx context.Context, userID pgtype.UUID) (Cart, error) {
	return scanCart(q.db.QueryRow(ctx, getCartByUser, userID))
}

const getCartByToken = `SELECT ` + cartColumns + ` FROM carts WHERE anon_token = $1`

// GetCartByToken fetches an anonymous cart by its opaque token.
func (q *Queries) GetCartByToken(ctx context.Context, token string) (Cart, error) {
	return scanCart(q.db.QueryRow(ctx, getCartByToken, token))
}

const insertCart = `
INSERT INTO carts (user_id, anon_token, expires_at)
VALUES ($1, $2, $3)
RETURNING ` + cartColumns + `
`

// InsertCartParams carries the ownership arguments for a new cart.
type InsertCartParams struct {
	UserID    pgtype.UUID
	AnonToken pgtype.Text
	ExpiresAt pgtype.Timestamptz
}

// InsertCart creates a cart for a user or an anonymous session.
func (q *Queries) InsertCart(ctx context.Context, arg InsertCartParams) (Cart, error) {
	return scanCart(q.db.QueryRow(ctx, insertCart, arg.UserID, arg.AnonToken, arg.ExpiresAt))
}

const touchCart = `
UPDATE carts SET expires_at = $2, updated_at = now() WHERE id = $1
`

// TouchCart extends a cart's expiry on activity.
func (q *Queries) TouchCart(ctx context.Context, id pgtype.UUID, expiresAt pgtype.Timestamptz) error {
	_, err := q.db.Exec(ctx, touchCart, id, expiresAt)
	return err
}

const setCartPromo = `
UPDATE carts SET promo_code = $2, updated_at = now() WHERE id = $1
`

// SetCartPromo attaches or clears the promo code previewed on a cart.
func (q *Queries) SetCartPromo(ctx context.Context, id pgtype.UUID, code pgtype.Text) error {
	_, err := q.db.Exec(ctx, setCartPromo, id, code)
	return err
}

const deleteCart = `DELETE FROM carts WHERE id = $1`

// DeleteCart removes a cart and cascades to its items.
func (q *Queries) DeleteCart(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteCart, id)
	return err
}

const listCartItems = `
SELECT id, cart_id, book_id, qty, unit_price_minor, currency, created_at
FROM cart_items
WHERE cart_id = $1
ORDER BY created_at
`

// ListCartItems returns the items of a cart in insertion order.
func (q *Queries) ListCartItems(ctx context.Context, cartID pgtype.UUID) ([]CartItem, error) {
	rows, err := q.db.Query(ctx, listCartItems, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CartItem
	for rows.Next() {
		var it CartItem
		if err := rows.Scan(&it.ID, &it.CartID, &it.BookID, &it.Qty,
			&it.UnitPriceMinor, &it.Currency, &it.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

const upsertCartItem = `
INSERT INTO cart_items (cart_id, book_id, qty, unit_price_minor, currency)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (cart_id, book_id)
DO UPDATE SET qty = cart_items.qty + EXCLUDED.qty
RETURNING id, cart_id, book_id, qty, unit_price_minor, currency, created_at
`

// UpsertCartItemParams carries the arguments for adding a book to a cart.
type UpsertCartItemParams struct {
	CartID         pgtype.UUID
	BookID         pgtype.UUID
	Qty            int32
	UnitPriceMinor int64
	Currency       string
}

// UpsertCartItem adds a book to the cart, accumulating quantity on repeat adds.
func (q *Queries) UpsertCartItem(ctx context.Context, arg UpsertCartItemParams) (CartItem, error) {
	row := q.db.QueryRow(ctx, upsertCartItem, arg.CartID, arg.BookID, arg.Qty,
		arg.UnitPriceMinor, arg.Currency)
	var it CartItem
	err := row.Scan(&it.ID, &it.CartID, &it.BookID, &it.Qty,
		&it.UnitPriceMinor, &it.Currency, &it.CreatedAt)
	return it, err
}

const setCartItemQty = `
UPDATE cart_items SET qty = $3 WHERE cart_id = $1 AND book_id = $2
`

// SetCartItemQty replaces the quantity of a cart line.
func (q *Queries) SetCartItemQty(ctx context.Context, cartID, bookID pgtype.UUID, qty int32) (bool, error) {
	tag, err := q.db.Exec(ctx, setCartItemQty, cartID, bookID, qty)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

const deleteCartItem = `
DELETE FROM cart_items WHERE cart_id = $1 AND book_id = $2
`

// DeleteCartItem removes a book from the cart.
func (q *Queries) DeleteCartItem(ctx context.Context, cartID, bookID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, deleteCartItem, cartID, bookID)
	return err
}

const clearCartItems = `DELETE FROM cart_items WHERE cart_id = $1`

// ClearCartItems removes every line from the cart.
func (q *Queries) ClearCartItems(ctx context.Context, cartID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, clearCartItems, cartID)
	return err
}

const mergeCartItems = `
INSERT INTO cart_items (cart_id, book_id, qty, unit_price_minor, currency)
SELECT $2, book_id, qty, unit_price_minor, currency
FROM cart_items
WHERE cart_id = $1
ON CONFLICT (cart_id, book_id)
DO UPDATE SET qty = cart_items.qty + EXCLUDED.qty
`

// MergeCartItems folds every line of the source cart into the target cart.
func (q *Queries) MergeCartItems(ctx context.Context, fromCartID, toCartID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, mergeCartItems, fromCartID, toCartID)
	return err
}
