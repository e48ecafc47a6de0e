package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const bookColumns = `id, author_id, category_id, title, slug, description, currency,
       price_minor, is_free, discount_minor, discount_start, discount_end,
       royalty_rate_bps, published, published_at, cover_url, file_key,
       created_at, updated_at`

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.AuthorID, &b.CategoryID, &b.Title, &b.Slug,
		&b.Description, &b.Currency, &b.PriceMinor, &b.IsFree,
		&b.DiscountMinor, &b.DiscountStart, &b.DiscountEnd,
		&b.RoyaltyRateBps, &b.Published, &b.PublishedAt,
		&b.CoverURL, &b.FileKey, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

const getBook = `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

// GetBook fetches a book by id regardless of publication state.
func (q *Queries) GetBook(ctx context.Context, id pgtype.UUID) (Book, error) {
	return scanBook(q.db.QueryRow(ctx, getBook, id))
}

const getBookBySlug = `SELECT ` + bookColumns + ` FROM books WHERE slug = $1 AND published`

// GetBookBySlug fetches a published book by slug.
func (q *Queries) GetBookBySlug(ctx context.Context, slug string) (Book, error) {
	return scanBook(q.db.QueryRow(ctx, getBookBySlug, slug))
}

const listBooks = `
SELECT ` + bookColumns + `
FROM books
WHERE published
  AND ($1::uuid IS NULL OR author_id = $1)
  AND ($2::uuid IS NULL OR category_id = $2)
  AND ($3::text = '' OR title ILIKE '%' || $3 || '%')
ORDER BY
  CASE WHEN $4 = 'title' THEN title END ASC,
  CASE WHEN $4 = 'price' THEN price_minor END ASC,
  created_at DESC
LIMIT $5 OFFSET $6
`

// ListBooksParams carries the filter arguments for the public catalog listing.
type ListBooksParams struct {
	AuthorID   pgtype.UUID
	CategoryID pgtype.UUID
	Search     string
	Sort       string
	Limit      int32
	Offset     int32
}

// ListBooks returns a page of the published catalog.
func (q *Queries) ListBooks(ctx context.Context, arg ListBooksParams) ([]Book, error) {
	rows, err := q.db.Query(ctx, listBooks, arg.AuthorID, arg.CategoryID,
		arg.Search, arg.Sort, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

const countBooks = `
SELECT count(*)
FROM books
WHERE published
  AND ($1::uuid IS NULL OR author_id = $1)
  AND ($2::uuid IS NULL OR category_id = $2)
  AND ($3::text = '' OR title ILIKE '%' || $3 || '%')
`

// CountBooks returns the total rows matching the catalog filters.
func (q *Queries) CountBooks(ctx context.Context, arg ListBooksParams) (int64, error) {
	var n int64
	row := q.db.QueryRow(ctx, countBooks, arg.AuthorID, arg.CategoryID, arg.Search)
	err := row.Scan(&n)
	return n, err
}

const updateBookPricing = `
UPDATE books
SET price_minor = $2, is_free = $3, discount_minor = $4, discount_start = $5,
    discount_end = $6, updated_at = now()
WHERE id = $1
RETURNING ` + bookColumns + `
`

// UpdateBookPricingParams carries the price and discount fields for a book.
type UpdateBookPricingParams struct {
	ID            pgtype.UUID
	PriceMinor    int64
	IsFree        bool
	DiscountMinor pgtype.Int8
	DiscountStart pgtype.Timestamptz
	DiscountEnd   pgtype.Timestamptz
}

// UpdateBookPricing rewrites the pricing fields of a book.
func (q *Queries) UpdateBookPricing(ctx context.Context, arg UpdateBookPricingParams) (Book, error) {
	return scanBook(q.db.QueryRow(ctx, updateBookPricing, arg.ID, arg.PriceMinor,
		arg.IsFree, arg.DiscountMinor, arg.DiscountStart, arg.DiscountEnd))
}

const getAuthor = `
SELECT id, user_id, name, slug, bio, royalty_rate_bps, created_at, updated_at
FROM authors
WHERE id = $1
`

// GetAuthor fetches an author by id.
func (q *Queries) GetAuthor(ctx context.Context, id pgtype.UUID) (Author, error) {
	row := q.db.QueryRow(ctx, getAuthor, id)
	var a Author
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Slug, &a.Bio,
		&a.RoyaltyRateBps, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

const getAuthorByUser = `
SELECT id, user_id, name, slug, bio, royalty_rate_bps, created_at, updated_at
FROM authors
WHERE user_id = $1
`

// GetAuthorByUser fetches the author profile owned by a user account.
func (q *Queries) GetAuthorByUser(ctx context.Context, userID pgtype.UUID) (Author, error) {
	row := q.db.QueryRow(ctx, getAuthorByUser, userID)
	var a Author
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Slug, &a.Bio,
		&a.RoyaltyRateBps, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

const listCategories = `SELECT id, name, slug FROM categories ORDER BY name`

// ListCategories returns all categories.
func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
