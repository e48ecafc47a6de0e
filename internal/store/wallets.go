package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getWalletByAuthor = `
SELECT id, author_id, balance_minor, pending_minor, currency, updated_at
FROM wallets
WHERE author_id = $1
`

// GetWalletByAuthor fetches an author's wallet.
func (q *Queries) GetWalletByAuthor(ctx context.Context, authorID pgtype.UUID) (Wallet, error) {
	row := q.db.QueryRow(ctx, getWalletByAuthor, authorID)
	var w Wallet
	err := row.Scan(&w.ID, &w.AuthorID, &w.BalanceMinor, &w.PendingMinor,
		&w.Currency, &w.UpdatedAt)
	return w, err
}

const creditWalletPending = `
INSERT INTO wallets (author_id, pending_minor, currency)
VALUES ($1, $2, $3)
ON CONFLICT (author_id)
DO UPDATE SET pending_minor = wallets.pending_minor + EXCLUDED.pending_minor,
              updated_at = now()
`

// CreditWalletPending adds earned royalties to the author's pending balance,
// creating the wallet on first credit.
func (q *Queries) CreditWalletPending(ctx context.Context, authorID pgtype.UUID, amountMinor int64, currency string) error {
	_, err := q.db.Exec(ctx, creditWalletPending, authorID, amountMinor, currency)
	return err
}

const releaseWalletPending = `
UPDATE wallets
SET pending_minor = pending_minor - $2,
    balance_minor = balance_minor + $2,
    updated_at = now()
WHERE author_id = $1 AND pending_minor >= $2
`

// ReleaseWalletPending moves cleared funds from pending into the available
// balance. False means the pending balance did not cover the amount.
func (q *Queries) ReleaseWalletPending(ctx context.Context, authorID pgtype.UUID, amountMinor int64) (bool, error) {
	tag, err := q.db.Exec(ctx, releaseWalletPending, authorID, amountMinor)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
