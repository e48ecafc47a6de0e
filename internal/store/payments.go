package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const paymentColumns = `id, order_id, provider, provider_ref, status, amount_minor,
       currency, created_at, updated_at`

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.Provider, &p.ProviderRef, &p.Status,
		&p.AmountMinor, &p.Currency, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const getPendingPaymentByOrder = `
SELECT ` + paymentColumns + `
FROM payments
WHERE order_id = $1 AND status = 'pending'
ORDER BY created_at DESC
LIMIT 1
`

// GetPendingPaymentByOrder fetches the newest pending intent for an order.
func (q *Queries) GetPendingPaymentByOrder(ctx context.Context, orderID pgtype.UUID) (Payment, error) {
	return scanPayment(q.db.QueryRow(ctx, getPendingPaymentByOrder, orderID))
}

const getPaymentByProviderRef = `
SELECT ` + paymentColumns + `
FROM payments
WHERE provider = $1 AND provider_ref = $2
`

// GetPaymentByProviderRef fetches a payment by the provider's own reference.
func (q *Queries) GetPaymentByProviderRef(ctx context.Context, provider, ref string) (Payment, error) {
	return scanPayment(q.db.QueryRow(ctx, getPaymentByProviderRef, provider, ref))
}

const insertPayment = `
INSERT INTO payments (order_id, provider, provider_ref, status, amount_minor, currency)
VALUES ($1, $2, $3, 'pending', $4, $5)
RETURNING ` + paymentColumns + `
`

// InsertPaymentParams carries the insert arguments for a payment intent.
type InsertPaymentParams struct {
	OrderID     pgtype.UUID
	Provider    string
	ProviderRef string
	AmountMinor int64
	Currency    string
}

// InsertPayment records a freshly created payment intent.
func (q *Queries) InsertPayment(ctx context.Context, arg InsertPaymentParams) (Payment, error) {
	return scanPayment(q.db.QueryRow(ctx, insertPayment, arg.OrderID, arg.Provider,
		arg.ProviderRef, arg.AmountMinor, arg.Currency))
}

const updatePaymentStatus = `
UPDATE payments SET status = $2, updated_at = now() WHERE id = $1
`

// UpdatePaymentStatus moves a payment to a terminal or intermediate status.
func (q *Queries) UpdatePaymentStatus(ctx context.Context, id pgtype.UUID, status string) error {
	_, err := q.db.Exec(ctx, updatePaymentStatus, id, status)
	return err
}

const insertPaymentEvent = `
INSERT INTO payment_events (provider, event_id, signature_hash, kind, payload)
VALUES ($1, $2, $3, $4, $5)
`

// InsertPaymentEventParams carries the audit arguments for a webhook delivery.
type InsertPaymentEventParams struct {
	Provider      string
	EventID       string
	SignatureHash string
	Kind          string
	Payload       []byte
}

// InsertPaymentEvent stores the raw webhook event for audit. The unique
// (provider, event_id) constraint backs replay detection at the DB level.
func (q *Queries) InsertPaymentEvent(ctx context.Context, arg InsertPaymentEventParams) error {
	_, err := q.db.Exec(ctx, insertPaymentEvent, arg.Provider, arg.EventID,
		arg.SignatureHash, arg.Kind, arg.Payload)
	return err
}
