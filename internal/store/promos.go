package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getPromoByCode = `
SELECT id, code, kind, amount_minor, percent_bps, min_order_minor, max_uses,
       current_uses, is_active, valid_from, valid_to, created_at, updated_at
FROM promo_codes
WHERE code = $1
`

// GetPromoByCode fetches a promo code by its exact code.
func (q *Queries) GetPromoByCode(ctx context.Context, code string) (PromoCode, error) {
	row := q.db.QueryRow(ctx, getPromoByCode, code)
	var p PromoCode
	err := row.Scan(&p.ID, &p.Code, &p.Kind, &p.AmountMinor, &p.PercentBps,
		&p.MinOrderMinor, &p.MaxUses, &p.CurrentUses, &p.IsActive,
		&p.ValidFrom, &p.ValidTo, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const insertPromo = `
INSERT INTO promo_codes (code, kind, amount_minor, percent_bps, min_order_minor,
                         max_uses, is_active, valid_from, valid_to)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, code, kind, amount_minor, percent_bps, min_order_minor, max_uses,
          current_uses, is_active, valid_from, valid_to, created_at, updated_at
`

// InsertPromoParams carries the insert arguments for a new promo code.
type InsertPromoParams struct {
	Code          string
	Kind          string
	AmountMinor   int64
	PercentBps    int32
	MinOrderMinor int64
	MaxUses       int32
	IsActive      bool
	ValidFrom     pgtype.Timestamptz
	ValidTo       pgtype.Timestamptz
}

// InsertPromo creates a promo code and returns the stored row.
func (q *Queries) InsertPromo(ctx context.Context, arg InsertPromoParams) (PromoCode, error) {
	row := q.db.QueryRow(ctx, insertPromo, arg.Code, arg.Kind, arg.AmountMinor,
		arg.PercentBps, arg.MinOrderMinor, arg.MaxUses, arg.IsActive,
		arg.ValidFrom, arg.ValidTo)
	var p PromoCode
	err := row.Scan(&p.ID, &p.Code, &p.Kind, &p.AmountMinor, &p.PercentBps,
		&p.MinOrderMinor, &p.MaxUses, &p.CurrentUses, &p.IsActive,
		&p.ValidFrom, &p.ValidTo, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const updatePromo = `
UPDATE promo_codes
SET kind = $2, amount_minor = $3, percent_bps = $4, min_order_minor = $5,
    max_uses = $6, is_active = $7, valid_from = $8, valid_to = $9,
    updated_at = now()
WHERE id = $1
RETURNING id, code, kind, amount_minor, percent_bps, min_order_minor, max_uses,
          current_uses, is_active, valid_from, valid_to, created_at, updated_at
`

// UpdatePromoParams carries the update arguments for an existing promo code.
type UpdatePromoParams struct {
	ID            pgtype.UUID
	Kind          string
	AmountMinor   int64
	PercentBps    int32
	MinOrderMinor int64
	MaxUses       int32
	IsActive      bool
	ValidFrom     pgtype.Timestamptz
	ValidTo       pgtype.Timestamptz
}

// UpdatePromo rewrites the mutable fields of a promo code.
func (q *Queries) UpdatePromo(ctx context.Context, arg UpdatePromoParams) (PromoCode, error) {
	row := q.db.QueryRow(ctx, updatePromo, arg.ID, arg.Kind, arg.AmountMinor,
		arg.PercentBps, arg.MinOrderMinor, arg.MaxUses, arg.IsActive,
		arg.ValidFrom, arg.ValidTo)
	var p PromoCode
	err := row.Scan(&p.ID, &p.Code, &p.Kind, &p.AmountMinor, &p.PercentBps,
		&p.MinOrderMinor, &p.MaxUses, &p.CurrentUses, &p.IsActive,
		&p.ValidFrom, &p.ValidTo, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

const redeemPromo = `
UPDATE promo_codes
SET current_uses = current_uses + 1, updated_at = now()
WHERE id = $1
  AND is_active
  AND (max_uses = 0 OR current_uses < max_uses)
`

// RedeemPromo atomically consumes one use of the promo code. It reports false
// when the code is inactive or the quota is already exhausted.
func (q *Queries) RedeemPromo(ctx context.Context, id pgtype.UUID) (bool, error) {
	tag, err := q.db.Exec(ctx, redeemPromo, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

const getRedemptionByOrder = `
SELECT id, promo_id, order_id, user_id, amount_minor, created_at
FROM promo_redemptions
WHERE order_id = $1
`

// GetRedemptionByOrder fetches the redemption recorded for an order, if any.
func (q *Queries) GetRedemptionByOrder(ctx context.Context, orderID pgtype.UUID) (PromoRedemption, error) {
	row := q.db.QueryRow(ctx, getRedemptionByOrder, orderID)
	var r PromoRedemption
	err := row.Scan(&r.ID, &r.PromoID, &r.OrderID, &r.UserID, &r.AmountMinor, &r.CreatedAt)
	return r, err
}

const insertRedemption = `
INSERT INTO promo_redemptions (promo_id, order_id, user_id, amount_minor)
VALUES ($1, $2, $3, $4)
`

// InsertRedemptionParams carries the insert arguments for a redemption row.
type InsertRedemptionParams struct {
	PromoID     pgtype.UUID
	OrderID     pgtype.UUID
	UserID      pgtype.UUID
	AmountMinor int64
}

// InsertRedemption records the promo usage for an order.
func (q *Queries) InsertRedemption(ctx context.Context, arg InsertRedemptionParams) error {
	_, err := q.db.Exec(ctx, insertRedemption, arg.PromoID, arg.OrderID, arg.UserID, arg.AmountMinor)
	return err
}
