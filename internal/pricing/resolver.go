package pricing

import (
	"time"

	"github.com/noah-isme/backend-pustaka/internal/money"
)

// BookPrice carries the pricing attributes of a book as stored in the
// catalog. Discount fields are only honored when all three are set.
type BookPrice struct {
	Base          money.Money
	IsFree        bool
	Discount      *money.Money
	DiscountStart *time.Time
	DiscountEnd   *time.Time
}

// EffectivePrice resolves the unit price for a book at the given instant.
// Free books are always zero. The discount applies only when the amount and
// both window bounds are present and start <= at <= end; a partially
// configured discount falls back to the base price.
func EffectivePrice(bp BookPrice, at time.Time) money.Money {
	if bp.IsFree {
		return money.Zero(bp.Base.Currency())
	}
	if bp.Discount == nil || bp.DiscountStart == nil || bp.DiscountEnd == nil {
		return bp.Base
	}
	if at.Before(*bp.DiscountStart) || at.After(*bp.DiscountEnd) {
		return bp.Base
	}
	return *bp.Discount
}

// DiscountActive reports whether the discount window covers the instant.
// It mirrors EffectivePrice's window rules without resolving the price.
func DiscountActive(bp BookPrice, at time.Time) bool {
	if bp.IsFree || bp.Discount == nil || bp.DiscountStart == nil || bp.DiscountEnd == nil {
		return false
	}
	return !at.Before(*bp.DiscountStart) && !at.After(*bp.DiscountEnd)
}
