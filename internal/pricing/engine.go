package pricing

import (
	"github.com/google/uuid"

	"github.com/noah-isme/backend-pustaka/internal/money"
)

// Line describes an order line used for totals calculation. UnitPrice is the
// effective price already resolved for the checkout instant.
type Line struct {
	BookID    uuid.UUID
	AuthorID  uuid.UUID
	Qty       int
	UnitPrice money.Money
}

// Summary aggregates computed order totals. Clamped is set when the raw
// total would have gone negative and was forced to zero; callers must treat
// that as an invariant breach and log it.
type Summary struct {
	Subtotal money.Money
	Discount money.Money
	Tax      money.Money
	Total    money.Money
	Clamped  bool
}

// Compute calculates order totals from resolved lines, a promo discount, and
// an externally computed tax amount. The discount never exceeds the subtotal
// and the total never goes below zero.
func Compute(lines []Line, discount, tax money.Money) (Summary, error) {
	currency := discount.Currency()
	subtotal := money.Zero(currency)
	for _, ln := range lines {
		if ln.Qty <= 0 {
			continue
		}
		lineTotal := ln.UnitPrice.MulInt(int64(ln.Qty))
		var err error
		subtotal, err = subtotal.Add(lineTotal)
		if err != nil {
			return Summary{}, err
		}
	}

	discount = money.Min(discount, subtotal)

	total, err := subtotal.Sub(discount)
	if err != nil {
		return Summary{}, err
	}
	total, err = total.Add(tax)
	if err != nil {
		return Summary{}, err
	}

	clamped := total.IsNegative()
	if clamped {
		total = total.ClampZero()
	}

	return Summary{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Total:    total,
		Clamped:  clamped,
	}, nil
}
