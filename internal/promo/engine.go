package promo

import (
	"fmt"
	"time"

	"github.com/noah-isme/backend-pustaka/internal/money"
)

// Kind enumerates the supported promo code discount kinds.
const (
	KindPercent = "percentage"
	KindFixed   = "fixed"
)

// Reason identifies why a promo code was rejected.
type Reason string

const (
	ReasonInactive     Reason = "inactive"
	ReasonOutOfWindow  Reason = "out_of_window"
	ReasonExhausted    Reason = "exhausted"
	ReasonBelowMinimum Reason = "below_minimum"
)

// RejectedError is the recoverable business error for an inapplicable promo
// code. Callers surface Reason to the client and may retry without the code.
type RejectedError struct {
	Code   string
	Reason Reason
}

// Error implements the error interface.
func (e *RejectedError) Error() string {
	return fmt.Sprintf("promo %q rejected: %s", e.Code, e.Reason)
}

// Rule captures the runtime constraints of a promo code. Percentage promos
// store their rate in basis points (10000 = 100%); fixed promos store the
// discount in minor units of MinOrder's currency.
type Rule struct {
	Code        string
	Kind        string
	AmountMinor int64
	PercentBps  int32
	MinOrder    money.Money
	MaxUses     int32
	CurrentUses int32
	Active      bool
	ValidFrom   *time.Time
	ValidTo     *time.Time
}

// Redeemable checks every applicability condition and reports the first
// failure. The check order is fixed: inactive, window, exhaustion, minimum.
func (r Rule) Redeemable(now time.Time, subtotal money.Money) error {
	if !r.Active {
		return &RejectedError{Code: r.Code, Reason: ReasonInactive}
	}
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return &RejectedError{Code: r.Code, Reason: ReasonOutOfWindow}
	}
	if r.ValidTo != nil && now.After(*r.ValidTo) {
		return &RejectedError{Code: r.Code, Reason: ReasonOutOfWindow}
	}
	if r.MaxUses > 0 && r.CurrentUses >= r.MaxUses {
		return &RejectedError{Code: r.Code, Reason: ReasonExhausted}
	}
	if subtotal.Cmp(r.MinOrder) < 0 {
		return &RejectedError{Code: r.Code, Reason: ReasonBelowMinimum}
	}
	return nil
}

// Discount computes the discount amount for the given subtotal. Percentage
// promos round half-up; fixed promos never exceed the subtotal.
func (r Rule) Discount(subtotal money.Money) money.Money {
	switch r.Kind {
	case KindPercent:
		if r.PercentBps <= 0 {
			return money.Zero(subtotal.Currency())
		}
		return subtotal.Percent(int64(r.PercentBps))
	case KindFixed:
		if r.AmountMinor <= 0 {
			return money.Zero(subtotal.Currency())
		}
		fixed := money.New(r.AmountMinor, subtotal.Currency())
		return money.Min(fixed, subtotal)
	default:
		return money.Zero(subtotal.Currency())
	}
}
