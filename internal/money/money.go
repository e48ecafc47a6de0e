// Package money implements fixed-point currency arithmetic in integer minor
// units. All rounding is half-up to two decimal places and happens exactly
// once per operation; values of different currencies never combine.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrCurrencyMismatch is returned when two values of different currencies
// are combined.
var ErrCurrencyMismatch = errors.New("money: currency mismatch")

// ErrInvalidAmount indicates a decimal string that cannot be represented in
// minor units.
var ErrInvalidAmount = errors.New("money: invalid amount")

// DefaultCurrency is used when the caller supplies an empty currency code.
const DefaultCurrency = "USD"

// Money is an immutable amount of a single currency held in minor units
// (cents for two-decimal currencies).
type Money struct {
	amount   int64
	currency string
}

// New builds a Money from minor units and a 3-letter currency code.
func New(minor int64, currency string) Money {
	return Money{amount: minor, currency: normalizeCurrency(currency)}
}

// Zero returns the zero value for the given currency.
func Zero(currency string) Money {
	return New(0, currency)
}

// FromDecimalString parses a decimal amount like "12.34" into minor units.
// More than two fractional digits is rejected rather than silently rounded.
func FromDecimalString(value, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, value)
	}
	if d.Exponent() < -2 {
		return Money{}, fmt.Errorf("%w: %q has more than two decimal places", ErrInvalidAmount, value)
	}
	return New(d.Shift(2).IntPart(), currency), nil
}

// MinorUnits returns the raw amount in minor units.
func (m Money) MinorUnits() int64 { return m.amount }

// Currency returns the 3-letter currency code.
func (m Money) Currency() string {
	if m.currency == "" {
		return DefaultCurrency
	}
	return m.currency
}

// Decimal returns the amount as an exact decimal with two fractional digits.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.amount, -2)
}

// String renders the amount as a plain decimal string, e.g. "12.34".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// IsZero reports whether the amount equals zero.
func (m Money) IsZero() bool { return m.amount == 0 }

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.amount < 0 }

// Add returns m + other.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return New(m.amount+other.amount, m.Currency()), nil
}

// Sub returns m - other.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return New(m.amount-other.amount, m.Currency()), nil
}

// MulInt returns m multiplied by an integer quantity.
func (m Money) MulInt(qty int64) Money {
	return New(m.amount*qty, m.Currency())
}

// Percent returns the given fraction of m expressed in basis points
// (7000 bps = 70%), rounded half-up to the nearest minor unit.
func (m Money) Percent(bps int64) Money {
	return New(roundHalfUpDiv(m.amount*bps, 10_000), m.Currency())
}

// Cmp compares two amounts: -1 if m < other, 0 if equal, +1 if m > other.
// Comparison is by minor units; callers compare like currencies.
func (m Money) Cmp(other Money) int {
	switch {
	case m.amount < other.amount:
		return -1
	case m.amount > other.amount:
		return 1
	default:
		return 0
	}
}

// Min returns the smaller of two amounts.
func Min(a, b Money) Money {
	if a.amount <= b.amount {
		return a
	}
	return b
}

// ClampZero returns m, or zero when m is negative.
func (m Money) ClampZero() Money {
	if m.amount < 0 {
		return Zero(m.Currency())
	}
	return m
}

func (m Money) sameCurrency(other Money) error {
	if m.Currency() != other.Currency() {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency(), other.Currency())
	}
	return nil
}

// roundHalfUpDiv divides num by den rounding half-up, correct for negative
// numerators as well (−0.5 rounds away from zero).
func roundHalfUpDiv(num, den int64) int64 {
	if den <= 0 {
		return 0
	}
	if num >= 0 {
		return (num + den/2) / den
	}
	return -((-num + den/2) / den)
}

func normalizeCurrency(code string) string {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		return DefaultCurrency
	}
	return trimmed
}
