package pricing

import (
	"testing"
	"time"

	"github.com/noah-isme/backend-pustaka/internal/money"
)

func mustMoney(t *testing.T, s string) money.Money {
	t.Helper()
	m, err := money.FromDecimalString(s, "USD")
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return m
}

func TestEffectivePriceFreeBook(t *testing.T) {
	base := mustMoney(t, "9.99")
	bp := BookPrice{Base: base, IsFree: true}
	if got := EffectivePrice(bp, time.Now()); !got.IsZero() {
		t.Fatalf("free book price = %s, want 0.00", got)
	}
}

func TestEffectivePriceDiscountWindow(t *testing.T) {
	base := mustMoney(t, "10.00")
	disc := mustMoney(t, "7.50")
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
	bp := BookPrice{Base: base, Discount: &disc, DiscountStart: &start, DiscountEnd: &end}

	cases := []struct {
		name string
		at   time.Time
		want money.Money
	}{
		{"before window", start.Add(-time.Second), base},
		{"at start", start, disc},
		{"inside", start.AddDate(0, 0, 10), disc},
		{"at end", end, disc},
		{"after window", end.Add(time.Second), base},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EffectivePrice(bp, tc.at); got.Cmp(tc.want) != 0 {
				t.Fatalf("EffectivePrice = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestEffectivePricePartialDiscountIgnored(t *testing.T) {
	base := mustMoney(t, "12.00")
	disc := mustMoney(t, "6.00")
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	at := start.AddDate(0, 1, 0)

	cases := []struct {
		name string
		bp   BookPrice
	}{
		{"amount only", BookPrice{Base: base, Discount: &disc}},
		{"missing end", BookPrice{Base: base, Discount: &disc, DiscountStart: &start}},
		{"missing amount", BookPrice{Base: base, DiscountStart: &start, DiscountEnd: &at}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EffectivePrice(tc.bp, at); got.Cmp(base) != 0 {
				t.Fatalf("EffectivePrice = %s, want base %s", got, base)
			}
			if DiscountActive(tc.bp, at) {
				t.Fatal("DiscountActive = true for partial config")
			}
		})
	}
}
