package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-pustaka/internal/money"
	"github.com/noah-isme/backend-pustaka/internal/pricing"
	"github.com/noah-isme/backend-pustaka/internal/promo"
	"github.com/noah-isme/backend-pustaka/internal/store"
)

func TestFlatRateTax(t *testing.T) {
	calc := FlatRate{Bps: 400}
	taxable := money.New(2250, "USD")
	tax, err := calc.Tax(context.Background(), taxable, "US-CA")
	if err != nil {
		t.Fatalf("Tax: %v", err)
	}
	if tax.MinorUnits() != 90 {
		t.Fatalf("tax = %d, want 90", tax.MinorUnits())
	}

	zero := FlatRate{}
	tax, err = zero.Tax(context.Background(), taxable, "")
	if err != nil || !tax.IsZero() {
		t.Fatalf("zero-rate tax = %v, %v", tax, err)
	}
}

// End-to-end totals: {10.00 x2, 5.00 x1} with a 10% promo (min 20.00) and a
// fixed 1.00 tax must come out at 23.50.
func TestCheckoutTotalsWorkedExample(t *testing.T) {
	lines := []pricing.Line{
		{BookID: uuid.New(), AuthorID: uuid.New(), Qty: 2, UnitPrice: money.New(1000, "USD")},
		{BookID: uuid.New(), AuthorID: uuid.New(), Qty: 1, UnitPrice: money.New(500, "USD")},
	}
	subtotal := money.New(2500, "USD")

	rule := promo.Rule{
		Code: "TEN", Kind: promo.KindPercent, PercentBps: 1000,
		MinOrder: money.New(2000, "USD"), Active: true,
	}
	if err := rule.Redeemable(time.Now(), subtotal); err != nil {
		t.Fatalf("Redeemable: %v", err)
	}
	discount := rule.Discount(subtotal)

	summary, err := pricing.Compute(lines, discount, money.New(100, "USD"))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if summary.Subtotal.MinorUnits() != 2500 {
		t.Errorf("subtotal = %d, want 2500", summary.Subtotal.MinorUnits())
	}
	if summary.Discount.MinorUnits() != 250 {
		t.Errorf("discount = %d, want 250", summary.Discount.MinorUnits())
	}
	if summary.Total.MinorUnits() != 2350 {
		t.Errorf("total = %d, want 2350", summary.Total.MinorUnits())
	}
}

func TestBookPriceMapping(t *testing.T) {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	b := store.Book{
		Currency:      "USD",
		PriceMinor:    1299,
		DiscountMinor: pgtype.Int8{Int64: 899, Valid: true},
		DiscountStart: store.Timestamptz(start),
		DiscountEnd:   store.Timestamptz(end),
	}
	bp := bookPrice(b)
	got := pricing.EffectivePrice(bp, start.AddDate(0, 0, 5))
	if got.MinorUnits() != 899 {
		t.Fatalf("effective = %d, want 899", got.MinorUnits())
	}
	got = pricing.EffectivePrice(bp, end.AddDate(0, 0, 1))
	if got.MinorUnits() != 1299 {
		t.Fatalf("effective = %d, want 1299", got.MinorUnits())
	}

	free := store.Book{Currency: "USD", PriceMinor: 1299, IsFree: true}
	if got := pricing.EffectivePrice(bookPrice(free), time.Now()); !got.IsZero() {
		t.Fatalf("free book effective = %d, want 0", got.MinorUnits())
	}
}

func TestPromoCodeSelection(t *testing.T) {
	saved := "SAVED10"
	override := " OVERRIDE "
	cartRow := store.Cart{PromoCode: pgtype.Text{String: saved, Valid: true}}

	if got := promoCode(cartRow, nil); got != saved {
		t.Fatalf("promoCode = %q, want %q", got, saved)
	}
	if got := promoCode(cartRow, &override); got != "OVERRIDE" {
		t.Fatalf("promoCode = %q, want OVERRIDE", got)
	}
	empty := ""
	if got := promoCode(cartRow, &empty); got != "" {
		t.Fatalf("promoCode = %q, want empty (explicit removal)", got)
	}
}
