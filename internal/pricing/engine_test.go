package pricing

import (
	"testing"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-pustaka/internal/money"
)

func line(t *testing.T, price string, qty int) Line {
	t.Helper()
	return Line{BookID: uuid.New(), AuthorID: uuid.New(), Qty: qty, UnitPrice: mustMoney(t, price)}
}

func TestComputeWorkedExample(t *testing.T) {
	// {10.00 x2, 5.00 x1}, 10% promo, tax 1.00 => 25.00 / 2.50 / 23.50
	lines := []Line{line(t, "10.00", 2), line(t, "5.00", 1)}
	subtotal := mustMoney(t, "25.00")
	discount := subtotal.Percent(1000)
	tax := mustMoney(t, "1.00")

	sum, err := Compute(lines, discount, tax)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if sum.Subtotal.Cmp(subtotal) != 0 {
		t.Errorf("subtotal = %s, want 25.00", sum.Subtotal)
	}
	if sum.Discount.Cmp(mustMoney(t, "2.50")) != 0 {
		t.Errorf("discount = %s, want 2.50", sum.Discount)
	}
	if sum.Total.Cmp(mustMoney(t, "23.50")) != 0 {
		t.Errorf("total = %s, want 23.50", sum.Total)
	}
	if sum.Clamped {
		t.Error("clamped = true, want false")
	}
}

func TestComputeDiscountClampedToSubtotal(t *testing.T) {
	lines := []Line{line(t, "3.00", 1)}
	discount := mustMoney(t, "10.00")
	sum, err := Compute(lines, discount, money.Zero("USD"))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if sum.Discount.Cmp(mustMoney(t, "3.00")) != 0 {
		t.Errorf("discount = %s, want 3.00", sum.Discount)
	}
	if !sum.Total.IsZero() {
		t.Errorf("total = %s, want 0.00", sum.Total)
	}
}

func TestComputeSkipsNonPositiveQty(t *testing.T) {
	lines := []Line{line(t, "4.00", 0), line(t, "4.00", -2), line(t, "4.00", 3)}
	sum, err := Compute(lines, money.Zero("USD"), money.Zero("USD"))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if sum.Subtotal.Cmp(mustMoney(t, "12.00")) != 0 {
		t.Errorf("subtotal = %s, want 12.00", sum.Subtotal)
	}
}

func TestComputeCurrencyMismatch(t *testing.T) {
	eur, err := money.FromDecimalString("5.00", "EUR")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	lines := []Line{{BookID: uuid.New(), Qty: 1, UnitPrice: eur}}
	if _, err := Compute(lines, money.Zero("USD"), money.Zero("USD")); err == nil {
		t.Fatal("expected currency mismatch error")
	}
}
