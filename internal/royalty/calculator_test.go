package royalty

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-pustaka/internal/money"
)

func item(priceMinor int64, qty int32) Item {
	return Item{
		OrderItemID: uuid.New(),
		OrderID:     uuid.New(),
		BookID:      uuid.New(),
		AuthorID:    uuid.New(),
		Qty:         qty,
		ListPrice:   money.New(priceMinor, "USD"),
	}
}

func TestComputeDefaultRate(t *testing.T) {
	// 9.99 x 3 at 70% = 20.98 (20.979 rounds up)
	entries, err := Compute(context.Background(), []Item{item(999, 3)}, nil)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].RateBps != DefaultRateBps {
		t.Errorf("rate = %d, want %d", entries[0].RateBps, DefaultRateBps)
	}
	if got := entries[0].Amount.MinorUnits(); got != 2098 {
		t.Errorf("amount = %d, want 2098", got)
	}
}

func TestComputeRateOverride(t *testing.T) {
	entries, err := Compute(context.Background(), []Item{item(1000, 2)}, StaticRate(8500))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got := entries[0].Amount.MinorUnits(); got != 1700 {
		t.Errorf("amount = %d, want 1700", got)
	}
}

func TestComputeNonPositiveRateFallsBack(t *testing.T) {
	entries, err := Compute(context.Background(), []Item{item(1000, 1)}, StaticRate(0))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if entries[0].RateBps != DefaultRateBps {
		t.Errorf("rate = %d, want default", entries[0].RateBps)
	}
}

func TestComputeHalfUpRounding(t *testing.T) {
	cases := []struct {
		priceMinor int64
		qty        int32
		rateBps    int32
		want       int64
	}{
		{999, 3, 7000, 2098}, // 20.979 -> 20.98
		{5, 1, 5000, 3},      // 0.025 -> 0.03
		{1, 1, 7000, 1},      // 0.007 -> 0.01
		{100, 1, 7000, 70},   // exact
	}
	for _, tc := range cases {
		entries, err := Compute(context.Background(), []Item{item(tc.priceMinor, tc.qty)}, StaticRate(tc.rateBps))
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		if got := entries[0].Amount.MinorUnits(); got != tc.want {
			t.Errorf("%d x %d at %d bps: amount = %d, want %d",
				tc.priceMinor, tc.qty, tc.rateBps, got, tc.want)
		}
	}
}

func TestSettleTaskPayloadRoundTrip(t *testing.T) {
	id := uuid.NewString()
	task, err := NewSettleTask(id)
	if err != nil {
		t.Fatalf("NewSettleTask: %v", err)
	}
	if task.Type() != TaskSettle {
		t.Fatalf("type = %s, want %s", task.Type(), TaskSettle)
	}
	want := `{"orderId":"` + id + `"}`
	if string(task.Payload()) != want {
		t.Fatalf("payload = %s, want %s", task.Payload(), want)
	}
}
