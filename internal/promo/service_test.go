package promo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-pustaka/internal/store"
)

// fakePromoStore mimics the guarded counter update with a mutex so the
// concurrency semantics of RedeemPromo can be exercised in-process.
type fakePromoStore struct {
	mu          sync.Mutex
	promo       store.PromoCode
	redemptions map[uuid.UUID]store.PromoRedemption
}

func newFakePromoStore(p store.PromoCode) *fakePromoStore {
	return &fakePromoStore{promo: p, redemptions: map[uuid.UUID]store.PromoRedemption{}}
}

func (f *fakePromoStore) GetPromoByCode(_ context.Context, code string) (store.PromoCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.promo.Code != code {
		return store.PromoCode{}, pgx.ErrNoRows
	}
	return f.promo, nil
}

func (f *fakePromoStore) RedeemPromo(_ context.Context, id pgtype.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.promo.ID != id || !f.promo.IsActive {
		return false, nil
	}
	if f.promo.MaxUses > 0 && f.promo.CurrentUses >= f.promo.MaxUses {
		return false, nil
	}
	f.promo.CurrentUses++
	return true, nil
}

func (f *fakePromoStore) GetRedemptionByOrder(_ context.Context, orderID pgtype.UUID) (store.PromoRedemption, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.redemptions[store.FromUUID(orderID)]
	if !ok {
		return store.PromoRedemption{}, pgx.ErrNoRows
	}
	return r, nil
}

func (f *fakePromoStore) InsertRedemption(_ context.Context, arg store.InsertRedemptionParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := store.FromUUID(arg.OrderID)
	if _, ok := f.redemptions[key]; ok {
		return errors.New("duplicate redemption")
	}
	f.redemptions[key] = store.PromoRedemption{
		PromoID: arg.PromoID, OrderID: arg.OrderID, UserID: arg.UserID,
		AmountMinor: arg.AmountMinor,
	}
	return nil
}

func testPromo(maxUses, currentUses int32) store.PromoCode {
	return store.PromoCode{
		ID:          store.UUID(uuid.New()),
		Code:        "LASTONE",
		Kind:        KindFixed,
		AmountMinor: 500,
		MaxUses:     maxUses,
		CurrentUses: currentUses,
		IsActive:    true,
	}
}

func fixedNow() time.Time {
	return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestPreviewUnknownCode(t *testing.T) {
	svc := &Service{Q: newFakePromoStore(testPromo(10, 0)), Now: fixedNow}
	if _, err := svc.Preview(context.Background(), "NOPE", usd(2500)); !errors.Is(err, ErrUnknownCode) {
		t.Fatalf("expected ErrUnknownCode, got %v", err)
	}
}

func TestPreviewDoesNotConsumeUses(t *testing.T) {
	fs := newFakePromoStore(testPromo(10, 3))
	svc := &Service{Q: fs, Now: fixedNow}
	res, err := svc.Preview(context.Background(), "LASTONE", usd(2500))
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if res.Discount.MinorUnits() != 500 {
		t.Fatalf("discount = %d, want 500", res.Discount.MinorUnits())
	}
	if fs.promo.CurrentUses != 3 {
		t.Fatalf("current uses = %d, want 3", fs.promo.CurrentUses)
	}
}

func TestSettleIdempotentPerOrder(t *testing.T) {
	fs := newFakePromoStore(testPromo(10, 0))
	svc := &Service{Q: fs, Now: fixedNow}
	orderID := store.UUID(uuid.New())
	userID := store.UUID(uuid.New())

	for i := 0; i < 3; i++ {
		if err := svc.Settle(context.Background(), "LASTONE", orderID, userID, usd(2500)); err != nil {
			t.Fatalf("settle %d: %v", i, err)
		}
	}
	if fs.promo.CurrentUses != 1 {
		t.Fatalf("current uses = %d, want 1", fs.promo.CurrentUses)
	}
	if len(fs.redemptions) != 1 {
		t.Fatalf("redemptions = %d, want 1", len(fs.redemptions))
	}
}

func TestSettleConcurrentLastUse(t *testing.T) {
	fs := newFakePromoStore(testPromo(1, 0))
	svc := &Service{Q: fs, Now: fixedNow}
	userID := store.UUID(uuid.New())

	results := make(chan error, 2)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < 2; i++ {
		go func() {
			start.Wait()
			results <- svc.Settle(context.Background(), "LASTONE", store.UUID(uuid.New()), userID, usd(2500))
		}()
	}
	start.Done()

	var wins, exhausted int
	for i := 0; i < 2; i++ {
		err := <-results
		if err == nil {
			wins++
			continue
		}
		var rejected *RejectedError
		if errors.As(err, &rejected) && rejected.Reason == ReasonExhausted {
			exhausted++
			continue
		}
		t.Fatalf("unexpected error: %v", err)
	}
	if wins != 1 || exhausted != 1 {
		t.Fatalf("wins = %d, exhausted = %d; want exactly one of each", wins, exhausted)
	}
	if fs.promo.CurrentUses != 1 {
		t.Fatalf("current uses = %d, want 1", fs.promo.CurrentUses)
	}
}
