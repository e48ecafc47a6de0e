package royalty

import (
	"context"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-pustaka/internal/money"
)

// DefaultRateBps is the platform-wide author share applied when neither the
// book nor the author carries an override: 70%.
const DefaultRateBps int32 = 7000

// RateProvider resolves the royalty rate in basis points for a sold book.
type RateProvider interface {
	RateFor(ctx context.Context, authorID, bookID uuid.UUID) (int32, error)
}

// StaticRate always answers with one rate. Used as the fallback provider and
// in tests.
type StaticRate int32

// RateFor implements RateProvider.
func (s StaticRate) RateFor(context.Context, uuid.UUID, uuid.UUID) (int32, error) {
	return int32(s), nil
}

// Item is one sold order line entering royalty computation. The royalty base
// is the list price, not the discounted sale price.
type Item struct {
	OrderItemID uuid.UUID
	OrderID     uuid.UUID
	BookID      uuid.UUID
	AuthorID    uuid.UUID
	Qty         int32
	ListPrice   money.Money
}

// Entry is one computed royalty amount.
type Entry struct {
	Item
	RateBps int32
	Amount  money.Money
}

// Compute derives the royalty entries for the given items. Per item the
// amount is list price x quantity x rate, rounded half-up to a cent.
func Compute(ctx context.Context, items []Item, rates RateProvider) ([]Entry, error) {
	if rates == nil {
		rates = StaticRate(DefaultRateBps)
	}
	out := make([]Entry, 0, len(items))
	for _, it := range items {
		rate, err := rates.RateFor(ctx, it.AuthorID, it.BookID)
		if err != nil {
			return nil, err
		}
		if rate <= 0 {
			rate = DefaultRateBps
		}
		gross := it.ListPrice.MulInt(int64(it.Qty))
		out = append(out, Entry{
			Item:    it,
			RateBps: rate,
			Amount:  gross.Percent(int64(rate)),
		})
	}
	return out, nil
}
