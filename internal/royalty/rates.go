package royalty

import (
	"context"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-pustaka/internal/store"
)

// StoreRates resolves rates from the catalog: a book-level override wins,
// then the author-level rate, then the platform default.
type StoreRates struct {
	Q *store.Queries
}

// RateFor implements RateProvider.
func (s StoreRates) RateFor(ctx context.Context, authorID, bookID uuid.UUID) (int32, error) {
	book, err := s.Q.GetBook(ctx, store.UUID(bookID))
	if err != nil {
		return 0, err
	}
	if book.RoyaltyRateBps.Valid && book.RoyaltyRateBps.Int32 > 0 {
		return book.RoyaltyRateBps.Int32, nil
	}
	author, err := s.Q.GetAuthor(ctx, store.UUID(authorID))
	if err != nil {
		return 0, err
	}
	if author.RoyaltyRateBps.Valid && author.RoyaltyRateBps.Int32 > 0 {
		return author.RoyaltyRateBps.Int32, nil
	}
	return DefaultRateBps, nil
}
